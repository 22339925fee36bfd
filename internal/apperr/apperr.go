// Package apperr defines the error taxonomy surfaced to the user.
//
// Every failure that reaches the UI error slot carries a Code and a
// user-facing message. Causes are kept for logs and errors.Is/As.
package apperr

import (
	"errors"
	"fmt"
)

// Code identifies an error condition.
type Code string

const (
	CodeAuthenticationFailure Code = "AUTHENTICATION_FAILURE"
	CodeRateLimited           Code = "RATE_LIMITED"
	CodeRetrievalFailed       Code = "RETRIEVAL_FAILED"
	CodeBookmarkWriteFailed   Code = "BOOKMARK_WRITE_FAILED"
	CodeNoteSaveFailed        Code = "NOTE_SAVE_FAILED"
	CodeConfigInvalid         Code = "CONFIG_INVALID"
	CodeNoSession             Code = "NO_SESSION"
)

// User-facing messages, one per code.
const (
	MsgAuthenticationFailure = "Authentication Matrix Failed."
	MsgRateLimited           = "API Limit Exceeded. System cooling down..."
	MsgRetrievalFailed       = "Data retrieval failed."
	MsgBookmarkWriteFailed   = "Bookmark Protocol Failed."
	MsgNoteSaveFailed        = "Note Encryption Failed."
	MsgNoSession             = "Not signed in."
)

var defaultMessages = map[Code]string{
	CodeAuthenticationFailure: MsgAuthenticationFailure,
	CodeRateLimited:           MsgRateLimited,
	CodeRetrievalFailed:       MsgRetrievalFailed,
	CodeBookmarkWriteFailed:   MsgBookmarkWriteFailed,
	CodeNoteSaveFailed:        MsgNoteSaveFailed,
	CodeNoSession:             MsgNoSession,
}

// Error is a coded error with a user-facing message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error with the code's default message.
func New(code Code) *Error {
	return &Error{Code: code, Message: defaultMessages[code]}
}

// Wrap creates an Error with the code's default message and a cause.
func Wrap(err error, code Code) *Error {
	return &Error{Code: code, Message: defaultMessages[code], Cause: err}
}

// Newf creates an Error with a custom message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Is reports whether err's chain carries code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// UserMessage returns the message to show for err. Uncoded errors fall back
// to the generic message for fallback.
func UserMessage(err error, fallback Code) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return defaultMessages[fallback]
}

// Convenience constructors for the taxonomy.

func AuthenticationFailure(cause error) *Error { return Wrap(cause, CodeAuthenticationFailure) }
func RateLimited(cause error) *Error           { return Wrap(cause, CodeRateLimited) }
func RetrievalFailed(cause error) *Error       { return Wrap(cause, CodeRetrievalFailed) }
func BookmarkWriteFailed(cause error) *Error   { return Wrap(cause, CodeBookmarkWriteFailed) }
func NoteSaveFailed(cause error) *Error        { return Wrap(cause, CodeNoteSaveFailed) }
