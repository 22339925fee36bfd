package model

import "time"

// Session is the signed-in identity. A nil *Session means nobody is signed in.
type Session struct {
	UID        string
	Anonymous  bool
	Token      string // bearer credential presented to remote stores; empty for anonymous
	SignedInAt time.Time
}

// SameUser reports whether a and b identify the same user. Two nil sessions match.
func SameUser(a, b *Session) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.UID == b.UID
}
