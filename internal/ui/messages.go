// Package ui provides the Bubble Tea TUI for gitexplorer.
package ui

import "github.com/abelbrown/gitexplorer/internal/model"

// SessionChanged is sent when the signed-in identity changes. Gen is the
// sync generation of the subscriptions opened for Session.
type SessionChanged struct {
	Session *model.Session
	Gen     uint64
}

// BookmarksSnapshot carries a full replacement of the bookmark collection.
type BookmarksSnapshot struct {
	Gen       uint64
	Bookmarks model.Bookmarks
}

// NotesSnapshot carries a full replacement of the note collection.
type NotesSnapshot struct {
	Gen   uint64
	Notes model.Notes
}

// AuthFailed is sent once when startup sign-in fails.
type AuthFailed struct {
	Err error
}

// SearchDue is sent by the debounce timer when the filters have been quiet
// long enough. Gen identifies the arming that produced it.
type SearchDue struct {
	Gen uint64
}

// SearchCompleted is sent when a search request finishes.
type SearchCompleted struct {
	Gen   uint64
	Repos []model.Repository
	Err   error
}

// BookmarkWritten is sent when a bookmark write or delete was accepted.
type BookmarkWritten struct {
	Key     string
	Deleted bool
}

// BookmarkWriteFailed is sent when a bookmark write or delete failed.
type BookmarkWriteFailed struct {
	Key string
	Err error
}

// NoteSaved is sent when the note write for save generation Gen succeeded.
type NoteSaved struct {
	Gen uint64
}

// NoteSaveFailed is sent when the note write for save generation Gen failed.
type NoteSaveFailed struct {
	Gen uint64
	Err error
}

// SyncGraceElapsed is sent when the post-save hold for Gen is over.
type SyncGraceElapsed struct {
	Gen uint64
}
