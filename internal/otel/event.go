// Package otel records structured events for gitexplorer.
//
// Events are typed structs serialized as JSONL lines. The Logger writes
// events asynchronously through a buffered channel drained by one goroutine.
// An optional RingBuffer keeps the latest events for the debug overlay.
package otel

import (
	"encoding/json"
	"strings"
	"time"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind identifies the category of an event.
// Dot-delimited: "<subsystem>.<action>".
type EventKind string

const (
	// Identity
	KindAuthStart   EventKind = "auth.start"
	KindAuthSignIn  EventKind = "auth.sign_in"
	KindAuthChanged EventKind = "auth.changed"
	KindAuthError   EventKind = "auth.error"

	// Live subscriptions
	KindSyncOpen     EventKind = "sync.open"
	KindSyncClose    EventKind = "sync.close"
	KindSyncSnapshot EventKind = "sync.snapshot"
	KindSyncStale    EventKind = "sync.stale"
	KindSyncError    EventKind = "sync.error"
	KindSyncPartial  EventKind = "sync.partial" // a session opened with a collection unsynced

	// Search
	KindSearchDebounce EventKind = "search.debounce"
	KindSearchStart    EventKind = "search.start"
	KindSearchComplete EventKind = "search.complete"
	KindSearchStale    EventKind = "search.stale"
	KindSearchError    EventKind = "search.error"

	// Writes
	KindBookmarkSet    EventKind = "bookmark.set"
	KindBookmarkDelete EventKind = "bookmark.delete"
	KindBookmarkError  EventKind = "bookmark.error"
	KindNoteSave       EventKind = "note.save"
	KindNoteSaved      EventKind = "note.saved"
	KindNoteError      EventKind = "note.error"

	// UI
	KindKeyPress EventKind = "ui.key"

	// System
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"

	// Trace (GITEXPLORER_TRACE)
	KindMsgReceived EventKind = "trace.msg_received"
)

// Subsystem returns the part of the kind before the first dot.
func (k EventKind) Subsystem() string {
	s := string(k)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return s[:i]
	}
	return s
}

// Event is the universal observability record. Every field except Kind and
// Time is optional. Serialized as a single JSONL line.
type Event struct {
	Time   time.Time      `json:"t"`
	Level  Level          `json:"level,omitempty"`
	Kind   EventKind      `json:"kind"`
	Comp   string         `json:"comp,omitempty"`   // component: "gateway", "ui", "search", "main"
	RunID  string         `json:"run_id,omitempty"` // random hex, same for the whole process
	UID    string         `json:"uid,omitempty"`    // signed-in user
	Gen    uint64         `json:"gen,omitempty"`    // search or subscription generation
	Repo   string         `json:"repo,omitempty"`   // repository key
	Dur    time.Duration  `json:"-"`
	DurMs  float64        `json:"dur_ms,omitempty"` // computed from Dur at marshal time
	Count  int            `json:"count,omitempty"`
	Query  string         `json:"query,omitempty"`
	Err    string         `json:"err,omitempty"`
	Msg    string         `json:"msg,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// MarshalJSON implements json.Marshaler, converting Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type alias Event
	a := alias(e)
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}
