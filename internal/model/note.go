package model

import "time"

// NoteTimeFormat is the ISO-8601 layout used for Note.UpdatedAt.
const NoteTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Note is a free-text annotation on a repository. It is always written whole.
type Note struct {
	Content   string `json:"content"`
	UpdatedAt string `json:"updatedAt"`
}

// NewNote stamps content with t in UTC.
func NewNote(content string, t time.Time) Note {
	return Note{Content: content, UpdatedAt: t.UTC().Format(NoteTimeFormat)}
}

// Updated parses UpdatedAt. A malformed timestamp yields the zero time.
func (n Note) Updated() time.Time {
	t, err := time.Parse(time.RFC3339Nano, n.UpdatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Notes is the local mirror of the note collection, keyed by Repository.Key.
type Notes map[string]Note
