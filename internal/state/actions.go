package state

import "github.com/abelbrown/gitexplorer/internal/model"

// Action is a state transition. The set is closed: only this package
// defines actions.
type Action interface {
	isAction()
}

// SetSession replaces the session and starts a new sync generation.
// Both mirrors are cleared; the new session's snapshots refill them.
type SetSession struct {
	Session *model.Session
	Gen     uint64
}

// SetSearchResults replaces the result list.
type SetSearchResults struct {
	Repos []model.Repository
}

// SetBookmarks replaces the bookmark mirror with a full snapshot.
type SetBookmarks struct {
	Gen       uint64
	Bookmarks model.Bookmarks
}

// SetNotes replaces the note mirror with a full snapshot.
type SetNotes struct {
	Gen   uint64
	Notes model.Notes
}

// FilterPatch carries the filter fields to change. Nil fields are kept.
type FilterPatch struct {
	Query    *string
	Sort     *model.SortKey
	Language *string
	View     *model.View
}

// UpdateFilters merges a FilterPatch into the filters.
type UpdateFilters struct {
	Patch FilterPatch
}

// SetLoading sets the search-in-flight flag.
type SetLoading struct {
	Loading bool
}

// SetSyncing sets the note-save indicator.
type SetSyncing struct {
	Syncing bool
}

// SetError sets or, with a nil Message, clears the error slot.
type SetError struct {
	Message *string
}

// OpenDetail selects a repository and opens the detail view with the
// repository's saved note as the draft.
type OpenDetail struct {
	Repo model.Repository
}

// CloseDetail closes the detail view and discards the draft.
type CloseDetail struct{}

// UpdateDraft replaces the note draft.
type UpdateDraft struct {
	Text string
}

func (SetSession) isAction()       {}
func (SetSearchResults) isAction() {}
func (SetBookmarks) isAction()     {}
func (SetNotes) isAction()         {}
func (UpdateFilters) isAction()    {}
func (SetLoading) isAction()       {}
func (SetSyncing) isAction()       {}
func (SetError) isAction()         {}
func (OpenDetail) isAction()       {}
func (CloseDetail) isAction()      {}
func (UpdateDraft) isAction()      {}

// ErrorMessage is a convenience for building a SetError.
func ErrorMessage(msg string) SetError {
	return SetError{Message: &msg}
}

// ClearError is the SetError that empties the error slot.
func ClearError() SetError {
	return SetError{}
}
