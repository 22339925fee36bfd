// Package state holds the application state and the pure reducer that
// evolves it.
//
// Reduce never mutates the State it is given: maps and slices reachable from
// an earlier State are left untouched, so a caller holding an old State sees
// exactly what it saw before.
package state

import "github.com/abelbrown/gitexplorer/internal/model"

// UI is transient presentation state.
type UI struct {
	Loading   bool
	Error     *string
	Selected  *model.Repository
	ModalOpen bool
	DraftNote string
	Syncing   bool
}

// State is the single source of truth rendered by the presentation layer.
type State struct {
	Session *model.Session

	// SyncGen is the generation of the live subscriptions the mirrors come from.
	// Snapshots carrying any other generation belong to a previous session.
	SyncGen uint64

	Repos     []model.Repository
	Bookmarks model.Bookmarks
	Notes     model.Notes
	Filters   model.Filters
	UI        UI
}

// New returns the initial state: nobody signed in, empty mirrors, default filters.
func New() State {
	return State{
		Bookmarks: model.Bookmarks{},
		Notes:     model.Notes{},
		Filters:   model.DefaultFilters(),
	}
}

// Displayed returns the repositories the list shows: the bookmarked
// repositories in the bookmarks view, the search results otherwise.
func (s State) Displayed() []model.Repository {
	if s.Filters.View == model.ViewBookmarks {
		return s.Bookmarks.Ordered()
	}
	return s.Repos
}

// IsBookmarked reports whether the repository with key is bookmarked.
func (s State) IsBookmarked(key string) bool {
	return s.Bookmarks.Has(key)
}

// NoteFor returns the saved note content for key, or "".
func (s State) NoteFor(key string) string {
	return s.Notes[key].Content
}

// ErrorText returns the current error message, or "".
func (s State) ErrorText() string {
	if s.UI.Error == nil {
		return ""
	}
	return *s.UI.Error
}
