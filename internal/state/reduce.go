package state

import (
	"maps"
	"slices"

	"github.com/abelbrown/gitexplorer/internal/model"
)

// Reduce applies a to s and returns the next state. It is pure.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case SetSession:
		s.Session = a.Session
		s.SyncGen = a.Gen
		s.Bookmarks = model.Bookmarks{}
		s.Notes = model.Notes{}

	case SetSearchResults:
		s.Repos = slices.Clone(a.Repos)

	case SetBookmarks:
		if a.Gen != s.SyncGen {
			return s
		}
		s.Bookmarks = maps.Clone(a.Bookmarks)
		if s.Bookmarks == nil {
			s.Bookmarks = model.Bookmarks{}
		}

	case SetNotes:
		if a.Gen != s.SyncGen {
			return s
		}
		s.Notes = maps.Clone(a.Notes)
		if s.Notes == nil {
			s.Notes = model.Notes{}
		}

	case UpdateFilters:
		s.Filters = applyPatch(s.Filters, a.Patch)

	case SetLoading:
		s.UI.Loading = a.Loading

	case SetSyncing:
		s.UI.Syncing = a.Syncing

	case SetError:
		if a.Message == nil {
			s.UI.Error = nil
		} else {
			msg := *a.Message
			s.UI.Error = &msg
		}

	case OpenDetail:
		repo := a.Repo
		s.UI.Selected = &repo
		s.UI.ModalOpen = true
		s.UI.DraftNote = s.Notes[repo.Key()].Content

	case CloseDetail:
		s.UI.Selected = nil
		s.UI.ModalOpen = false
		s.UI.DraftNote = ""

	case UpdateDraft:
		s.UI.DraftNote = a.Text
	}
	return s
}

func applyPatch(f model.Filters, p FilterPatch) model.Filters {
	if p.Query != nil {
		f.Query = *p.Query
	}
	if p.Sort != nil {
		f.Sort = *p.Sort
	}
	if p.Language != nil {
		f.Language = *p.Language
	}
	if p.View != nil {
		f.View = *p.View
	}
	return f
}
