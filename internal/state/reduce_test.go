package state

import (
	"reflect"
	"testing"

	"github.com/abelbrown/gitexplorer/internal/model"
)

func repo(id int64, name string) model.Repository {
	return model.Repository{ID: id, Name: name, FullName: "owner/" + name}
}

func signedIn(gen uint64) State {
	return Reduce(New(), SetSession{Session: &model.Session{UID: "u1"}, Gen: gen})
}

func TestNewState(t *testing.T) {
	s := New()
	if s.Filters != model.DefaultFilters() {
		t.Errorf("Filters = %+v, want defaults", s.Filters)
	}
	if s.Session != nil {
		t.Error("Session should start nil")
	}
	if s.Bookmarks == nil || s.Notes == nil {
		t.Error("mirrors should start as empty maps")
	}
}

func TestReduceIsDeterministic(t *testing.T) {
	actions := []Action{
		SetSession{Session: &model.Session{UID: "u1"}, Gen: 1},
		SetSearchResults{Repos: []model.Repository{repo(1, "a")}},
		SetBookmarks{Gen: 1, Bookmarks: model.Bookmarks{"1": repo(1, "a")}},
		SetNotes{Gen: 1, Notes: model.Notes{"1": {Content: "x"}}},
		ErrorMessage("boom"),
		SetLoading{Loading: true},
		OpenDetail{Repo: repo(1, "a")},
		UpdateDraft{Text: "draft"},
	}

	a, b := New(), New()
	for _, act := range actions {
		a = Reduce(a, act)
		b = Reduce(b, act)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("same actions produced different states:\n%+v\n%+v", a, b)
	}
}

func TestReduceDoesNotMutatePriorState(t *testing.T) {
	s0 := signedIn(1)
	s1 := Reduce(s0, SetBookmarks{Gen: 1, Bookmarks: model.Bookmarks{"1": repo(1, "a")}})
	s2 := Reduce(s1, SetBookmarks{Gen: 1, Bookmarks: model.Bookmarks{"2": repo(2, "b")}})

	if len(s0.Bookmarks) != 0 {
		t.Errorf("s0 bookmarks mutated: %v", s0.Bookmarks)
	}
	if !s1.IsBookmarked("1") || s1.IsBookmarked("2") {
		t.Errorf("s1 bookmarks mutated: %v", s1.Bookmarks)
	}
	if s2.IsBookmarked("1") || !s2.IsBookmarked("2") {
		t.Errorf("snapshot should replace, not merge: %v", s2.Bookmarks)
	}
}

func TestSnapshotIsCopied(t *testing.T) {
	s := signedIn(1)
	snap := model.Bookmarks{"1": repo(1, "a")}
	s = Reduce(s, SetBookmarks{Gen: 1, Bookmarks: snap})
	delete(snap, "1")

	if !s.IsBookmarked("1") {
		t.Error("state aliases the snapshot map")
	}
}

func TestStaleSnapshotIgnored(t *testing.T) {
	s := signedIn(2)
	s = Reduce(s, SetBookmarks{Gen: 1, Bookmarks: model.Bookmarks{"9": repo(9, "old")}})
	s = Reduce(s, SetNotes{Gen: 1, Notes: model.Notes{"9": {Content: "old"}}})

	if len(s.Bookmarks) != 0 || len(s.Notes) != 0 {
		t.Errorf("stale snapshots applied: %v %v", s.Bookmarks, s.Notes)
	}
}

func TestSetSessionClearsMirrors(t *testing.T) {
	s := signedIn(1)
	s = Reduce(s, SetBookmarks{Gen: 1, Bookmarks: model.Bookmarks{"1": repo(1, "a")}})
	s = Reduce(s, SetNotes{Gen: 1, Notes: model.Notes{"1": {Content: "n"}}})

	s = Reduce(s, SetSession{Session: &model.Session{UID: "u2"}, Gen: 2})
	if len(s.Bookmarks) != 0 || len(s.Notes) != 0 {
		t.Errorf("mirrors survived a session switch: %v %v", s.Bookmarks, s.Notes)
	}
	if s.SyncGen != 2 || s.Session.UID != "u2" {
		t.Errorf("session not replaced: gen=%d session=%+v", s.SyncGen, s.Session)
	}

	s = Reduce(s, SetSession{Session: nil, Gen: 3})
	if s.Session != nil {
		t.Error("nil session should be stored as nil")
	}
}

func TestNilSnapshotYieldsEmptyMirror(t *testing.T) {
	s := signedIn(1)
	s = Reduce(s, SetBookmarks{Gen: 1, Bookmarks: nil})
	if s.Bookmarks == nil {
		t.Error("Bookmarks should be an empty map, not nil")
	}
}

func TestUpdateFiltersPartial(t *testing.T) {
	s := New()
	q := "rust cli"
	s = Reduce(s, UpdateFilters{Patch: FilterPatch{Query: &q}})

	want := model.DefaultFilters()
	want.Query = "rust cli"
	if s.Filters != want {
		t.Errorf("Filters = %+v, want %+v", s.Filters, want)
	}

	sort := model.SortForks
	view := model.ViewBookmarks
	lang := "go"
	s = Reduce(s, UpdateFilters{Patch: FilterPatch{Sort: &sort, View: &view, Language: &lang}})
	if s.Filters.Query != "rust cli" || s.Filters.Sort != model.SortForks ||
		s.Filters.View != model.ViewBookmarks || s.Filters.Language != "go" {
		t.Errorf("Filters = %+v", s.Filters)
	}
}

func TestErrorSlotIsSingle(t *testing.T) {
	s := New()
	s = Reduce(s, ErrorMessage("first"))
	s = Reduce(s, ErrorMessage("second"))
	if s.ErrorText() != "second" {
		t.Errorf("ErrorText() = %q, want second", s.ErrorText())
	}
	s = Reduce(s, ClearError())
	if s.UI.Error != nil {
		t.Error("ClearError should empty the slot")
	}
}

func TestOpenDetailSeedsDraft(t *testing.T) {
	s := signedIn(1)
	s = Reduce(s, SetNotes{Gen: 1, Notes: model.Notes{"1": {Content: "saved note"}}})

	s = Reduce(s, OpenDetail{Repo: repo(1, "a")})
	if s.UI.DraftNote != "saved note" {
		t.Errorf("DraftNote = %q, want saved note", s.UI.DraftNote)
	}
	if !s.UI.ModalOpen || s.UI.Selected == nil || s.UI.Selected.ID != 1 {
		t.Errorf("detail not open: %+v", s.UI)
	}

	s = Reduce(s, UpdateDraft{Text: "unsaved edit"})
	s = Reduce(s, CloseDetail{})
	if s.UI.DraftNote != "" || s.UI.Selected != nil || s.UI.ModalOpen {
		t.Errorf("CloseDetail left state behind: %+v", s.UI)
	}

	s = Reduce(s, OpenDetail{Repo: repo(2, "b")})
	if s.UI.DraftNote != "" {
		t.Errorf("draft leaked into another repository: %q", s.UI.DraftNote)
	}

	s = Reduce(s, CloseDetail{})
	s = Reduce(s, OpenDetail{Repo: repo(1, "a")})
	if s.UI.DraftNote != "saved note" {
		t.Errorf("reopen should reseed from the persisted note, got %q", s.UI.DraftNote)
	}
}

func TestUpdateDraftLeavesNotes(t *testing.T) {
	s := signedIn(1)
	s = Reduce(s, SetNotes{Gen: 1, Notes: model.Notes{"1": {Content: "saved"}}})
	s = Reduce(s, OpenDetail{Repo: repo(1, "a")})
	s = Reduce(s, UpdateDraft{Text: "changed"})

	if s.NoteFor("1") != "saved" {
		t.Errorf("persisted note changed by draft edit: %q", s.NoteFor("1"))
	}
}

func TestFlags(t *testing.T) {
	s := New()
	s = Reduce(s, SetLoading{Loading: true})
	s = Reduce(s, SetSyncing{Syncing: true})
	if !s.UI.Loading || !s.UI.Syncing {
		t.Errorf("flags not set: %+v", s.UI)
	}
	s = Reduce(s, SetLoading{})
	s = Reduce(s, SetSyncing{})
	if s.UI.Loading || s.UI.Syncing {
		t.Errorf("flags not cleared: %+v", s.UI)
	}
}

func TestDisplayed(t *testing.T) {
	s := signedIn(1)
	s = Reduce(s, SetSearchResults{Repos: []model.Repository{repo(3, "c"), repo(1, "a")}})
	s = Reduce(s, SetBookmarks{Gen: 1, Bookmarks: model.Bookmarks{
		"2": repo(2, "zeta"),
		"5": repo(5, "alpha"),
	}})

	got := s.Displayed()
	if len(got) != 2 || got[0].ID != 3 || got[1].ID != 1 {
		t.Errorf("discover view should show results in order, got %v", got)
	}

	view := model.ViewBookmarks
	s = Reduce(s, UpdateFilters{Patch: FilterPatch{View: &view}})
	got = s.Displayed()
	if len(got) != 2 || got[0].Name != "alpha" || got[1].Name != "zeta" {
		t.Errorf("bookmarks view should be ordered by full name, got %v", got)
	}
}

func TestToggleParity(t *testing.T) {
	// Simulates toggles confirmed by snapshots: each toggle flips membership.
	s := signedIn(1)
	r := repo(42, "answer")
	for n := 1; n <= 6; n++ {
		next := model.Bookmarks{}
		for k, v := range s.Bookmarks {
			next[k] = v
		}
		if s.IsBookmarked(r.Key()) {
			delete(next, r.Key())
		} else {
			next[r.Key()] = r
		}
		s = Reduce(s, SetBookmarks{Gen: 1, Bookmarks: next})

		if want := n%2 == 1; s.IsBookmarked("42") != want {
			t.Errorf("after %d toggles IsBookmarked = %v, want %v", n, !want, want)
		}
	}
}
