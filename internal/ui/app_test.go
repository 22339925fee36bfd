package ui

import (
	"bytes"
	"context"
	"errors"
	"maps"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/abelbrown/gitexplorer/internal/apperr"
	"github.com/abelbrown/gitexplorer/internal/config"
	"github.com/abelbrown/gitexplorer/internal/model"
	"github.com/abelbrown/gitexplorer/internal/otel"
	"github.com/abelbrown/gitexplorer/internal/search"
	tea "github.com/charmbracelet/bubbletea"
)

type savedNote struct {
	gen     uint64
	key     string
	content string
	at      time.Time
}

// mockCmd records every command the App issues and plays a fake remote.
type mockCmd struct {
	searches  []model.Filters
	repos     []model.Repository
	searchErr error

	remote      model.Bookmarks
	setKeys     []string
	deleteKeys  []string
	bookmarkErr error

	notes   []savedNote
	noteErr error
}

func (m *mockCmd) search(gen uint64, f model.Filters) tea.Cmd {
	m.searches = append(m.searches, f)
	return func() tea.Msg {
		return SearchCompleted{Gen: gen, Repos: m.repos, Err: m.searchErr}
	}
}

// setBookmark and deleteBookmark answer with the remote's next snapshot,
// the way the live subscription would.
func (m *mockCmd) setBookmark(sess *model.Session, repo model.Repository) tea.Cmd {
	m.setKeys = append(m.setKeys, repo.Key())
	return func() tea.Msg {
		if m.bookmarkErr != nil {
			return BookmarkWriteFailed{Key: repo.Key(), Err: apperr.BookmarkWriteFailed(m.bookmarkErr)}
		}
		if m.remote == nil {
			m.remote = model.Bookmarks{}
		}
		m.remote[repo.Key()] = repo
		return BookmarksSnapshot{Gen: 1, Bookmarks: maps.Clone(m.remote)}
	}
}

func (m *mockCmd) deleteBookmark(sess *model.Session, key string) tea.Cmd {
	m.deleteKeys = append(m.deleteKeys, key)
	return func() tea.Msg {
		if m.bookmarkErr != nil {
			return BookmarkWriteFailed{Key: key, Err: apperr.BookmarkWriteFailed(m.bookmarkErr)}
		}
		delete(m.remote, key)
		return BookmarksSnapshot{Gen: 1, Bookmarks: maps.Clone(m.remote)}
	}
}

func (m *mockCmd) saveNote(gen uint64, sess *model.Session, key, content string, at time.Time) tea.Cmd {
	m.notes = append(m.notes, savedNote{gen: gen, key: key, content: content, at: at})
	return func() tea.Msg {
		if m.noteErr != nil {
			return NoteSaveFailed{Gen: gen, Err: apperr.NoteSaveFailed(m.noteErr)}
		}
		return NoteSaved{Gen: gen}
	}
}

// recorder stands in for program.Send.
type recorder struct {
	ch chan tea.Msg
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan tea.Msg, 64)}
}

func (r *recorder) send(msg tea.Msg) {
	r.ch <- msg
}

// collect gathers everything sent within d.
func (r *recorder) collect(d time.Duration) []tea.Msg {
	var out []tea.Msg
	deadline := time.After(d)
	for {
		select {
		case msg := <-r.ch:
			out = append(out, msg)
		case <-deadline:
			return out
		}
	}
}

func newTestApp(mock *mockCmd, rec *recorder) App {
	cfg := AppConfig{
		Search:         mock.search,
		SetBookmark:    mock.setBookmark,
		DeleteBookmark: mock.deleteBookmark,
		SaveNote:       mock.saveNote,
		Debounce:       20 * time.Millisecond,
		Grace:          30 * time.Millisecond,
	}
	if rec != nil {
		cfg.Send = rec.send
	}
	return NewApp(cfg)
}

func update(app App, msg tea.Msg) (App, tea.Cmd) {
	m, cmd := app.Update(msg)
	return m.(App), cmd
}

// exec runs cmd and feeds its message back into the App.
func exec(t *testing.T, app App, cmd tea.Cmd) App {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	app, _ = update(app, cmd())
	return app
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func repo(id int64, name string) model.Repository {
	return model.Repository{ID: id, Name: name, FullName: "owner/" + name, HTMLURL: "https://github.com/owner/" + name}
}

func signedIn(app App) App {
	app, _ = update(app, SessionChanged{Session: &model.Session{UID: "u1", Anonymous: true}, Gen: 1})
	return app
}

// withResults runs one search that returns repos.
func withResults(t *testing.T, app App, mock *mockCmd, repos ...model.Repository) App {
	t.Helper()
	mock.repos = repos
	app, cmd := update(app, SearchDue{Gen: app.debounceGen})
	return exec(t, app, cmd)
}

func TestRapidFilterChangesFireOneSearch(t *testing.T) {
	mock := &mockCmd{}
	rec := newRecorder()
	app := newTestApp(mock, rec)
	app.Init()
	defer app.Close()

	// Three changes well inside the quiet interval.
	app, _ = update(app, runeKey('s'))
	app, _ = update(app, runeKey('s'))
	app, _ = update(app, runeKey('l'))

	msgs := rec.collect(150 * time.Millisecond)
	for _, msg := range msgs {
		var cmd tea.Cmd
		app, cmd = update(app, msg)
		if cmd != nil {
			app, _ = update(app, cmd())
		}
	}

	if len(mock.searches) != 1 {
		t.Fatalf("searches = %d, want 1 (messages: %v)", len(mock.searches), msgs)
	}
	got := mock.searches[0]
	if got.Sort != model.SortUpdated || got.Language != "javascript" || got.Query != "react" {
		t.Errorf("search used %+v, want the last filter state", got)
	}
}

func TestInitialSearchUsesDefaultFilters(t *testing.T) {
	mock := &mockCmd{}
	rec := newRecorder()
	app := newTestApp(mock, rec)
	app.Init()
	defer app.Close()

	msgs := rec.collect(100 * time.Millisecond)
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want one SearchDue", len(msgs))
	}
	app, cmd := update(app, msgs[0])
	if cmd == nil || len(mock.searches) != 1 {
		t.Fatal("initial SearchDue should start a search")
	}
	if mock.searches[0] != model.DefaultFilters() {
		t.Errorf("initial search = %+v, want defaults", mock.searches[0])
	}
	if !app.State().UI.Loading {
		t.Error("loading should be set while the search is in flight")
	}
}

func TestBookmarksViewNeverSearches(t *testing.T) {
	mock := &mockCmd{}
	rec := newRecorder()
	app := newTestApp(mock, rec)
	app.Init()
	defer app.Close()

	app, _ = update(app, tea.KeyMsg{Type: tea.KeyTab})
	if app.State().Filters.View != model.ViewBookmarks {
		t.Fatalf("view = %s, want bookmarks", app.State().Filters.View)
	}
	app, _ = update(app, runeKey('s'))
	app, _ = update(app, runeKey('l'))
	app, _ = update(app, runeKey('/'))

	if msgs := rec.collect(100 * time.Millisecond); len(msgs) != 0 {
		t.Errorf("bookmarks view armed a search: %v", msgs)
	}

	// A SearchDue queued before the switch is dropped as well.
	app, cmd := update(app, SearchDue{Gen: 1})
	if cmd != nil || len(mock.searches) != 0 {
		t.Error("stale SearchDue in bookmarks view should not search")
	}
	if app.State().UI.Loading {
		t.Error("loading should stay false")
	}
}

func TestSearchResultsReplaceState(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(mock, nil)

	a, b := repo(1, "react"), repo(2, "react-native")
	app = withResults(t, app, mock, a, b)

	st := app.State()
	if len(st.Repos) != 2 || st.Repos[0].ID != 1 || st.Repos[1].ID != 2 {
		t.Fatalf("repos = %+v, want [1 2] in order", st.Repos)
	}
	if st.UI.Loading {
		t.Error("loading should be false")
	}
	if st.UI.Error != nil {
		t.Errorf("error = %q, want none", st.ErrorText())
	}
}

func TestRateLimitKeepsPreviousResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := search.NewClient(config.SearchConfig{Endpoint: server.URL, Timeout: 5 * time.Second})
	mock := &mockCmd{}
	app := newTestApp(mock, nil)
	app = withResults(t, app, mock, repo(1, "react"), repo(2, "preact"))

	app.cfg.Search = func(gen uint64, f model.Filters) tea.Cmd {
		return func() tea.Msg {
			repos, err := client.Search(context.Background(), f)
			return SearchCompleted{Gen: gen, Repos: repos, Err: err}
		}
	}
	app, cmd := update(app, SearchDue{Gen: app.debounceGen})
	app = exec(t, app, cmd)

	st := app.State()
	if st.ErrorText() != apperr.MsgRateLimited {
		t.Errorf("error = %q, want %q", st.ErrorText(), apperr.MsgRateLimited)
	}
	if st.UI.Loading {
		t.Error("loading should be false")
	}
	if len(st.Repos) != 2 {
		t.Errorf("repos = %d, want the previous 2", len(st.Repos))
	}
}

func TestGenericSearchFailure(t *testing.T) {
	mock := &mockCmd{searchErr: errors.New("boom")}
	app := newTestApp(mock, nil)

	app, cmd := update(app, SearchDue{Gen: app.debounceGen})
	app = exec(t, app, cmd)

	if got := app.State().ErrorText(); got != apperr.MsgRetrievalFailed {
		t.Errorf("error = %q, want %q", got, apperr.MsgRetrievalFailed)
	}
}

func TestSearchClearsPreviousError(t *testing.T) {
	mock := &mockCmd{searchErr: errors.New("boom")}
	app := newTestApp(mock, nil)
	app, cmd := update(app, SearchDue{Gen: app.debounceGen})
	app = exec(t, app, cmd)

	mock.searchErr = nil
	app, _ = update(app, SearchDue{Gen: app.debounceGen})
	if app.State().UI.Error != nil {
		t.Error("firing a search should clear the error slot")
	}
}

func TestStaleSearchResponseDropped(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(mock, nil)

	app, first := update(app, SearchDue{Gen: app.debounceGen})
	app, second := update(app, SearchDue{Gen: app.debounceGen})

	mock.repos = []model.Repository{repo(2, "newer")}
	app, _ = update(app, second())
	mock.repos = []model.Repository{repo(1, "older")}
	app, _ = update(app, first())

	st := app.State()
	if len(st.Repos) != 1 || st.Repos[0].ID != 2 {
		t.Errorf("repos = %+v, want the newer result", st.Repos)
	}
	if st.UI.Loading {
		t.Error("loading should be false")
	}
}

func TestSupersededSearchDueIgnored(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(mock, newRecorder())
	defer app.Close()

	stale := app.debounceGen
	app, _ = update(app, runeKey('s'))
	app, cmd := update(app, SearchDue{Gen: stale})
	if cmd != nil || len(mock.searches) != 0 {
		t.Error("SearchDue from an earlier arming should not search")
	}
}

func TestBookmarkRequiresSession(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(mock, nil)
	app = withResults(t, app, mock, repo(42, "answer"))

	app, cmd := update(app, runeKey('b'))
	if cmd != nil || len(mock.setKeys) != 0 {
		t.Error("bookmark without session should issue no write")
	}
	if got := app.State().ErrorText(); got != apperr.MsgNoSession {
		t.Errorf("error = %q, want %q", got, apperr.MsgNoSession)
	}
}

func TestBookmarkWriteThenSnapshot(t *testing.T) {
	mock := &mockCmd{}
	app := signedIn(newTestApp(mock, nil))
	app = withResults(t, app, mock, repo(42, "answer"))

	app, cmd := update(app, runeKey('b'))
	if len(mock.setKeys) != 1 || mock.setKeys[0] != "42" {
		t.Fatalf("set keys = %v, want [42]", mock.setKeys)
	}
	if app.State().IsBookmarked("42") {
		t.Fatal("membership should wait for the snapshot")
	}
	app = exec(t, app, cmd)
	if !app.State().IsBookmarked("42") {
		t.Error("snapshot containing 42 should make it bookmarked")
	}
}

func TestBookmarkToggleParity(t *testing.T) {
	for n := 1; n <= 6; n++ {
		mock := &mockCmd{}
		app := signedIn(newTestApp(mock, nil))
		app = withResults(t, app, mock, repo(7, "seven"))

		for i := 0; i < n; i++ {
			var cmd tea.Cmd
			app, cmd = update(app, runeKey('b'))
			app = exec(t, app, cmd)
		}

		want := n%2 == 1
		if got := app.State().IsBookmarked("7"); got != want {
			t.Errorf("after %d toggles bookmarked = %v, want %v", n, got, want)
		}
	}
}

func TestBookmarkWriteFailure(t *testing.T) {
	mock := &mockCmd{bookmarkErr: errors.New("denied")}
	app := signedIn(newTestApp(mock, nil))
	app = withResults(t, app, mock, repo(42, "answer"))

	app, cmd := update(app, runeKey('b'))
	app = exec(t, app, cmd)

	st := app.State()
	if st.ErrorText() != apperr.MsgBookmarkWriteFailed {
		t.Errorf("error = %q, want %q", st.ErrorText(), apperr.MsgBookmarkWriteFailed)
	}
	if st.IsBookmarked("42") {
		t.Error("failed write should leave membership unchanged")
	}
}

func TestDetailSeedsDraftFromNote(t *testing.T) {
	mock := &mockCmd{}
	app := signedIn(newTestApp(mock, nil))
	app = withResults(t, app, mock, repo(1, "noted"), repo(2, "plain"))
	app, _ = update(app, NotesSnapshot{Gen: 1, Notes: model.Notes{"1": {Content: "remember this"}}})

	app, _ = update(app, tea.KeyMsg{Type: tea.KeyEnter})
	st := app.State()
	if !st.UI.ModalOpen || st.UI.Selected == nil || st.UI.Selected.ID != 1 {
		t.Fatal("enter should open the detail view for the cursor repo")
	}
	if st.UI.DraftNote != "remember this" {
		t.Errorf("draft = %q, want the saved note", st.UI.DraftNote)
	}

	app, _ = update(app, runeKey('!'))
	if got := app.State().UI.DraftNote; got != "remember this!" {
		t.Errorf("draft after typing = %q", got)
	}
	if app.State().NoteFor("1") != "remember this" {
		t.Error("typing must not touch the saved note")
	}

	// Close without saving, open another repo: no leaked draft.
	app, _ = update(app, tea.KeyMsg{Type: tea.KeyEsc})
	if st := app.State(); st.UI.ModalOpen || st.UI.DraftNote != "" || st.UI.Selected != nil {
		t.Fatalf("esc should close and clear the draft, got %+v", st.UI)
	}
	app, _ = update(app, runeKey('j'))
	app, _ = update(app, tea.KeyMsg{Type: tea.KeyEnter})
	if got := app.State().UI.DraftNote; got != "" {
		t.Errorf("draft for repo without note = %q, want empty", got)
	}

	// Reopening the first repo shows the saved note, not the discarded edit.
	app, _ = update(app, tea.KeyMsg{Type: tea.KeyEsc})
	app, _ = update(app, runeKey('k'))
	app, _ = update(app, tea.KeyMsg{Type: tea.KeyEnter})
	if got := app.State().UI.DraftNote; got != "remember this" {
		t.Errorf("reopened draft = %q, want the saved note", got)
	}
}

func TestSaveNoteHoldsSyncingForGrace(t *testing.T) {
	mock := &mockCmd{}
	rec := newRecorder()
	app := signedIn(newTestApp(mock, rec))
	defer app.Close()
	app = withResults(t, app, mock, repo(5, "five"))

	app, _ = update(app, tea.KeyMsg{Type: tea.KeyEnter})
	app, _ = update(app, runeKey('h'))
	app, _ = update(app, runeKey('i'))

	before := time.Now()
	app, cmd := update(app, tea.KeyMsg{Type: tea.KeyCtrlS})
	if !app.State().UI.Syncing {
		t.Fatal("syncing should be true immediately")
	}
	if len(mock.notes) != 1 {
		t.Fatalf("note writes = %d, want 1", len(mock.notes))
	}
	if n := mock.notes[0]; n.key != "5" || n.content != "hi" || n.at.Before(before) {
		t.Errorf("note write = %+v", n)
	}

	app = exec(t, app, cmd)
	if !app.State().UI.Syncing {
		t.Fatal("syncing should be held after the write succeeds")
	}

	msgs := rec.collect(150 * time.Millisecond)
	if len(msgs) != 1 {
		t.Fatalf("got %v, want one SyncGraceElapsed", msgs)
	}
	if _, ok := msgs[0].(SyncGraceElapsed); !ok {
		t.Fatalf("got %T, want SyncGraceElapsed", msgs[0])
	}
	app, _ = update(app, msgs[0])
	if app.State().UI.Syncing {
		t.Error("syncing should clear after the grace period")
	}
}

func TestSaveNoteFailureClearsSyncing(t *testing.T) {
	mock := &mockCmd{noteErr: errors.New("offline")}
	app := signedIn(newTestApp(mock, newRecorder()))
	defer app.Close()
	app = withResults(t, app, mock, repo(5, "five"))

	app, _ = update(app, tea.KeyMsg{Type: tea.KeyEnter})
	app, cmd := update(app, tea.KeyMsg{Type: tea.KeyCtrlS})
	app = exec(t, app, cmd)

	st := app.State()
	if st.UI.Syncing {
		t.Error("syncing should clear at once on failure")
	}
	if st.ErrorText() != apperr.MsgNoteSaveFailed {
		t.Errorf("error = %q, want %q", st.ErrorText(), apperr.MsgNoteSaveFailed)
	}
}

func TestNewSaveCancelsPendingGrace(t *testing.T) {
	mock := &mockCmd{}
	rec := newRecorder()
	app := signedIn(newTestApp(mock, rec))
	defer app.Close()
	app = withResults(t, app, mock, repo(5, "five"))
	app, _ = update(app, tea.KeyMsg{Type: tea.KeyEnter})

	app, cmd := update(app, tea.KeyMsg{Type: tea.KeyCtrlS})
	app = exec(t, app, cmd) // grace for save 1 armed
	app, _ = update(app, tea.KeyMsg{Type: tea.KeyCtrlS})

	if msgs := rec.collect(100 * time.Millisecond); len(msgs) != 0 {
		t.Errorf("grace of the first save should be cancelled, got %v", msgs)
	}
	app, _ = update(app, SyncGraceElapsed{Gen: 1})
	if !app.State().UI.Syncing {
		t.Error("a late grace from save 1 must not clear syncing for save 2")
	}
}

func TestSessionChangeInvalidatesMirrors(t *testing.T) {
	mock := &mockCmd{}
	app := signedIn(newTestApp(mock, nil))
	app, _ = update(app, BookmarksSnapshot{Gen: 1, Bookmarks: model.Bookmarks{"1": repo(1, "one")}})

	app, _ = update(app, SessionChanged{Session: &model.Session{UID: "u2"}, Gen: 2})
	if n := len(app.State().Bookmarks); n != 0 {
		t.Fatalf("bookmarks after session switch = %d, want 0", n)
	}

	app, _ = update(app, BookmarksSnapshot{Gen: 1, Bookmarks: model.Bookmarks{"1": repo(1, "one")}})
	if app.State().IsBookmarked("1") {
		t.Error("snapshot from the previous session must not apply")
	}
}

func TestAuthFailedSetsError(t *testing.T) {
	app := newTestApp(&mockCmd{}, nil)
	app, _ = update(app, AuthFailed{Err: apperr.AuthenticationFailure(errors.New("bad token"))})
	if got := app.State().ErrorText(); got != apperr.MsgAuthenticationFailure {
		t.Errorf("error = %q, want %q", got, apperr.MsgAuthenticationFailure)
	}
}

func TestQuitClosesTimers(t *testing.T) {
	rec := newRecorder()
	app := newTestApp(&mockCmd{}, rec)
	app.Init()

	app, cmd := update(app, runeKey('q'))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
	if app.searchTimer.Pending() {
		t.Error("search timer should be cancelled on quit")
	}
	if app.searchTimer.Schedule(time.Millisecond, func() {}) {
		t.Error("search timer should be closed")
	}
	if msgs := rec.collect(60 * time.Millisecond); len(msgs) != 0 {
		t.Errorf("no search should fire after quit, got %v", msgs)
	}
}

func TestAppNavigation(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(mock, nil)
	app = withResults(t, app, mock, repo(1, "a"), repo(2, "b"), repo(3, "c"))

	tests := []struct {
		key  tea.KeyMsg
		want int
	}{
		{runeKey('j'), 1},
		{runeKey('j'), 2},
		{runeKey('j'), 2},
		{runeKey('k'), 1},
		{runeKey('g'), 0},
		{runeKey('G'), 2},
		{tea.KeyMsg{Type: tea.KeyUp}, 1},
	}
	for i, tt := range tests {
		app, _ = update(app, tt.key)
		if app.Cursor() != tt.want {
			t.Errorf("step %d (%s): cursor = %d, want %d", i, tt.key, app.Cursor(), tt.want)
		}
	}
}

func TestQueryEditingRearmsSearch(t *testing.T) {
	mock := &mockCmd{}
	rec := newRecorder()
	app := newTestApp(mock, rec)
	defer app.Close()

	app, _ = update(app, runeKey('/'))
	if !app.editingQuery {
		t.Fatal("/ should focus the query input")
	}
	// q is text while editing, not quit.
	app, _ = update(app, runeKey('q'))
	if !app.editingQuery {
		t.Fatal("q while editing should stay in the input")
	}
	if !strings.Contains(app.State().Filters.Query, "q") {
		t.Errorf("query = %q, want it to contain the typed rune", app.State().Filters.Query)
	}

	app, _ = update(app, tea.KeyMsg{Type: tea.KeyEsc})
	if app.editingQuery {
		t.Error("esc should leave the query input")
	}

	msgs := rec.collect(100 * time.Millisecond)
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want one SearchDue", len(msgs))
	}
	app, _ = update(app, msgs[0])
	if len(mock.searches) != 1 || mock.searches[0].Query != app.State().Filters.Query {
		t.Errorf("searches = %+v", mock.searches)
	}
}

func TestViewRendersSurfaces(t *testing.T) {
	mock := &mockCmd{}
	app := signedIn(newTestApp(mock, nil))
	app, _ = update(app, tea.WindowSizeMsg{Width: 100, Height: 30})

	view := app.View()
	for _, want := range []string{"DISCOVER", "SAVED_REPOS", EmptyResults, "UID:u1"} {
		if !strings.Contains(view, want) {
			t.Errorf("discover view missing %q", want)
		}
	}

	app, _ = update(app, tea.KeyMsg{Type: tea.KeyTab})
	if view := app.View(); !strings.Contains(view, EmptyBookmarks) {
		t.Errorf("bookmarks view missing %q", EmptyBookmarks)
	}

	app, _ = update(app, tea.KeyMsg{Type: tea.KeyTab})
	app = withResults(t, app, mock, repo(9, "nine"))
	app, _ = update(app, tea.KeyMsg{Type: tea.KeyEnter})
	view = app.View()
	for _, want := range []string{"owner/nine", NoDescription, UnknownLanguage, BadgeIdle} {
		if !strings.Contains(view, want) {
			t.Errorf("detail view missing %q", want)
		}
	}
}

func TestViewBeforeSize(t *testing.T) {
	app := newTestApp(&mockCmd{}, nil)
	if got := app.View(); got != "Loading..." {
		t.Errorf("View() = %q before the first WindowSizeMsg", got)
	}
}

func TestTraceRecordsKeys(t *testing.T) {
	for _, trace := range []bool{false, true} {
		var buf bytes.Buffer
		events := otel.NewLogger(&buf)
		app := NewApp(AppConfig{Events: events, Trace: trace})
		update(app, runeKey('j'))
		events.Close()

		got := strings.Contains(buf.String(), string(otel.KindKeyPress))
		if got != trace {
			t.Errorf("trace=%v: key event recorded=%v\n%s", trace, got, buf.String())
		}
	}
}
