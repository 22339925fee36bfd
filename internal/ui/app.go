package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/gitexplorer/internal/apperr"
	"github.com/abelbrown/gitexplorer/internal/debounce"
	"github.com/abelbrown/gitexplorer/internal/model"
	"github.com/abelbrown/gitexplorer/internal/otel"
	"github.com/abelbrown/gitexplorer/internal/state"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Default timings.
const (
	DefaultDebounce = 600 * time.Millisecond
	DefaultGrace    = 500 * time.Millisecond
)

// AppConfig holds the commands the App issues and its timings.
// Each command reports its outcome as a message; the App does no I/O itself.
type AppConfig struct {
	// Search runs a repository search and reports SearchCompleted for gen.
	Search func(gen uint64, f model.Filters) tea.Cmd

	// SetBookmark and DeleteBookmark report BookmarkWritten or BookmarkWriteFailed.
	SetBookmark    func(sess *model.Session, repo model.Repository) tea.Cmd
	DeleteBookmark func(sess *model.Session, key string) tea.Cmd

	// SaveNote reports NoteSaved or NoteSaveFailed for gen.
	SaveNote func(gen uint64, sess *model.Session, key, content string, at time.Time) tea.Cmd

	// Send delivers timer messages into the running program.
	Send func(tea.Msg)

	Events *otel.Logger
	Ring   *otel.RingBuffer

	Debounce     time.Duration
	Grace        time.Duration
	InitialQuery string
	Now          func() time.Time

	// Trace records every message and key press as a debug event.
	Trace bool
}

// App is the root Bubble Tea model.
// IMPORTANT: App never calls the search service or the document store. It
// issues commands from AppConfig and applies their result messages.
type App struct {
	cfg  AppConfig
	keys keyMap
	st   state.State

	searchTimer *debounce.Timer
	graceTimer  *debounce.Timer

	// debounceGen is the arming a SearchDue must carry to fire.
	debounceGen uint64
	// searchGen is the latest fired search; older completions are dropped.
	searchGen uint64
	// saveGen is the latest note save; older outcomes are dropped.
	saveGen uint64

	query   textinput.Model
	editor  textarea.Model
	spinner spinner.Model

	cursor       int
	width        int
	height       int
	ready        bool
	editingQuery bool
	showDebug    bool
}

// NewApp creates a new App. Zero timings take the defaults.
func NewApp(cfg AppConfig) App {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Grace <= 0 {
		cfg.Grace = DefaultGrace
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	st := state.New()
	if cfg.InitialQuery != "" {
		q := cfg.InitialQuery
		st = state.Reduce(st, state.UpdateFilters{Patch: state.FilterPatch{Query: &q}})
	}

	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "search repositories..."
	ti.TextStyle = FilterBarText
	ti.CharLimit = 256
	ti.SetValue(st.Filters.Query)

	ta := textarea.New()
	ta.Placeholder = "Write a note..."
	ta.ShowLineNumbers = false
	ta.SetWidth(60)
	ta.SetHeight(6)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return App{
		cfg:         cfg,
		keys:        defaultKeyMap(),
		st:          st,
		searchTimer: &debounce.Timer{},
		graceTimer:  &debounce.Timer{},
		debounceGen: 1,
		query:       ti,
		editor:      ta,
		spinner:     sp,
	}
}

// Init arms the first search for the initial filters and starts the spinner.
func (a App) Init() tea.Cmd {
	if a.st.Filters.View == model.ViewDiscover {
		a.scheduleSearch(a.debounceGen)
	}
	return a.spinner.Tick
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.cfg.Trace {
		a.cfg.Events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindMsgReceived, Comp: "ui", Msg: fmt.Sprintf("%T", msg)})
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.query.Width = msg.Width - 30
		a.editor.SetWidth(max(msg.Width-10, 20))
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case SessionChanged:
		a.dispatch(state.SetSession{Session: msg.Session, Gen: msg.Gen})
		a.clampCursor()
		return a, nil

	case BookmarksSnapshot:
		a.dispatch(state.SetBookmarks{Gen: msg.Gen, Bookmarks: msg.Bookmarks})
		a.clampCursor()
		return a, nil

	case NotesSnapshot:
		a.dispatch(state.SetNotes{Gen: msg.Gen, Notes: msg.Notes})
		return a, nil

	case AuthFailed:
		a.dispatch(state.ErrorMessage(apperr.UserMessage(msg.Err, apperr.CodeAuthenticationFailure)))
		return a, nil

	case SearchDue:
		return a.fireSearch(msg.Gen)

	case SearchCompleted:
		a.applySearch(msg)
		return a, nil

	case BookmarkWritten:
		return a, nil

	case BookmarkWriteFailed:
		a.dispatch(state.ErrorMessage(apperr.UserMessage(msg.Err, apperr.CodeBookmarkWriteFailed)))
		return a, nil

	case NoteSaved:
		if msg.Gen != a.saveGen {
			return a, nil
		}
		a.holdSyncing(msg.Gen)
		return a, nil

	case NoteSaveFailed:
		if msg.Gen != a.saveGen {
			return a, nil
		}
		a.graceTimer.Cancel()
		a.dispatch(state.SetSyncing{Syncing: false})
		a.dispatch(state.ErrorMessage(apperr.UserMessage(msg.Err, apperr.CodeNoteSaveFailed)))
		return a, nil

	case SyncGraceElapsed:
		if msg.Gen == a.saveGen {
			a.dispatch(state.SetSyncing{Syncing: false})
		}
		return a, nil
	}

	return a, nil
}

// handleKeyMsg routes keyboard input to the active surface.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.cfg.Trace {
		a.cfg.Events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindKeyPress, Comp: "ui", Msg: msg.String()})
	}

	if msg.Type == tea.KeyCtrlC {
		return a.quit()
	}

	switch {
	case a.showDebug:
		return a.handleDebugKey(msg)
	case a.editingQuery:
		return a.handleQueryKey(msg)
	case a.st.UI.ModalOpen:
		return a.handleDetailKey(msg)
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a.quit()

	case key.Matches(msg, a.keys.Down):
		if a.cursor < len(a.st.Displayed())-1 {
			a.cursor++
		}
		return a, nil

	case key.Matches(msg, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
		return a, nil

	case key.Matches(msg, a.keys.Top):
		a.cursor = 0
		return a, nil

	case key.Matches(msg, a.keys.Bottom):
		if n := len(a.st.Displayed()); n > 0 {
			a.cursor = n - 1
		}
		return a, nil

	case key.Matches(msg, a.keys.Open):
		repo, ok := a.current()
		if !ok {
			return a, nil
		}
		a.dispatch(state.OpenDetail{Repo: repo})
		a.editor.SetValue(a.st.UI.DraftNote)
		return a, a.editor.Focus()

	case key.Matches(msg, a.keys.Search):
		if a.st.Filters.View != model.ViewDiscover {
			return a, nil
		}
		a.editingQuery = true
		return a, a.query.Focus()

	case key.Matches(msg, a.keys.SwitchView):
		next := model.ViewBookmarks
		if a.st.Filters.View == model.ViewBookmarks {
			next = model.ViewDiscover
		}
		a.updateFilters(state.FilterPatch{View: &next})
		return a, nil

	case key.Matches(msg, a.keys.Sort):
		if a.st.Filters.View != model.ViewDiscover {
			return a, nil
		}
		next := model.NextSort(a.st.Filters.Sort)
		a.updateFilters(state.FilterPatch{Sort: &next})
		return a, nil

	case key.Matches(msg, a.keys.Language):
		if a.st.Filters.View != model.ViewDiscover {
			return a, nil
		}
		next := model.NextLanguage(a.st.Filters.Language)
		a.updateFilters(state.FilterPatch{Language: &next})
		return a, nil

	case key.Matches(msg, a.keys.Bookmark):
		repo, ok := a.current()
		if !ok {
			return a, nil
		}
		return a.toggleBookmark(repo)

	case key.Matches(msg, a.keys.Debug):
		a.showDebug = true
		return a, nil

	case key.Matches(msg, a.keys.Close):
		a.dispatch(state.ClearError())
		return a, nil
	}

	return a, nil
}

func (a App) handleDebugKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Debug), key.Matches(msg, a.keys.Close):
		a.showDebug = false
	case key.Matches(msg, a.keys.Quit):
		return a.quit()
	}
	return a, nil
}

// handleQueryKey feeds the query input. Every edit that changes the text is
// a filter change and re-arms the debounce.
func (a App) handleQueryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyEnter:
		a.editingQuery = false
		a.query.Blur()
		return a, nil
	}

	var cmd tea.Cmd
	a.query, cmd = a.query.Update(msg)
	if q := a.query.Value(); q != a.st.Filters.Query {
		a.updateFilters(state.FilterPatch{Query: &q})
	}
	return a, cmd
}

// handleDetailKey drives the detail view. The note editor owns every key
// except the ones bound here.
func (a App) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Close):
		a.dispatch(state.CloseDetail{})
		a.editor.Reset()
		a.editor.Blur()
		return a, nil

	case key.Matches(msg, a.keys.SaveNote):
		return a.saveNote()

	case key.Matches(msg, a.keys.DetailMark):
		if a.st.UI.Selected == nil {
			return a, nil
		}
		return a.toggleBookmark(*a.st.UI.Selected)
	}

	var cmd tea.Cmd
	a.editor, cmd = a.editor.Update(msg)
	if text := a.editor.Value(); text != a.st.UI.DraftNote {
		a.dispatch(state.UpdateDraft{Text: text})
	}
	return a, cmd
}

// updateFilters applies patch and, when the filters actually changed,
// re-arms the search debounce.
func (a *App) updateFilters(patch state.FilterPatch) {
	before := a.st.Filters
	a.dispatch(state.UpdateFilters{Patch: patch})
	if a.st.Filters == before {
		return
	}
	a.cursor = 0
	a.armSearch()
}

// armSearch cancels any pending search and, in the discover view, schedules
// a new one after the quiet interval. The bookmarks view never searches.
func (a *App) armSearch() {
	a.debounceGen++
	if a.st.Filters.View != model.ViewDiscover {
		a.searchTimer.Cancel()
		return
	}
	a.scheduleSearch(a.debounceGen)
}

func (a App) scheduleSearch(gen uint64) {
	send := a.cfg.Send
	if send == nil {
		return
	}
	if a.searchTimer.Schedule(a.cfg.Debounce, func() { send(SearchDue{Gen: gen}) }) {
		a.cfg.Events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindSearchDebounce, Comp: "ui", Gen: gen, Query: a.st.Filters.Query})
	}
}

// fireSearch starts the search armed as gen, unless a later filter change
// or a switch to the bookmarks view has superseded it.
func (a App) fireSearch(gen uint64) (tea.Model, tea.Cmd) {
	if gen != a.debounceGen || a.st.Filters.View != model.ViewDiscover {
		return a, nil
	}

	a.searchGen++
	a.dispatch(state.SetLoading{Loading: true})
	a.dispatch(state.ClearError())
	a.cfg.Events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindSearchStart, Comp: "ui", Gen: a.searchGen, Query: a.st.Filters.Query})

	if a.cfg.Search == nil {
		a.dispatch(state.SetLoading{Loading: false})
		return a, nil
	}
	return a, a.cfg.Search(a.searchGen, a.st.Filters)
}

// applySearch applies the result of the latest fired search. A failure keeps
// the previous results and fills the error slot.
func (a *App) applySearch(msg SearchCompleted) {
	if msg.Gen != a.searchGen {
		a.cfg.Events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindSearchStale, Comp: "ui", Gen: msg.Gen})
		return
	}
	a.dispatch(state.SetLoading{Loading: false})
	if msg.Err != nil {
		a.cfg.Events.Error(otel.KindSearchError, "ui", msg.Err)
		a.dispatch(state.ErrorMessage(apperr.UserMessage(msg.Err, apperr.CodeRetrievalFailed)))
		return
	}
	a.dispatch(state.SetSearchResults{Repos: msg.Repos})
	a.clampCursor()
	a.cfg.Events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindSearchComplete, Comp: "ui", Gen: msg.Gen, Count: len(msg.Repos)})
}

// toggleBookmark deletes repo's bookmark when it exists and writes it
// otherwise. Local state waits for the next snapshot.
func (a App) toggleBookmark(repo model.Repository) (tea.Model, tea.Cmd) {
	sess := a.st.Session
	if sess == nil {
		a.dispatch(state.ErrorMessage(apperr.MsgNoSession))
		return a, nil
	}
	if k := repo.Key(); a.st.IsBookmarked(k) {
		if a.cfg.DeleteBookmark == nil {
			return a, nil
		}
		return a, a.cfg.DeleteBookmark(sess, k)
	}
	if a.cfg.SetBookmark == nil {
		return a, nil
	}
	return a, a.cfg.SetBookmark(sess, repo)
}

// saveNote writes the draft for the selected repository. Syncing turns on
// at once; a pending grace from an earlier save is dropped.
func (a App) saveNote() (tea.Model, tea.Cmd) {
	sess, sel := a.st.Session, a.st.UI.Selected
	if sess == nil {
		a.dispatch(state.ErrorMessage(apperr.MsgNoSession))
		return a, nil
	}
	if sel == nil || a.cfg.SaveNote == nil {
		return a, nil
	}

	a.saveGen++
	a.graceTimer.Cancel()
	a.dispatch(state.SetSyncing{Syncing: true})
	a.cfg.Events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindNoteSave, Comp: "ui", Gen: a.saveGen, Repo: sel.Key()})
	return a, a.cfg.SaveNote(a.saveGen, sess, sel.Key(), a.st.UI.DraftNote, a.cfg.Now())
}

// holdSyncing keeps the syncing flag up for the grace period after a
// successful save.
func (a *App) holdSyncing(gen uint64) {
	send := a.cfg.Send
	if send == nil {
		a.dispatch(state.SetSyncing{Syncing: false})
		return
	}
	a.graceTimer.Schedule(a.cfg.Grace, func() { send(SyncGraceElapsed{Gen: gen}) })
}

func (a App) quit() (tea.Model, tea.Cmd) {
	a.Close()
	return a, tea.Quit
}

// Close cancels both timers. Safe to call more than once.
func (a App) Close() {
	for _, t := range []*debounce.Timer{a.searchTimer, a.graceTimer} {
		if t != nil {
			t.Close()
		}
	}
}

func (a *App) dispatch(act state.Action) {
	a.st = state.Reduce(a.st, act)
}

// current returns the repository under the cursor.
func (a App) current() (model.Repository, bool) {
	repos := a.st.Displayed()
	if a.cursor < 0 || a.cursor >= len(repos) {
		return model.Repository{}, false
	}
	return repos[a.cursor], true
}

func (a *App) clampCursor() {
	n := len(a.st.Displayed())
	if a.cursor >= n {
		a.cursor = n - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	if a.showDebug {
		return debugOverlay(a.cfg.Ring, a.width, a.height-1) + "\n" + debugStatusBar(a.width)
	}

	var sections []string
	sections = append(sections, RenderTabs(a.st.Filters.View, len(a.st.Bookmarks), a.width))
	if a.st.Filters.View == model.ViewDiscover {
		sections = append(sections, RenderFilterBar(a.query.View(), a.st.Filters, a.width))
	}

	errorBar := ""
	if msg := a.st.ErrorText(); msg != "" {
		errorBar = ErrorStyle.Width(a.width).Render("Error: " + msg)
	}

	// Tabs, status bar, and optionally the filter and error bars.
	contentHeight := a.height - len(sections) - 1
	if errorBar != "" {
		contentHeight--
	}

	if a.st.UI.ModalOpen && a.st.UI.Selected != nil {
		sections = append(sections, renderDetail(*a.st.UI.Selected, a.st, a.editor.View(), a.width))
	} else {
		repos := a.st.Displayed()
		list := RenderList(repos, a.st, a.cursor, a.width, contentHeight, a.spinner.View()+" Scanning repositories...")
		sections = append(sections, strings.TrimRight(list, "\n"))
	}

	if errorBar != "" {
		sections = append(sections, errorBar)
	}
	sections = append(sections, RenderStatusBar(a.st, a.cursor, len(a.st.Displayed()), a.st.UI.ModalOpen, a.width))
	return strings.Join(sections, "\n")
}

// State returns the current application state (for testing).
func (a App) State() state.State {
	return a.st
}

// Cursor returns the current cursor position (for testing).
func (a App) Cursor() int {
	return a.cursor
}
