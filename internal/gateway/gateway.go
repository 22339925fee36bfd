// Package gateway connects the signed-in session to the document store.
//
// The Gateway follows auth-state changes for the life of the process. For
// every change it closes the previous session's subscriptions, announces
// the new session with a fresh generation, then opens the bookmark and note
// subscriptions of the new session. Snapshots go to the UI tagged with the
// generation they belong to, so anything from an older session is dropped.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/gitexplorer/internal/apperr"
	"github.com/abelbrown/gitexplorer/internal/auth"
	"github.com/abelbrown/gitexplorer/internal/docstore"
	"github.com/abelbrown/gitexplorer/internal/logging"
	"github.com/abelbrown/gitexplorer/internal/model"
	"github.com/abelbrown/gitexplorer/internal/otel"
	"github.com/abelbrown/gitexplorer/internal/ui"
)

// Collection names under each user.
const (
	BookmarksCollection = "bookmarks"
	NotesCollection     = "notes"
)

// Status is the sign-in state.
type Status int

const (
	Unauthenticated Status = iota
	Authenticating
	Authenticated
)

func (s Status) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Sender delivers messages to the UI. *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// Authenticator is the part of auth.Service the Gateway drives.
type Authenticator interface {
	Bootstrap(ctx context.Context, token string) (*model.Session, error)
	OnAuthStateChanged(fn auth.Listener) (unsubscribe func())
}

// Options configures a Gateway.
type Options struct {
	AppID  string
	Events *otel.Logger
}

// Gateway owns the live subscriptions of the current session.
type Gateway struct {
	store  docstore.Store
	auth   Authenticator
	appID  string
	events *otel.Logger
	log    *log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// switchMu serializes session switches against each other and Close.
	switchMu sync.Mutex
	subs     []docstore.Subscription
	subsDone *sync.WaitGroup

	mu              sync.Mutex
	sender          Sender
	status          Status
	session         *model.Session
	gen             uint64
	closed          bool
	unsubscribeAuth func()
}

// New creates a Gateway. Nothing happens until Start.
func New(store docstore.Store, authn Authenticator, opts Options) *Gateway {
	ctx, cancel := context.WithCancel(context.Background())
	return &Gateway{
		store:  store,
		auth:   authn,
		appID:  opts.AppID,
		events: opts.Events,
		log:    logging.WithPrefix("gateway"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins following auth state and signs in once: with token when it
// is non-empty, anonymously otherwise. A failed sign-in is reported as
// ui.AuthFailed and not retried.
func (g *Gateway) Start(sender Sender, token string) {
	g.mu.Lock()
	g.sender = sender
	g.status = Authenticating
	g.mu.Unlock()

	unsubscribe := g.auth.OnAuthStateChanged(g.onAuthChange)
	g.mu.Lock()
	g.unsubscribeAuth = unsubscribe
	g.mu.Unlock()

	method := "anonymous"
	if token != "" {
		method = "custom_token"
	}
	g.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindAuthStart, Comp: "gateway", Msg: method})

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		start := time.Now()
		sess, err := g.auth.Bootstrap(g.ctx, token)
		if err != nil {
			g.mu.Lock()
			closed := g.closed
			if g.status == Authenticating {
				g.status = Unauthenticated
			}
			g.mu.Unlock()
			if closed {
				return
			}
			g.log.Error("sign-in failed", "err", err)
			g.events.Emit(otel.Event{Level: otel.LevelError, Kind: otel.KindAuthError, Comp: "gateway", Err: err.Error(), Dur: time.Since(start)})
			g.send(ui.AuthFailed{Err: err})
			return
		}
		g.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindAuthSignIn, Comp: "gateway", UID: sess.UID, Dur: time.Since(start)})
	}()
}

// Status returns the sign-in state.
func (g *Gateway) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

// Session returns the current session, or nil.
func (g *Gateway) Session() *model.Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session
}

// Generation returns the generation of the current subscriptions.
func (g *Gateway) Generation() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gen
}

func (g *Gateway) current(gen uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.closed && gen == g.gen
}

func (g *Gateway) send(msg tea.Msg) {
	g.mu.Lock()
	sender := g.sender
	g.mu.Unlock()
	if sender != nil {
		sender.Send(msg)
	}
}

func (g *Gateway) onAuthChange(sess *model.Session) {
	g.switchMu.Lock()
	defer g.switchMu.Unlock()

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.mu.Unlock()

	// Old subscriptions end before the new session is announced.
	g.closeSubsLocked()

	g.mu.Lock()
	g.gen++
	gen := g.gen
	g.session = sess
	switch {
	case sess != nil:
		g.status = Authenticated
	case g.status == Authenticated:
		g.status = Unauthenticated
	}
	g.mu.Unlock()

	uid := ""
	if sess != nil {
		uid = sess.UID
	}
	g.log.Info("session changed", "uid", uid, "gen", gen)
	g.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindAuthChanged, Comp: "gateway", UID: uid, Gen: gen})
	g.send(ui.SessionChanged{Session: sess, Gen: gen})

	if sess != nil {
		g.openSubsLocked(sess, gen)
	}
}

// closeSubsLocked closes the live subscriptions and waits for their pumps.
// Caller holds switchMu.
func (g *Gateway) closeSubsLocked() {
	if len(g.subs) == 0 && g.subsDone == nil {
		return
	}
	for _, sub := range g.subs {
		sub.Close()
	}
	if g.subsDone != nil {
		g.subsDone.Wait()
	}
	g.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindSyncClose, Comp: "gateway", Count: len(g.subs)})
	g.subs = nil
	g.subsDone = nil
}

// openSubsLocked opens both collections of sess. A collection that fails to
// open is logged and left unsynced. Caller holds switchMu.
func (g *Gateway) openSubsLocked(sess *model.Session, gen uint64) {
	bookmarks := docstore.UserCollection(g.appID, sess.UID, BookmarksCollection)
	notes := docstore.UserCollection(g.appID, sess.UID, NotesCollection)

	var bsub, nsub docstore.Subscription
	var eg errgroup.Group
	eg.Go(func() error {
		var err error
		bsub, err = g.store.Subscribe(g.ctx, bookmarks)
		return g.subscribeErr(bookmarks, gen, err)
	})
	eg.Go(func() error {
		var err error
		nsub, err = g.store.Subscribe(g.ctx, notes)
		return g.subscribeErr(notes, gen, err)
	})
	if err := eg.Wait(); err != nil {
		g.log.Warn("session partially synced", "uid", sess.UID, "gen", gen, "err", err)
		g.events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindSyncPartial, Comp: "gateway", UID: sess.UID, Gen: gen, Err: err.Error()})
	}

	done := &sync.WaitGroup{}
	g.subsDone = done
	if bsub != nil {
		g.subs = append(g.subs, bsub)
		g.startPump(done, gen, bsub, g.deliverBookmarks)
	}
	if nsub != nil {
		g.subs = append(g.subs, nsub)
		g.startPump(done, gen, nsub, g.deliverNotes)
	}
}

func (g *Gateway) subscribeErr(coll docstore.CollectionRef, gen uint64, err error) error {
	if err != nil {
		g.log.Error("subscribe failed", "collection", coll, "err", err)
		g.events.Emit(otel.Event{Level: otel.LevelError, Kind: otel.KindSyncError, Comp: "gateway", Gen: gen, Err: err.Error(), Msg: string(coll)})
		return err
	}
	g.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindSyncOpen, Comp: "gateway", Gen: gen, Msg: string(coll)})
	return nil
}

func (g *Gateway) startPump(done *sync.WaitGroup, gen uint64, sub docstore.Subscription, deliver func(uint64, docstore.Snapshot)) {
	done.Add(1)
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer done.Done()
		for {
			select {
			case snap, ok := <-sub.Snapshots():
				if !ok {
					return
				}
				deliver(gen, snap)
			case err := <-sub.Errors():
				// Sync errors stay out of the UI error slot.
				g.log.Warn("subscription error", "gen", gen, "err", err)
				g.events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindSyncError, Comp: "gateway", Gen: gen, Err: err.Error()})
			}
		}
	}()
}

func (g *Gateway) deliverBookmarks(gen uint64, snap docstore.Snapshot) {
	bookmarks := make(model.Bookmarks, len(snap.Docs))
	for id, raw := range snap.Docs {
		var repo model.Repository
		if err := json.Unmarshal(raw, &repo); err != nil {
			g.log.Warn("skipping undecodable bookmark", "id", id, "err", err)
			continue
		}
		bookmarks[id] = repo
	}
	if !g.current(gen) {
		g.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindSyncStale, Comp: "gateway", Gen: gen, Msg: BookmarksCollection})
		return
	}
	g.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindSyncSnapshot, Comp: "gateway", Gen: gen, Count: len(bookmarks), Msg: BookmarksCollection})
	g.send(ui.BookmarksSnapshot{Gen: gen, Bookmarks: bookmarks})
}

func (g *Gateway) deliverNotes(gen uint64, snap docstore.Snapshot) {
	notes := make(model.Notes, len(snap.Docs))
	for id, raw := range snap.Docs {
		var note model.Note
		if err := json.Unmarshal(raw, &note); err != nil {
			g.log.Warn("skipping undecodable note", "id", id, "err", err)
			continue
		}
		notes[id] = note
	}
	if !g.current(gen) {
		g.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindSyncStale, Comp: "gateway", Gen: gen, Msg: NotesCollection})
		return
	}
	g.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindSyncSnapshot, Comp: "gateway", Gen: gen, Count: len(notes), Msg: NotesCollection})
	g.send(ui.NotesSnapshot{Gen: gen, Notes: notes})
}

// SetBookmark writes the full repository record under its key. The write's
// effect reaches the UI through the next bookmark snapshot.
func (g *Gateway) SetBookmark(ctx context.Context, sess *model.Session, repo model.Repository) error {
	if sess == nil {
		return apperr.BookmarkWriteFailed(apperr.New(apperr.CodeNoSession))
	}
	data, err := json.Marshal(repo)
	if err != nil {
		return apperr.BookmarkWriteFailed(fmt.Errorf("encode bookmark: %w", err))
	}
	ref := docstore.UserCollection(g.appID, sess.UID, BookmarksCollection).Doc(repo.Key())
	if err := g.store.Set(ctx, ref, data); err != nil {
		g.events.Emit(otel.Event{Level: otel.LevelError, Kind: otel.KindBookmarkError, Comp: "gateway", UID: sess.UID, Repo: repo.Key(), Err: err.Error()})
		return apperr.BookmarkWriteFailed(err)
	}
	g.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindBookmarkSet, Comp: "gateway", UID: sess.UID, Repo: repo.Key()})
	return nil
}

// DeleteBookmark removes the bookmark stored under key.
func (g *Gateway) DeleteBookmark(ctx context.Context, sess *model.Session, key string) error {
	if sess == nil {
		return apperr.BookmarkWriteFailed(apperr.New(apperr.CodeNoSession))
	}
	ref := docstore.UserCollection(g.appID, sess.UID, BookmarksCollection).Doc(key)
	if err := g.store.Delete(ctx, ref); err != nil {
		g.events.Emit(otel.Event{Level: otel.LevelError, Kind: otel.KindBookmarkError, Comp: "gateway", UID: sess.UID, Repo: key, Err: err.Error()})
		return apperr.BookmarkWriteFailed(err)
	}
	g.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindBookmarkDelete, Comp: "gateway", UID: sess.UID, Repo: key})
	return nil
}

// SaveNote overwrites the note stored under key with content stamped at now.
func (g *Gateway) SaveNote(ctx context.Context, sess *model.Session, key, content string, now time.Time) error {
	if sess == nil {
		return apperr.NoteSaveFailed(apperr.New(apperr.CodeNoSession))
	}
	data, err := json.Marshal(model.NewNote(content, now))
	if err != nil {
		return apperr.NoteSaveFailed(fmt.Errorf("encode note: %w", err))
	}
	ref := docstore.UserCollection(g.appID, sess.UID, NotesCollection).Doc(key)
	if err := g.store.Set(ctx, ref, data); err != nil {
		g.events.Emit(otel.Event{Level: otel.LevelError, Kind: otel.KindNoteError, Comp: "gateway", UID: sess.UID, Repo: key, Err: err.Error()})
		return apperr.NoteSaveFailed(err)
	}
	g.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindNoteSaved, Comp: "gateway", UID: sess.UID, Repo: key, Count: len(content)})
	return nil
}

// Close stops following auth state, closes the subscriptions and waits for
// every goroutine the Gateway started. Idempotent.
func (g *Gateway) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	unsubscribe := g.unsubscribeAuth
	g.mu.Unlock()

	g.cancel()
	if unsubscribe != nil {
		unsubscribe()
	}

	g.switchMu.Lock()
	g.closeSubsLocked()
	g.switchMu.Unlock()

	g.wg.Wait()
}
