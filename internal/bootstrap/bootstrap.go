// Package bootstrap builds gitexplorer from its configuration and runs it.
//
// Construction order: config, logging, events, search client, identity,
// document store, gateway, UI, program. Close tears down in reverse.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/gitexplorer/internal/auth"
	"github.com/abelbrown/gitexplorer/internal/config"
	"github.com/abelbrown/gitexplorer/internal/docstore"
	"github.com/abelbrown/gitexplorer/internal/gateway"
	"github.com/abelbrown/gitexplorer/internal/logging"
	"github.com/abelbrown/gitexplorer/internal/otel"
	"github.com/abelbrown/gitexplorer/internal/search"
	"github.com/abelbrown/gitexplorer/internal/ui"

	// Document store drivers register themselves.
	_ "github.com/abelbrown/gitexplorer/internal/docstore/redisstore"
	_ "github.com/abelbrown/gitexplorer/internal/docstore/sqlitestore"
	_ "github.com/abelbrown/gitexplorer/internal/docstore/wsstore"
)

// Options controls how the application is assembled.
type Options struct {
	ConfigPath string
	Debug      bool

	// ProgramOptions replace the default alt-screen program options.
	ProgramOptions []tea.ProgramOption
}

// App is the assembled application.
type App struct {
	cfg *config.Config

	events     *otel.Logger
	eventsFile *os.File
	ring       *otel.RingBuffer

	search  *search.Client
	auth    *auth.Service
	store   docstore.Store
	gateway *gateway.Gateway

	ui      ui.App
	program *tea.Program

	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once
}

// New loads the configuration and builds every component. On error, anything
// already built is torn down.
func New(ctx context.Context, opts Options) (_ *App, err error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.Debug {
		cfg.Log.Level = "debug"
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	a := &App{cfg: cfg}
	a.ctx, a.cancel = context.WithCancel(ctx)
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if err := logging.Init(cfg.LogDir(), cfg.Log.Level); err != nil {
		return nil, err
	}
	logging.Info("configuration loaded", "path", cfg.Path(), "driver", cfg.DocStore.Driver, "app_id", cfg.AppID)

	if err := a.openEvents(); err != nil {
		return nil, err
	}

	a.search = search.NewClient(cfg.Search)
	a.auth = auth.NewService(auth.Options{
		Secret:       cfg.Auth.Secret,
		IdentityPath: cfg.IdentityPath(),
	})

	a.store, err = docstore.Open(a.ctx, cfg.DocStore.Driver, docstore.Options{
		SQLitePath:    cfg.SQLitePath(),
		RedisAddr:     cfg.DocStore.RedisAddr,
		RedisPassword: cfg.DocStore.RedisPassword,
		RedisDB:       cfg.DocStore.RedisDB,
		URL:           cfg.DocStore.URL,
		Tokens:        a.sessionToken,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s document store: %w", cfg.DocStore.Driver, err)
	}
	logging.Info("document store open", "driver", cfg.DocStore.Driver)

	a.gateway = gateway.New(a.store, a.auth, gateway.Options{AppID: cfg.AppID, Events: a.events})

	// Timer messages reach the program once it exists; the App only arms
	// timers from Init, which runs inside program.Run.
	var program *tea.Program
	a.ui = ui.NewApp(ui.AppConfig{
		Search:         searchCmd(a.ctx, a.search),
		SetBookmark:    setBookmarkCmd(a.ctx, a.gateway),
		DeleteBookmark: deleteBookmarkCmd(a.ctx, a.gateway),
		SaveNote:       saveNoteCmd(a.ctx, a.gateway),
		Send:           func(msg tea.Msg) { program.Send(msg) },
		Events:         a.events,
		Ring:           a.ring,
		Debounce:       cfg.UI.Debounce,
		Grace:          cfg.UI.SyncGrace,
		InitialQuery:   cfg.UI.InitialQuery,
		Trace:          cfg.Log.Trace,
	})

	popts := opts.ProgramOptions
	if popts == nil {
		popts = []tea.ProgramOption{tea.WithAltScreen()}
	}
	popts = append(popts, tea.WithContext(a.ctx))
	program = tea.NewProgram(a.ui, popts...)
	a.program = program

	return a, nil
}

// openEvents starts the event log. With events disabled the ring buffer
// still feeds the debug overlay.
func (a *App) openEvents() error {
	a.ring = otel.NewRingBuffer(otel.DefaultRingSize)
	if !a.cfg.Log.Events {
		a.events = otel.NewNullLogger()
		a.events.SetRingBuffer(a.ring)
		return nil
	}

	path := filepath.Join(a.cfg.DataDir, "gitexplorer.events.jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	a.eventsFile = f
	a.events = otel.NewLogger(f)
	a.events.SetRingBuffer(a.ring)
	return nil
}

func (a *App) sessionToken() string {
	if sess := a.auth.Current(); sess != nil {
		return sess.Token
	}
	return ""
}

// Config returns the loaded configuration.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Run starts the gateway and runs the TUI until the user quits or ctx ends.
// Everything is torn down before Run returns.
func (a *App) Run() error {
	defer a.Close()

	a.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindStartup, Comp: "bootstrap", Msg: a.cfg.DocStore.Driver})

	// The gateway reports the first session from inside Start, and
	// program.Send blocks until the event loop runs.
	var started sync.WaitGroup
	started.Add(1)
	go func() {
		defer started.Done()
		a.gateway.Start(a.program, a.cfg.Auth.CustomToken)
	}()

	final, err := a.program.Run()
	if m, ok := final.(ui.App); ok {
		m.Close()
	}
	// Cancellation from the caller ends the program the same way q does.
	cancelled := errors.Is(err, tea.ErrProgramKilled) && a.ctx.Err() != nil
	a.cancel()
	started.Wait()

	if err != nil && !cancelled {
		a.events.Error(otel.KindError, "bootstrap", err)
		return fmt.Errorf("run program: %w", err)
	}
	return nil
}

// Close tears everything down in reverse construction order. Idempotent.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		if a.cancel != nil {
			a.cancel()
		}
		a.ui.Close()
		if a.gateway != nil {
			a.gateway.Close()
		}
		if a.store != nil {
			if err := a.store.Close(); err != nil {
				logging.Warn("close document store", "err", err)
			}
		}
		a.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindShutdown, Comp: "bootstrap"})
		a.events.Close()
		if a.eventsFile != nil {
			_ = a.eventsFile.Close()
		}
		logging.Info("gitexplorer exiting")
		logging.Close()
	})
}
