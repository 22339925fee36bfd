// Package sqlitestore is the local document store, backed by SQLite.
//
// Writes notify subscribers through a docstore.Hub. Each write, the snapshot
// load that follows it and the publish happen under one lock, so subscribers
// never see an older snapshot after a newer one.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/abelbrown/gitexplorer/internal/docstore"
	"github.com/abelbrown/gitexplorer/internal/logging"
)

// Driver is the name this adapter registers under.
const Driver = "sqlite"

func init() {
	docstore.Register(Driver, func(_ context.Context, opts docstore.Options) (docstore.Store, error) {
		return Open(opts.SQLitePath)
	})
}

// Store is a docstore.Store over one SQLite database.
// Safe for concurrent use.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	hub *docstore.Hub
	log *log.Logger
	now func() time.Time

	closed bool
}

// Open opens (creating if needed) the database at dbPath. ":memory:" opens a
// private in-memory database.
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// A unique name keeps stores apart; the shared cache lets every pooled
		// connection of this store see the same database.
		connStr = "file:" + ulid.Make().String() + "?mode=memory&cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{
		db:  db,
		hub: docstore.NewHub(),
		log: logging.WithPrefix("sqlitestore"),
		now: time.Now,
	}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		data BLOB NOT NULL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (collection, id)
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Set implements docstore.Store.
func (s *Store) Set(ctx context.Context, doc docstore.DocRef, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return docstore.ErrClosed
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, string(doc.Collection), doc.ID, data, s.now().UTC())
	if err != nil {
		return fmt.Errorf("set %s: %w", doc, err)
	}
	s.notifyLocked(ctx, doc.Collection)
	return nil
}

// Delete implements docstore.Store.
func (s *Store) Delete(ctx context.Context, doc docstore.DocRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return docstore.ErrClosed
	}

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`,
		string(doc.Collection), doc.ID,
	); err != nil {
		return fmt.Errorf("delete %s: %w", doc, err)
	}
	s.notifyLocked(ctx, doc.Collection)
	return nil
}

// Get returns one document, or nil if it does not exist.
func (s *Store) Get(ctx context.Context, doc docstore.DocRef) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, docstore.ErrClosed
	}

	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`,
		string(doc.Collection), doc.ID,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", doc, err)
	}
	return data, nil
}

// Subscribe implements docstore.Store. The current contents are queued as
// the first snapshot before Subscribe returns.
func (s *Store) Subscribe(ctx context.Context, coll docstore.CollectionRef) (docstore.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, docstore.ErrClosed
	}

	snap, err := s.load(ctx, coll)
	if err != nil {
		return nil, err
	}

	var feed *docstore.Feed
	feed = docstore.NewFeed(ctx, func() { s.hub.Remove(coll, feed) })
	s.hub.Add(coll, feed)
	feed.Publish(snap)
	return feed, nil
}

// Close closes every subscription and the database.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.hub.CloseAll()
	return s.db.Close()
}

// notifyLocked publishes the collection's new contents. Caller holds s.mu.
// The write has already committed, so a failed reload is reported to the
// subscribers rather than to the writer.
func (s *Store) notifyLocked(ctx context.Context, coll docstore.CollectionRef) {
	if !s.hub.Watched(coll) {
		return
	}
	snap, err := s.load(context.WithoutCancel(ctx), coll)
	if err != nil {
		s.log.Error("reload after write failed", "collection", coll, "err", err)
		s.hub.Fail(coll, err)
		return
	}
	s.hub.Publish(snap)
}

func (s *Store) load(ctx context.Context, coll docstore.CollectionRef) (docstore.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, data FROM documents WHERE collection = ? ORDER BY id`,
		string(coll),
	)
	if err != nil {
		return docstore.Snapshot{}, fmt.Errorf("load %s: %w", coll, err)
	}
	defer rows.Close()

	docs := make(map[string][]byte)
	for rows.Next() {
		var id string
		var data []byte
		if err := rows.Scan(&id, &data); err != nil {
			return docstore.Snapshot{}, fmt.Errorf("scan %s: %w", coll, err)
		}
		docs[id] = data
	}
	if err := rows.Err(); err != nil {
		return docstore.Snapshot{}, fmt.Errorf("iterate %s: %w", coll, err)
	}
	return docstore.Snapshot{Collection: coll, Docs: docs}, nil
}
