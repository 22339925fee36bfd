// Package docstore is the document-store port: per-user collections of JSON
// documents with live subscriptions that push the full collection on every
// change.
//
// Adapters live in subpackages and register themselves by driver name, the
// way database/sql drivers do:
//
//	import _ "github.com/abelbrown/gitexplorer/internal/docstore/sqlitestore"
//
//	store, err := docstore.Open(ctx, "sqlite", opts)
package docstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrClosed is returned by operations on a closed Store.
var ErrClosed = errors.New("docstore: store closed")

// Snapshot is the full contents of a collection at one point in time.
// Docs maps document id to its JSON body and must be treated as read-only:
// one Snapshot may be delivered to several subscribers.
type Snapshot struct {
	Collection CollectionRef
	Docs       map[string][]byte
}

// Store reads and writes documents and opens live subscriptions.
type Store interface {
	// Set creates or overwrites a document.
	Set(ctx context.Context, doc DocRef, data []byte) error
	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, doc DocRef) error
	// Subscribe opens a live subscription on a collection. The first
	// snapshot is the current contents. Cancelling ctx closes the subscription.
	Subscribe(ctx context.Context, coll CollectionRef) (Subscription, error)
	// Close releases the store. Open subscriptions are closed.
	Close() error
}

// Subscription is a live, non-restartable stream of full snapshots.
type Subscription interface {
	// Snapshots delivers snapshots in order. Closed when the subscription ends.
	Snapshots() <-chan Snapshot
	// Errors delivers transient subscription errors. Never closed.
	Errors() <-chan error
	// Close ends the subscription. Once it returns no further snapshot is
	// received from Snapshots. Idempotent.
	Close()
}

// TokenSource returns the bearer credential of the current session, or "".
type TokenSource func() string

// Options carries adapter settings. Each driver reads the fields it needs.
type Options struct {
	SQLitePath string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	URL    string
	Tokens TokenSource
}

// OpenFunc opens a Store for one driver.
type OpenFunc func(ctx context.Context, opts Options) (Store, error)

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]OpenFunc)
)

// Register makes a driver available by name. It panics on a duplicate or nil
// OpenFunc, since both are programming errors caught at init.
func Register(name string, open OpenFunc) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if open == nil {
		panic("docstore: Register open func is nil")
	}
	if _, dup := drivers[name]; dup {
		panic("docstore: Register called twice for driver " + name)
	}
	drivers[name] = open
}

// Drivers returns the registered driver names, sorted.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	names := make([]string, 0, len(drivers))
	for n := range drivers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Open opens a Store with the named driver.
func Open(ctx context.Context, driver string, opts Options) (Store, error) {
	driversMu.RLock()
	open, ok := drivers[driver]
	driversMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("docstore: unknown driver %q (registered: %v)", driver, Drivers())
	}
	store, err := open(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("docstore: open %s: %w", driver, err)
	}
	return store, nil
}
