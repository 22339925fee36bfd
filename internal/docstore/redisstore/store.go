// Package redisstore keeps collections in Redis: one hash per collection,
// with every write announced on a pub/sub channel. A subscriber reloads the
// whole hash on each announcement, so it always publishes full snapshots.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/abelbrown/gitexplorer/internal/docstore"
	"github.com/abelbrown/gitexplorer/internal/logging"
)

// Driver is the name this adapter registers under.
const Driver = "redis"

const pingTimeout = 5 * time.Second

func init() {
	docstore.Register(Driver, func(ctx context.Context, opts docstore.Options) (docstore.Store, error) {
		return Open(ctx, Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
	})
}

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Store is a docstore.Store over Redis.
type Store struct {
	client *redis.Client
	hub    *docstore.Hub
	log    *log.Logger

	mu     sync.Mutex
	closed bool
}

// Open connects to Redis and verifies the connection with a PING.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Addr == "" {
		return nil, errors.New("redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}

	return New(client), nil
}

// New wraps an existing client. The Store owns it from then on.
func New(client *redis.Client) *Store {
	return &Store{
		client: client,
		hub:    docstore.NewHub(),
		log:    logging.WithPrefix("redisstore"),
	}
}

func (s *Store) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Set implements docstore.Store.
func (s *Store) Set(ctx context.Context, doc docstore.DocRef, data []byte) error {
	if s.isClosed() {
		return docstore.ErrClosed
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, CollectionKey(doc.Collection), doc.ID, data)
		pipe.Publish(ctx, ChangedChannel(doc.Collection), doc.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("set %s: %w", doc, err)
	}
	return nil
}

// Delete implements docstore.Store.
func (s *Store) Delete(ctx context.Context, doc docstore.DocRef) error {
	if s.isClosed() {
		return docstore.ErrClosed
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, CollectionKey(doc.Collection), doc.ID)
		pipe.Publish(ctx, ChangedChannel(doc.Collection), doc.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", doc, err)
	}
	return nil
}

// Subscribe implements docstore.Store. The change channel is subscribed
// before the initial load, so no write between the two is missed.
func (s *Store) Subscribe(ctx context.Context, coll docstore.CollectionRef) (docstore.Subscription, error) {
	if s.isClosed() {
		return nil, docstore.ErrClosed
	}

	pubsub := s.client.Subscribe(ctx, ChangedChannel(coll))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", coll, err)
	}

	initial, err := s.load(ctx, coll)
	if err != nil {
		pubsub.Close()
		return nil, err
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	var wg sync.WaitGroup
	var feed *docstore.Feed
	feed = docstore.NewFeed(ctx, func() {
		cancel()
		pubsub.Close()
		wg.Wait()
		s.hub.Remove(coll, feed)
	})
	s.hub.Add(coll, feed)
	feed.Publish(initial)

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.watch(loopCtx, coll, pubsub.Channel(), feed)
	}()
	return feed, nil
}

func (s *Store) watch(ctx context.Context, coll docstore.CollectionRef, ch <-chan *redis.Message, feed *docstore.Feed) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			snap, err := s.load(ctx, coll)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.log.Warn("reload after change failed", "collection", coll, "err", err)
				feed.Fail(err)
				continue
			}
			feed.Publish(snap)
		}
	}
}

func (s *Store) load(ctx context.Context, coll docstore.CollectionRef) (docstore.Snapshot, error) {
	fields, err := s.client.HGetAll(ctx, CollectionKey(coll)).Result()
	if err != nil {
		return docstore.Snapshot{}, fmt.Errorf("load %s: %w", coll, err)
	}
	return snapshotFromHash(coll, fields), nil
}

// Close closes every subscription and the client.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.hub.CloseAll()
	return s.client.Close()
}
