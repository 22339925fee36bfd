// Package wsstore talks to a remote document service over one websocket.
//
// Subscriptions and writes are multiplexed on the connection by id. Writes
// wait for the server's ack. The connection is not re-dialed: once it drops,
// every open subscription reports the error and later calls fail.
package wsstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"

	"github.com/abelbrown/gitexplorer/internal/docstore"
	"github.com/abelbrown/gitexplorer/internal/logging"
)

// Driver is the name this adapter registers under.
const Driver = "ws"

const (
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
	readTimeout  = 2*pingInterval + writeTimeout
)

// ErrDisconnected is returned once the connection has dropped.
var ErrDisconnected = errors.New("wsstore: connection lost")

func init() {
	docstore.Register(Driver, func(ctx context.Context, opts docstore.Options) (docstore.Store, error) {
		return Dial(ctx, opts.URL, opts.Tokens)
	})
}

// Store is a docstore.Store backed by a remote service.
type Store struct {
	conn   *websocket.Conn
	tokens docstore.TokenSource
	log    *log.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	subs    map[string]*subscription
	pending map[string]chan error
	err     error // set once the connection is gone
	closed  bool

	done chan struct{}
	wg   sync.WaitGroup
}

type subscription struct {
	coll docstore.CollectionRef
	feed *docstore.Feed
}

// Dial connects to url. tokens, if not nil, supplies the bearer credential
// sent with the handshake and with every frame.
func Dial(ctx context.Context, url string, tokens docstore.TokenSource) (*Store, error) {
	if url == "" {
		return nil, errors.New("websocket url is required")
	}
	if tokens == nil {
		tokens = func() string { return "" }
	}

	header := http.Header{}
	if tok := tokens(); tok != "" {
		header.Set("Authorization", "Bearer "+tok)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	s := &Store{
		conn:    conn,
		tokens:  tokens,
		log:     logging.WithPrefix("wsstore"),
		subs:    make(map[string]*subscription),
		pending: make(map[string]chan error),
		done:    make(chan struct{}),
	}

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	s.wg.Add(2)
	go s.readLoop()
	go s.pingLoop()
	return s, nil
}

func (s *Store) write(f Frame) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteJSON(f)
}

func (s *Store) usable() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return docstore.ErrClosed
	}
	return s.err
}

// Set implements docstore.Store.
func (s *Store) Set(ctx context.Context, doc docstore.DocRef, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("set %s: document is not valid JSON", doc)
	}
	return s.request(ctx, Frame{
		Op:         OpSet,
		Collection: string(doc.Collection),
		ID:         doc.ID,
		Data:       json.RawMessage(data),
	})
}

// Delete implements docstore.Store.
func (s *Store) Delete(ctx context.Context, doc docstore.DocRef) error {
	return s.request(ctx, Frame{
		Op:         OpDelete,
		Collection: string(doc.Collection),
		ID:         doc.ID,
	})
}

// request sends a write frame and waits for its ack.
func (s *Store) request(ctx context.Context, f Frame) error {
	if err := s.usable(); err != nil {
		return err
	}
	f.Req = ulid.Make().String()
	f.Token = s.tokens()
	ack := make(chan error, 1)

	s.mu.Lock()
	s.pending[f.Req] = ack
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.pending, f.Req)
		s.mu.Unlock()
	}()

	if err := s.write(f); err != nil {
		return fmt.Errorf("%s %s/%s: %w", f.Op, f.Collection, f.ID, err)
	}

	select {
	case err := <-ack:
		if err != nil {
			return fmt.Errorf("%s %s/%s: %w", f.Op, f.Collection, f.ID, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrDisconnected
	}
}

// Subscribe implements docstore.Store. The first snapshot arrives when the
// server answers the subscribe frame.
func (s *Store) Subscribe(ctx context.Context, coll docstore.CollectionRef) (docstore.Subscription, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}
	id := ulid.Make().String()

	var feed *docstore.Feed
	feed = docstore.NewFeed(ctx, func() {
		s.mu.Lock()
		_, live := s.subs[id]
		delete(s.subs, id)
		gone := s.closed || s.err != nil
		s.mu.Unlock()

		if live && !gone {
			if err := s.write(Frame{Op: OpUnsubscribe, Sub: id}); err != nil {
				s.log.Debug("unsubscribe failed", "sub", id, "err", err)
			}
		}
	})

	s.mu.Lock()
	s.subs[id] = &subscription{coll: coll, feed: feed}
	s.mu.Unlock()

	if err := s.write(Frame{Op: OpSubscribe, Sub: id, Collection: string(coll), Token: s.tokens()}); err != nil {
		feed.Close()
		return nil, fmt.Errorf("subscribe %s: %w", coll, err)
	}
	return feed, nil
}

func (s *Store) readLoop() {
	defer s.wg.Done()
	for {
		var f Frame
		if err := s.conn.ReadJSON(&f); err != nil {
			s.disconnect(err)
			return
		}
		s.dispatch(f)
	}
}

func (s *Store) dispatch(f Frame) {
	switch f.Op {
	case OpSnapshot:
		s.mu.Lock()
		sub := s.subs[f.Sub]
		s.mu.Unlock()
		if sub == nil {
			return
		}
		docs := make(map[string][]byte, len(f.Docs))
		for id, raw := range f.Docs {
			docs[id] = []byte(raw)
		}
		sub.feed.Publish(docstore.Snapshot{Collection: sub.coll, Docs: docs})

	case OpAck, OpError:
		var err error
		if f.Op == OpError {
			err = fmt.Errorf("server: %s", f.Error)
		}
		s.mu.Lock()
		ack := s.pending[f.Req]
		sub := s.subs[f.Sub]
		s.mu.Unlock()
		switch {
		case ack != nil:
			ack <- err
		case sub != nil && err != nil:
			sub.feed.Fail(err)
		}

	default:
		s.log.Debug("unknown frame", "op", f.Op)
	}
}

func (s *Store) pingLoop() {
	defer s.wg.Done()
	t := time.NewTicker(pingInterval)
	defer t.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-t.C:
			s.writeMu.Lock()
			err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
			s.writeMu.Unlock()
			if err != nil {
				s.log.Debug("ping failed", "err", err)
			}
		}
	}
}

// disconnect records the read error and tells every subscriber.
func (s *Store) disconnect(err error) {
	s.mu.Lock()
	closing := s.closed
	if s.err == nil {
		s.err = ErrDisconnected
	}
	feeds := make([]*docstore.Feed, 0, len(s.subs))
	for _, sub := range s.subs {
		feeds = append(feeds, sub.feed)
	}
	s.mu.Unlock()
	close(s.done)

	if closing {
		return
	}
	s.log.Error("connection lost", "err", err)
	for _, f := range feeds {
		f.Fail(fmt.Errorf("%w: %v", ErrDisconnected, err))
	}
}

// Close closes every subscription and the connection.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	feeds := make([]*docstore.Feed, 0, len(s.subs))
	for _, sub := range s.subs {
		feeds = append(feeds, sub.feed)
	}
	s.mu.Unlock()

	for _, f := range feeds {
		f.Close()
	}

	s.writeMu.Lock()
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	s.writeMu.Unlock()

	err := s.conn.Close()
	s.wg.Wait()
	return err
}
