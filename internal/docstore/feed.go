package docstore

import (
	"context"
	"sync"
)

// Feed is the Subscription implementation adapters share.
//
// The snapshot channel holds one pending snapshot. Publishing while one is
// pending replaces it: snapshots are full collections, so a slow reader only
// ever needs the newest. Publish never blocks.
type Feed struct {
	snaps chan Snapshot
	errs  chan error

	mu      sync.Mutex
	closed  bool
	done    chan struct{}
	onClose func()
	stop    func() bool
}

// NewFeed creates a Feed that closes when ctx is cancelled. onClose, if not
// nil, runs once on Close after delivery has stopped; adapters use it to
// stop their producer goroutine and unregister.
func NewFeed(ctx context.Context, onClose func()) *Feed {
	f := &Feed{
		snaps:   make(chan Snapshot, 1),
		errs:    make(chan error, 1),
		done:    make(chan struct{}),
		onClose: onClose,
	}
	f.stop = context.AfterFunc(ctx, f.Close)
	return f
}

// Snapshots implements Subscription.
func (f *Feed) Snapshots() <-chan Snapshot { return f.snaps }

// Errors implements Subscription.
func (f *Feed) Errors() <-chan error { return f.errs }

// Done is closed when the Feed closes.
func (f *Feed) Done() <-chan struct{} { return f.done }

// Publish queues snap, replacing any snapshot not yet received.
// It reports false once the Feed is closed.
func (f *Feed) Publish(snap Snapshot) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	select {
	case f.snaps <- snap:
	default:
		select {
		case <-f.snaps:
		default:
		}
		f.snaps <- snap
	}
	return true
}

// Fail reports a transient error. It is dropped if one is already pending.
func (f *Feed) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	select {
	case f.errs <- err:
	default:
	}
}

// Close implements Subscription.
func (f *Feed) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	select {
	case <-f.snaps:
	default:
	}
	close(f.snaps)
	close(f.done)
	f.mu.Unlock()

	if f.stop != nil {
		f.stop()
	}
	if f.onClose != nil {
		f.onClose()
	}
}
