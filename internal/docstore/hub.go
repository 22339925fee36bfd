package docstore

import "sync"

// Hub fans snapshots out to the feeds subscribed to each collection.
// Adapters that learn about changes locally use it to notify subscribers.
type Hub struct {
	mu   sync.Mutex
	subs map[CollectionRef]map[*Feed]struct{}
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[CollectionRef]map[*Feed]struct{})}
}

// Add registers f for coll.
func (h *Hub) Add(coll CollectionRef, f *Feed) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[coll]
	if !ok {
		set = make(map[*Feed]struct{})
		h.subs[coll] = set
	}
	set[f] = struct{}{}
}

// Remove unregisters f from coll.
func (h *Hub) Remove(coll CollectionRef, f *Feed) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subs[coll]
	delete(set, f)
	if len(set) == 0 {
		delete(h.subs, coll)
	}
}

// Watched reports whether coll has any subscriber.
func (h *Hub) Watched(coll CollectionRef) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[coll]) > 0
}

// Publish delivers snap to every feed subscribed to snap.Collection.
func (h *Hub) Publish(snap Snapshot) {
	for _, f := range h.feeds(snap.Collection) {
		f.Publish(snap)
	}
}

// Fail reports err to every feed subscribed to coll.
func (h *Hub) Fail(coll CollectionRef, err error) {
	for _, f := range h.feeds(coll) {
		f.Fail(err)
	}
}

// CloseAll closes every registered feed.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	var all []*Feed
	for _, set := range h.subs {
		for f := range set {
			all = append(all, f)
		}
	}
	h.mu.Unlock()

	// Close re-enters Remove through the feed's onClose hook.
	for _, f := range all {
		f.Close()
	}
}

func (h *Hub) feeds(coll CollectionRef) []*Feed {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Feed, 0, len(h.subs[coll]))
	for f := range h.subs[coll] {
		out = append(out, f)
	}
	return out
}
