package prefstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Notifier fans out change signals to watchers. Signals are coalesced: a
// watcher that has not consumed the previous signal gets no second one.
type Notifier struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]chan struct{}
	closed bool
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[uuid.UUID]chan struct{})}
}

// Subscribe registers a watcher. The returned channel is closed by
// Unsubscribe or Close.
func (n *Notifier) Subscribe() (uuid.UUID, <-chan struct{}) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := uuid.New()
	ch := make(chan struct{}, 1)
	if n.closed {
		close(ch)
		return id, ch
	}
	n.subs[id] = ch
	return id, ch
}

func (n *Notifier) Unsubscribe(id uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if ch, ok := n.subs[id]; ok {
		delete(n.subs, id)
		close(ch)
	}
}

// Notify signals every watcher without blocking.
func (n *Notifier) Notify() {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for _, ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Len returns the number of active watchers.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs)
}

// Close ends all subscriptions. Later subscriptions are closed immediately.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	n.closed = true
	for id, ch := range n.subs {
		delete(n.subs, id)
		close(ch)
	}
}

// stream subscribes to n and runs the shared read loop until ctx is done.
func (n *Notifier) stream(ctx context.Context, load loadFunc) <-chan Snapshot {
	out := make(chan Snapshot, 1)
	id, changed := n.Subscribe()
	go func() {
		defer n.Unsubscribe(id)
		watch(ctx, load, changed, out)
	}()
	return out
}
