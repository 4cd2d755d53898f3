// Package watch provides in-process change notification for repositories.
//
// Each repository owns a Hub and pings it after every write. Read-side
// subscribers (the UI layer) receive a signal per change batch and re-run
// their query, which gives the restartable, re-emitting list semantics the
// store contract promises.
package watch

import (
	"context"
	"sync"
)

// Hub fans out change signals to subscribers. Signals are coalescing: a
// subscriber that has not drained its channel yet receives at most one
// pending signal.
type Hub struct {
	mu   sync.Mutex
	subs map[int]chan struct{}
	next int
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan struct{})}
}

// Notify signals all subscribers that underlying data changed.
func (h *Hub) Notify() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Subscribe registers a subscriber that is removed when ctx is cancelled.
// The returned channel fires once immediately so new subscribers load the
// current state without waiting for a mutation.
func (h *Hub) Subscribe(ctx context.Context) <-chan struct{} {
	ch := make(chan struct{}, 1)
	ch <- struct{}{}

	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = ch
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}()

	return ch
}
