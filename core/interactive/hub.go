package interactive

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// HandlerFunc receives platform events.
type HandlerFunc func(ctx context.Context, ev Event) error

// Source is a stream of platform events.
type Source interface {
	// Subscribe registers h and returns a function removing it again.
	Subscribe(h HandlerFunc) (unsubscribe func())
}

type subscription struct {
	id string
	h  HandlerFunc
}

// Hub fans platform events out to subscribers in subscription order. The
// transport adapter publishes into it; registries subscribe to it.
type Hub struct {
	mu   sync.RWMutex
	subs []subscription
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{}
}

// Subscribe adds h. The returned function is idempotent.
func (h *Hub) Subscribe(fn HandlerFunc) func() {
	if fn == nil {
		return func() {}
	}
	id := uuid.NewString()
	h.mu.Lock()
	h.subs = append(h.subs, subscription{id: id, h: fn})
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			for i, s := range h.subs {
				if s.id == id {
					h.subs = append(h.subs[:i:i], h.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Publish delivers ev to every current subscriber without holding the lock,
// so handlers may subscribe or unsubscribe while running. Errors are joined.
func (h *Hub) Publish(ctx context.Context, ev Event) error {
	h.mu.RLock()
	subs := append([]subscription(nil), h.subs...)
	h.mu.RUnlock()

	var errs []error
	for _, s := range subs {
		if err := s.h(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
