// Package session carries the authenticated user through the service layer.
// There is no ambient current user: callers pass a Session explicitly, and
// sign-in/sign-out transitions are announced on a Hub.
package session

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Session identifies the signed-in user and the token that authenticated them.
type Session struct {
	UserID    string
	Email     string
	Name      string
	Token     string
	ExpiresAt time.Time
}

// Valid reports whether the session names a user.
func (s Session) Valid() bool {
	return s.UserID != ""
}

// Kind is the type of a session transition.
type Kind int

const (
	SignedIn Kind = iota + 1
	SignedOut
)

func (k Kind) String() string {
	switch k {
	case SignedIn:
		return "signed_in"
	case SignedOut:
		return "signed_out"
	default:
		return "unknown"
	}
}

// Event is published when a session starts or ends.
type Event struct {
	Kind    Kind
	Session Session
	At      time.Time
}

// Listener receives session events.
type Listener func(ctx context.Context, ev Event)

// Hub fans session events out to listeners in subscription order.
type Hub struct {
	mu   sync.RWMutex
	next int
	subs map[int]Listener
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{subs: make(map[int]Listener)}
}

// Subscribe registers fn and returns the function that removes it.
func (h *Hub) Subscribe(fn Listener) (unsubscribe func()) {
	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

// Publish delivers ev synchronously to every listener.
func (h *Hub) Publish(ctx context.Context, ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	h.mu.RLock()
	ids := make([]int, 0, len(h.subs))
	for id := range h.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, h.subs[id])
	}
	h.mu.RUnlock()

	for _, fn := range listeners {
		fn(ctx, ev)
	}
}

// Len returns the number of active listeners.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
