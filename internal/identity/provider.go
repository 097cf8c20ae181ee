// Package identity supplies the authenticated-user handle other
// components observe. Authentication mechanics live elsewhere; this
// package only models "who is signed in right now" and change
// notification around it.
package identity

import (
	"sync"

	"github.com/terra-clan/growth-tracker/internal/models"
)

// Provider exposes the current authenticated user and change
// notifications. Subscribe returns an unsubscribe function; callers
// must invoke it on teardown.
type Provider interface {
	Current() (models.User, bool)
	Subscribe(fn func(user models.User, ok bool)) (unsubscribe func())
}

// Handle is the canonical Provider implementation: one Handle per
// login session. Set and Clear notify subscribers synchronously, in
// registration order, while no lock is held.
type Handle struct {
	mu     sync.Mutex
	user   models.User
	signed bool

	nextID      int
	subscribers map[int]func(models.User, bool)
}

// NewHandle creates an empty (signed-out) identity handle.
func NewHandle() *Handle {
	return &Handle{subscribers: make(map[int]func(models.User, bool))}
}

// Current returns the signed-in user, if any.
func (h *Handle) Current() (models.User, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.user, h.signed
}

// Subscribe registers a change callback and returns its unsubscribe
// function. Unsubscribing twice is harmless.
func (h *Handle) Subscribe(fn func(models.User, bool)) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subscribers[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.subscribers, id)
		h.mu.Unlock()
	}
}

// Set signs a user in and notifies subscribers.
func (h *Handle) Set(user models.User) {
	h.mu.Lock()
	h.user = user
	h.signed = true
	subs := h.snapshot()
	h.mu.Unlock()

	for _, fn := range subs {
		fn(user, true)
	}
}

// Clear signs the current user out and notifies subscribers.
func (h *Handle) Clear() {
	h.mu.Lock()
	h.user = models.User{}
	h.signed = false
	subs := h.snapshot()
	h.mu.Unlock()

	for _, fn := range subs {
		fn(models.User{}, false)
	}
}

// snapshot copies subscribers in registration order; caller holds mu.
func (h *Handle) snapshot() []func(models.User, bool) {
	subs := make([]func(models.User, bool), 0, len(h.subscribers))
	for id := 0; id < h.nextID; id++ {
		if fn, ok := h.subscribers[id]; ok {
			subs = append(subs, fn)
		}
	}
	return subs
}
