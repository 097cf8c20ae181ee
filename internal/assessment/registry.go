package assessment

import (
	"sync"

	"github.com/terra-clan/growth-tracker/internal/identity"
)

// Entry pairs a user's identity handle with their tracker. The handle
// is owned by the auth layer (it calls Set/Clear); the tracker reacts
// through its subscription.
type Entry struct {
	Handle  *identity.Handle
	Tracker *Tracker
}

// Registry holds one Entry per signed-in user.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

// GetOrCreate returns the user's entry, building one if absent. The
// build function runs at most once per live entry.
func (r *Registry) GetOrCreate(userID string, build func() *Entry) *Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[userID]; ok {
		return e
	}
	e := build()
	r.entries[userID] = e
	return e
}

// Get returns the user's entry, or nil.
func (r *Registry) Get(userID string) *Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[userID]
}

// Remove tears down a user's entry: the identity is cleared first so
// the tracker drops its state, then the tracker unsubscribes.
func (r *Registry) Remove(userID string) {
	r.mu.Lock()
	e, ok := r.entries[userID]
	delete(r.entries, userID)
	r.mu.Unlock()

	if !ok {
		return
	}
	e.Handle.Clear()
	e.Tracker.Close()
}

// ActiveUsers returns the ids of all users with a live entry.
func (r *Registry) ActiveUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.entries))
	for id := range r.entries {
		users = append(users, id)
	}
	return users
}

// Close tears down every entry.
func (r *Registry) Close() {
	for _, id := range r.ActiveUsers() {
		r.Remove(id)
	}
}
