package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store for tests and redis-less
// development. Expired entries are dropped lazily on access.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]memorySession
	ttl      time.Duration
	now      func() time.Time
}

type memorySession struct {
	userID    string
	expiresAt time.Time
}

// NewMemoryStore creates an in-memory session store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		sessions: make(map[string]memorySession),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, userID string) (string, error) {
	token := uuid.New().String()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = memorySession{userID: userID, expiresAt: s.now().Add(s.ttl)}
	return token, nil
}

func (s *MemoryStore) Lookup(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return "", ErrNotFound
	}
	if s.now().After(sess.expiresAt) {
		delete(s.sessions, token)
		return "", ErrNotFound
	}
	return sess.userID, nil
}

func (s *MemoryStore) Touch(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok || s.now().After(sess.expiresAt) {
		delete(s.sessions, token)
		return ErrNotFound
	}
	sess.expiresAt = s.now().Add(s.ttl)
	s.sessions[token] = sess
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *MemoryStore) ActiveUser(_ context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for token, sess := range s.sessions {
		if now.After(sess.expiresAt) {
			delete(s.sessions, token)
			continue
		}
		if sess.userID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) Close() error { return nil }
