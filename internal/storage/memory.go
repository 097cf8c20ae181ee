package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/terra-clan/growth-tracker/internal/models"
)

// MemoryRepository implements Repository in process memory. It backs
// tests and database-less development; the production store is
// PostgresRepository.
type MemoryRepository struct {
	mu          sync.Mutex
	users       map[string]*models.User         // by id
	assessments map[string][]*models.Assessment // by user, newest first
	now         func() time.Time
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:       make(map[string]*models.User),
		assessments: make(map[string][]*models.Assessment),
		now:         time.Now,
	}
}

// AddUser registers a user record.
func (r *MemoryRepository) AddUser(u *models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.users[u.ID] = &cp
}

func (r *MemoryRepository) ListAssessments(_ context.Context, userID string) ([]*models.Assessment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.assessments[userID]
	out := make([]*models.Assessment, len(list))
	for i, a := range list {
		out[i] = a.Clone()
	}
	return out, nil
}

func (r *MemoryRepository) CreateAssessment(_ context.Context, a *models.Assessment) error {
	a.Normalize()
	a.ID = uuid.New().String()
	a.CreatedAt = r.now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	list := append(r.assessments[a.UserID], a.Clone())
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].Date.Equal(list[j].Date) {
			return list[i].Date.After(list[j].Date)
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	r.assessments[a.UserID] = list
	return nil
}

func (r *MemoryRepository) DeleteAssessment(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.assessments[userID]
	kept := list[:0]
	for _, a := range list {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	r.assessments[userID] = kept
	return nil
}

func (r *MemoryRepository) GetUserByAPIKey(_ context.Context, apiKey string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.APIKey == apiKey {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) GetUserByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *MemoryRepository) UpdateUserLastSeen(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.users[userID]; ok {
		now := r.now().UTC()
		u.LastSeenAt = &now
	}
	return nil
}

func (r *MemoryRepository) Ping(context.Context) error { return nil }

func (r *MemoryRepository) Close() error { return nil }
