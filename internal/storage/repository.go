package storage

import (
	"context"
	"errors"

	"github.com/terra-clan/growth-tracker/internal/models"
)

// Backend failure kinds. Implementations wrap the driver error so the
// cause stays inspectable; callers match with errors.Is.
var (
	ErrStoreUnavailable = errors.New("assessment store unavailable")
	ErrPermissionDenied = errors.New("assessment store permission denied")
)

// Repository defines the persistence contract for assessments and users.
//
// ListAssessments returns the user's records newest first by date.
// CreateAssessment assigns the id and created_at server-side, mutating
// the passed record; it either fully succeeds (visible on the next
// list) or fully fails. DeleteAssessment of an unknown id is a no-op.
// Neither operation retries internally; retry policy belongs to the
// caller.
type Repository interface {
	ListAssessments(ctx context.Context, userID string) ([]*models.Assessment, error)
	CreateAssessment(ctx context.Context, a *models.Assessment) error
	DeleteAssessment(ctx context.Context, userID, id string) error

	// Users
	GetUserByAPIKey(ctx context.Context, apiKey string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUserLastSeen(ctx context.Context, userID string) error

	// Health
	Ping(ctx context.Context) error
	Close() error
}
