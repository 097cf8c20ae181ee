package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terra-clan/growth-tracker/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// PostgresConfig holds PostgreSQL connection configuration.
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository.
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 25 // default
	}

	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	} else {
		poolConfig.MinConns = 5 // default
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool, now: time.Now}, nil
}

// Ping checks database connectivity.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// ListAssessments returns all assessments for a user, newest first by date.
func (r *PostgresRepository) ListAssessments(ctx context.Context, userID string) ([]*models.Assessment, error) {
	query := `
		SELECT id, user_id, date, created_at, scores, notes
		FROM assessments
		WHERE user_id = $1
		ORDER BY date DESC, created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to list assessments: %w", err))
	}
	defer rows.Close()

	var list []*models.Assessment
	for rows.Next() {
		var a models.Assessment
		var scoresJSON, notesJSON []byte

		if err := rows.Scan(&a.ID, &a.UserID, &a.Date, &a.CreatedAt, &scoresJSON, &notesJSON); err != nil {
			return nil, classify(fmt.Errorf("failed to scan assessment: %w", err))
		}

		if err := json.Unmarshal(scoresJSON, &a.Scores); err != nil {
			return nil, fmt.Errorf("failed to unmarshal scores: %w", err)
		}
		if err := json.Unmarshal(notesJSON, &a.Notes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal notes: %w", err)
		}

		a.Normalize()
		list = append(list, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("failed to read assessments: %w", err))
	}

	return list, nil
}

// CreateAssessment persists a new assessment, assigning its id and
// created_at. The passed record is updated in place on success.
func (r *PostgresRepository) CreateAssessment(ctx context.Context, a *models.Assessment) error {
	a.Normalize()

	scoresJSON, err := json.Marshal(a.Scores)
	if err != nil {
		return fmt.Errorf("failed to marshal scores: %w", err)
	}

	notesJSON, err := json.Marshal(a.Notes)
	if err != nil {
		return fmt.Errorf("failed to marshal notes: %w", err)
	}

	id := uuid.New().String()
	createdAt := r.now().UTC()

	query := `
		INSERT INTO assessments (id, user_id, date, created_at, scores, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if _, err := r.pool.Exec(ctx, query, id, a.UserID, a.Date, createdAt, scoresJSON, notesJSON); err != nil {
		return classify(fmt.Errorf("failed to create assessment: %w", err))
	}

	a.ID = id
	a.CreatedAt = createdAt
	return nil
}

// DeleteAssessment removes an assessment by id. Deleting an unknown id
// is a no-op.
func (r *PostgresRepository) DeleteAssessment(ctx context.Context, userID, id string) error {
	query := `DELETE FROM assessments WHERE id = $1 AND user_id = $2`

	if _, err := r.pool.Exec(ctx, query, id, userID); err != nil {
		return classify(fmt.Errorf("failed to delete assessment: %w", err))
	}

	return nil
}

// GetUserByAPIKey looks up a user by API key. Returns (nil, nil) when
// no matching user exists.
func (r *PostgresRepository) GetUserByAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	query := `
		SELECT id, name, api_key, is_active, created_at, last_seen_at
		FROM users
		WHERE api_key = $1
	`

	var u models.User
	var lastSeen *time.Time

	err := r.pool.QueryRow(ctx, query, apiKey).Scan(
		&u.ID,
		&u.Name,
		&u.APIKey,
		&u.IsActive,
		&u.CreatedAt,
		&lastSeen,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, classify(fmt.Errorf("failed to get user: %w", err))
	}

	u.LastSeenAt = lastSeen
	return &u, nil
}

// GetUserByID looks up a user by id. Returns (nil, nil) when no
// matching user exists.
func (r *PostgresRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, name, api_key, is_active, created_at, last_seen_at
		FROM users
		WHERE id = $1
	`

	var u models.User
	var lastSeen *time.Time

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&u.ID,
		&u.Name,
		&u.APIKey,
		&u.IsActive,
		&u.CreatedAt,
		&lastSeen,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, classify(fmt.Errorf("failed to get user: %w", err))
	}

	u.LastSeenAt = lastSeen
	return &u, nil
}

// UpdateUserLastSeen stamps the user's last_seen_at with the current time.
func (r *PostgresRepository) UpdateUserLastSeen(ctx context.Context, userID string) error {
	query := `UPDATE users SET last_seen_at = NOW() WHERE id = $1`

	if _, err := r.pool.Exec(ctx, query, userID); err != nil {
		return classify(fmt.Errorf("failed to update user last_seen_at: %w", err))
	}

	return nil
}

// classify tags backend errors with the taxonomy sentinel callers
// match on. Permission failures (insufficient_privilege) map to
// ErrPermissionDenied, everything else to ErrStoreUnavailable.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "42501" {
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
