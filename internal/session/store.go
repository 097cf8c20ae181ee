// Package session issues and resolves opaque bearer tokens for
// authenticated users. Token expiry is the store's concern; tearing
// down per-user state after expiry belongs to the cleanup reaper.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a token does not resolve to a live session.
var ErrNotFound = errors.New("session not found")

// Store manages the token -> user mapping.
type Store interface {
	// Create issues a new token for the user with the store's TTL.
	Create(ctx context.Context, userID string) (token string, err error)

	// Lookup resolves a token to its user id. ErrNotFound for unknown
	// or expired tokens.
	Lookup(ctx context.Context, token string) (userID string, err error)

	// Touch extends the TTL of a live session.
	Touch(ctx context.Context, token string) error

	// Delete removes a session. Unknown tokens are a no-op.
	Delete(ctx context.Context, token string) error

	// ActiveUser reports whether at least one live session exists for
	// the user.
	ActiveUser(ctx context.Context, userID string) (bool, error)

	Close() error
}

// DefaultTTL is used when a store is configured with a non-positive TTL.
const DefaultTTL = 24 * time.Hour
