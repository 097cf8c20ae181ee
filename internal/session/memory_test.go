package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour)

	token, err := s.Create(ctx, "u-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := s.Lookup(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", userID)

	active, err := s.ActiveUser(ctx, "u-1")
	require.NoError(t, err)
	assert.True(t, active)

	require.NoError(t, s.Delete(ctx, token))

	_, err = s.Lookup(ctx, token)
	assert.ErrorIs(t, err, ErrNotFound)

	active, err = s.ActiveUser(ctx, "u-1")
	require.NoError(t, err)
	assert.False(t, active)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute)

	current := time.Now()
	s.now = func() time.Time { return current }

	token, err := s.Create(ctx, "u-1")
	require.NoError(t, err)

	// Just before expiry the session resolves and can be extended.
	current = current.Add(59 * time.Second)
	require.NoError(t, s.Touch(ctx, token))

	// Past the extended TTL it is gone.
	current = current.Add(2 * time.Minute)
	_, err = s.Lookup(ctx, token)
	assert.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, s.Touch(ctx, token), ErrNotFound)
}

func TestMemoryStoreUnknownToken(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour)

	_, err := s.Lookup(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting an unknown token is a no-op.
	assert.NoError(t, s.Delete(ctx, "missing"))
}
