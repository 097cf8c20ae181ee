package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

// RedisStore implements Store on a Redis backend. Expiry is handled by
// per-key TTLs; no background sweeping is needed.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies connectivity.
func NewRedisStore(address, password string, db int, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

// Create issues a new session token for the user.
func (s *RedisStore) Create(ctx context.Context, userID string) (string, error) {
	token := uuid.New().String()

	if err := s.client.Set(ctx, keyPrefix+token, userID, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	slog.Debug("session created", "user", userID, "ttl", s.ttl)
	return token, nil
}

// Lookup resolves a token to its user id.
func (s *RedisStore) Lookup(ctx context.Context, token string) (string, error) {
	userID, err := s.client.Get(ctx, keyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to look up session: %w", err)
	}
	return userID, nil
}

// Touch extends a live session by the store TTL.
func (s *RedisStore) Touch(ctx context.Context, token string) error {
	ok, err := s.client.Expire(ctx, keyPrefix+token, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Delete removes a session. Unknown tokens are a no-op.
func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, keyPrefix+token).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// ActiveUser scans live sessions for one owned by the user.
func (s *RedisStore) ActiveUser(ctx context.Context, userID string) (bool, error) {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return false, fmt.Errorf("failed to scan sessions: %w", err)
		}

		for _, key := range keys {
			owner, err := s.client.Get(ctx, key).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue // expired between scan and get
				}
				return false, fmt.Errorf("failed to read session: %w", err)
			}
			if owner == userID {
				return true, nil
			}
		}

		cursor = next
		if cursor == 0 {
			return false, nil
		}
	}
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
