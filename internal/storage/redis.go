package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"product_advisor/pkg"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

// SessionTTL is the default session TTL
const SessionTTL = 60 * time.Minute

// RedisSessionStore keeps preference records in Redis under session:{id}
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore connects to redisURL and verifies the connection
func NewRedisSessionStore(ctx context.Context, redisURL string, ttl time.Duration) (*RedisSessionStore, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis URL is required")
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisSessionStoreWithClient(client, ttl), nil
}

// NewRedisSessionStoreWithClient wraps an existing client; ttl <= 0 uses SessionTTL
func NewRedisSessionStoreWithClient(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = SessionTTL
	}
	return &RedisSessionStore{client: client, ttl: ttl}
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

// Load returns the stored record; an unknown or expired session yields an empty record
func (r *RedisSessionStore) Load(ctx context.Context, sessionID string) (pkg.PreferenceRecord, error) {
	data, err := r.client.Get(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return pkg.PreferenceRecord{}, nil
		}
		return pkg.PreferenceRecord{}, fmt.Errorf("failed to get session data: %w", err)
	}

	var record pkg.PreferenceRecord
	if err := sonic.UnmarshalString(data, &record); err != nil {
		return pkg.PreferenceRecord{}, fmt.Errorf("failed to unmarshal session data: %w", err)
	}
	return record, nil
}

// Save stores the record and refreshes the TTL
func (r *RedisSessionStore) Save(ctx context.Context, sessionID string, record pkg.PreferenceRecord) error {
	data, err := sonic.MarshalString(record)
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	if err := r.client.Set(ctx, sessionKey(sessionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session data: %w", err)
	}
	return nil
}

// Delete removes a session
func (r *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Exists checks if a session exists
func (r *RedisSessionStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	count, err := r.client.Exists(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check session existence: %w", err)
	}
	return count > 0, nil
}

// Close closes the Redis connection
func (r *RedisSessionStore) Close() error {
	return r.client.Close()
}
