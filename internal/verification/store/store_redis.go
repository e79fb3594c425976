package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"expenditure-workflow/internal/verification/domain"
)

const challengeKeyPrefix = "otp:order:"

// RedisStore keeps challenges in Redis with the challenge expiry as the key
// TTL, so expired entries disappear without a sweeper. Shared state across
// instances makes this the production store.
type RedisStore struct {
	client *redis.Client
	nowF   func() time.Time
}

// NewRedisStore returns a Redis-backed challenge store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, nowF: func() time.Time { return time.Now().UTC() }}
}

// Put stores the challenge under its order key with a TTL running to ExpiresAt.
func (s *RedisStore) Put(ctx context.Context, c *domain.Challenge) error {
	ttl := c.ExpiresAt.Sub(s.nowF())
	if ttl <= 0 {
		return fmt.Errorf("verification: challenge for order %s already expired", c.OrderID)
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, challengeKeyPrefix+c.OrderID, payload, ttl).Err()
}

// Get returns the live challenge for the order. A missing or expired key maps
// to ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, orderID string) (*domain.Challenge, error) {
	payload, err := s.client.Get(ctx, challengeKeyPrefix+orderID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var c domain.Challenge
	if err := json.Unmarshal(payload, &c); err != nil {
		return nil, fmt.Errorf("verification: decode challenge for order %s: %w", orderID, err)
	}
	return &c, nil
}

// Delete removes the challenge key.
func (s *RedisStore) Delete(ctx context.Context, orderID string) error {
	return s.client.Del(ctx, challengeKeyPrefix+orderID).Err()
}
