package redis

import (
	"context"
	"fmt"
	"time"

	"tokenpay/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
)

// StatusCache implements ports.PaymentStatusCache using Redis. Only terminal
// payment states are cached, so a hit short-circuits the gateway poll.
type StatusCache struct {
	client *goredis.Client
	prefix string
}

// NewStatusCache creates a new Redis-backed payment status cache.
func NewStatusCache(client *goredis.Client) *StatusCache {
	return &StatusCache{
		client: client,
		prefix: "payment:status:",
	}
}

// Get retrieves a cached payment status by QR digest.
// Returns "" if the digest has no cached status.
func (c *StatusCache) Get(ctx context.Context, digest string) (domain.PaymentStatus, error) {
	val, err := c.client.Get(ctx, c.prefix+digest).Result()
	if err != nil {
		if err == goredis.Nil {
			return "", nil
		}
		return "", fmt.Errorf("redis status get: %w", err)
	}
	return domain.PaymentStatus(val), nil
}

// Set stores a payment status with TTL.
func (c *StatusCache) Set(ctx context.Context, digest string, status domain.PaymentStatus, ttl time.Duration) error {
	err := c.client.Set(ctx, c.prefix+digest, string(status), ttl).Err()
	if err != nil {
		return fmt.Errorf("redis status set: %w", err)
	}
	return nil
}
