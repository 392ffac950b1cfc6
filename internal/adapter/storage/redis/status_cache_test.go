package redis

import (
	"context"
	"testing"
	"time"

	"tokenpay/internal/core/domain"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCache_SetAndGet(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewStatusCache(client)
	ctx := context.Background()

	digest := "7b4b73731194673447891ed24fffcf36"

	// Get before set => empty status
	status, err := cache.Get(ctx, digest)
	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentStatus(""), status)

	// Set
	err = cache.Set(ctx, digest, domain.PaymentStatusCompleted, time.Hour)
	require.NoError(t, err)

	// Get after set
	status, err = cache.Get(ctx, digest)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCompleted, status)
}

func TestStatusCache_TTLExpiry(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewStatusCache(client)
	ctx := context.Background()

	digest := "0f343b0931126a20f133d67c2b018a3b"

	err := cache.Set(ctx, digest, domain.PaymentStatusFailed, time.Second)
	require.NoError(t, err)

	// Fast-forward time in miniredis
	s.FastForward(2 * time.Second)

	status, err := cache.Get(ctx, digest)
	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentStatus(""), status, "expired digest should return empty status")
}

func TestStatusCache_KeyIsolation(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewStatusCache(client)
	ctx := context.Background()

	err := cache.Set(ctx, "digest-a", domain.PaymentStatusCompleted, time.Hour)
	require.NoError(t, err)
	err = cache.Set(ctx, "digest-b", domain.PaymentStatusFailed, time.Hour)
	require.NoError(t, err)

	a, err := cache.Get(ctx, "digest-a")
	require.NoError(t, err)
	b, err := cache.Get(ctx, "digest-b")
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentStatusCompleted, a)
	assert.Equal(t, domain.PaymentStatusFailed, b)
}

func TestHealthCheck_Ping(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	hc := NewHealthCheck(client)

	assert.NoError(t, hc.Ping(context.Background()))
	assert.Equal(t, "redis", hc.Name())

	s.Close()
	assert.Error(t, hc.Ping(context.Background()))
}
