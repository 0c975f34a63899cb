package cache

import (
	"context"
	"fmt"
	"time"

	"salon-booking/pkg/utils"

	"github.com/go-redis/redis/v8"
)

// NewClient connects to Redis and verifies the connection with a ping.
func NewClient(cfg utils.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// SignalGuard drops payment-completion signals that were already accepted
// by any instance within the TTL.
type SignalGuard struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewSignalGuard(client *redis.Client, ttl time.Duration) *SignalGuard {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignalGuard{client: client, ttl: ttl, prefix: "payment:signal:"}
}

// Acquire returns true when the caller is the first to claim key.
func (g *SignalGuard) Acquire(ctx context.Context, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.prefix+key, time.Now().UTC().Unix(), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim signal %s: %w", key, err)
	}
	return ok, nil
}

// Release forgets key so a redelivery can be processed again.
func (g *SignalGuard) Release(ctx context.Context, key string) error {
	if err := g.client.Del(ctx, g.prefix+key).Err(); err != nil {
		return fmt.Errorf("release signal %s: %w", key, err)
	}
	return nil
}
