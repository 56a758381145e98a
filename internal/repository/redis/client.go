package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/visheshwork12-cmyk/trust-engine/internal/config"
	"github.com/visheshwork12-cmyk/trust-engine/internal/domain"
)

// NewClient connects to the Trust Store and verifies the connection.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to trust store at %s: %w", cfg.Addr(), err)
	}

	return client, nil
}

// storeErr maps a driver failure to the transient-failure kind callers
// test for with errors.Is.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, domain.ErrTrustStoreUnavailable, err)
}
