package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/custodia-labs/coupon/internal/core/domain"
)

// NewClient creates a client for the configured server and checks that it
// answers.
func NewClient(ctx context.Context, settings domain.RedisSettings) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     settings.Addr,
		Password: settings.Password,
		DB:       settings.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", settings.Addr, err)
	}
	return client, nil
}
