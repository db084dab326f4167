// Package redis shares state between dispatch instances: the last known
// courier positions and the sync event bus that lets every instance push
// committed order events to its own connections.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Options mirrors the REDIS_* settings.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Connect opens a client and checks the server answers.
func Connect(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}
