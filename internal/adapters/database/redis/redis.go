package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/kug-advocacy/kug-platform/internal/adapters/database/redis/approvals"
	"github.com/kug-advocacy/kug-platform/internal/adapters/database/redis/leaderboards"
)

type Client struct {
	Approvals    *approvals.Storage
	Leaderboards *leaderboards.Storage

	clients []*redis.Client
}

type Options struct {
	Host     string
	Port     string
	Password string
	// DB is the first logical database; each storage takes the next one.
	DB int
}

func New(opts Options) (*Client, error) {
	approvalStorage := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", opts.Host, opts.Port),
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := approvalStorage.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping approvals storage: %w", err)
	}

	leaderboardStorage := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", opts.Host, opts.Port),
		Password: opts.Password,
		DB:       opts.DB + 1,
	})
	if err := leaderboardStorage.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping leaderboards storage: %w", err)
	}

	return &Client{
		Approvals:    approvals.NewStorage(approvalStorage),
		Leaderboards: leaderboards.NewStorage(leaderboardStorage),
		clients:      []*redis.Client{approvalStorage, leaderboardStorage},
	}, nil
}

func (c *Client) Close() error {
	var firstErr error
	for _, client := range c.clients {
		if err := client.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
