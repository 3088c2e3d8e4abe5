// Package cache opens the Redis connection that backs the settings snapshot
// cache and the per-invoice reconciliation locks.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// PingTimeout bounds the startup reachability check.
const PingTimeout = 5 * time.Second

// New connects to addr and pings it. The API server treats an error as "run
// without Redis"; the worker cannot start without it.
func New(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:       addr,
		ClientName: "catering",
	})

	pingCtx, cancel := context.WithTimeout(ctx, PingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("platform/cache: ping redis %s: %w", addr, err)
	}
	return client, nil
}
