// Package counter provides the windowed counter store behind the rate
// limiter. Implementations must make Consume atomic per key so concurrent
// callers observe monotonically non-increasing remaining within a window.
package counter

import (
	"context"
	"time"
)

// Result reports the outcome of a consume or peek against one key.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Store exposes the counter operations required by the rate limiter.
// Implementations live under this package (memory, redis, failover).
type Store interface {
	// Consume atomically takes cost points from key's current window,
	// creating the window lazily on first consumption.
	Consume(ctx context.Context, key string, cost, limit int, window time.Duration) (Result, error)

	// Peek reports the current window state without consuming.
	Peek(ctx context.Context, key string, limit int, window time.Duration) (Result, error)

	// Block marks key as blocked for d. BlockedUntil reads the mark back.
	Block(ctx context.Context, key string, d time.Duration) error
	BlockedUntil(ctx context.Context, key string) (time.Time, bool, error)

	// Reset clears all windows and blocks whose key starts with prefix.
	Reset(ctx context.Context, prefix string) error

	Ping(ctx context.Context) error
	Close() error
}
