package counter

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// FailoverStore serves from a primary (shared) store and fails over to an
// in-process fallback when the primary becomes unreachable. The degraded
// flag is the single piece of process-wide mutable state; it is updated
// atomically and safe to read from any caller.
type FailoverStore struct {
	primary  Store
	fallback Store
	degraded atomic.Bool
	log      zerolog.Logger
}

// NewFailoverStore wraps primary with fallback. Store errors from the
// primary are logged at warn level and never surfaced to callers.
func NewFailoverStore(primary, fallback Store, log zerolog.Logger) *FailoverStore {
	return &FailoverStore{primary: primary, fallback: fallback, log: log}
}

// Degraded reports whether requests are currently served by the fallback.
func (s *FailoverStore) Degraded() bool { return s.degraded.Load() }

// StartProbe periodically pings the primary and clears the degraded flag
// once it recovers. Blocks until ctx is done.
func (s *FailoverStore) StartProbe(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.degraded.Load() {
				continue
			}
			if err := s.primary.Ping(ctx); err == nil {
				s.degraded.Store(false)
				s.log.Info().Msg("primary counter store recovered, leaving degraded mode")
			}
		}
	}
}

func (s *FailoverStore) failover(op string, err error) {
	if s.degraded.CompareAndSwap(false, true) {
		s.log.Warn().Err(err).Str("op", op).Msg("counter store unreachable, failing over to in-process limiting")
	}
}

func (s *FailoverStore) Consume(ctx context.Context, key string, cost, limit int, window time.Duration) (Result, error) {
	if !s.degraded.Load() {
		res, err := s.primary.Consume(ctx, key, cost, limit, window)
		if err == nil {
			return res, nil
		}
		s.failover("consume", err)
	}
	return s.fallback.Consume(ctx, key, cost, limit, window)
}

func (s *FailoverStore) Peek(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	if !s.degraded.Load() {
		res, err := s.primary.Peek(ctx, key, limit, window)
		if err == nil {
			return res, nil
		}
		s.failover("peek", err)
	}
	return s.fallback.Peek(ctx, key, limit, window)
}

func (s *FailoverStore) Block(ctx context.Context, key string, d time.Duration) error {
	if !s.degraded.Load() {
		err := s.primary.Block(ctx, key, d)
		if err == nil {
			return nil
		}
		s.failover("block", err)
	}
	return s.fallback.Block(ctx, key, d)
}

func (s *FailoverStore) BlockedUntil(ctx context.Context, key string) (time.Time, bool, error) {
	if !s.degraded.Load() {
		until, ok, err := s.primary.BlockedUntil(ctx, key)
		if err == nil {
			return until, ok, nil
		}
		s.failover("blockedUntil", err)
	}
	return s.fallback.BlockedUntil(ctx, key)
}

func (s *FailoverStore) Reset(ctx context.Context, prefix string) error {
	// Reset both so an administrative override clears whichever backend is
	// currently serving.
	var primaryErr error
	if !s.degraded.Load() {
		primaryErr = s.primary.Reset(ctx, prefix)
		if primaryErr != nil {
			s.failover("reset", primaryErr)
		}
	}
	return s.fallback.Reset(ctx, prefix)
}

func (s *FailoverStore) Ping(ctx context.Context) error {
	return s.primary.Ping(ctx)
}

func (s *FailoverStore) Close() error {
	if err := s.primary.Close(); err != nil {
		_ = s.fallback.Close()
		return err
	}
	return s.fallback.Close()
}
