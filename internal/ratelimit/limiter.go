// Package ratelimit enforces per-(user, endpoint) quotas on top of a
// pluggable counter store.
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/newsreach/contact-discovery/internal/config"
	"github.com/newsreach/contact-discovery/internal/counter"
	"github.com/newsreach/contact-discovery/internal/model"
)

// Policy fixes the quota for one endpoint type.
type Policy struct {
	Points int
	Window time.Duration
	Block  time.Duration
}

// Endpoint types with a configured policy.
const (
	EndpointSearch   = "search"
	EndpointProgress = "progress"
	EndpointImport   = "import"
	EndpointHealth   = "health"
)

// PoliciesFromConfig builds the endpoint policy table from configuration.
func PoliciesFromConfig(cfg *config.Config) map[string]Policy {
	return map[string]Policy{
		EndpointSearch:   {Points: cfg.SearchLimit, Window: cfg.SearchWindow, Block: cfg.SearchBlock},
		EndpointProgress: {Points: cfg.ProgressLimit, Window: cfg.ProgressWindow},
		EndpointImport:   {Points: cfg.ImportLimit, Window: cfg.ImportWindow, Block: cfg.ImportBlock},
		EndpointHealth:   {Points: cfg.HealthLimit, Window: cfg.HealthWindow},
	}
}

// degrader is implemented by stores that can serve from a fallback.
type degrader interface{ Degraded() bool }

// Limiter enforces quotas. Consumption is atomic per key; the store decides
// whether counting is shared across instances or process-local.
type Limiter struct {
	store    counter.Store
	policies map[string]Policy
	log      zerolog.Logger
}

// New creates a Limiter over store with the given policy table.
func New(store counter.Store, policies map[string]Policy, log zerolog.Logger) *Limiter {
	return &Limiter{store: store, policies: policies, log: log}
}

func limiterKey(userID, endpointType string) string {
	return fmt.Sprintf("rl:%s:%s", userID, endpointType)
}

func retryAfterSeconds(until time.Time) int {
	ms := time.Until(until).Milliseconds()
	if ms <= 0 {
		return 1
	}
	return int(math.Ceil(float64(ms) / 1000.0))
}

// CheckLimit consumes cost points for (userID, endpointType). On exhaustion
// it returns a *model.RateLimitError carrying the retry delay; the error is
// always retryable.
func (l *Limiter) CheckLimit(ctx context.Context, userID, endpointType string, cost int) (*model.RateLimitState, error) {
	policy, ok := l.policies[endpointType]
	if !ok {
		return nil, fmt.Errorf("%w: unknown endpoint type %q", model.ErrValidation, endpointType)
	}
	if cost < 0 {
		return nil, fmt.Errorf("%w: negative cost", model.ErrValidation)
	}

	key := limiterKey(userID, endpointType)

	if until, blocked, err := l.store.BlockedUntil(ctx, key); err == nil && blocked {
		return nil, &model.RateLimitError{
			Limit:             policy.Points,
			Remaining:         0,
			ResetTime:         until,
			RetryAfterSeconds: retryAfterSeconds(until),
		}
	}

	res, err := l.store.Consume(ctx, key, cost, policy.Points, policy.Window)
	if err != nil {
		// Counter store failures are absorbed by the failover wrapper; an
		// error here means even the in-process fallback failed.
		return nil, err
	}

	if !res.Allowed {
		if policy.Block > 0 {
			if err := l.store.Block(ctx, key, policy.Block); err != nil {
				l.log.Warn().Err(err).Str("key", key).Msg("failed to record rate limit block")
			}
		}
		resetAt := res.ResetAt
		if policy.Block > 0 {
			resetAt = time.Now().Add(policy.Block)
		}
		return nil, &model.RateLimitError{
			Limit:             policy.Points,
			Remaining:         0,
			ResetTime:         resetAt,
			RetryAfterSeconds: retryAfterSeconds(resetAt),
		}
	}

	return &model.RateLimitState{
		UserID:        userID,
		EndpointType:  endpointType,
		Limit:         policy.Points,
		Remaining:     res.Remaining,
		WindowResetAt: res.ResetAt,
	}, nil
}

// GetStatus reports the remaining quota without consuming.
func (l *Limiter) GetStatus(ctx context.Context, userID, endpointType string) (*model.RateLimitState, error) {
	policy, ok := l.policies[endpointType]
	if !ok {
		return nil, fmt.Errorf("%w: unknown endpoint type %q", model.ErrValidation, endpointType)
	}

	key := limiterKey(userID, endpointType)
	state := &model.RateLimitState{
		UserID:       userID,
		EndpointType: endpointType,
		Limit:        policy.Points,
	}

	if until, blocked, err := l.store.BlockedUntil(ctx, key); err == nil && blocked {
		state.Remaining = 0
		state.WindowResetAt = until
		state.RetryAfterSeconds = retryAfterSeconds(until)
		return state, nil
	}

	res, err := l.store.Peek(ctx, key, policy.Points, policy.Window)
	if err != nil {
		return nil, err
	}
	state.Remaining = res.Remaining
	state.WindowResetAt = res.ResetAt
	return state, nil
}

// ResetUser clears all of a user's windows and blocks immediately.
// Administrative override.
func (l *Limiter) ResetUser(ctx context.Context, userID string) error {
	return l.store.Reset(ctx, limiterKey(userID, ""))
}

// HealthStatus is the limiter health report.
type HealthStatus struct {
	Status  string        `json:"status"` // healthy, degraded or unhealthy
	Latency time.Duration `json:"latency"`
}

// HealthCheck performs a zero-cost probe consumption and reports backend
// health. Degraded means the distributed store is down but the in-process
// fallback is serving.
func (l *Limiter) HealthCheck(ctx context.Context) HealthStatus {
	start := time.Now()
	_, err := l.store.Consume(ctx, "rl:health-probe", 0, 1, time.Minute)
	latency := time.Since(start)

	if err != nil {
		return HealthStatus{Status: "unhealthy", Latency: latency}
	}
	if d, ok := l.store.(degrader); ok && d.Degraded() {
		return HealthStatus{Status: "degraded", Latency: latency}
	}
	return HealthStatus{Status: "healthy", Latency: latency}
}
