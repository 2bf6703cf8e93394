// internal/ratelimit/limiter.go
package ratelimit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Decision is the outcome of a quota check. Unbounded decisions carry
// Limit == Unlimited and never touched the counter store.
type Decision struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   time.Time
}

// Unbounded reports whether the decision came from an unlimited quota.
func (d Decision) Unbounded() bool {
	return d.Limit == Unlimited
}

// RetryAfter returns the whole seconds until the window resets, for the
// Retry-After header. Never negative.
func (d Decision) RetryAfter(now time.Time) int {
	secs := int(d.ResetAt.Sub(now).Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Limiter checks quotas against a shared counter store. It fails open: a
// store error yields an allowed decision alongside the error, so callers can
// log the outage without ever turning it into a rejection.
type Limiter struct {
	store  CounterStore
	logger *zap.Logger
}

// NewLimiter creates a limiter over a counter store.
func NewLimiter(store CounterStore, logger *zap.Logger) *Limiter {
	return &Limiter{store: store, logger: logger}
}

// Check admits or rejects one request for (tier, key) under quota.
func (l *Limiter) Check(ctx context.Context, tier Tier, key string, quota Quota) (Decision, error) {
	if quota.Unbounded() {
		return Decision{Allowed: true, Limit: Unlimited, Remaining: Unlimited}, nil
	}

	count, ttl, err := l.store.Incr(ctx, string(tier)+":"+key, quota.Window)
	if err != nil {
		l.logger.Warn("counter store unavailable, failing open",
			zap.String("tier", string(tier)),
			zap.Error(err))
		return Decision{
			Allowed:   true,
			Limit:     quota.Limit,
			Remaining: quota.Limit,
			ResetAt:   time.Now().Add(quota.Window),
		}, err
	}

	resetAt := time.Now().Add(ttl)
	if count > quota.Limit {
		return Decision{Allowed: false, Limit: quota.Limit, Remaining: 0, ResetAt: resetAt}, nil
	}

	return Decision{
		Allowed:   true,
		Limit:     quota.Limit,
		Remaining: quota.Limit - count,
		ResetAt:   resetAt,
	}, nil
}
