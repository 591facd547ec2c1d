// Package ratelimit implements a fixed-window counter on the broker.
// The window resets at discrete boundaries; up to 2x the limit can pass
// across a boundary, accepted in exchange for O(1) broker operations and
// no per-process state.
package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/mekaushikranjan/ConnectLocal-sub002/contract"
)

const keyPrefix = "rate:"

// Result is the limiter's decision plus what a client-visible throttling
// header needs: the remaining quota and when the window resets.
type Result struct {
	Count     int64
	Allowed   bool
	Remaining int64
	ResetAt   time.Time
}

type Limiter struct {
	broker contract.Broker
	log    *slog.Logger
	now    func() time.Time
}

func NewLimiter(broker contract.Broker, log *slog.Logger) *Limiter {
	return &Limiter{broker: broker, log: log, now: time.Now}
}

// Consume counts one hit for the identifier and decides whether it fits
// the window. If the broker is unreachable the limiter fails open:
// availability wins over strict quota enforcement.
func (l *Limiter) Consume(ctx context.Context, identifier string, window time.Duration, limit int64) Result {
	count, remaining, err := l.broker.IncrWithExpiry(ctx, keyPrefix+identifier, window)
	if err != nil {
		l.log.Warn("Rate limiter failing open", "identifier", identifier, "error", err)
		return Result{Count: 0, Allowed: true, Remaining: limit, ResetAt: l.now().Add(window)}
	}

	left := limit - count
	if left < 0 {
		left = 0
	}
	return Result{
		Count:     count,
		Allowed:   count <= limit,
		Remaining: left,
		ResetAt:   l.now().Add(remaining),
	}
}
