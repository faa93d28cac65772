package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const localSweepInterval = 5 * time.Minute

type localEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

// LocalLimiter is an in-process token bucket per key, used when no Redis is
// configured. Limits are per server instance.
type LocalLimiter struct {
	mu        sync.Mutex
	entries   map[string]*localEntry
	limit     int
	every     time.Duration
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewLocalLimiter allows bursts of limit hits and refills one hit per
// window/limit.
func NewLocalLimiter(limit int, window time.Duration) *LocalLimiter {
	if limit < 1 {
		limit = 1
	}
	return &LocalLimiter{
		entries: make(map[string]*localEntry),
		limit:   limit,
		every:   window / time.Duration(limit),
		idleTTL: 2 * window,
		now:     time.Now,
	}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	e, ok := l.entries[key]
	if !ok {
		e = &localEntry{limiter: rate.NewLimiter(rate.Every(l.every), l.limit)}
		l.entries[key] = e
	}
	e.lastUse = now

	r := e.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return Decision{Allowed: false, Limit: l.limit, RetryAfter: delay}, nil
	}
	return Decision{Allowed: true, Limit: l.limit, Remaining: int(e.limiter.TokensAt(now))}, nil
}

func (l *LocalLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < localSweepInterval {
		return
	}
	l.lastSweep = now
	for k, e := range l.entries {
		if now.Sub(e.lastUse) > l.idleTTL {
			delete(l.entries, k)
		}
	}
}
