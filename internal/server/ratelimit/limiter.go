// Package ratelimit throttles unauthenticated auth endpoints per client.
package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter counts hits per key. Implementations that depend on a remote store
// return Allowed=true together with the store error, so callers fail open.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}
