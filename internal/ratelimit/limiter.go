// Package ratelimit implements fixed-window counters over the shared store.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/cwrk-planet/signaling-service/internal/storage"
)

// Spec allows Limit hits per Window. Limit <= 0 disables the bucket.
type Spec struct {
	Limit  int64
	Window time.Duration
}

type Decision struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

type Limiter struct {
	store storage.Store
	keys  storage.Keys
}

func New(store storage.Store, keys storage.Keys) *Limiter {
	return &Limiter{store: store, keys: keys}
}

// Check counts one hit for subject in bucket. On a store error the request is
// allowed and the error returned, so callers can log it and carry on.
func (l *Limiter) Check(ctx context.Context, bucket, subject string, spec Spec) (Decision, error) {
	if spec.Limit <= 0 {
		return Decision{Allowed: true}, nil
	}

	count, ttl, err := l.store.Incr(ctx, l.keys.RateLimit(bucket, subject), spec.Window)
	if err != nil {
		return Decision{Allowed: true}, fmt.Errorf("ratelimit %s: %w", bucket, err)
	}

	if count > spec.Limit {
		if ttl <= 0 {
			ttl = spec.Window
		}
		return Decision{Allowed: false, RetryAfter: ttl}, nil
	}
	return Decision{Allowed: true, Remaining: spec.Limit - count}, nil
}
