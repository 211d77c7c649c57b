// Package limiter implements fixed-window request throttling for
// sensitive endpoints. Counters are keyed by an identifier such as
// "reserve:<accountID>"; the policy (max requests per window) is the
// same for every backend.
package limiter

import (
	"context"
	"time"
)

// Limiter bounds the request rate for an identifier key. When a request
// is denied, retryAfter hints how long until the window resets.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}
