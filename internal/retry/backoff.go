// Package retry provides the shared exponential-backoff-with-jitter
// calculation used by L3's (Binance) and L6's outbound HTTP retries; the
// L9 readiness prober computes its own backoff in internal/readiness. Each
// caller owns its own retry loop (the cap, base, and jitter differ per
// component) but all of them compute sleep duration the same way,
// grounded on the teacher's internal/infrastructure/httpclient pool.
package retry

import (
	"math"
	"math/rand"
	"time"
)

// Backoff computes exponential backoff with a hard cap and up to
// jitterFrac additional random delay, mirroring the teacher's
// ClientPool.calculateBackoff.
func Backoff(base, cap time.Duration, attempt int, jitterFrac float64) time.Duration {
	d := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if d > cap {
		d = cap
	}
	if jitterFrac <= 0 {
		return d
	}
	jitter := time.Duration(rand.Float64() * jitterFrac * float64(d))
	return d + jitter
}
