package fetcher

import (
	"math"
	"math/rand/v2"
	"time"
)

// RetryPolicy controls how failed requests are retried.
type RetryPolicy struct {
	// Wait is the pause before the first retry.
	Wait time.Duration

	// Multiplier grows the pause after every failed retry.
	// Values <= 1 keep the pause fixed.
	Multiplier float64

	// MaxWait caps the grown pause. 0 means no cap.
	MaxWait time.Duration

	// MaxAttempts bounds the total number of requests for one URL.
	// 0 retries forever.
	MaxAttempts int
}

// DefaultRetryPolicy waits 30 minutes between attempts and never gives up.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Wait:       30 * time.Minute,
		Multiplier: 1,
	}
}

// next returns the pause following a pause of wait.
func (p RetryPolicy) next(wait time.Duration) time.Duration {
	if p.Multiplier <= 1 {
		return wait
	}

	next := time.Duration(math.MaxInt64)
	if grown := float64(wait) * p.Multiplier; grown < math.MaxInt64 {
		next = time.Duration(grown)
	}
	if p.MaxWait > 0 && next > p.MaxWait {
		return p.MaxWait
	}
	return next
}

// exhausted reports whether attempt was the last allowed one.
func (p RetryPolicy) exhausted(attempt int) bool {
	return p.MaxAttempts > 0 && attempt >= p.MaxAttempts
}

// randomDelay returns a random duration in [lo, hi].
// When both bounds are whole seconds, the result is a whole number of
// seconds as well.
func randomDelay(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	if lo%time.Second == 0 && hi%time.Second == 0 {
		span := int64((hi - lo) / time.Second)
		return lo + time.Duration(rand.Int64N(span+1))*time.Second //nolint:gosec // jitter only
	}
	return lo + rand.N(hi-lo+1) //nolint:gosec // jitter only
}
