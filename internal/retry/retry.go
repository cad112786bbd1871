// Package retry implements the bounded exponential backoff with jitter
// used by the OTLP HTTP and gRPC exporters when a collector responds
// with a retryable failure.
package retry

import (
	"context"
	"math/rand/v2"
	"time"
)

// Policy configures the backoff schedule.
type Policy struct {
	// InitialInterval is the delay before the first retry.
	InitialInterval time.Duration
	// MaxInterval caps the computed delay, before jitter.
	MaxInterval time.Duration
	// Multiplier scales the interval after each attempt.
	Multiplier float64
	// MaxAttempts bounds the total number of attempts (the first try
	// plus every retry); once reached, Decide reports not-retryable
	// regardless of elapsed time. Zero means unbounded.
	MaxAttempts int
	// Jitter is the fraction of the computed delay, in [0, 1], that may
	// be added or subtracted at random. Zero disables jitter entirely,
	// making Decide's output deterministic.
	Jitter float64
}

// DefaultPolicy matches the backoff schedule used by the official OTLP
// exporters: 5s initial, 30s cap, doubling, full jitter, unbounded
// attempts.
var DefaultPolicy = Policy{
	InitialInterval: 5 * time.Second,
	MaxInterval:     30 * time.Second,
	Multiplier:      2,
	Jitter:          1,
}

// Decision is the outcome of evaluating whether to retry.
type Decision struct {
	Retry bool
	Delay time.Duration
}

// Decide computes whether attempt (1-indexed, the number of attempts
// already made) should be retried and after what delay, given an
// optional server-specified delay (from a Retry-After header/trailer;
// zero if none was given). A server-specified delay is authoritative:
// it is returned as-is, never compared against or overridden by the
// computed exponential delay.
func (p Policy) Decide(attempt int, serverDelay time.Duration) Decision {
	if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
		return Decision{Retry: false}
	}

	if serverDelay > 0 {
		return Decision{Retry: true, Delay: serverDelay}
	}

	interval := float64(p.InitialInterval)
	for i := 1; i < attempt; i++ {
		interval *= p.Multiplier
		if interval > float64(p.MaxInterval) {
			interval = float64(p.MaxInterval)
			break
		}
	}

	var jittered float64
	if p.Jitter > 0 {
		r := rand.Float64()*2 - 1 // uniform in [-1, 1]
		jittered = interval * p.Jitter * r
	}

	delay := interval + jittered
	if delay < 0 {
		delay = 0
	}

	return Decision{Retry: true, Delay: time.Duration(delay)}
}

// Do runs op, retrying according to p whenever classify reports op's
// error as retryable, until op succeeds, returns a non-retryable error,
// p's attempt budget is exhausted, or ctx is cancelled. classify
// determines whether an arbitrary error returned by op should be
// retried and, if so, any server-requested delay.
func Do(ctx context.Context, p Policy, classify func(error) (retryable bool, serverDelay time.Duration), op func(context.Context) error) error {
	attempt := 0

	for {
		attempt++
		err := op(ctx)
		if err == nil {
			return nil
		}

		retryable, serverDelay := classify(err)
		if !retryable {
			return err
		}

		decision := p.Decide(attempt, serverDelay)
		if !decision.Retry {
			return err
		}

		timer := time.NewTimer(decision.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
