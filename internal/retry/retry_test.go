package retry

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_Decide(t *testing.T) {
	p := Policy{
		InitialInterval: time.Second,
		MaxInterval:     4 * time.Second,
		Multiplier:      2,
		MaxAttempts:     5,
	}

	t.Run("will cap the computed interval", func(t *testing.T) {
		t.Run("at MaxInterval", func(t *testing.T) {
			uncapped := p
			uncapped.MaxAttempts = 0

			d := uncapped.Decide(10, 0)
			if !assert.True(t, d.Retry) {
				return
			}
			assert.Equal(t, 4*time.Second, d.Delay)
		})
	})

	t.Run("will stop retrying", func(t *testing.T) {
		t.Run("once MaxAttempts has been reached", func(t *testing.T) {
			d := p.Decide(5, 0)
			assert.False(t, d.Retry)
		})
	})

	t.Run("will be exactly deterministic", func(t *testing.T) {
		t.Run("when Jitter is zero", func(t *testing.T) {
			for i := 0; i < 20; i++ {
				d := p.Decide(3, 0)
				if !assert.True(t, d.Retry) {
					return
				}
				assert.Equal(t, 4*time.Second, d.Delay)
			}
		})
	})

	t.Run("will honor a server-specified delay", func(t *testing.T) {
		t.Run("as an authoritative override, not a floor", func(t *testing.T) {
			withJitter := p
			withJitter.Jitter = 1

			d := withJitter.Decide(1, 10*time.Millisecond)
			if !assert.True(t, d.Retry) {
				return
			}
			assert.Equal(t, 10*time.Millisecond, d.Delay)
		})

		t.Run("even when the computed delay would be larger", func(t *testing.T) {
			d := p.Decide(4, time.Millisecond)
			if !assert.True(t, d.Retry) {
				return
			}
			assert.Equal(t, time.Millisecond, d.Delay)
		})
	})

	t.Run("will bound the jittered delay", func(t *testing.T) {
		t.Run("within interval*(1-Jitter) and interval*(1+Jitter)", func(t *testing.T) {
			withJitter := p
			withJitter.Jitter = 0.5

			for i := 0; i < 50; i++ {
				d := withJitter.Decide(2, 0)
				if !assert.True(t, d.Retry) {
					return
				}
				assert.GreaterOrEqual(t, d.Delay, time.Second)
				assert.LessOrEqual(t, d.Delay, 3*time.Second)
			}
		})
	})
}

func TestClassifyHTTP(t *testing.T) {
	t.Run("will report retryable", func(t *testing.T) {
		t.Run("for 429, 502, 503, and 504", func(t *testing.T) {
			for _, code := range []int{http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout} {
				retryable, _ := ClassifyHTTP(code, "")
				assert.Truef(t, retryable, "status %d should be retryable", code)
			}
		})
	})

	t.Run("will report not retryable", func(t *testing.T) {
		t.Run("for 400", func(t *testing.T) {
			retryable, _ := ClassifyHTTP(http.StatusBadRequest, "")
			assert.False(t, retryable)
		})
	})
}

func TestParseRetryAfter(t *testing.T) {
	t.Run("will parse a number of seconds", func(t *testing.T) {
		assert.Equal(t, 5*time.Second, ParseRetryAfter("5"))
	})

	t.Run("will return zero", func(t *testing.T) {
		t.Run("for an empty header", func(t *testing.T) {
			assert.Equal(t, time.Duration(0), ParseRetryAfter(""))
		})
	})
}
