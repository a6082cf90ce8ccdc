package prefstore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sony/gobreaker"
)

// BackoffConfig controls exponential backoff for durable writes.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultBackoff is used when a backend is opened without explicit settings.
var DefaultBackoff = BackoffConfig{
	MaxRetries:      3,
	InitialInterval: 50 * time.Millisecond,
	MaxInterval:     time.Second,
}

var (
	errCircuitOpen   = errors.New("circuit breaker open")
	errInvalidConfig = errors.New("invalid backoff configuration")
)

// writeGuard retries failed writes with exponential backoff behind a circuit
// breaker, so a store that keeps failing is not hammered on every save.
type writeGuard struct {
	backoff   BackoffConfig
	circuit   *gobreaker.CircuitBreaker
	retryable func(error) bool
}

// newWriteGuard builds a guard. retryable selects the errors worth another
// attempt; conflict selects the ones that do not count against the breaker.
// Either may be nil.
func newWriteGuard(name string, backoff BackoffConfig, retryable, conflict func(error) bool) *writeGuard {
	if backoff == (BackoffConfig{}) {
		backoff = DefaultBackoff
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// Write conflicts and cancellations say nothing about store health.
			return err == nil || errors.Is(err, context.Canceled) ||
				errors.Is(err, context.DeadlineExceeded) || (conflict != nil && conflict(err))
		},
	})
	return &writeGuard{backoff: backoff, circuit: cb, retryable: retryable}
}

// do runs op until it succeeds, fails with a non-retryable error, or the retry
// budget is spent. The last error is returned.
func (g *writeGuard) do(ctx context.Context, op func() error) error {
	if g.backoff.MaxRetries < 0 || g.backoff.InitialInterval <= 0 {
		return errInvalidConfig
	}

	var attempt int
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, err := g.circuit.Execute(func() (interface{}, error) {
			return nil, op()
		})
		if err == nil {
			return nil
		}

		// If circuit is open, propagate immediately.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		if errors.Is(err, ErrClosed) || (g.retryable != nil && !g.retryable(err)) {
			return err
		}
		if attempt >= g.backoff.MaxRetries {
			return err
		}

		timer := time.NewTimer(g.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}

// delay returns the wait before retry number attempt+1: InitialInterval
// doubled attempt times, capped at MaxInterval.
func (g *writeGuard) delay(attempt int) time.Duration {
	d := g.backoff.InitialInterval
	for i := 0; i < attempt; i++ {
		if g.backoff.MaxInterval > 0 && d >= g.backoff.MaxInterval {
			break
		}
		if d > math.MaxInt64/2 {
			return time.Duration(math.MaxInt64)
		}
		d *= 2
	}
	if g.backoff.MaxInterval > 0 && d > g.backoff.MaxInterval {
		d = g.backoff.MaxInterval
	}
	return d
}
