package prefstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

var (
	errTransient = errors.New("transient")
	errFatal     = errors.New("fatal")
)

func fastBackoff(retries int) BackoffConfig {
	return BackoffConfig{MaxRetries: retries, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}
}

func TestWriteGuardRetriesUntilSuccess(t *testing.T) {
	g := newWriteGuard("test", fastBackoff(3), nil, nil)

	calls := 0
	err := g.do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWriteGuardReturnsLastErrorWhenExhausted(t *testing.T) {
	g := newWriteGuard("test", fastBackoff(2), nil, nil)

	calls := 0
	err := g.do(context.Background(), func() error {
		calls++
		return errTransient
	})

	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 3, calls)
}

func TestWriteGuardStopsOnNonRetryable(t *testing.T) {
	g := newWriteGuard("test", fastBackoff(5), func(err error) bool {
		return errors.Is(err, errTransient)
	}, nil)

	calls := 0
	err := g.do(context.Background(), func() error {
		calls++
		return errFatal
	})

	assert.ErrorIs(t, err, errFatal)
	assert.Equal(t, 1, calls)
}

func TestWriteGuardOpensCircuit(t *testing.T) {
	g := newWriteGuard("test", fastBackoff(0), nil, nil)

	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, g.do(context.Background(), func() error { return errFatal }), errFatal)
	}

	calls := 0
	err := g.do(context.Background(), func() error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, errCircuitOpen)
	assert.Zero(t, calls)
}

func TestWriteGuardOpensCircuitOnRedisOutage(t *testing.T) {
	g := newWriteGuard("test", fastBackoff(0), redisRetryable, isRedisConflict)
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, g.do(context.Background(), func() error { return refused }), refused)
	}

	calls := 0
	err := g.do(context.Background(), func() error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, errCircuitOpen)
	assert.Zero(t, calls)
}

func TestWriteGuardConflictsDoNotTrip(t *testing.T) {
	g := newWriteGuard("test", fastBackoff(0), redisRetryable, isRedisConflict)

	for i := 0; i < 20; i++ {
		assert.ErrorIs(t, g.do(context.Background(), func() error { return redis.TxFailedErr }), redis.TxFailedErr)
	}

	assert.NoError(t, g.do(context.Background(), func() error { return nil }))
}

func TestWriteGuardDelayIsCapped(t *testing.T) {
	g := newWriteGuard("test", BackoffConfig{
		MaxRetries:      100,
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     time.Second,
	}, nil, nil)

	assert.Equal(t, 50*time.Millisecond, g.delay(0))
	assert.Equal(t, 100*time.Millisecond, g.delay(1))
	assert.Equal(t, 800*time.Millisecond, g.delay(4))
	assert.Equal(t, time.Second, g.delay(5))
	for _, attempt := range []int{38, 64, 100} {
		assert.Equal(t, time.Second, g.delay(attempt), attempt)
	}

	uncapped := newWriteGuard("test", BackoffConfig{MaxRetries: 100, InitialInterval: 50 * time.Millisecond}, nil, nil)
	assert.Positive(t, uncapped.delay(100))
}

func TestWriteGuardHonoursContext(t *testing.T) {
	g := newWriteGuard("test", BackoffConfig{MaxRetries: 5, InitialInterval: time.Hour}, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := g.do(ctx, func() error { return errTransient })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWriteGuardDefaultsAndValidation(t *testing.T) {
	g := newWriteGuard("test", BackoffConfig{}, nil, nil)
	assert.Equal(t, DefaultBackoff, g.backoff)

	bad := newWriteGuard("test", BackoffConfig{MaxRetries: -1, InitialInterval: time.Millisecond}, nil, nil)
	assert.ErrorIs(t, bad.do(context.Background(), func() error { return nil }), errInvalidConfig)
}

func TestRedisRetryable(t *testing.T) {
	retry := []error{
		redis.TxFailedErr,
		fmt.Errorf("edit: %w", redis.TxFailedErr),
		io.EOF,
		&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")},
		errors.New("read tcp 127.0.0.1:6379: connection reset by peer"),
		errors.New("LOADING Redis is loading the dataset in memory"),
	}
	for _, err := range retry {
		assert.True(t, redisRetryable(err), err.Error())
	}

	stop := []error{
		errors.New("WRONGTYPE Operation against a key holding the wrong kind of value"),
		errors.New("NOAUTH Authentication required."),
	}
	for _, err := range stop {
		assert.False(t, redisRetryable(err), err.Error())
	}
}
