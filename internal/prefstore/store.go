// Package prefstore provides a durable key-value preference container with an
// atomic batch write and a reactive read channel.
package prefstore

import (
	"context"
	"errors"
)

// DefaultContainer is the name of the container holding user settings.
const DefaultContainer = "local_setting"

var (
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("preference store closed")
)

// Snapshot is one emission of a store's read channel. Err is set when the
// store could not be read; Prefs is then empty.
type Snapshot struct {
	Prefs Preferences
	Err   error
}

// Store is a named preference container.
type Store interface {
	// Edit applies fn to a mutable copy of the current preferences and commits
	// the result atomically. fn may run more than once when a write is retried
	// and must not have side effects.
	Edit(ctx context.Context, fn func(*MutablePreferences)) error

	// Data emits the current preferences shortly after the call and again
	// after every committed change. A slow reader only sees the latest state.
	// The channel is closed when ctx is done or the store is closed.
	Data(ctx context.Context) <-chan Snapshot

	Close() error
}

// Maintainer is implemented by stores that need periodic upkeep.
type Maintainer interface {
	Maintain(ctx context.Context) error
}

// HealthChecker is implemented by stores that can verify they are reachable.
type HealthChecker interface {
	Healthcheck(ctx context.Context) error
}

type loadFunc func(ctx context.Context) (Preferences, error)

// watch is the read loop shared by all backends. It loads the container once
// and again every time changed fires, forwarding distinct results to out.
// A pending change replaces an undelivered snapshot.
func watch(ctx context.Context, load loadFunc, changed <-chan struct{}, out chan<- Snapshot) {
	defer close(out)

	var (
		last Preferences
		have bool
	)
	pending := true

	for {
		if pending {
			pending = false

			prefs, err := load(ctx)
			if ctx.Err() != nil {
				return
			}

			var snap Snapshot
			deliver := true
			switch {
			case err != nil:
				snap = Snapshot{Prefs: EmptyPreferences(), Err: err}
				have = false
			case have && prefs.Equal(last):
				deliver = false
			default:
				snap = Snapshot{Prefs: prefs}
			}

			if deliver {
				select {
				case out <- snap:
					if snap.Err == nil {
						last, have = prefs, true
					}
				case _, ok := <-changed:
					if !ok {
						return
					}
					pending = true
					continue
				case <-ctx.Done():
					return
				}
			}
		}

		select {
		case _, ok := <-changed:
			if !ok {
				return
			}
			pending = true
		case <-ctx.Done():
			return
		}
	}
}
