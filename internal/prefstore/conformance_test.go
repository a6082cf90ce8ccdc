package prefstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recvTimeout = 5 * time.Second

func recv(t *testing.T, ch <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		require.True(t, ok, "data channel closed")
		return snap
	case <-time.After(recvTimeout):
		t.Fatal("timed out waiting for snapshot")
		return Snapshot{}
	}
}

func assertQuiet(t *testing.T, ch <-chan Snapshot) {
	t.Helper()
	select {
	case snap := <-ch:
		t.Fatalf("unexpected snapshot: %+v", snap)
	case <-time.After(100 * time.Millisecond):
	}
}

// runConformance checks the behaviour every Store backend must share.
func runConformance(t *testing.T, open func(t *testing.T) Store) {
	t.Run("InitialEmissionIsEmpty", func(t *testing.T) {
		s := open(t)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		snap := recv(t, s.Data(ctx))
		require.NoError(t, snap.Err)
		assert.Equal(t, 0, snap.Prefs.Len())
	})

	t.Run("EditIsObserved", func(t *testing.T) {
		s := open(t)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		data := s.Data(ctx)
		recv(t, data)

		err := s.Edit(ctx, func(m *MutablePreferences) {
			Set(m, unitKey, "MPH")
			Set(m, toggleKey, false)
		})
		require.NoError(t, err)

		snap := recv(t, data)
		require.NoError(t, snap.Err)
		unit, _ := Get(snap.Prefs, unitKey)
		toggle, ok := Get(snap.Prefs, toggleKey)
		assert.Equal(t, "MPH", unit)
		assert.True(t, ok)
		assert.False(t, toggle)
	})

	t.Run("LateSubscriberSeesCurrentState", func(t *testing.T) {
		s := open(t)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		require.NoError(t, s.Edit(ctx, func(m *MutablePreferences) {
			Set(m, unitKey, "KMH")
		}))

		snap := recv(t, s.Data(ctx))
		unit, _ := Get(snap.Prefs, unitKey)
		assert.Equal(t, "KMH", unit)
	})

	t.Run("NoOpEditDoesNotEmit", func(t *testing.T) {
		s := open(t)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		require.NoError(t, s.Edit(ctx, func(m *MutablePreferences) {
			Set(m, unitKey, "KMH")
		}))
		data := s.Data(ctx)
		recv(t, data)

		require.NoError(t, s.Edit(ctx, func(m *MutablePreferences) {
			Set(m, unitKey, "KMH")
		}))
		assertQuiet(t, data)
	})

	t.Run("RemoveAndClear", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		require.NoError(t, s.Edit(ctx, func(m *MutablePreferences) {
			Set(m, unitKey, "KMH")
			Set(m, toggleKey, true)
		}))
		require.NoError(t, s.Edit(ctx, func(m *MutablePreferences) {
			Remove(m, unitKey)
		}))

		subCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		snap := recv(t, s.Data(subCtx))
		assert.Equal(t, []string{"toggle"}, snap.Prefs.Keys())

		require.NoError(t, s.Edit(ctx, func(m *MutablePreferences) {
			m.Clear()
		}))
		snap = recv(t, s.Data(subCtx))
		assert.Equal(t, 0, snap.Prefs.Len())
	})

	t.Run("ConcurrentEditsLastWriteWins", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		var wg sync.WaitGroup
		for _, unit := range []string{"KMH", "MPH", "KMH", "MPH"} {
			unit := unit
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, s.Edit(ctx, func(m *MutablePreferences) {
					Set(m, unitKey, unit)
					Set(m, StringKey("mirror"), unit)
				}))
			}()
		}
		wg.Wait()

		subCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		snap := recv(t, s.Data(subCtx))
		unit, _ := Get(snap.Prefs, unitKey)
		mirror, _ := Get(snap.Prefs, StringKey("mirror"))
		assert.Equal(t, unit, mirror, "batch was not applied atomically")
	})

	t.Run("CancelClosesStream", func(t *testing.T) {
		s := open(t)
		ctx, cancel := context.WithCancel(context.Background())

		data := s.Data(ctx)
		recv(t, data)
		cancel()

		assert.Eventually(t, func() bool {
			select {
			case _, ok := <-data:
				return !ok
			default:
				return false
			}
		}, recvTimeout, 10*time.Millisecond)
	})

	t.Run("CloseEndsStreamsAndRejectsEdits", func(t *testing.T) {
		s := open(t)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		data := s.Data(ctx)
		recv(t, data)
		require.NoError(t, s.Close())

		assert.Eventually(t, func() bool {
			select {
			case _, ok := <-data:
				return !ok
			default:
				return false
			}
		}, recvTimeout, 10*time.Millisecond)

		err := s.Edit(ctx, func(m *MutablePreferences) {
			Set(m, unitKey, "MPH")
		})
		assert.ErrorIs(t, err, ErrClosed)
	})
}
