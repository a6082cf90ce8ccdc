package prefstore

import (
	"context"
	"sync"
)

// MemoryStore is a concurrency-safe in-memory preference container. Its
// contents do not survive the process.
type MemoryStore struct {
	mu sync.RWMutex

	name   string
	prefs  Preferences
	closed bool

	notifier *Notifier
}

// NewMemoryStore creates an empty container with the given name.
func NewMemoryStore(name string) *MemoryStore {
	return &MemoryStore{
		name:     name,
		prefs:    EmptyPreferences(),
		notifier: NewNotifier(),
	}
}

func (s *MemoryStore) Name() string {
	return s.name
}

// Edit commits fn's changes under the write lock. Watchers are signalled only
// when the contents actually changed.
func (s *MemoryStore) Edit(ctx context.Context, fn func(*MutablePreferences)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}

	m := s.prefs.edit()
	fn(m)
	next := m.freeze()
	changed := !next.Equal(s.prefs)
	if changed {
		s.prefs = next
	}
	s.mu.Unlock()

	if changed {
		s.notifier.Notify()
	}
	return nil
}

func (s *MemoryStore) Data(ctx context.Context) <-chan Snapshot {
	return s.notifier.stream(ctx, s.load)
}

func (s *MemoryStore) load(ctx context.Context) (Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return EmptyPreferences(), ErrClosed
	}
	return s.prefs, nil
}

func (s *MemoryStore) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.notifier.Close()
	return nil
}
