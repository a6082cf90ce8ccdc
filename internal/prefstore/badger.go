package prefstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// BadgerOptions configures a BadgerDB-backed store.
type BadgerOptions struct {
	// Dir holds the database files. Ignored when InMemory is set.
	Dir       string
	InMemory  bool
	Container string
	Backoff   BackoffConfig
	Logger    zerolog.Logger
}

// BadgerStore keeps one preference per BadgerDB key under the
// "<container>/" prefix. Each Edit is a single transaction.
type BadgerStore struct {
	db       *badgerdb.DB
	prefix   []byte
	inMemory bool
	guard    *writeGuard
	notifier *Notifier
	log      zerolog.Logger

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

// OpenBadger opens (or creates) the database and returns the store.
func OpenBadger(opts BadgerOptions) (*BadgerStore, error) {
	container := opts.Container
	if container == "" {
		container = DefaultContainer
	}

	bopts := badgerdb.DefaultOptions(opts.Dir)
	if opts.InMemory {
		bopts = badgerdb.DefaultOptions("").WithInMemory(true)
	}
	bopts = bopts.WithLogger(badgerLogger{log: opts.Logger})

	db, err := badgerdb.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", opts.Dir, err)
	}

	return &BadgerStore{
		db:       db,
		prefix:   []byte(container + "/"),
		inMemory: opts.InMemory,
		guard:    newWriteGuard("badger:"+container, opts.Backoff, isBadgerConflict, isBadgerConflict),
		notifier: NewNotifier(),
		log:      opts.Logger.With().Str("store", "badger").Str("container", container).Logger(),
	}, nil
}

func isBadgerConflict(err error) bool {
	return errors.Is(err, badgerdb.ErrConflict)
}

func (s *BadgerStore) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *BadgerStore) Edit(ctx context.Context, fn func(*MutablePreferences)) error {
	if s.isClosed() {
		return ErrClosed
	}

	var changed bool
	err := s.guard.do(ctx, func() error {
		return s.db.Update(func(txn *badgerdb.Txn) error {
			current, err := s.read(txn)
			if err != nil {
				return err
			}

			m := current.edit()
			fn(m)
			sets, dels := diff(current, m.freeze())
			changed = len(sets) > 0 || len(dels) > 0

			for k, v := range sets {
				raw, err := encodeValue(v)
				if err != nil {
					return err
				}
				if err := txn.Set(s.key(k), []byte(raw)); err != nil {
					return err
				}
			}
			for _, k := range dels {
				if err := txn.Delete(s.key(k)); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("badger edit: %w", err)
	}

	if changed {
		s.notifier.Notify()
	}
	return nil
}

func (s *BadgerStore) Data(ctx context.Context) <-chan Snapshot {
	return s.notifier.stream(ctx, s.load)
}

func (s *BadgerStore) load(ctx context.Context) (Preferences, error) {
	if s.isClosed() {
		return EmptyPreferences(), ErrClosed
	}

	var prefs Preferences
	err := s.db.View(func(txn *badgerdb.Txn) error {
		var err error
		prefs, err = s.read(txn)
		return err
	})
	if err != nil {
		return EmptyPreferences(), fmt.Errorf("badger read: %w", err)
	}
	return prefs, nil
}

func (s *BadgerStore) read(txn *badgerdb.Txn) (Preferences, error) {
	raw := make(map[string]string)

	it := txn.NewIterator(badgerdb.DefaultIteratorOptions)
	defer it.Close()

	for it.Seek(s.prefix); it.ValidForPrefix(s.prefix); it.Next() {
		item := it.Item()
		name := string(item.Key()[len(s.prefix):])
		val, err := item.ValueCopy(nil)
		if err != nil {
			return Preferences{}, err
		}
		raw[name] = string(val)
	}

	return decodeAll(raw, func(key string, err error) {
		s.log.Warn().Str("key", key).Err(err).Msg("skipping undecodable preference")
	}), nil
}

func (s *BadgerStore) key(name string) []byte {
	k := make([]byte, 0, len(s.prefix)+len(name))
	k = append(k, s.prefix...)
	return append(k, name...)
}

// Maintain runs value-log garbage collection until there is nothing left to
// rewrite.
func (s *BadgerStore) Maintain(ctx context.Context) error {
	if s.inMemory || s.isClosed() {
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.db.RunValueLogGC(0.5)
		switch {
		case err == nil:
			s.log.Debug().Msg("value log rewritten")
		case errors.Is(err, badgerdb.ErrNoRewrite), errors.Is(err, badgerdb.ErrRejected):
			return nil
		default:
			return fmt.Errorf("value log gc: %w", err)
		}
	}
}

// Healthcheck verifies a read transaction can be opened.
func (s *BadgerStore) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.isClosed() {
		return ErrClosed
	}

	err := s.db.View(func(txn *badgerdb.Txn) error {
		return nil
	})
	if err != nil {
		return fmt.Errorf("healthcheck failed: %w", err)
	}
	return nil
}

func (s *BadgerStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		s.notifier.Close()
		err = s.db.Close()
	})
	return err
}

// badgerLogger routes BadgerDB's internal logging through zerolog.
type badgerLogger struct {
	log zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error().Str("source", "badger").Msgf(format, args...)
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn().Str("source", "badger").Msgf(format, args...)
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug().Str("source", "badger").Msgf(format, args...)
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Trace().Str("source", "badger").Msgf(format, args...)
}
