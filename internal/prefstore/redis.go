package prefstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisOptions configures a Redis-backed store.
type RedisOptions struct {
	Client    redis.UniversalClient
	Container string
	Backoff   BackoffConfig
	Logger    zerolog.Logger
}

// RedisStore keeps a container in a single hash. Every committed edit is
// published on "<hash>:changed", so watchers also observe edits made by other
// processes sharing the hash.
type RedisStore struct {
	client   redis.UniversalClient
	hashKey  string
	channel  string
	pubsub   *redis.PubSub
	guard    *writeGuard
	notifier *Notifier
	log      zerolog.Logger

	wg        sync.WaitGroup
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

// NewRedisStore subscribes to the change channel and returns the store. The
// client is owned by the caller.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	if opts.Client == nil {
		return nil, errors.New("redis client not configured")
	}
	container := opts.Container
	if container == "" {
		container = DefaultContainer
	}

	s := &RedisStore{
		client:   opts.Client,
		hashKey:  "prefs:" + container,
		guard:    newWriteGuard("redis:"+container, opts.Backoff, redisRetryable, isRedisConflict),
		notifier: NewNotifier(),
		log:      opts.Logger.With().Str("store", "redis").Str("container", container).Logger(),
	}
	s.channel = s.hashKey + ":changed"

	ps := s.client.Subscribe(ctx, s.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", s.channel, err)
	}
	s.pubsub = ps

	s.wg.Add(1)
	go s.relay()

	return s, nil
}

// redisRetryable reports whether a failed edit is worth another attempt.
// Watch conflicts and dropped connections are; command errors are not.
func redisRetryable(err error) bool {
	if isRedisConflict(err) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return containsAny(strings.ToLower(err.Error()),
		"connection refused", "connection reset", "broken pipe", "i/o timeout", "loading")
}

// isRedisConflict reports a WATCH conflict: another writer got there first.
func isRedisConflict(err error) bool {
	return errors.Is(err, redis.TxFailedErr)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// relay turns change messages into local watcher signals.
func (s *RedisStore) relay() {
	defer s.wg.Done()
	for msg := range s.pubsub.Channel() {
		s.log.Debug().Str("payload", msg.Payload).Msg("change published")
		s.notifier.Notify()
	}
}

func (s *RedisStore) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Edit reads and rewrites the hash inside WATCH/MULTI so concurrent editors
// cannot interleave within one call. A lost race is retried.
func (s *RedisStore) Edit(ctx context.Context, fn func(*MutablePreferences)) error {
	if s.isClosed() {
		return ErrClosed
	}

	var changed bool
	err := s.guard.do(ctx, func() error {
		return s.client.Watch(ctx, func(tx *redis.Tx) error {
			raw, err := tx.HGetAll(ctx, s.hashKey).Result()
			if err != nil {
				return err
			}
			current := decodeAll(raw, nil)

			m := current.edit()
			fn(m)
			sets, dels := diff(current, m.freeze())
			changed = len(sets) > 0 || len(dels) > 0
			if !changed {
				return nil
			}

			fields := make(map[string]interface{}, len(sets))
			for k, v := range sets {
				encoded, err := encodeValue(v)
				if err != nil {
					return err
				}
				fields[k] = encoded
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				if len(fields) > 0 {
					pipe.HSet(ctx, s.hashKey, fields)
				}
				if len(dels) > 0 {
					pipe.HDel(ctx, s.hashKey, dels...)
				}
				pipe.Publish(ctx, s.channel, "edit")
				return nil
			})
			return err
		}, s.hashKey)
	})
	if err != nil {
		return fmt.Errorf("redis edit: %w", err)
	}
	return nil
}

func (s *RedisStore) Data(ctx context.Context) <-chan Snapshot {
	return s.notifier.stream(ctx, s.load)
}

func (s *RedisStore) load(ctx context.Context) (Preferences, error) {
	if s.isClosed() {
		return EmptyPreferences(), ErrClosed
	}

	raw, err := s.client.HGetAll(ctx, s.hashKey).Result()
	if err != nil {
		return EmptyPreferences(), fmt.Errorf("redis read: %w", err)
	}
	return decodeAll(raw, func(key string, err error) {
		s.log.Warn().Str("key", key).Err(err).Msg("skipping undecodable preference")
	}), nil
}

func (s *RedisStore) Healthcheck(ctx context.Context) error {
	if s.isClosed() {
		return ErrClosed
	}
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("healthcheck failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		err = s.pubsub.Close()
		s.wg.Wait()
		s.notifier.Close()
	})
	return err
}
