//go:build integration

package prefstore

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	redisModule "github.com/testcontainers/testcontainers-go/modules/redis"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := redisModule.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = testcontainers.TerminateContainer(container)
	})

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisStoreConformance(t *testing.T) {
	client := startRedis(t)

	runConformance(t, func(t *testing.T) Store {
		require.NoError(t, client.FlushDB(context.Background()).Err())
		s, err := NewRedisStore(context.Background(), RedisOptions{
			Client:  client,
			Backoff: BackoffConfig{MaxRetries: 20, InitialInterval: time.Millisecond, MaxInterval: 20 * time.Millisecond},
			Logger:  zerolog.Nop(),
		})
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestRedisStoreObservesOtherWriters(t *testing.T) {
	client := startRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader, err := NewRedisStore(ctx, RedisOptions{Client: client, Logger: zerolog.Nop()})
	require.NoError(t, err)
	defer reader.Close()

	writer, err := NewRedisStore(ctx, RedisOptions{Client: client, Logger: zerolog.Nop()})
	require.NoError(t, err)
	defer writer.Close()

	data := reader.Data(ctx)
	recv(t, data)

	require.NoError(t, writer.Edit(ctx, func(m *MutablePreferences) {
		Set(m, unitKey, "MPH")
	}))

	snap := recv(t, data)
	unit, _ := Get(snap.Prefs, unitKey)
	assert.Equal(t, "MPH", unit)

	raw, err := client.HGetAll(ctx, "prefs:"+DefaultContainer).Result()
	require.NoError(t, err)
	assert.Equal(t, "s:MPH", raw["unit"])
}

func TestRedisStoreReadFailureIsReported(t *testing.T) {
	client := startRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := NewRedisStore(ctx, RedisOptions{Client: client, Logger: zerolog.Nop()})
	require.NoError(t, err)
	defer s.Close()

	// A value of the wrong Redis type makes HGETALL fail.
	require.NoError(t, client.Set(ctx, "prefs:"+DefaultContainer, "garbage", 0).Err())

	snap := recv(t, s.Data(ctx))
	assert.Error(t, snap.Err)
	assert.Equal(t, 0, snap.Prefs.Len())
}
