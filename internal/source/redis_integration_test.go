package source

import (
	"context"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/redis"
)

func setupTestRedis(t *testing.T) *goredis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := redis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate redis container: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client, err := NewRedisClient(ctx, "redis://"+endpoint)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestRedisSource_PopsInPushOrder(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()
	s := NewRedisSource(client, "bridge:commands")

	require.NoError(t, client.RPush(ctx, "bridge:commands", "DMX CH|1|2", `DMX 1|255\n2|100`, "end").Err())

	for _, want := range []string{"DMX CH|1|2", `DMX 1|255\n2|100`, "end"} {
		got, err := s.Poll(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestRedisSource_EmptyWhenIdle(t *testing.T) {
	client := setupTestRedis(t)
	s := NewRedisSource(client, "bridge:idle")

	got, err := s.Poll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisSource_WrongTypeIsError(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()
	require.NoError(t, client.Set(ctx, "bridge:string", "x", 0).Err())

	_, err := NewRedisSource(client, "bridge:string").Poll(ctx)
	assert.Error(t, err)
}

func TestNewRedisClient_InvalidURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "not a url")
	assert.Error(t, err)
}
