package cache

import (
	"context"
	"fmt"
	"os/exec"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a throwaway Redis container.
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not installed, skipping container-based test")
	}
	if testing.Short() {
		t.Skip("skipping container-based test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start redis container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Errorf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

type entry struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	client := setupRedis(t)

	catalog := NewRedisCache(client, "catalog", time.Minute)
	other := NewRedisCache(client, "other", time.Minute)

	var got []entry
	hit, err := catalog.Get(ctx, "tags", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	want := []entry{{ID: 1, Name: "lunch"}}
	require.NoError(t, catalog.Set(ctx, "tags", want))
	require.NoError(t, other.Set(ctx, "tags", want))

	hit, err = catalog.Get(ctx, "tags", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, want, got)

	require.NoError(t, catalog.Flush(ctx))
	hit, err = catalog.Get(ctx, "tags", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	hit, err = other.Get(ctx, "tags", &got)
	require.NoError(t, err)
	assert.True(t, hit, "flush is limited to its namespace")
}

func TestTokenBlacklist(t *testing.T) {
	ctx := context.Background()
	client := setupRedis(t)
	blacklist := NewTokenBlacklist(client)

	revoked, err := blacklist.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, blacklist.Add(ctx, "jti-1", time.Now().Add(time.Minute)))
	revoked, err = blacklist.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	ttl, err := client.TTL(ctx, blacklistKeyPrefix+"jti-1").Result()
	require.NoError(t, err)
	assert.LessOrEqual(t, ttl, time.Minute)

	require.NoError(t, blacklist.Add(ctx, "jti-2", time.Now().Add(-time.Minute)))
	revoked, err = blacklist.IsBlacklisted(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked, "already expired tokens are not stored")
}
