//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/chatwarden/chatwarden-backend/internal/domain"
	"github.com/chatwarden/chatwarden-backend/internal/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	addr, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(addr)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisMuteVoteStore(t *testing.T) {
	ctx := context.Background()
	store := NewRedisMuteVoteStore(newRedisClient(t), time.Hour)
	t0 := testutil.T0
	window := time.Hour

	vote := func(voter int64, at time.Time) bool {
		ok, err := store.Add(ctx, domain.MuteVote{TargetID: 10, VoterID: voter, CreatedAt: at}, at.Add(-window))
		require.NoError(t, err)
		return ok
	}

	assert.True(t, vote(1, t0))
	assert.False(t, vote(1, t0.Add(time.Minute)), "one live vote per voter")
	assert.True(t, vote(2, t0.Add(2*time.Minute)))

	n, err := store.Count(ctx, 10, t0.Add(-window))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = store.Count(ctx, 10, t0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "since is exclusive")

	assert.True(t, vote(1, t0.Add(window+time.Minute)), "a stale vote is replaced")

	removed, err := store.Prune(ctx, t0.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	n, err = store.Count(ctx, 10, t0.Add(-window))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
