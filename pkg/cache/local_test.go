package cache

import (
	"testing"
	"time"

	"github.com/chatwarden/chatwarden-backend/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_ExpiresAfterTTL(t *testing.T) {
	clk := clock.NewFake(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	c, err := NewLocal[int64, string](10, 5*time.Minute, clk)
	require.NoError(t, err)

	c.Set(1, "alice")
	v, ok := c.Get(1)
	assert.True(t, ok)
	assert.Equal(t, "alice", v)

	clk.Advance(5*time.Minute - time.Second)
	_, ok = c.Get(1)
	assert.True(t, ok)

	clk.Advance(time.Second)
	_, ok = c.Get(1)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestLocal_SetRefreshesTTL(t *testing.T) {
	clk := clock.NewFake(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	c, err := NewLocal[string, int](10, time.Minute, clk)
	require.NoError(t, err)

	c.Set("k", 1)
	clk.Advance(50 * time.Second)
	c.Set("k", 2)
	clk.Advance(50 * time.Second)

	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestLocal_EvictsLeastRecentlyUsed(t *testing.T) {
	c, err := NewLocal[int, int](2, time.Hour, nil)
	require.NoError(t, err)

	c.Set(1, 1)
	c.Set(2, 2)
	_, _ = c.Get(1)
	c.Set(3, 3)

	_, ok := c.Get(2)
	assert.False(t, ok)
	_, ok = c.Get(1)
	assert.True(t, ok)
	_, ok = c.Get(3)
	assert.True(t, ok)
}

func TestLocal_DeleteAndPurge(t *testing.T) {
	c, err := NewLocal[int, int](4, time.Hour, nil)
	require.NoError(t, err)

	c.Set(1, 1)
	c.Set(2, 2)
	c.Delete(1)
	_, ok := c.Get(1)
	assert.False(t, ok)

	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestNewLocal_RejectsBadParams(t *testing.T) {
	_, err := NewLocal[int, int](0, time.Minute, nil)
	assert.Error(t, err)
	_, err = NewLocal[int, int](1, 0, nil)
	assert.Error(t, err)
}
