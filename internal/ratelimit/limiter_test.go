package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cwrk-planet/signaling-service/internal/storage"
	"github.com/cwrk-planet/signaling-service/internal/storage/memstore"
	"github.com/cwrk-planet/signaling-service/internal/storage/redisstore"

	"github.com/alicebob/miniredis/v2"
	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = storage.NewKeys("test:")

func TestLimiter_FixedWindow(t *testing.T) {
	clk := clock.NewMock()
	l := New(memstore.New(clk), keys)
	ctx := context.Background()
	spec := Spec{Limit: 5, Window: time.Hour}

	for i := int64(1); i <= 5; i++ {
		d, err := l.Check(ctx, "create", "u1", spec)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 5-i, d.Remaining)
	}

	clk.Add(20 * time.Minute)
	d, err := l.Check(ctx, "create", "u1", spec)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 40*time.Minute, d.RetryAfter)

	// other subjects and buckets are independent
	d, _ = l.Check(ctx, "create", "u2", spec)
	assert.True(t, d.Allowed)
	d, _ = l.Check(ctx, "join", "u1", spec)
	assert.True(t, d.Allowed)

	clk.Add(40 * time.Minute)
	d, _ = l.Check(ctx, "create", "u1", spec)
	assert.True(t, d.Allowed)
}

func TestLimiter_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := redisstore.New(context.Background(), redisstore.Config{Addr: mr.Addr()})
	require.NoError(t, err)
	defer store.Close()

	l := New(store, keys)
	ctx := context.Background()
	spec := Spec{Limit: 2, Window: time.Minute}

	for i := 0; i < 2; i++ {
		d, err := l.Check(ctx, "signal", "u1", spec)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}
	d, err := l.Check(ctx, "signal", "u1", spec)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, time.Minute, d.RetryAfter)
	assert.True(t, mr.Exists("test:ratelimit:signal:u1"))
}

func TestLimiter_Disabled(t *testing.T) {
	store := memstore.New(clock.NewMock())
	l := New(store, keys)
	d, err := l.Check(context.Background(), "join", "u1", Spec{})
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Zero(t, store.Len())
}

type brokenStore struct{ storage.Store }

func (brokenStore) Incr(context.Context, string, time.Duration) (int64, time.Duration, error) {
	return 0, 0, errors.New("connection refused")
}

func TestLimiter_FailsOpen(t *testing.T) {
	l := New(brokenStore{}, keys)
	d, err := l.Check(context.Background(), "create", "u1", Spec{Limit: 1, Window: time.Hour})
	assert.Error(t, err)
	assert.True(t, d.Allowed)
}
