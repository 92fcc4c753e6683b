package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	l := NewRedis(client, ttl)
	l.retry = 5 * time.Millisecond
	return l, mr
}

func TestRedis_LockUnlock(t *testing.T) {
	l, mr := newTestRedis(t, time.Second)
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "order-1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("bookheaven:lock:order-1"))
	assert.Equal(t, time.Second, mr.TTL("bookheaven:lock:order-1"))

	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
	defer cancel()
	_, err = l.Lock(waitCtx, "order-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	assert.False(t, mr.Exists("bookheaven:lock:order-1"))

	again, err := l.Lock(ctx, "order-1")
	require.NoError(t, err)
	again()
}

func TestRedis_TimesOutAfterTwiceTTL(t *testing.T) {
	l, _ := newTestRedis(t, 20*time.Millisecond)
	ctx := context.Background()

	// miniredis only expires keys on FastForward, so the first lease never lapses here.
	unlock, err := l.Lock(ctx, "order-1")
	require.NoError(t, err)
	defer unlock()

	_, err = l.Lock(ctx, "order-1")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestRedis_StaleUnlockKeepsNewOwner(t *testing.T) {
	l, mr := newTestRedis(t, time.Second)
	ctx := context.Background()

	stale, err := l.Lock(ctx, "order-1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	owner, err := l.Lock(ctx, "order-1")
	require.NoError(t, err)
	defer owner()

	stale()
	assert.True(t, mr.Exists("bookheaven:lock:order-1"))
}
