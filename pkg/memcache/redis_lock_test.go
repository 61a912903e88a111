package mem

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newRedisLocks(t *testing.T, log *zap.Logger) (*RedisLocks, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	locks := NewRedisLocks(client, log)
	locks.poll = time.Millisecond
	return locks, mr
}

func TestRedisLocks_AcquireSetsExpiringKey(t *testing.T) {
	locks, mr := newRedisLocks(t, nil)

	release, err := locks.Acquire(context.Background(), "sub-1", 5*time.Second)
	require.NoError(t, err)

	assert.True(t, mr.Exists("khaja:lock:sub-1"))
	assert.Equal(t, 5*time.Second, mr.TTL("khaja:lock:sub-1"))

	release()
	assert.False(t, mr.Exists("khaja:lock:sub-1"))
	// second call is a no-op
	release()
}

func TestRedisLocks_ContendedAcquireWaitsForContext(t *testing.T) {
	locks, _ := newRedisLocks(t, nil)

	release, err := locks.Acquire(context.Background(), "sub-1", 5*time.Second)
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = locks.Acquire(ctx, "sub-1", 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	other, err := locks.Acquire(context.Background(), "sub-2", 5*time.Second)
	require.NoError(t, err)
	other()
}

func TestRedisLocks_WaiterGetsLockAfterRelease(t *testing.T) {
	locks, _ := newRedisLocks(t, nil)

	release, err := locks.Acquire(context.Background(), "sub-1", 5*time.Second)
	require.NoError(t, err)

	acquired := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		next, err := locks.Acquire(ctx, "sub-1", 5*time.Second)
		if err == nil {
			next()
		}
		acquired <- err
	}()

	time.Sleep(10 * time.Millisecond)
	release()

	select {
	case err := <-acquired:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("waiter never acquired the lock")
	}
}

func TestRedisLocks_StaleReleaseKeepsNewHolder(t *testing.T) {
	locks, mr := newRedisLocks(t, nil)

	first, err := locks.Acquire(context.Background(), "sub-1", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	require.False(t, mr.Exists("khaja:lock:sub-1"))

	second, err := locks.Acquire(context.Background(), "sub-1", time.Second)
	require.NoError(t, err)
	holder, err := mr.Get("khaja:lock:sub-1")
	require.NoError(t, err)

	first()
	current, err := mr.Get("khaja:lock:sub-1")
	require.NoError(t, err)
	assert.Equal(t, holder, current)

	second()
	assert.False(t, mr.Exists("khaja:lock:sub-1"))
}

func TestRedisLocks_ReleaseFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	locks, mr := newRedisLocks(t, zap.New(core))

	release, err := locks.Acquire(context.Background(), "sub-1", time.Second)
	require.NoError(t, err)

	mr.Close()
	release()

	entries := logs.FilterMessage("release lock").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "khaja:lock:sub-1", entries[0].ContextMap()["key"])
}

func TestRedisLocks_RejectsBadArguments(t *testing.T) {
	locks, _ := newRedisLocks(t, nil)

	_, err := locks.Acquire(context.Background(), "", time.Second)
	assert.Error(t, err)
	_, err = locks.Acquire(context.Background(), "sub-1", 0)
	assert.Error(t, err)
}
