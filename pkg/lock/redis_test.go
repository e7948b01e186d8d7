package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisLocker() (*RedisLocker, redismock.ClientMock) {
	db, mock := redismock.NewClientMock()
	l := NewRedisLocker(db, Options{
		TTL:            5 * time.Second,
		AcquireTimeout: time.Second,
		RetryInterval:  time.Millisecond,
	})
	l.newToken = func() string { return "token-1" }
	return l, mock
}

func TestRedisLocker_AcquireAndRelease(t *testing.T) {
	l, mock := setupRedisLocker()
	ctx := context.Background()
	key := redisKeyPrefix + "resource:room-1"

	mock.ExpectSetNX(key, "token-1", 5*time.Second).SetVal(true)
	mock.ExpectEval(releaseScript, []string{key}, "token-1").SetVal(int64(1))

	unlock, err := l.Acquire(ctx, ResourceKey("room-1"))
	require.NoError(t, err)
	require.NoError(t, unlock(ctx))
	require.NoError(t, unlock(ctx))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLocker_RetriesWhileHeld(t *testing.T) {
	l, mock := setupRedisLocker()
	ctx := context.Background()
	key := redisKeyPrefix + "key:k-1"

	mock.ExpectSetNX(key, "token-1", 5*time.Second).SetVal(false)
	mock.ExpectSetNX(key, "token-1", 5*time.Second).SetVal(true)

	_, err := l.Acquire(ctx, KeyCustodyKey("k-1"))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLocker_LostLock(t *testing.T) {
	l, mock := setupRedisLocker()
	ctx := context.Background()
	key := redisKeyPrefix + "resource:room-1"

	mock.ExpectSetNX(key, "token-1", 5*time.Second).SetVal(true)
	mock.ExpectEval(releaseScript, []string{key}, "token-1").SetVal(int64(0))

	unlock, err := l.Acquire(ctx, ResourceKey("room-1"))
	require.NoError(t, err)
	assert.ErrorIs(t, unlock(ctx), ErrLockLost)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLocker_RedisError(t *testing.T) {
	l, mock := setupRedisLocker()
	key := redisKeyPrefix + "resource:room-1"

	mock.ExpectSetNX(key, "token-1", 5*time.Second).SetErr(errors.New("connection refused"))

	_, err := l.Acquire(context.Background(), ResourceKey("room-1"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotAcquired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLocker_DeadlineDuringSetNX(t *testing.T) {
	l, mock := setupRedisLocker()
	key := redisKeyPrefix + "resource:room-1"

	mock.ExpectSetNX(key, "token-1", 5*time.Second).SetErr(context.DeadlineExceeded)

	_, err := l.Acquire(context.Background(), ResourceKey("room-1"))
	assert.ErrorIs(t, err, ErrNotAcquired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLocker_CancelledContext(t *testing.T) {
	l, mock := setupRedisLocker()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Acquire(ctx, ResourceKey("room-1"))
	assert.ErrorIs(t, err, ErrNotAcquired)
	assert.NoError(t, mock.ExpectationsWereMet())
}
