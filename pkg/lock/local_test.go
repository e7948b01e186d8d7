package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLocker_SerializesSameKey(t *testing.T) {
	l := NewLocalLocker(Options{AcquireTimeout: time.Second})
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Acquire(ctx, ResourceKey("room-1"))
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			assert.NoError(t, unlock(ctx))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Empty(t, l.entries)
}

func TestLocalLocker_DifferentKeysDoNotContend(t *testing.T) {
	l := NewLocalLocker(Options{AcquireTimeout: 50 * time.Millisecond})
	ctx := context.Background()

	unlockA, err := l.Acquire(ctx, ResourceKey("a"))
	require.NoError(t, err)
	defer unlockA(ctx)

	unlockB, err := l.Acquire(ctx, ResourceKey("b"))
	require.NoError(t, err)
	require.NoError(t, unlockB(ctx))
}

func TestLocalLocker_Timeout(t *testing.T) {
	l := NewLocalLocker(Options{AcquireTimeout: 20 * time.Millisecond})
	ctx := context.Background()

	unlock, err := l.Acquire(ctx, KeyCustodyKey("k-1"))
	require.NoError(t, err)

	_, err = l.Acquire(ctx, KeyCustodyKey("k-1"))
	assert.ErrorIs(t, err, ErrNotAcquired)

	require.NoError(t, unlock(ctx))
	require.NoError(t, unlock(ctx), "second unlock is a no-op")

	unlock, err = l.Acquire(ctx, KeyCustodyKey("k-1"))
	require.NoError(t, err)
	require.NoError(t, unlock(ctx))
}

func TestLocalLocker_ContextCancelled(t *testing.T) {
	l := NewLocalLocker(Options{AcquireTimeout: time.Second})
	unlock, err := l.Acquire(context.Background(), "x")
	require.NoError(t, err)
	defer unlock(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Acquire(ctx, "x")
	assert.ErrorIs(t, err, ErrNotAcquired)
}

func TestWithMetrics(t *testing.T) {
	l := WithMetrics(NewLocalLocker(Options{}))
	unlock, err := l.Acquire(context.Background(), ResourceKey("room-1"))
	require.NoError(t, err)
	require.NoError(t, unlock(context.Background()))
}

func TestStoreError(t *testing.T) {
	ctx := context.Background()
	assert.ErrorIs(t, storeError(ctx, "resource:r1", fmt.Errorf("insert: %w", context.DeadlineExceeded)), ErrNotAcquired)

	expired, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, storeError(expired, "resource:r1", errors.New("socket closed")), ErrNotAcquired)

	err := storeError(ctx, "resource:r1", errors.New("connection refused"))
	assert.NotErrorIs(t, err, ErrNotAcquired)
	assert.EqualError(t, err, "connection refused")
}
