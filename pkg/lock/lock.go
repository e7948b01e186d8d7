// Package lock provides the exclusive sections that serialize admission per
// resource and custody operations per key. Different keys never contend.
package lock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"reservo/pkg/metrics"
)

var (
	// ErrNotAcquired is returned when the lock could not be taken before the
	// acquire timeout or context deadline.
	ErrNotAcquired = errors.New("lock not acquired")

	// ErrLockLost is returned on release when the lock had already expired
	// and was taken by someone else.
	ErrLockLost = errors.New("lock lost before release")
)

// Unlock releases a held lock. Calling it more than once is a no-op.
type Unlock func(ctx context.Context) error

type Locker interface {
	Acquire(ctx context.Context, key string) (Unlock, error)
}

type Options struct {
	TTL            time.Duration
	AcquireTimeout time.Duration
	RetryInterval  time.Duration
}

func DefaultOptions() Options {
	return Options{
		TTL:            10 * time.Second,
		AcquireTimeout: 5 * time.Second,
		RetryInterval:  25 * time.Millisecond,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.TTL <= 0 {
		o.TTL = d.TTL
	}
	if o.AcquireTimeout <= 0 {
		o.AcquireTimeout = d.AcquireTimeout
	}
	if o.RetryInterval <= 0 {
		o.RetryInterval = d.RetryInterval
	}
	return o
}

func ResourceKey(resourceID string) string {
	return "resource:" + resourceID
}

func KeyCustodyKey(keyID string) string {
	return "key:" + keyID
}

type instrumented struct {
	next Locker
}

// WithMetrics records how long callers wait for each lock scope.
func WithMetrics(next Locker) Locker {
	return &instrumented{next: next}
}

func (i *instrumented) Acquire(ctx context.Context, key string) (Unlock, error) {
	start := time.Now()
	unlock, err := i.next.Acquire(ctx, key)
	scope, _, _ := strings.Cut(key, ":")
	metrics.ObserveLockWait(scope, time.Since(start))
	return unlock, err
}

// storeError classifies a backend failure during Acquire. A call cut short
// by the acquire deadline or a cancelled caller is a timeout, not an outage.
func storeError(ctx context.Context, key string, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, err)
	}
	return err
}
