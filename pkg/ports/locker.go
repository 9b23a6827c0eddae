package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock acquired with DistributedLocker.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker provides mutual exclusion across processes.
type DistributedLocker interface {
	// Lock blocks until the lock for key is acquired or ctx is done.
	// The lock expires after ttl if it is never released.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
