package contracts

import (
	"context"
	"time"
)

// LockerService guards work that only one instance may run at a time,
// such as the magic link reaper sweep.
type LockerService interface {
	// TryLock returns the owner value needed to release the lock.
	TryLock(ctx context.Context, key string, expiration time.Duration) (acquired bool, lockValue string, err error)
	Unlock(ctx context.Context, key, lockValue string) error
}
