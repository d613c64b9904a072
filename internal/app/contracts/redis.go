package contracts

import (
	"context"
	"time"
)

// RedisRepository holds the primitives the distributed lock is built on.
type RedisRepository interface {
	// TrySetNX sets key only when it is absent and reports whether it did.
	TrySetNX(ctx context.Context, key string, value interface{}, exp time.Duration) (bool, error)
	// CompareAndDelete removes key atomically when it still holds value.
	CompareAndDelete(ctx context.Context, key string, value interface{}) (bool, error)
}
