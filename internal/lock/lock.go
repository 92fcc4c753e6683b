// Package lock serializes work on a single key, such as one order, across
// concurrent requests.
package lock

import (
	"context"
	"errors"
)

var ErrTimeout = errors.New("lock: timed out waiting for key")

// Locker acquires an exclusive lock on key. The returned func releases it and
// is safe to call more than once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
