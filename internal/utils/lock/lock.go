// Package lock serializes catalog builds and imports on one image tree.
package lock

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// FileName is the advisory lock file created in the tree root.
const FileName = ".os-image-streams.lock"

// retryInterval is the pause between two lock attempts.
var retryInterval = 200 * time.Millisecond

// ErrLocked is returned when the lock is still held by another process
// once the timeout expires.
var ErrLocked = errors.New("image tree is locked by another process")

// Acquire takes the lock of root, retrying until timeout has elapsed. A
// zero timeout tries exactly once. The returned function releases it.
func Acquire(root string, timeout time.Duration) (func(), error) {
	lockPath := filepath.Join(root, FileName)
	l := flock.New(lockPath)

	deadline := time.Now().Add(timeout)
	for {
		locked, err := l.TryLock()
		if err != nil {
			return func() {}, fmt.Errorf("cannot acquire lock %s: %w", lockPath, err)
		}
		if locked {
			return func() { _ = l.Unlock() }, nil
		}
		if !time.Now().Before(deadline) {
			return func() {}, fmt.Errorf("%w (lock: %s)", ErrLocked, lockPath)
		}
		time.Sleep(retryInterval)
	}
}
