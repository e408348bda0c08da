package store

import (
	"fmt"

	"github.com/gofrs/flock"
)

// acquireLock takes an exclusive, non-blocking lock so a second engine
// pointed at the same roster fails fast instead of racing writes.
func acquireLock(path string) (*flock.Flock, error) {
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	return fl, nil
}
