package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNoData means neither the roster nor the raw source could be found.
	ErrNoData   = errors.New("no lead data available")
	ErrNotFound = errors.New("lead not found")
	ErrLocked   = errors.New("roster is locked by another process")
	// ErrCorrupt means the persisted roster exists but is not a roster.
	ErrCorrupt = errors.New("persisted roster is corrupt")
)

// LoadError is returned by Open when no usable roster could be produced.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("load roster: %v", e.Err)
	}
	return fmt.Sprintf("load roster from %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// PersistError reports a failed write. The in-memory change it belonged to
// is kept; the store stays dirty until a later persist succeeds.
type PersistError struct {
	Backend string
	Err     error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist roster (%s): %v", e.Backend, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }
