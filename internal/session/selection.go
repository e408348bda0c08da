// Package session keeps the per-viewer state the map, list and detail views
// share: the selected lead, the resolved search center and the last working
// set.
package session

import (
	"errors"
	"fmt"

	"leadcrm-engine/internal/domain"
)

var (
	ErrNoIdentity    = errors.New("map point carries no lead id")
	ErrRowOutOfRange = errors.New("row is outside the working set")
)

// Lookup finds a lead in the full roster.
type Lookup interface {
	Get(id int64) (domain.Lead, bool)
}

// Selection is NoSelection or Selected(id). It is not cleared when the
// working set stops containing the id; only deletion makes it stale.
type Selection struct {
	id  int64
	set bool
}

// Select reports whether the state changed. Re-selecting the current id is
// a no-op.
func (s *Selection) Select(id int64) bool {
	if s.set && s.id == id {
		return false
	}
	s.id, s.set = id, true
	return true
}

func (s *Selection) Clear() bool {
	if !s.set {
		return false
	}
	s.id, s.set = 0, false
	return true
}

func (s Selection) Current() (int64, bool) { return s.id, s.set }

// CurrentIfValid resolves the selection against the full roster. It is
// absent when nothing is selected or the lead no longer exists.
func (s Selection) CurrentIfValid(l Lookup) (domain.Lead, bool) {
	if !s.set {
		return domain.Lead{}, false
	}
	return l.Get(s.id)
}

// MapPick is what a click on a map marker sends back.
type MapPick struct {
	ID *int64 `json:"id"`
}

func (s *Selection) PickMapPoint(p MapPick) (bool, error) {
	if p.ID == nil {
		return false, ErrNoIdentity
	}
	return s.Select(*p.ID), nil
}

// PickListRow selects the lead shown at row of the working set the list was
// rendered from, not of the full roster.
func (s *Selection) PickListRow(row int, working []domain.Lead) (bool, error) {
	if row < 0 || row >= len(working) {
		return false, fmt.Errorf("%w: %d of %d", ErrRowOutOfRange, row, len(working))
	}
	return s.Select(working[row].ID), nil
}
