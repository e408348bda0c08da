package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"leadcrm-engine/internal/domain"
	"leadcrm-engine/internal/geo"
)

const DefaultID = "default"

type Session struct {
	ID string

	mu       sync.Mutex
	sel      Selection
	center   *geo.Place
	working  []domain.Lead
	lastSeen time.Time
}

func (s *Session) Select(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.Select(id)
}

func (s *Session) Clear() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.Clear()
}

func (s *Session) Current() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.Current()
}

func (s *Session) Selected(l Lookup) (domain.Lead, bool) {
	s.mu.Lock()
	sel := s.sel
	s.mu.Unlock()
	return sel.CurrentIfValid(l)
}

func (s *Session) PickMapPoint(p MapPick) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.PickMapPoint(p)
}

// PickListRow resolves row against the working set last stored with
// SetWorkingSet.
func (s *Session) PickListRow(row int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.PickListRow(row, s.working)
}

// SetWorkingSet records the result of the latest filter together with the
// center it was resolved around (nil when the filter had none).
func (s *Session) SetWorkingSet(working []domain.Lead, center *geo.Place) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.working = working
	s.center = center
}

func (s *Session) WorkingSet() []domain.Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.working
}

func (s *Session) Center() *geo.Place {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.center
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Registry maps session ids to sessions, creating them on first use.
type Registry struct {
	mu  sync.Mutex
	m   map[string]*Session
	now func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{m: map[string]*Session{}, now: time.Now}
}

// NewID returns a fresh random session id.
func NewID() string { return uuid.NewString() }

// Get returns the session for id, creating it if needed. An empty id maps to
// the default session.
func (r *Registry) Get(id string) *Session {
	if id == "" {
		id = DefaultID
	}
	r.mu.Lock()
	s, ok := r.m[id]
	if !ok {
		s = &Session{ID: id}
		r.m[id] = s
	}
	r.mu.Unlock()
	s.touch(r.now())
	return s
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.m)
}

// Forget drops the selection of every session pointing at id. Called after
// a lead is deleted.
func (r *Registry) Forget(id int64) []string {
	r.mu.Lock()
	all := make([]*Session, 0, len(r.m))
	for _, s := range r.m {
		all = append(all, s)
	}
	r.mu.Unlock()

	var cleared []string
	for _, s := range all {
		s.mu.Lock()
		if cur, ok := s.sel.Current(); ok && cur == id {
			s.sel.Clear()
			cleared = append(cleared, s.ID)
		}
		s.mu.Unlock()
	}
	return cleared
}

// Prune removes sessions idle for longer than maxIdle, keeping the default
// session.
func (r *Registry) Prune(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.m {
		if id != DefaultID && s.idleSince().Before(cutoff) {
			delete(r.m, id)
			n++
		}
	}
	return n
}
