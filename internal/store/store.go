// Package store holds the lead roster in memory and keeps it durable in a
// CSV file or a SQLite database. Every mutation is applied in memory first
// and then written with a single persist.
package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"leadcrm-engine/internal/domain"
	"leadcrm-engine/internal/rawsource"
	"leadcrm-engine/internal/reconcile"
	"leadcrm-engine/internal/table"
)

// NoteTimeLayout is the timestamp format of interaction log entries.
const NoteTimeLayout = "2006-01-02 15:04"

type Options struct {
	Backend Backend
	// RawPath is the scraped export used to build the roster when the
	// backend holds none, and by ReconcileFromSource.
	RawPath string
	Mapping map[string]string
	// LockPath, when set, is locked exclusively for the life of the store.
	LockPath string
	Now      func() time.Time
}

type Store struct {
	mu sync.RWMutex

	backend Backend
	lock    *flock.Flock
	rawPath string
	mapping map[string]string
	now     func() time.Time

	columns []string
	leads   []domain.Lead
	nextID  int64
	dirty   bool
	lastErr error
	report  LoadReport
}

// Open loads the persisted roster, or builds it from the raw source and
// persists it right away. With neither available it returns a *LoadError
// wrapping ErrNoData.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Backend == nil {
		return nil, errors.New("store: backend is required")
	}
	s := &Store{
		backend: opts.Backend,
		rawPath: opts.RawPath,
		mapping: opts.Mapping,
		now:     opts.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}

	if opts.LockPath != "" {
		fl, err := acquireLock(opts.LockPath)
		if err != nil {
			return nil, &LoadError{Source: opts.LockPath, Err: err}
		}
		s.lock = fl
	}

	if err := s.load(ctx); err != nil {
		s.unlock()
		return nil, err
	}
	return s, nil
}

func (s *Store) load(ctx context.Context) error {
	exists, err := s.backend.Exists(ctx)
	if err != nil {
		return &LoadError{Source: s.backend.Name(), Err: err}
	}

	var t table.Table
	rep := LoadReport{Source: s.backend.Name()}
	switch {
	case exists:
		t, err = s.backend.Read(ctx)
		if err != nil {
			return &LoadError{Source: s.backend.Name(), Err: err}
		}
		if err := checkPersisted(t); err != nil {
			return &LoadError{Source: s.backend.Name(), Err: err}
		}
	case s.rawPath != "" && rawsource.Exists(s.rawPath):
		rep.Source = s.rawPath
		rep.BuiltFromRaw = true
		t, err = rawsource.Load(s.rawPath, s.mapping)
		if err != nil {
			log.Printf("[store] raw source unusable, starting empty: %v", err)
			t = table.Table{Columns: []string{domain.ColName}}
		}
	default:
		return &LoadError{Source: s.backend.Name(), Err: ErrNoData}
	}

	width := len(t.Columns)
	EnsureDefaults(&t)
	s.columns = t.Columns
	s.leads, s.nextID = decode(t, &rep)
	s.report = rep

	log.Printf("[store] loaded source=%s rows=%d assigned_ids=%d legacy_status=%d legacy_system=%d legacy_vendor=%d",
		rep.Source, rep.Rows, rep.AssignedIDs, rep.LegacyStatus, rep.LegacySystem, rep.LegacyVendor)

	// a fresh build, new columns or new ids must reach disk before anyone
	// can refer to them
	if !exists || width != len(t.Columns) || rep.AssignedIDs > 0 {
		if err := s.persistLocked(ctx); err != nil {
			log.Printf("[store] level=error initial persist failed, will retry: %v", err)
		}
	}
	return nil
}

// checkPersisted rejects a persisted table that cannot be a roster. It runs
// before any repair so a damaged file is never rewritten.
func checkPersisted(t table.Table) error {
	if !t.Has(domain.ColName) {
		return fmt.Errorf("%w: no %q column", ErrCorrupt, domain.ColName)
	}
	ragged := 0
	for _, row := range t.Rows {
		if len(row) != len(t.Columns) {
			ragged++
		}
	}
	if ragged*2 > len(t.Rows) {
		return fmt.Errorf("%w: %d of %d rows do not match the header", ErrCorrupt, ragged, len(t.Rows))
	}
	return nil
}

func (s *Store) unlock() {
	if s.lock != nil {
		_ = s.lock.Unlock()
		s.lock = nil
	}
}

// Close releases the lock and the backend. Unsaved changes are flushed first.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.dirty {
		errs = append(errs, s.persistLocked(context.Background()))
	}
	errs = append(errs, s.backend.Close())
	s.unlock()
	return errors.Join(errs...)
}

func (s *Store) Report() LoadReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

func (s *Store) Columns() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.columns...)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.leads)
}

// All returns a snapshot of every lead in roster order.
func (s *Store) All() []domain.Lead {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Lead, len(s.leads))
	for i, l := range s.leads {
		out[i] = l.Clone()
	}
	return out
}

func (s *Store) Get(id int64) (domain.Lead, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return domain.Lead{}, false
	}
	return s.leads[i].Clone(), true
}

func (s *Store) indexOf(id int64) int {
	for i := range s.leads {
		if s.leads[i].ID == id {
			return i
		}
	}
	return -1
}

// PersistErr returns the error of the last failed write while the store is
// still dirty, nil otherwise. Open reports its own initial write this way.
func (s *Store) PersistErr() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Persist writes the whole roster.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx)
}

func (s *Store) persistLocked(ctx context.Context) error {
	if err := s.backend.Write(ctx, encode(s.columns, s.leads)); err != nil {
		s.dirty = true
		s.lastErr = &PersistError{Backend: s.backend.Name(), Err: err}
		return s.lastErr
	}
	s.dirty = false
	s.lastErr = nil
	return nil
}

// Update runs fn on a copy of the lead and commits the copy when fn
// succeeds. The id cannot be changed.
func (s *Store) Update(ctx context.Context, id int64, fn func(*domain.Lead) error) (domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.Lead{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	next := s.leads[i].Clone()
	if err := fn(&next); err != nil {
		return domain.Lead{}, err
	}
	next.ID = id
	s.leads[i] = next
	return next.Clone(), s.persistLocked(ctx)
}

// ApplyEdit sets one column by name, e.g. "Status" or "Checklist.Agendar Visita".
func (s *Store) ApplyEdit(ctx context.Context, id int64, field, value string) (domain.Lead, error) {
	return s.Update(ctx, id, func(l *domain.Lead) error {
		return l.ApplyField(field, value)
	})
}

// EditRow applies a full-row edit. Read-only columns are ignored so a row
// read from the API can be sent back unchanged.
func (s *Store) EditRow(ctx context.Context, id int64, values map[string]string) (domain.Lead, error) {
	return s.Update(ctx, id, func(l *domain.Lead) error {
		for _, col := range s.columns {
			v, ok := values[col]
			if !ok || readOnlyColumn(col) {
				continue
			}
			if err := l.ApplyField(col, v); err != nil {
				return fmt.Errorf("%s: %w", col, err)
			}
		}
		for field, v := range values {
			if strings.HasPrefix(field, domain.ColChecklist+".") {
				if err := l.ApplyField(field, v); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func readOnlyColumn(col string) bool {
	switch col {
	case domain.ColID, domain.ColLatitude, domain.ColLongitude, domain.ColLog, domain.ColChecklist:
		return true
	}
	return false
}

// AppendNote prepends a log entry stamped with the current time.
func (s *Store) AppendNote(ctx context.Context, id int64, user, note string) (domain.Lead, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return domain.Lead{}, fmt.Errorf("%w: note is empty", domain.ErrInvalidValue)
	}
	if strings.TrimSpace(user) == "" {
		user = domain.DefaultUser
	}
	return s.Update(ctx, id, func(l *domain.Lead) error {
		l.PrependNote(domain.Interaction{
			User: user,
			Date: s.now().Format(NoteTimeLayout),
			Note: note,
		})
		return nil
	})
}

// Append adds a lead with a fresh id at the end of the roster.
func (s *Store) Append(ctx context.Context, l domain.Lead) (domain.Lead, error) {
	if strings.TrimSpace(l.Name) == "" {
		return domain.Lead{}, fmt.Errorf("%w: name is required", domain.ErrInvalidValue)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	l = s.prepare(l)
	l.ID = s.nextID
	s.nextID++
	s.leads = append(s.leads, l)
	return l.Clone(), s.persistLocked(ctx)
}

// prepare normalizes a lead coming from outside the store.
func (s *Store) prepare(l domain.Lead) domain.Lead {
	l = l.Clone()
	if l.Coord != nil && !l.Coord.Valid() {
		l.Coord = nil
	}
	for _, c := range s.columns {
		if knownColumns[c] {
			continue
		}
		if l.Extra == nil {
			l.Extra = map[string]string{}
		}
		if _, ok := l.Extra[c]; !ok {
			l.Extra[c] = ""
		}
	}
	for k := range l.Extra {
		if !containsString(s.columns, k) {
			delete(l.Extra, k)
		}
	}
	return l
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	s.leads = append(s.leads[:i:i], s.leads[i+1:]...)
	return s.persistLocked(ctx)
}

// ReplaceAll swaps in an edited copy of the whole roster. Leads keep their
// id when it is known; new rows (id 0 or unknown) get fresh ids; leads not
// present are removed.
func (s *Store) ReplaceAll(ctx context.Context, leads []domain.Lead) ([]domain.Lead, error) {
	for i, l := range leads {
		if strings.TrimSpace(l.Name) == "" {
			return nil, fmt.Errorf("%w: row %d: name is required", domain.ErrInvalidValue, i)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	known := make(map[int64]bool, len(s.leads))
	for _, l := range s.leads {
		known[l.ID] = true
	}
	used := map[int64]bool{}
	next := make([]domain.Lead, len(leads))
	for i, l := range leads {
		l = s.prepare(l)
		if !known[l.ID] || used[l.ID] {
			l.ID = s.nextID
			s.nextID++
		}
		used[l.ID] = true
		next[i] = l
	}
	s.leads = next

	out := make([]domain.Lead, len(next))
	for i, l := range next {
		out[i] = l.Clone()
	}
	return out, s.persistLocked(ctx)
}

// Reconcile fills blank cells from raw and persists once. Raw columns
// outside the fixed schema are added to the header.
func (s *Store) Reconcile(ctx context.Context, raw table.Table) (reconcile.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	leads, rep := reconcile.Apply(s.leads, raw)

	added := false
	for _, c := range rep.ExtraColumns {
		if !containsString(s.columns, c) {
			s.columns = append(s.columns, c)
			added = true
		}
	}
	s.leads = leads
	if added {
		for i := range s.leads {
			s.leads[i] = s.prepare(s.leads[i])
		}
	}

	log.Printf("[reconcile] matched=%d unmatched=%d filled=%v", rep.Matched, rep.Unmatched, rep.FilledColumns())
	if !rep.Changed() && !added && !s.dirty {
		return rep, nil
	}
	return rep, s.persistLocked(ctx)
}

// ReconcileFromSource loads the configured raw source and reconciles
// against it. A source that cannot be read leaves the roster unchanged and
// returns the *rawsource.ParseError.
func (s *Store) ReconcileFromSource(ctx context.Context) (reconcile.Report, error) {
	if s.rawPath == "" {
		return reconcile.Report{}, &rawsource.ParseError{Err: errors.New("no raw source configured")}
	}
	raw, err := rawsource.Load(s.rawPath, s.mapping)
	if err != nil {
		log.Printf("[reconcile] skipped: %v", err)
		return reconcile.Report{}, err
	}
	return s.Reconcile(ctx, raw)
}

func containsString(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
