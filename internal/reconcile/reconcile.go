// Package reconcile merges a freshly scraped raw table into the roster.
// It only fills gaps: a cell the user (or an earlier pass) already filled is
// never touched, and raw rows that match no lead are not inserted.
package reconcile

import (
	"sort"

	"leadcrm-engine/internal/domain"
	"leadcrm-engine/internal/table"
)

// Columns filled from the raw source, besides any extra raw column.
var Columns = []string{
	domain.ColCategory,
	domain.ColRating,
	domain.ColAddress,
	domain.ColHours,
	domain.ColURL,
	domain.ColWebsite,
	domain.ColOrdering,
}

// never filled: identity, user-owned state and derived values
var skip = map[string]bool{
	domain.ColID: true, domain.ColName: true, domain.ColStatus: true,
	domain.ColSystem: true, domain.ColVendor: true, domain.ColNotes: true,
	domain.ColChecklist: true, domain.ColLog: true, domain.ColPriority: true,
	domain.ColLatitude: true, domain.ColLongitude: true,
}

type Report struct {
	Matched   int            `json:"matched"`
	Unmatched int            `json:"unmatched"`
	Filled    map[string]int `json:"filled"`
	// ExtraColumns are raw columns outside the fixed schema, in raw order.
	ExtraColumns []string `json:"extraColumns,omitempty"`
}

// Changed reports whether any cell was filled.
func (r Report) Changed() bool {
	for _, n := range r.Filled {
		if n > 0 {
			return true
		}
	}
	return false
}

// Apply returns a copy of leads with blank cells filled from raw. Raw rows
// are keyed by name with whitespace collapsed, first occurrence wins. The
// input slice is not modified.
func Apply(leads []domain.Lead, raw table.Table) ([]domain.Lead, Report) {
	rep := Report{Filled: map[string]int{}}

	index := make(map[string]int, len(raw.Rows))
	for r := range raw.Rows {
		name := domain.CollapseSpace(raw.Cell(r, domain.ColName))
		if name == "" {
			continue
		}
		if _, dup := index[name]; !dup {
			index[name] = r
		}
	}

	var cols []string
	for _, c := range Columns {
		if raw.Has(c) {
			cols = append(cols, c)
		}
	}
	known := map[string]bool{}
	for _, c := range Columns {
		known[c] = true
	}
	for _, c := range raw.Columns {
		if !known[c] && !skip[c] {
			rep.ExtraColumns = append(rep.ExtraColumns, c)
		}
	}

	matched := map[string]bool{}
	out := make([]domain.Lead, len(leads))
	for i, l := range leads {
		l = l.Clone()
		key := domain.CollapseSpace(l.Name)
		r, ok := index[key]
		if ok {
			rep.Matched++
			matched[key] = true
			for _, c := range cols {
				if fill(&l, c, raw.Cell(r, c)) {
					rep.Filled[c]++
				}
			}
			for _, c := range rep.ExtraColumns {
				v := raw.Cell(r, c)
				if domain.IsBlank(v) || !domain.IsBlank(l.Extra[c]) {
					continue
				}
				if l.Extra == nil {
					l.Extra = map[string]string{}
				}
				l.Extra[c] = v
				rep.Filled[c]++
			}
		}
		out[i] = l
	}
	rep.Unmatched = len(index) - len(matched)
	return out, rep
}

// fill sets column c from v when the lead's current value is blank and v is
// not. It reports whether the lead changed.
func fill(l *domain.Lead, c, v string) bool {
	if domain.IsBlank(v) {
		return false
	}
	switch c {
	case domain.ColRating:
		r := domain.ParseRating(v)
		if l.Rating != 0 || r == 0 {
			return false
		}
		l.Rating = r
	case domain.ColCategory:
		return setBlank(&l.Category, v)
	case domain.ColAddress:
		return setBlank(&l.Address, v)
	case domain.ColHours:
		return setBlank(&l.Hours, v)
	case domain.ColWebsite:
		return setBlank(&l.Website, v)
	case domain.ColOrdering:
		return setBlank(&l.HasOnlineOrdering, v)
	case domain.ColURL:
		if !domain.IsBlank(l.MapsURL) {
			return false
		}
		prev := l.Coord
		l.SetMapsURL(v)
		if l.Coord == nil {
			l.Coord = prev
		}
	default:
		return false
	}
	return true
}

func setBlank(dst *string, v string) bool {
	if !domain.IsBlank(*dst) {
		return false
	}
	*dst = v
	return true
}

// FilledColumns lists the columns the report touched, sorted.
func (r Report) FilledColumns() []string {
	var out []string
	for c, n := range r.Filled {
		if n > 0 {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}
