// Package rawsource reads the scraped lead export (CSV, XLSX or a saved
// results page) and maps its machine-generated column keys onto the roster
// column names.
package rawsource

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"leadcrm-engine/internal/domain"
	"leadcrm-engine/internal/table"
)

// DefaultMapping is the scraper class-name → roster column table.
var DefaultMapping = map[string]string{
	"qBF1Pd":      domain.ColName,
	"W4Efsd":      domain.ColCategory,
	"MW4etd":      domain.ColRating,
	"UY7F9":       domain.ColReviewCount,
	"W4Efsd 4":    domain.ColAddress,
	"W4Efsd 6":    domain.ColHours,
	"ah5Ghc":      domain.ColFeaturedNote,
	"hfpxzc href": domain.ColURL,
}

// mappingOrder keeps the output column order stable.
var mappingOrder = []string{"qBF1Pd", "W4Efsd", "MW4etd", "UY7F9", "W4Efsd 4", "W4Efsd 6", "ah5Ghc", "hfpxzc href"}

var ErrNoNameColumn = errors.New("no name column")

// ParseError marks a raw source that exists but could not be used. Callers
// treat it as "source skipped".
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string { return fmt.Sprintf("raw source %s: %v", e.Path, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// Exists reports whether path names a regular file.
func Exists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

// Load reads path by extension and returns the mapped table. Every failure
// is a *ParseError.
func Load(path string, mapping map[string]string) (table.Table, error) {
	if mapping == nil {
		mapping = DefaultMapping
	}

	var (
		raw table.Table
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		raw, err = readXLSX(path)
	case ".html", ".htm":
		raw, err = readHTML(path)
	default:
		raw, err = readCSV(path)
	}
	if err != nil {
		return table.Table{}, &ParseError{Path: path, Err: err}
	}

	out, err := Map(raw, mapping)
	if err != nil {
		return table.Table{}, &ParseError{Path: path, Err: err}
	}
	return out, nil
}

// Map projects raw onto roster columns: mapped keys are renamed, columns that
// already carry a roster name are kept, everything else is dropped. Blank rows
// and rows without a name are removed.
func Map(raw table.Table, mapping map[string]string) (table.Table, error) {
	type src struct {
		idx int
		col string
	}
	var picks []src
	taken := map[string]bool{}

	for _, key := range orderedKeys(mapping) {
		if i := raw.Index(key); i >= 0 && !taken[mapping[key]] {
			picks = append(picks, src{idx: i, col: mapping[key]})
			taken[mapping[key]] = true
		}
	}
	for i, c := range raw.Columns {
		c = strings.TrimSpace(c)
		if isRosterColumn(c) && !taken[c] {
			picks = append(picks, src{idx: i, col: c})
			taken[c] = true
		}
	}
	if !taken[domain.ColName] {
		return table.Table{}, ErrNoNameColumn
	}

	out := table.Table{}
	for _, p := range picks {
		out.Columns = append(out.Columns, p.col)
	}
	for _, row := range raw.Rows {
		if table.BlankRow(row) {
			continue
		}
		rec := make([]string, len(picks))
		for j, p := range picks {
			if p.idx < len(row) {
				rec[j] = cleanCell(p.col, row[p.idx])
			}
		}
		out.Rows = append(out.Rows, rec)
	}
	out.DropRows(func(r int) bool {
		return strings.TrimSpace(out.Cell(r, domain.ColName)) != ""
	})
	return out, nil
}

func orderedKeys(mapping map[string]string) []string {
	keys := make([]string, 0, len(mapping))
	seen := map[string]bool{}
	for _, k := range mappingOrder {
		if _, ok := mapping[k]; ok {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	var rest []string
	for k := range mapping {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

var rosterColumns = map[string]bool{
	domain.ColName: true, domain.ColCategory: true, domain.ColRating: true,
	domain.ColAddress: true, domain.ColHours: true, domain.ColURL: true,
	domain.ColWebsite: true, domain.ColOrdering: true,
	domain.ColReviewCount: true, domain.ColFeaturedNote: true,
}

func isRosterColumn(c string) bool { return rosterColumns[c] }

func cleanCell(col, v string) string {
	if col == domain.ColURL || col == domain.ColWebsite {
		return strings.TrimSpace(v)
	}
	return CleanText(v)
}
