// Package table is the column-named, row-ordered value passed between the
// raw source readers, the reconciler and the store backends.
package table

import "strings"

type Table struct {
	Columns []string
	Rows    [][]string
}

// Index returns the position of a column, or -1.
func (t Table) Index(col string) int {
	for i, c := range t.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

func (t Table) Has(col string) bool { return t.Index(col) >= 0 }

// Cell returns the value at row r for col; short rows read as empty.
func (t Table) Cell(r int, col string) string {
	i := t.Index(col)
	if i < 0 || r < 0 || r >= len(t.Rows) || i >= len(t.Rows[r]) {
		return ""
	}
	return t.Rows[r][i]
}

// Record returns row r as a column→value map.
func (t Table) Record(r int) map[string]string {
	out := make(map[string]string, len(t.Columns))
	for i, c := range t.Columns {
		if i < len(t.Rows[r]) {
			out[c] = t.Rows[r][i]
		} else {
			out[c] = ""
		}
	}
	return out
}

// AddColumn appends col filled with def if it is not already present.
func (t *Table) AddColumn(col, def string) bool {
	if t.Has(col) {
		return false
	}
	t.Columns = append(t.Columns, col)
	for i := range t.Rows {
		t.Rows[i] = padRow(t.Rows[i], len(t.Columns)-1)
		t.Rows[i] = append(t.Rows[i], def)
	}
	return true
}

// DropRows keeps only the rows for which keep returns true.
func (t *Table) DropRows(keep func(row int) bool) {
	out := make([][]string, 0, len(t.Rows))
	for i, row := range t.Rows {
		if keep(i) {
			out = append(out, row)
		}
	}
	t.Rows = out
}

func padRow(row []string, n int) []string {
	for len(row) < n {
		row = append(row, "")
	}
	return row
}

// BlankRow reports whether every cell is whitespace.
func BlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
