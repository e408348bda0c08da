package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCellAndRecordTolerateShortRows(t *testing.T) {
	tb := Table{
		Columns: []string{"a", "b", "c"},
		Rows:    [][]string{{"1", "2", "3"}, {"4"}},
	}
	assert.Equal(t, "2", tb.Cell(0, "b"))
	assert.Equal(t, "", tb.Cell(1, "c"))
	assert.Equal(t, "", tb.Cell(5, "a"))
	assert.Equal(t, "", tb.Cell(0, "zz"))
	assert.Equal(t, map[string]string{"a": "4", "b": "", "c": ""}, tb.Record(1))
}

func TestAddColumnIsIdempotent(t *testing.T) {
	tb := Table{Columns: []string{"a"}, Rows: [][]string{{"1"}, {}}}

	assert.True(t, tb.AddColumn("Status", "Por Contactar"))
	assert.False(t, tb.AddColumn("Status", "otro"))
	assert.Equal(t, []string{"a", "Status"}, tb.Columns)
	assert.Equal(t, [][]string{{"1", "Por Contactar"}, {"", "Por Contactar"}}, tb.Rows)
}

func TestDropRows(t *testing.T) {
	tb := Table{Columns: []string{"name"}, Rows: [][]string{{"x"}, {""}, {"y"}}}
	tb.DropRows(func(r int) bool { return tb.Cell(r, "name") != "" })
	assert.Equal(t, [][]string{{"x"}, {"y"}}, tb.Rows)

	assert.True(t, BlankRow([]string{" ", ""}))
	assert.False(t, BlankRow([]string{" ", "z"}))
}
