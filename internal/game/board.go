package game

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rollthedice/backend/internal/rules"
)

// Column names in display order. "down" fills top to bottom, "up" bottom to
// top, "free" in any order, "ang" only under an announcement (with the
// roll-1 and last-cell exceptions handled by the session).
var Columns = []string{"down", "free", "up", "ang"}

// CellsPerBoard is the number of writable cells on one sheet (12 rows x 4
// columns).
const CellsPerBoard = 48

// Board is a sparse scoresheet: cell key "row,col" to written value. Cells
// are write-once; only a correction may lift an entry again.
type Board map[string]int

// CellKey builds the wire key for a cell, e.g. "14,ang".
func CellKey(row int, col string) string {
	return fmt.Sprintf("%d,%s", row, col)
}

// ParseCellKey is the inverse of CellKey.
func ParseCellKey(key string) (row int, col string, ok bool) {
	r, c, found := strings.Cut(key, ",")
	if !found {
		return 0, "", false
	}
	n, err := strconv.Atoi(r)
	if err != nil {
		return 0, "", false
	}
	return n, c, true
}

func validColumn(col string) bool {
	switch col {
	case "down", "free", "up", "ang":
		return true
	}
	return false
}

// Filled reports whether the cell already holds a value.
func (b Board) Filled(row int, col string) bool {
	_, ok := b[CellKey(row, col)]
	return ok
}

// FilledRows returns the set of row indices already written in one column.
func (b Board) FilledRows(col string) map[int]bool {
	out := make(map[int]bool)
	for k := range b {
		r, c, ok := ParseCellKey(k)
		if ok && c == col {
			out[r] = true
		}
	}
	return out
}

// NextRequiredRow returns the row the column demands next. down walks the
// writable rows top to bottom, up walks them bottom to top. ok is false when
// the column is complete.
func (b Board) NextRequiredRow(col string) (row int, ok bool) {
	filled := b.FilledRows(col)
	if col == "down" {
		for _, r := range rules.WritableRows {
			if !filled[r] {
				return r, true
			}
		}
		return 0, false
	}
	for i := len(rules.WritableRows) - 1; i >= 0; i-- {
		r := rules.WritableRows[i]
		if !filled[r] {
			return r, true
		}
	}
	return 0, false
}

// Remaining is the count of still-open writable cells.
func (b Board) Remaining() int {
	return CellsPerBoard - len(b)
}

// ColumnComplete reports whether every writable row of the column is filled.
func (b Board) ColumnComplete(col string) bool {
	return len(b.FilledRows(col)) == len(rules.WritableRows)
}

// OpenCells returns how many cells of one column are still open.
func (b Board) OpenCells(col string) int {
	return len(rules.WritableRows) - len(b.FilledRows(col))
}

// columns regroups the flat cell map per column, keyed by category, the
// shape the scoring package consumes.
func (b Board) columns() map[string]map[string]int {
	out := make(map[string]map[string]int, len(Columns))
	for _, c := range Columns {
		out[c] = make(map[string]int)
	}
	for k, v := range b {
		r, c, ok := ParseCellKey(k)
		if !ok {
			continue
		}
		field, known := rules.RowField[r]
		if !known || out[c] == nil {
			continue
		}
		out[c][field] = v
	}
	return out
}

// Totals computes the derived rows of every column plus the overall total.
func (b Board) Totals(rs rules.Ruleset) (map[string]rules.Totals, int) {
	return rules.Overall(b.columns(), rs)
}

// Clone returns an independent copy.
func (b Board) Clone() Board {
	out := make(Board, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}
