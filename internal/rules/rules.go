// Package rules holds the pure scoring math for the dice game: per-category
// point values and the derived column/overall totals. Everything here is
// deterministic and side-effect free; turn-dependent decisions (whose roll it
// is, whether poker points may be cashed in) live in the game package.
package rules

// Writable category keys, in the fixed board order. "down" columns are filled
// top to bottom along this order, "up" columns bottom to top.
var FieldKeys = []string{
	"1", "2", "3", "4", "5", "6",
	"max", "min", "kenter", "full", "poker", "60",
}

// Board row indices of the writable categories. The gaps (6-8, 11, 16-17) are
// derived rows that are recomputed, never stored.
var WritableRows = []int{0, 1, 2, 3, 4, 5, 9, 10, 12, 13, 14, 15}

// RowField maps a writable row index to its category key.
var RowField = map[int]string{
	0: "1", 1: "2", 2: "3", 3: "4", 4: "5", 5: "6",
	9: "max", 10: "min", 12: "kenter", 13: "full", 14: "poker", 15: "60",
}

// FieldRow is the inverse of RowField.
var FieldRow = func() map[string]int {
	m := make(map[string]int, len(RowField))
	for r, f := range RowField {
		m[f] = r
	}
	return m
}()

// Bonus awarded when the top-section sum reaches the ruleset threshold.
const Bonus = 30

// Ruleset carries the configurable parameters of a game. The bonus threshold
// is 60 in the standard convention and 40 in the hardcore one; it is a
// parameter on purpose, not a constant.
type Ruleset struct {
	BonusThreshold int
}

// Default is the standard ruleset.
var Default = Ruleset{BonusThreshold: 60}

func counts(dice [5]int) map[int]int {
	c := make(map[int]int, 5)
	for _, d := range dice {
		if d != 0 {
			c[d]++
		}
	}
	return c
}

func sum(dice [5]int) int {
	t := 0
	for _, d := range dice {
		t += d
	}
	return t
}

// HasNOfAKind reports whether at least n dice show the same face.
func HasNOfAKind(dice [5]int, n int) bool {
	for _, c := range counts(dice) {
		if c >= n {
			return true
		}
	}
	return false
}

// Score returns the point value of one category for the given dice. Poker
// scores whenever four or more dice match; whether those points may actually
// be recorded is the session's gamble-rule decision, not part of this
// function. Unknown keys score 0.
func Score(field string, dice [5]int) int {
	cnt := counts(dice)

	switch field {
	case "1", "2", "3", "4", "5", "6":
		face := int(field[0] - '0')
		return cnt[face] * face

	case "max", "min":
		// Same formula for both; which roll fills which cell is strategy.
		return sum(dice)

	case "kenter":
		if len(cnt) == 5 {
			return 35
		}
		return 0

	case "full":
		// 3+2 or five alike; 4+1 is not a full house.
		mostFace, mostN := 0, 0
		four := false
		for face, n := range cnt {
			if n > mostN || (n == mostN && face > mostFace) {
				mostFace, mostN = face, n
			}
			if n == 4 {
				four = true
			}
		}
		if (len(cnt) == 2 && !four) || mostN == 5 {
			return 40 + 3*mostFace
		}
		return 0

	case "poker":
		for face, n := range cnt {
			if n >= 4 {
				return 50 + 4*face
			}
		}
		return 0

	case "60":
		for face, n := range cnt {
			if n == 5 {
				return 60 + 5*face
			}
		}
		return 0
	}
	return 0
}

// Totals are the derived rows of one column. Diff stays nil until the "1",
// "max" and "min" cells are all written.
type Totals struct {
	SumTop      int  `json:"sum_top"`
	BonusTop    int  `json:"bonus_top"`
	TotalTop    int  `json:"total_top"`
	Diff        *int `json:"sum_maxmin"`
	SumBottom   int  `json:"sum_bottom"`
	TotalColumn int  `json:"total_column"`
}

// ColumnTotals computes the derived rows for one column. cells maps category
// key to the written value; absent keys are unwritten cells.
func ColumnTotals(cells map[string]int, rs Ruleset) Totals {
	var t Totals
	for _, f := range FieldKeys[:6] {
		t.SumTop += cells[f]
	}
	if t.SumTop >= rs.BonusThreshold {
		t.BonusTop = Bonus
	}
	t.TotalTop = t.SumTop + t.BonusTop

	ones, okOnes := cells["1"]
	max, okMax := cells["max"]
	min, okMin := cells["min"]
	if okOnes && okMax && okMin {
		d := ones * (max - min)
		if d < 0 {
			d = 0
		}
		t.Diff = &d
	}

	for _, f := range FieldKeys[8:] {
		t.SumBottom += cells[f]
	}
	t.TotalColumn = t.TotalTop + t.SumBottom
	if t.Diff != nil {
		t.TotalColumn += *t.Diff
	}
	return t
}

// Overall sums the column totals of all four columns. columns maps column
// name to its written cells.
func Overall(columns map[string]map[string]int, rs Ruleset) (map[string]Totals, int) {
	out := make(map[string]Totals, len(columns))
	total := 0
	for col, cells := range columns {
		t := ColumnTotals(cells, rs)
		out[col] = t
		total += t.TotalColumn
	}
	return out, total
}
