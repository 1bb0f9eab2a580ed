package rules

import "testing"

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		dice     [5]int
		expected int
	}{
		{name: "ones counts face", field: "1", dice: [5]int{1, 1, 1, 2, 3}, expected: 3},
		{name: "ones none", field: "1", dice: [5]int{2, 3, 4, 5, 6}, expected: 0},
		{name: "sixes", field: "6", dice: [5]int{6, 6, 2, 6, 1}, expected: 18},
		{name: "max is dice sum", field: "max", dice: [5]int{6, 6, 5, 5, 4}, expected: 26},
		{name: "min is dice sum", field: "min", dice: [5]int{1, 1, 2, 1, 2}, expected: 7},
		{name: "straight all distinct", field: "kenter", dice: [5]int{1, 2, 3, 4, 5}, expected: 35},
		{name: "straight with pair", field: "kenter", dice: [5]int{1, 2, 3, 4, 4}, expected: 0},
		{name: "full house 3+2", field: "full", dice: [5]int{3, 3, 3, 2, 2}, expected: 49},
		{name: "full house five alike", field: "full", dice: [5]int{5, 5, 5, 5, 5}, expected: 55},
		{name: "full house rejects 4+1", field: "full", dice: [5]int{4, 4, 4, 4, 1}, expected: 0},
		{name: "poker on four alike", field: "poker", dice: [5]int{4, 4, 4, 4, 2}, expected: 66},
		{name: "poker on five alike", field: "poker", dice: [5]int{6, 6, 6, 6, 6}, expected: 74},
		{name: "poker on triple", field: "poker", dice: [5]int{4, 4, 4, 1, 2}, expected: 0},
		{name: "sixty on five alike", field: "60", dice: [5]int{2, 2, 2, 2, 2}, expected: 70},
		{name: "sixty on four alike", field: "60", dice: [5]int{2, 2, 2, 2, 3}, expected: 0},
		{name: "unknown field", field: "bogus", dice: [5]int{1, 1, 1, 1, 1}, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.field, tt.dice); got != tt.expected {
				t.Errorf("Score(%q, %v) = %d, want %d", tt.field, tt.dice, got, tt.expected)
			}
		})
	}
}

func TestHasNOfAKind(t *testing.T) {
	dice := [5]int{4, 4, 4, 4, 2}
	if !HasNOfAKind(dice, 4) {
		t.Error("expected four of a kind")
	}
	if HasNOfAKind(dice, 5) {
		t.Error("did not expect five of a kind")
	}
	if HasNOfAKind([5]int{0, 0, 0, 0, 0}, 4) {
		t.Error("unrolled dice must not count as a kind")
	}
}

func TestColumnTotalsBonus(t *testing.T) {
	tests := []struct {
		name      string
		cells     map[string]int
		threshold int
		bonus     int
	}{
		{
			name:      "below threshold",
			cells:     map[string]int{"1": 3, "2": 6, "3": 9, "4": 12, "5": 15, "6": 12},
			threshold: 60,
			bonus:     0,
		},
		{
			name:      "at threshold",
			cells:     map[string]int{"1": 3, "2": 6, "3": 9, "4": 12, "5": 12, "6": 18},
			threshold: 60,
			bonus:     Bonus,
		},
		{
			name:      "hardcore threshold",
			cells:     map[string]int{"1": 2, "2": 4, "3": 9, "4": 12, "5": 5, "6": 12},
			threshold: 40,
			bonus:     Bonus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ColumnTotals(tt.cells, Ruleset{BonusThreshold: tt.threshold})
			if got.BonusTop != tt.bonus {
				t.Errorf("BonusTop = %d, want %d", got.BonusTop, tt.bonus)
			}
			if got.TotalTop != got.SumTop+got.BonusTop {
				t.Errorf("TotalTop = %d, want %d", got.TotalTop, got.SumTop+got.BonusTop)
			}
		})
	}
}

func TestColumnTotalsDiff(t *testing.T) {
	t.Run("nil until complete", func(t *testing.T) {
		got := ColumnTotals(map[string]int{"1": 3, "max": 28}, Default)
		if got.Diff != nil {
			t.Fatalf("Diff = %v, want nil while min is open", *got.Diff)
		}
	})

	t.Run("computed when complete", func(t *testing.T) {
		got := ColumnTotals(map[string]int{"1": 3, "max": 28, "min": 8}, Default)
		if got.Diff == nil || *got.Diff != 60 {
			t.Fatalf("Diff = %v, want 60", got.Diff)
		}
		if got.TotalColumn != got.TotalTop+got.SumBottom+60 {
			t.Errorf("TotalColumn = %d does not include the diff", got.TotalColumn)
		}
	})

	t.Run("clamped at zero", func(t *testing.T) {
		got := ColumnTotals(map[string]int{"1": 2, "max": 10, "min": 20}, Default)
		if got.Diff == nil || *got.Diff != 0 {
			t.Fatalf("Diff = %v, want clamp to 0", got.Diff)
		}
	})

	t.Run("zero ones still counts as written", func(t *testing.T) {
		got := ColumnTotals(map[string]int{"1": 0, "max": 30, "min": 5}, Default)
		if got.Diff == nil || *got.Diff != 0 {
			t.Fatalf("Diff = %v, want 0 for written zero ones", got.Diff)
		}
	})
}

func TestOverallSumsColumns(t *testing.T) {
	columns := map[string]map[string]int{
		"down": {"1": 3, "kenter": 35},
		"free": {"poker": 66},
		"up":   {},
		"ang":  {"60": 70},
	}
	perColumn, overall := Overall(columns, Default)

	want := 0
	for _, tot := range perColumn {
		want += tot.TotalColumn
	}
	if overall != want {
		t.Errorf("overall = %d, want sum of column totals %d", overall, want)
	}
	if perColumn["down"].SumBottom != 35 {
		t.Errorf("down SumBottom = %d, want 35", perColumn["down"].SumBottom)
	}
}

func TestRowFieldMapping(t *testing.T) {
	if len(WritableRows) != 12 {
		t.Fatalf("expected 12 writable rows, got %d", len(WritableRows))
	}
	for _, r := range WritableRows {
		field, ok := RowField[r]
		if !ok {
			t.Fatalf("row %d has no field", r)
		}
		if FieldRow[field] != r {
			t.Errorf("FieldRow[%q] = %d, want %d", field, FieldRow[field], r)
		}
	}
}
