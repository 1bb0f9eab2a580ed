package game

import (
	"testing"

	"github.com/rollthedice/backend/internal/rules"
)

func TestCellKeyRoundTrip(t *testing.T) {
	key := CellKey(14, "ang")
	if key != "14,ang" {
		t.Fatalf("CellKey = %q, want %q", key, "14,ang")
	}
	row, col, ok := ParseCellKey(key)
	if !ok || row != 14 || col != "ang" {
		t.Fatalf("ParseCellKey(%q) = (%d, %q, %v)", key, row, col, ok)
	}
	if _, _, ok := ParseCellKey("nonsense"); ok {
		t.Error("ParseCellKey accepted a key without a comma")
	}
}

func TestNextRequiredRow(t *testing.T) {
	b := Board{}

	if next, open := b.NextRequiredRow("down"); !open || next != 0 {
		t.Errorf("empty down column: next = %d, want 0", next)
	}
	if next, open := b.NextRequiredRow("up"); !open || next != 15 {
		t.Errorf("empty up column: next = %d, want 15", next)
	}

	b[CellKey(0, "down")] = 3
	if next, _ := b.NextRequiredRow("down"); next != 1 {
		t.Errorf("down after row 0: next = %d, want 1", next)
	}

	b[CellKey(15, "up")] = 70
	b[CellKey(14, "up")] = 66
	if next, _ := b.NextRequiredRow("up"); next != 13 {
		t.Errorf("up after rows 15 and 14: next = %d, want 13", next)
	}

	for _, r := range rules.WritableRows {
		b[CellKey(r, "down")] = 0
	}
	if _, open := b.NextRequiredRow("down"); open {
		t.Error("full down column still reports an open row")
	}
	if !b.ColumnComplete("down") {
		t.Error("full down column not reported complete")
	}
}

func TestRemaining(t *testing.T) {
	b := Board{}
	if b.Remaining() != 48 {
		t.Fatalf("empty board Remaining = %d, want 48", b.Remaining())
	}
	b[CellKey(0, "free")] = 3
	if b.Remaining() != 47 {
		t.Errorf("Remaining = %d, want 47", b.Remaining())
	}
	if b.OpenCells("free") != 11 {
		t.Errorf("OpenCells(free) = %d, want 11", b.OpenCells("free"))
	}
}

func TestBoardTotals(t *testing.T) {
	b := Board{}
	b[CellKey(0, "down")] = 3   // ones
	b[CellKey(9, "down")] = 28  // max
	b[CellKey(10, "down")] = 8  // min
	b[CellKey(14, "free")] = 66 // poker
	totals, overall := b.Totals(rules.Default)

	down := totals["down"]
	if down.Diff == nil || *down.Diff != 60 {
		t.Fatalf("down diff = %v, want 60", down.Diff)
	}
	want := 0
	for _, tot := range totals {
		want += tot.TotalColumn
	}
	if overall != want {
		t.Errorf("overall = %d, want %d", overall, want)
	}
}
