package game

import "testing"

func TestCorrectionRoundTrip(t *testing.T) {
	s := newSession(t, "2", 3, 3, 3, 2, 2)
	p1 := join(t, s, "Alice")
	p2 := join(t, s, "Bob")

	mustRoll(t, s, p1) // 3,3,3,2,2 = full house, 49
	mustWrite(t, s, p1, 13, "free")
	if got := s.Snapshot().Scoreboards[p1].Cells["13,free"]; got != 49 {
		t.Fatalf("full house = %d, want 49", got)
	}

	if _, err := s.RequestCorrection(p1); err != nil {
		t.Fatalf("RequestCorrection: %v", err)
	}
	snap := s.Snapshot()
	if snap.Correction == nil || snap.Correction.Dice != [5]int{3, 3, 3, 2, 2} {
		t.Fatalf("frozen dice = %v", snap.Correction)
	}
	if snap.Dice != [5]int{} || snap.RollsUsed != 0 {
		t.Fatal("live turn state was touched by the correction request")
	}

	// Rewriting the very same cell reproduces the score.
	if _, err := s.WriteCorrection(p1, 13, "free", false); err != nil {
		t.Fatalf("WriteCorrection: %v", err)
	}
	snap = s.Snapshot()
	if got := snap.Scoreboards[p1].Cells["13,free"]; got != 49 {
		t.Errorf("round-trip score = %d, want 49", got)
	}
	if snap.Correction != nil {
		t.Error("correction still active after the write")
	}
	if snap.Turn.PlayerID != p2 || snap.Dice != [5]int{} || snap.RollsUsed != 0 {
		t.Error("live turn changed across the correction")
	}
}

func TestCorrectionMovesEntry(t *testing.T) {
	s := newSession(t, "2", 3, 3, 3, 2, 2)
	p1 := join(t, s, "Alice")
	join(t, s, "Bob")

	mustRoll(t, s, p1)
	mustWrite(t, s, p1, 13, "free")

	if _, err := s.RequestCorrection(p1); err != nil {
		t.Fatal(err)
	}
	// Move the entry into the down column; row 0 is its next required row.
	if _, err := s.WriteCorrection(p1, 0, "down", false); err != nil {
		t.Fatalf("WriteCorrection: %v", err)
	}
	snap := s.Snapshot()
	if _, still := snap.Scoreboards[p1].Cells["13,free"]; still {
		t.Error("old entry not lifted")
	}
	if got := snap.Scoreboards[p1].Cells["0,down"]; got != 0 {
		t.Errorf("ones on 3,3,3,2,2 = %d, want 0", got)
	}
}

func TestCorrectionOrderCheck(t *testing.T) {
	s := newSession(t, "2", 3, 3, 3, 2, 2)
	p1 := join(t, s, "Alice")
	join(t, s, "Bob")

	mustRoll(t, s, p1)
	mustWrite(t, s, p1, 13, "free")
	if _, err := s.RequestCorrection(p1); err != nil {
		t.Fatal(err)
	}
	if _, err := s.WriteCorrection(p1, 5, "down", false); err == nil {
		t.Error("correction skipped the down column order")
	}
}

func TestCorrectionTooLateAfterRoll(t *testing.T) {
	s := newSession(t, "2", 1, 1, 1, 2, 3)
	p1 := join(t, s, "Alice")
	p2 := join(t, s, "Bob")

	mustRoll(t, s, p1)
	mustWrite(t, s, p1, 0, "free")
	mustRoll(t, s, p2)
	if _, err := s.RequestCorrection(p1); err == nil {
		t.Error("correction opened after the next player rolled")
	}
}

func TestCorrectionRejectsAnnouncedWrite(t *testing.T) {
	s := newSession(t, "2", 1, 2, 3, 4, 5)
	p1 := join(t, s, "Alice")
	join(t, s, "Bob")

	mustRoll(t, s, p1)
	if _, err := s.Announce(p1, "kenter"); err != nil {
		t.Fatal(err)
	}
	mustWrite(t, s, p1, 12, "ang")
	if _, err := s.RequestCorrection(p1); err == nil {
		t.Error("an announced write was corrected")
	}
}

func TestCorrectionOnlyMostRecentWriter(t *testing.T) {
	s := newSession(t, "2", 1, 1, 1, 2, 3)
	p1 := join(t, s, "Alice")
	join(t, s, "Bob")

	mustRoll(t, s, p1)
	if _, err := s.RequestCorrection(p1); err == nil {
		t.Error("correction opened while it is still the writer's turn")
	}
	mustWrite(t, s, p1, 0, "free")
	if _, err := s.RequestCorrection(p1); err != nil {
		t.Errorf("writer could not correct right after the turn: %v", err)
	}
}

func TestCorrectionBlocksOtherActions(t *testing.T) {
	s := newSession(t, "2", 1, 1, 1, 2, 3)
	p1 := join(t, s, "Alice")
	p2 := join(t, s, "Bob")

	mustRoll(t, s, p1)
	mustWrite(t, s, p1, 0, "free")
	if _, err := s.RequestCorrection(p1); err != nil {
		t.Fatal(err)
	}
	if _, err := s.RollDice(p2); err == nil {
		t.Error("current player rolled during a correction")
	}
	if _, err := s.CancelCorrection(p2); err == nil {
		t.Error("a bystander cancelled the correction")
	}
	if _, err := s.CancelCorrection(p1); err != nil {
		t.Errorf("corrector could not cancel: %v", err)
	}
	if _, err := s.RollDice(p2); err != nil {
		t.Errorf("play did not resume after cancel: %v", err)
	}
}

func TestCorrectionPokerUsesFrozenMeta(t *testing.T) {
	s := newSession(t, "2",
		1, 2, 3, 1, 2, // roll 1
		4, 4, 4, 4, 2, // roll 2: the quad
	)
	p1 := join(t, s, "Alice")
	join(t, s, "Bob")

	mustRoll(t, s, p1)
	mustRoll(t, s, p1)
	// Gamble: keep everything, burn roll 3, then book poker for 0.
	if _, err := s.SetHold(p1, [5]bool{true, true, true, true, true}); err != nil {
		t.Fatal(err)
	}
	mustRoll(t, s, p1)
	mustWrite(t, s, p1, 14, "free")
	if got := s.Snapshot().Scoreboards[p1].Cells["14,free"]; got != 0 {
		t.Fatalf("gambled poker = %d, want 0", got)
	}

	// The correction rescoring falls back to the quad roll, so the points
	// come back.
	if _, err := s.RequestCorrection(p1); err != nil {
		t.Fatal(err)
	}
	if _, err := s.WriteCorrection(p1, 14, "free", false); err != nil {
		t.Fatal(err)
	}
	if got := s.Snapshot().Scoreboards[p1].Cells["14,free"]; got != 66 {
		t.Errorf("corrected poker = %d, want 66", got)
	}
}

func TestCorrectorDisconnectCancels(t *testing.T) {
	s := newSession(t, "2", 1, 1, 1, 2, 3)
	p1 := join(t, s, "Alice")
	join(t, s, "Bob")

	mustRoll(t, s, p1)
	mustWrite(t, s, p1, 0, "free")
	if _, err := s.RequestCorrection(p1); err != nil {
		t.Fatal(err)
	}
	if !s.PlayerDetached(p1) {
		t.Fatal("detach did not cancel the pending correction")
	}
	if s.Snapshot().Correction != nil {
		t.Error("correction survived the corrector's disconnect")
	}
}
