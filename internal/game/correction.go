package game

import "github.com/rollthedice/backend/internal/rules"

// Correction is the one-shot undo of a player's most recent write. While it
// is pending, only the corrector may act. The dice and roll bookkeeping of
// the original turn are frozen here; the live turn is never touched.
type Correction struct {
	PlayerID  string `json:"player_id"`
	Dice      [5]int `json:"dice"`
	RollIndex int    `json:"roll_index"`
	First4OAK int    `json:"first4oak_roll"`
}

// RequestCorrection opens the undo window. Only the player whose write was
// the most recent may ask, only before the next actor has rolled, and never
// for a write made under an announcement.
func (s *Session) RequestCorrection(pid string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.expected == 1 {
		return nil, illegalf("correction is disabled in single-player mode")
	}
	if s.finished || s.aborted {
		return nil, illegalf("game is over")
	}
	if s.correction != nil {
		return nil, illegalf("correction already active")
	}
	if _, ok := s.lastWrite[pid]; !ok {
		return nil, illegalf("no last entry to correct")
	}
	meta := s.lastMeta[pid]
	if meta.Announced != "" {
		return nil, illegalf("an announced write cannot be corrected")
	}
	if s.turn == nil || s.turn.PlayerID == pid {
		return nil, illegalf("correction only right after your move")
	}
	if s.rollsUsed > 0 {
		return nil, illegalf("too late: the next player already rolled")
	}
	dice, ok := s.lastDice[pid]
	if !ok {
		return nil, illegalf("no dice recorded for the last entry")
	}

	s.correction = &Correction{
		PlayerID:  pid,
		Dice:      dice,
		RollIndex: meta.RollIndex,
		First4OAK: meta.First4OAK,
	}
	s.touch()
	s.log.Info().Str("player_id", pid).Str("action", "request_correction").Msg("correction opened")
	return s.snapshotLocked(), nil
}

// CancelCorrection closes the undo window without changing anything.
func (s *Session) CancelCorrection(pid string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.expected == 1 {
		return nil, illegalf("correction is disabled in single-player mode")
	}
	if s.correction == nil {
		return nil, illegalf("no correction active")
	}
	if s.correction.PlayerID != pid {
		return nil, illegalf("only the corrector can cancel")
	}
	s.correction = nil
	s.touch()
	return s.snapshotLocked(), nil
}

// WriteCorrection moves the corrected entry to a new cell, rescored against
// the frozen dice. Order checks rerun against the board with the old entry
// lifted; rewriting the same cell is always order-legal.
func (s *Session) WriteCorrection(pid string, row int, col string, strike bool) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.expected == 1 {
		return nil, illegalf("correction is disabled in single-player mode")
	}
	corr := s.correction
	if corr == nil || corr.PlayerID != pid {
		return nil, illegalf("no correction active")
	}
	if !validColumn(col) {
		return nil, illegalf("unknown column %q", col)
	}
	field, ok := rules.RowField[row]
	if !ok {
		return nil, illegalf("row %d is not writable", row)
	}
	last, ok := s.lastWrite[pid]
	if !ok {
		return nil, illegalf("no last entry to correct")
	}

	board := s.boardFor(pid)
	oldKey := CellKey(last.Row, last.Col)

	// Validate on a copy with the old entry lifted; the real board only
	// changes once every check has passed.
	work := board.Clone()
	delete(work, oldKey)

	if col == "down" || col == "up" {
		next, open := work.NextRequiredRow(col)
		if !open {
			return nil, illegalf("column already complete")
		}
		if row != next && !(row == last.Row && col == last.Col) {
			return nil, illegalf("row %d is next in this column", next)
		}
	}
	if work.Filled(row, col) {
		return nil, illegalf("target cell is already filled")
	}

	if field == "poker" {
		has4 := rules.HasNOfAKind(corr.Dice, 4)
		has5 := rules.HasNOfAKind(corr.Dice, 5)

		first4Eff := corr.First4OAK
		if has4 && !has5 && first4Eff == 0 {
			first4Eff = corr.RollIndex
		}
		// A quad earlier in the frozen turn keeps its points even when the
		// misplaced entry happened on a later roll.
		effectiveIdx := corr.RollIndex
		if first4Eff != 0 {
			effectiveIdx = first4Eff
		}

		var allowed bool
		if col == "ang" && s.announced == "poker" {
			allowed = has4 || has5
		} else {
			allowed = has5 || (has4 && first4Eff != 0 && effectiveIdx == first4Eff)
		}
		if rules.Score("poker", corr.Dice) > 0 && !allowed {
			strike = true
		}
	}

	value := rules.Score(field, corr.Dice)
	if strike {
		value = 0
	}

	delete(board, oldKey)
	board[CellKey(row, col)] = value
	s.lastWrite[pid] = writeRecord{Row: row, Col: col, RollsUsed: last.RollsUsed}
	s.correction = nil
	s.touch()
	s.log.Info().Str("player_id", pid).Str("action", "write_field_correction").
		Int("row", row).Str("col", col).Int("value", value).Msg("entry corrected")
	return s.snapshotLocked(), nil
}
