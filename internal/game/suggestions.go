package game

import "github.com/rollthedice/backend/internal/rules"

// Suggestion is a server-computed hint for the active player: a category
// worth taking right now, shown to every client.
type Suggestion struct {
	Type     string `json:"type"`
	Label    string `json:"label"`
	Points   int    `json:"points"`
	Eligible bool   `json:"eligible"`
}

var suggestionOrder = []struct {
	typ   string
	field string
	label string
}{
	{"POKER", "poker", "Poker"},
	{"SIXTY", "60", "Sixty"},
	{"FULL", "full", "Full House"},
	{"KENTER", "kenter", "Straight"},
	{"MAX", "max", "Strong Maximum"},
	{"MIN", "min", "Strong Minimum"},
}

const (
	suggestMaxFloor = 25
	suggestMinCeil  = 9
)

// suggestionsLocked builds hints for the current turn: combinations that
// score now (max and min only past their thresholds) and have at least one
// column that is free and legal to write this instant.
func (s *Session) suggestionsLocked() []Suggestion {
	if s.turn == nil || s.rollsUsed < 1 {
		return nil
	}
	pid := s.turn.PlayerID
	b := s.boardFor(pid)
	if b == nil {
		return nil
	}

	var out []Suggestion
	for _, cand := range suggestionOrder {
		points := rules.Score(cand.field, s.dice)
		switch cand.field {
		case "max":
			if points < suggestMaxFloor {
				continue
			}
		case "min":
			if points > suggestMinCeil {
				continue
			}
		default:
			if points <= 0 {
				continue
			}
		}

		row := rules.FieldRow[cand.field]
		if s.anyColumnEligible(pid, b, row, cand.field) {
			out = append(out, Suggestion{
				Type:     cand.typ,
				Label:    cand.label,
				Points:   points,
				Eligible: true,
			})
		}
	}
	return out
}

func (s *Session) anyColumnEligible(pid string, b Board, row int, field string) bool {
	for _, col := range Columns {
		if b.Filled(row, col) {
			continue
		}
		if s.canWriteNow(pid, row, col) != nil {
			continue
		}
		if field == "poker" {
			if !pokerAllowsPoints(s.dice, s.turn.RollIndex, s.turn.First4OAK,
				col == "ang", s.announced == "poker") {
				continue
			}
		}
		return true
	}
	return false
}
