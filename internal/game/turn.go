package game

import "github.com/rollthedice/backend/internal/rules"

const (
	rollsMaxDefault  = 3
	rollsMaxLastCell = 5
)

// Turn tracks whose move it is and the roll bookkeeping the poker gamble
// rule depends on. First4OAK is the 1-based roll on which four of a kind
// first appeared this turn, 0 while it has not.
type Turn struct {
	PlayerID  string
	RollIndex int
	First4OAK int
}

// recordRoll bumps the roll counter and pins the first four-of-a-kind roll.
func (t *Turn) recordRoll(dice [5]int) {
	t.RollIndex++
	if t.First4OAK == 0 && rules.HasNOfAKind(dice, 4) {
		t.First4OAK = t.RollIndex
	}
}

// pokerAllowsPoints applies the gamble rule for a regular (non-correction)
// write: points stand with five of a kind, or when this roll is the one the
// quad first appeared on. An announced poker in the ang column accepts any
// roll showing 4 or 5 alike.
func pokerAllowsPoints(dice [5]int, rollIndex, first4 int, inAng, announcedPoker bool) bool {
	has4 := rules.HasNOfAKind(dice, 4)
	has5 := rules.HasNOfAKind(dice, 5)

	first4Eff := first4
	if has4 && !has5 && first4Eff == 0 {
		first4Eff = rollIndex
	}

	if inAng && announcedPoker {
		return has4 || has5
	}
	return has5 || (has4 && first4Eff != 0 && rollIndex == first4Eff)
}
