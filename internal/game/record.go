package game

import (
	"sort"
	"strings"
	"time"
)

// RecordPlayer is one roster line of a finished game's record.
type RecordPlayer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Team string `json:"team,omitempty"`
}

// FinalRecord is everything the leaderboard needs about a finished game.
// Built exactly once, by the write that fills the last board; aborted games
// never produce one.
type FinalRecord struct {
	GameID         string
	GameName       string
	Mode           string
	FinishedAt     time.Time
	WinnerName     string
	WinnerPoints   int
	OpponentName   string
	OpponentPoints int
	Diff           int
	Players        []RecordPlayer
	Boards         map[string]Board
}

func (s *Session) finalRecordLocked() *FinalRecord {
	totals := s.entityTotals()

	rec := &FinalRecord{
		GameID:     s.ID,
		GameName:   s.Name,
		Mode:       strings.ToLower(s.Mode),
		FinishedAt: time.Now().UTC(),
		Boards:     make(map[string]Board),
	}
	for _, p := range s.players {
		rec.Players = append(rec.Players, RecordPlayer{
			ID:   p.ID,
			Name: p.Name,
			Team: s.teamOf[p.ID],
		})
	}

	if s.teamMode() {
		for tid, b := range s.teamBoards {
			rec.Boards[tid] = b.Clone()
		}
		winner := "A"
		if totals["B"] > totals["A"] {
			winner = "B"
		}
		loser := "B"
		if winner == "B" {
			loser = "A"
		}
		rec.WinnerName = s.joinedNames(s.teamMembers(winner))
		rec.WinnerPoints = totals[winner]
		rec.OpponentName = s.joinedNames(s.teamMembers(loser))
		rec.OpponentPoints = totals[loser]
		rec.Diff = rec.WinnerPoints - rec.OpponentPoints
		return rec
	}

	for pid, b := range s.boards {
		rec.Boards[pid] = b.Clone()
	}
	ordered := make([]*Player, len(s.players))
	copy(ordered, s.players)
	sort.SliceStable(ordered, func(i, j int) bool {
		return totals[ordered[i].ID] > totals[ordered[j].ID]
	})
	if len(ordered) == 0 {
		return rec
	}
	rec.WinnerName = ordered[0].Name
	rec.WinnerPoints = totals[ordered[0].ID]
	if len(ordered) >= 2 {
		rec.OpponentName = ordered[1].Name
		rec.OpponentPoints = totals[ordered[1].ID]
	} else {
		rec.OpponentName = "-"
	}
	rec.Diff = rec.WinnerPoints - rec.OpponentPoints
	return rec
}

func (s *Session) joinedNames(pids []string) string {
	var names []string
	for _, pid := range pids {
		if p := s.playerByID(pid); p != nil {
			names = append(names, p.Name)
		}
	}
	return strings.Join(names, ", ")
}
