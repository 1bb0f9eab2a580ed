package game

import (
	"time"

	"github.com/rollthedice/backend/internal/rules"
)

// TurnInfo is the published view of the running turn.
type TurnInfo struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	RollIndex  int    `json:"roll_index"`
	First4OAK  int    `json:"first4oak_roll"`
}

// TeamInfo lists a team with its member ids; clients map names via _players.
type TeamInfo struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// BoardView is one scoresheet as published: raw cells plus the derived
// totals per column and the overall total.
type BoardView struct {
	Cells   map[string]int          `json:"cells"`
	Totals  map[string]rules.Totals `json:"totals"`
	Overall int                     `json:"overall_total"`
}

// Snapshot is the full game state pushed to every client after each accepted
// mutation. The field names are the wire contract.
type Snapshot struct {
	Name            string               `json:"_name"`
	Players         []Player             `json:"_players"`
	PlayersJoined   int                  `json:"_players_joined"`
	Expected        int                  `json:"_expected"`
	Started         bool                 `json:"_started"`
	Finished        bool                 `json:"_finished"`
	StartedAt       *time.Time           `json:"_started_at"`
	UpdatedAt       time.Time            `json:"_updated_at"`
	Aborted         bool                 `json:"_aborted"`
	Locked          bool                 `json:"locked"`
	Turn            *TurnInfo            `json:"_turn"`
	Dice            [5]int               `json:"_dice"`
	Holds           [5]bool              `json:"_holds"`
	RollsUsed       int                  `json:"_rolls_used"`
	RollsMax        int                  `json:"_rolls_max"`
	Mode            string               `json:"_mode"`
	Scoreboards     map[string]BoardView `json:"_scoreboards"`
	Teams           []TeamInfo           `json:"_teams"`
	TeamScoreboards map[string]BoardView `json:"_scoreboards_by_team"`
	Announced       string               `json:"_announced_row4"`
	AnnouncedBy     string               `json:"_announced_by"`
	AnnouncedBoard  string               `json:"_announced_board"`
	Correction      *Correction          `json:"_correction"`
	Results         []Result             `json:"_results"`
	LastWritePublic map[string][2]any    `json:"_last_write_public"`
	HasLast         map[string]bool      `json:"_has_last"`
	Suggestions     []Suggestion         `json:"suggestions"`
}

func (s *Session) boardViewLocked(b Board) BoardView {
	totals, overall := b.Totals(s.ruleset)
	return BoardView{Cells: b.Clone(), Totals: totals, Overall: overall}
}

// Snapshot builds the published state under the session lock.
func (s *Session) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() *Snapshot {
	snap := &Snapshot{
		Name:            s.Name,
		PlayersJoined:   len(s.players),
		Expected:        s.expected,
		Started:         s.started,
		Finished:        s.finished,
		UpdatedAt:       s.updatedAt,
		Aborted:         s.aborted,
		Locked:          s.passphrase != "",
		Dice:            s.dice,
		Holds:           s.holds,
		RollsUsed:       s.rollsUsed,
		RollsMax:        s.rollsMax,
		Mode:            s.Mode,
		Scoreboards:     make(map[string]BoardView),
		TeamScoreboards: make(map[string]BoardView),
		Announced:       s.announced,
		AnnouncedBy:     s.announcedBy,
		AnnouncedBoard:  s.announcedBoard,
		Correction:      s.correction,
		Results:         s.results,
		LastWritePublic: make(map[string][2]any),
		HasLast:         make(map[string]bool),
		Suggestions:     s.suggestionsLocked(),
	}
	if !s.startedAt.IsZero() {
		t := s.startedAt
		snap.StartedAt = &t
	}
	for _, p := range s.players {
		snap.Players = append(snap.Players, *p)
	}
	if s.turn != nil {
		info := &TurnInfo{
			PlayerID:  s.turn.PlayerID,
			RollIndex: s.turn.RollIndex,
			First4OAK: s.turn.First4OAK,
		}
		if p := s.playerByID(s.turn.PlayerID); p != nil {
			info.PlayerName = p.Name
		}
		snap.Turn = info
	}

	if s.teamMode() {
		for _, tid := range []string{"A", "B"} {
			snap.Teams = append(snap.Teams, TeamInfo{
				ID:      tid,
				Name:    "Team " + tid,
				Members: s.teamMembers(tid),
			})
			snap.TeamScoreboards[tid] = s.boardViewLocked(s.teamBoards[tid])
		}
	} else {
		for pid, b := range s.boards {
			snap.Scoreboards[pid] = s.boardViewLocked(b)
		}
	}

	for pid, w := range s.lastWrite {
		snap.LastWritePublic[pid] = [2]any{w.Row, w.Col}
	}
	for _, p := range s.players {
		_, has := s.lastWrite[p.ID]
		snap.HasLast[p.ID] = has
	}
	return snap
}
