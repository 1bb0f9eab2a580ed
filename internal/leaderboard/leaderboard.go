// Package leaderboard persists finished games and serves the hall of fame:
// a 7-day recent list and an all-time list, both capped to the top ten by
// points, plus a running games-played counter.
package leaderboard

import (
	"context"
	"sort"
	"time"

	"github.com/rollthedice/backend/internal/game"
	"github.com/rollthedice/backend/internal/rules"
)

const (
	topN          = 10
	recentWindow  = 7 * 24 * time.Hour
	columnIndices = 4
)

// ColumnExport is one board column in the stored projection, index 1..4 for
// down/free/up/ang.
type ColumnExport struct {
	Index int            `json:"index"`
	Rows  map[string]int `json:"rows"`
}

// BoardExport is the final sheet of one scoring entity.
type BoardExport struct {
	Columns []ColumnExport `json:"columns"`
}

// Entry is one finished game on the leaderboard.
type Entry struct {
	TS         time.Time              `json:"ts"`
	Points     int                    `json:"points"`
	Name       string                 `json:"name"`
	GameName   string                 `json:"gamename"`
	Opponent   string                 `json:"opponent"`
	OppPoints  int                    `json:"opp_points"`
	Diff       int                    `json:"diff"`
	GameID     string                 `json:"game_id"`
	FinishedAt time.Time              `json:"finished_at"`
	Mode       string                 `json:"mode"`
	Players    []game.RecordPlayer    `json:"players"`
	Boards     map[string]BoardExport `json:"scoreboards"`
}

// Stats are the global counters.
type Stats struct {
	GamesPlayed int `json:"games_played"`
}

// Payload is the full leaderboard response.
type Payload struct {
	Recent  []Entry `json:"recent"`
	Alltime []Entry `json:"alltime"`
	Stats   Stats   `json:"stats"`
}

// Store persists finished games. Two implementations exist: a JSON file
// store and a Postgres store.
type Store interface {
	Record(ctx context.Context, e Entry) error
	Payload(ctx context.Context) (Payload, error)
	Game(ctx context.Context, gameID string) (*Entry, error)
	Close()
}

var columnIndex = map[string]int{"down": 1, "free": 2, "up": 3, "ang": 4}

func exportBoard(b game.Board) BoardExport {
	cols := make([]ColumnExport, columnIndices)
	for i := range cols {
		cols[i] = ColumnExport{Index: i + 1, Rows: make(map[string]int)}
	}
	for key, value := range b {
		row, col, ok := game.ParseCellKey(key)
		if !ok {
			continue
		}
		field, known := rules.RowField[row]
		idx, knownCol := columnIndex[col]
		if !known || !knownCol {
			continue
		}
		cols[idx-1].Rows[field] = value
	}
	return BoardExport{Columns: cols}
}

// NewEntry projects a finished game's record into its leaderboard entry.
func NewEntry(rec *game.FinalRecord) Entry {
	e := Entry{
		TS:         rec.FinishedAt,
		Points:     rec.WinnerPoints,
		Name:       rec.WinnerName,
		GameName:   rec.GameName,
		Opponent:   rec.OpponentName,
		OppPoints:  rec.OpponentPoints,
		Diff:       rec.Diff,
		GameID:     rec.GameID,
		FinishedAt: rec.FinishedAt,
		Mode:       rec.Mode,
		Players:    rec.Players,
		Boards:     make(map[string]BoardExport, len(rec.Boards)),
	}
	for entity, b := range rec.Boards {
		e.Boards[entity] = exportBoard(b)
	}
	return e
}

func sortByPoints(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Points > entries[j].Points
	})
}

func trimRecent(entries []Entry, now time.Time) []Entry {
	cutoff := now.Add(-recentWindow)
	kept := entries[:0]
	for _, e := range entries {
		if !e.TS.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	sortByPoints(kept)
	if len(kept) > topN {
		kept = kept[:topN]
	}
	return kept
}

func trimAlltime(entries []Entry) []Entry {
	sortByPoints(entries)
	if len(entries) > topN {
		entries = entries[:topN]
	}
	return entries
}
