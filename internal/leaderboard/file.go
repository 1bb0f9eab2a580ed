package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	recentFile  = "leaderboard_recent.json"
	alltimeFile = "leaderboard_alltime.json"
	statsFile   = "stats.json"
)

// FileStore keeps the leaderboard in three JSON files under a data
// directory. It is the default when no database is configured.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore creates the data directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (fs *FileStore) path(name string) string { return filepath.Join(fs.dir, name) }

func (fs *FileStore) readEntries(name string) []Entry {
	data, err := os.ReadFile(fs.path(name))
	if err != nil {
		return nil
	}
	var out []Entry
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

func (fs *FileStore) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(fs.path(name), data, 0o644)
}

func (fs *FileStore) readStats() Stats {
	var st Stats
	data, err := os.ReadFile(fs.path(statsFile))
	if err != nil {
		return st
	}
	_ = json.Unmarshal(data, &st)
	return st
}

// Record appends the entry to both lists and bumps the games counter.
func (fs *FileStore) Record(_ context.Context, e Entry) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	recent := trimRecent(append(fs.readEntries(recentFile), e), time.Now().UTC())
	if err := fs.writeJSON(recentFile, recent); err != nil {
		return fmt.Errorf("write recent: %w", err)
	}
	alltime := trimAlltime(append(fs.readEntries(alltimeFile), e))
	if err := fs.writeJSON(alltimeFile, alltime); err != nil {
		return fmt.Errorf("write alltime: %w", err)
	}
	st := fs.readStats()
	st.GamesPlayed++
	if err := fs.writeJSON(statsFile, st); err != nil {
		return fmt.Errorf("write stats: %w", err)
	}
	return nil
}

// Payload returns both lists, re-trimming recent so stale entries age out
// even when no game finished in the meantime.
func (fs *FileStore) Payload(_ context.Context) (Payload, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	recent := trimRecent(fs.readEntries(recentFile), time.Now().UTC())
	alltime := fs.readEntries(alltimeFile)
	if recent == nil {
		recent = []Entry{}
	}
	if alltime == nil {
		alltime = []Entry{}
	}
	return Payload{Recent: recent, Alltime: alltime, Stats: fs.readStats()}, nil
}

// Game finds a stored entry by game id, recent list first.
func (fs *FileStore) Game(_ context.Context, gameID string) (*Entry, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	for _, name := range []string{recentFile, alltimeFile} {
		for _, e := range fs.readEntries(name) {
			if e.GameID == gameID {
				entry := e
				return &entry, nil
			}
		}
	}
	return nil, nil
}

func (fs *FileStore) Close() {}
