package game

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rollthedice/backend/internal/rules"
)

const (
	sweepInterval = 30 * time.Second
	retention     = time.Hour
)

// Progress is the fill level of one scoresheet, for lobby progress bars.
type Progress struct {
	Entity string `json:"entity"`
	Filled int    `json:"filled"`
	Total  int    `json:"total"`
}

// Info is the lobby view of a session.
type Info struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Mode      string     `json:"mode"`
	Players   int        `json:"players"`
	Expected  int        `json:"expected"`
	Started   bool       `json:"started"`
	Finished  bool       `json:"finished"`
	Aborted   bool       `json:"aborted"`
	Locked    bool       `json:"locked"`
	Waiting   []string   `json:"waiting"`
	StartedAt *time.Time `json:"started_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Progress  []Progress `json:"progress"`
}

// Info builds the lobby view. Progress bars only appear for running games.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := Info{
		ID:        s.ID,
		Name:      s.Name,
		Mode:      s.Mode,
		Players:   len(s.players),
		Expected:  s.expected,
		Started:   s.started,
		Finished:  s.finished,
		Aborted:   s.aborted,
		Locked:    s.passphrase != "",
		Waiting:   []string{},
		UpdatedAt: s.updatedAt,
		Progress:  []Progress{},
	}
	for _, p := range s.players {
		info.Waiting = append(info.Waiting, p.Name)
	}
	if !s.startedAt.IsZero() {
		t := s.startedAt
		info.StartedAt = &t
	}
	if s.started && !s.finished && !s.aborted {
		if s.teamMode() {
			for _, tid := range []string{"A", "B"} {
				info.Progress = append(info.Progress, Progress{
					Entity: tid,
					Filled: len(s.teamBoards[tid]),
					Total:  CellsPerBoard,
				})
			}
		} else {
			for _, p := range s.players {
				info.Progress = append(info.Progress, Progress{
					Entity: p.Name,
					Filled: len(s.boards[p.ID]),
					Total:  CellsPerBoard,
				})
			}
		}
	}
	return info
}

// Registry holds every live session and sweeps out the dead ones.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	ruleset rules.Ruleset
	timeout time.Duration
	log     zerolog.Logger
}

// NewRegistry creates an empty registry. timeout is the inactivity limit
// after which a running game is aborted.
func NewRegistry(rs rules.Ruleset, timeout time.Duration, log zerolog.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		ruleset:  rs,
		timeout:  timeout,
		log:      log,
	}
}

// Create registers a new session under a fresh 8-char id.
func (r *Registry) Create(name, mode, passphrase string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := newShortID(8)
	for r.sessions[id] != nil {
		id = newShortID(8)
	}
	s, err := NewSession(id, name, mode, passphrase, r.ruleset, r.log)
	if err != nil {
		return nil, err
	}
	r.sessions[id] = s
	r.log.Info().Str("game_id", id).Str("mode", mode).Msg("game created")
	return s, nil
}

// Get looks a session up by id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// List returns the lobby view of every registered session.
func (r *Registry) List() []Info {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	out := make([]Info, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Info())
	}
	return out
}

// Sweep aborts idle games and drops long-finished ones until the context is
// cancelled. Run it as a goroutine next to the server.
func (r *Registry) Sweep(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweepOnce()
		}
	}
}

func (r *Registry) sweepOnce() {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	var drop []string
	for _, s := range sessions {
		s.ExpireIfIdle(r.timeout)
		if s.Terminal() && time.Since(s.UpdatedAt()) > retention {
			drop = append(drop, s.ID)
		}
	}
	if len(drop) == 0 {
		return
	}
	r.mu.Lock()
	for _, id := range drop {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	r.log.Debug().Int("dropped", len(drop)).Msg("registry swept")
}
