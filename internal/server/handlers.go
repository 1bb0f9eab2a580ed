package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("encoding response failed")
	}
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListGamesHandler serves the lobby: every room with its fill level and,
// for running games, per-sheet progress.
func (s *Server) ListGamesHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"games": s.registry.List()})
}

type createGameReq struct {
	Name string `json:"name"`
	Mode string `json:"mode"`
	Pass string `json:"pass"`
}

func (s *Server) CreateGameHandler(w http.ResponseWriter, r *http.Request) {
	var req createGameReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	sess, err := s.registry.Create(req.Name, req.Mode, req.Pass)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"game_id": sess.ID})
}

// GameInfoHandler serves room metadata. With check=1 the passphrase is
// validated hard: a locked room with a missing or wrong pass yields 403.
func (s *Server) GameInfoHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sess, ok := s.registry.Get(id)
	if !ok {
		s.writeJSON(w, http.StatusOK, map[string]bool{"exists": false})
		return
	}

	pass := r.URL.Query().Get("pass")
	check := r.URL.Query().Get("check")
	info := sess.Info()

	if check == "1" {
		if info.Locked && !sess.CheckPass(pass) {
			s.writeJSON(w, http.StatusForbidden, map[string]string{"error": "wrong_passphrase"})
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true, "exists": true})
		return
	}

	if info.Locked && pass != "" && !sess.CheckPass(pass) {
		s.writeJSON(w, http.StatusForbidden, map[string]string{"error": "wrong_passphrase"})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"exists":   true,
		"id":       info.ID,
		"name":     info.Name,
		"mode":     info.Mode,
		"players":  info.Players,
		"expected": info.Expected,
		"started":  info.Started,
		"finished": info.Finished,
		"aborted":  info.Aborted,
		"locked":   info.Locked,
		"waiting":  info.Waiting,
	})
}

func (s *Server) LeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	payload, err := s.store.Payload(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("leaderboard query failed")
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "leaderboard unavailable"})
		return
	}
	s.writeJSON(w, http.StatusOK, payload)
}

// LeaderboardGameHandler serves the stored read-only snapshot of a finished
// game.
func (s *Server) LeaderboardGameHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	entry, err := s.store.Game(r.Context(), id)
	if err != nil {
		s.log.Error().Err(err).Str("game_id", id).Msg("leaderboard lookup failed")
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "leaderboard unavailable"})
		return
	}
	if entry == nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"game_id":     entry.GameID,
		"gamename":    entry.GameName,
		"finished_at": entry.FinishedAt,
		"mode":        entry.Mode,
		"players":     entry.Players,
		"scoreboards": entry.Boards,
	})
}
