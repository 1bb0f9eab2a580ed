package server

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	// Apply CORS middleware
	r.Use(s.corsMiddleware)

	r.HandleFunc("/health", s.HealthHandler).Methods(http.MethodGet)

	r.HandleFunc("/api/games", s.ListGamesHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/games", s.CreateGameHandler).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/games/{id}", s.GameInfoHandler).Methods(http.MethodGet)

	r.HandleFunc("/api/leaderboard", s.LeaderboardHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/leaderboard/game/{id}", s.LeaderboardGameHandler).Methods(http.MethodGet)

	r.HandleFunc("/ws/{gameId}", s.hub.HandleWebSocket)

	return r
}

// CORS middleware
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")
		w.Header().Set("Access-Control-Allow-Credentials", "false")

		// If it's a websocket upgrade, skip further CORS checks
		if strings.ToLower(r.Header.Get("Upgrade")) == "websocket" {
			next.ServeHTTP(w, r)
			return
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
