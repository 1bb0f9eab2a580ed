// Package server is the HTTP surface: the rooms API, the leaderboard API,
// the websocket endpoint, and the CORS middleware around all of it.
package server

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/rollthedice/backend/internal/config"
	"github.com/rollthedice/backend/internal/game"
	"github.com/rollthedice/backend/internal/leaderboard"
	"github.com/rollthedice/backend/internal/ws"
)

type Server struct {
	registry *game.Registry
	store    leaderboard.Store
	hub      *ws.Hub
	log      zerolog.Logger
}

// NewServer wires the HTTP server around the registry and the store.
func NewServer(cfg config.Config, registry *game.Registry, store leaderboard.Store, hub *ws.Hub, log zerolog.Logger) *http.Server {
	s := &Server{
		registry: registry,
		store:    store,
		hub:      hub,
		log:      log,
	}

	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
