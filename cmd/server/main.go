package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rollthedice/backend/internal/config"
	"github.com/rollthedice/backend/internal/game"
	"github.com/rollthedice/backend/internal/leaderboard"
	"github.com/rollthedice/backend/internal/rules"
	"github.com/rollthedice/backend/internal/server"
	"github.com/rollthedice/backend/internal/ws"
)

func newStore(ctx context.Context, cfg config.Config) (leaderboard.Store, error) {
	if cfg.DatabaseURL != "" {
		return leaderboard.NewPostgresStore(ctx, cfg.DatabaseURL)
	}
	return leaderboard.NewFileStore(cfg.DataDir)
}

func main() {
	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
	log.Logger = logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := newStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("leaderboard store init failed")
	}
	defer store.Close()

	rs := rules.Ruleset{BonusThreshold: cfg.BonusThreshold}
	registry := game.NewRegistry(rs, cfg.GameTimeout, logger)
	go registry.Sweep(ctx)

	hub := ws.NewHub(registry, store, logger)
	srv := server.NewServer(cfg, registry, store, hub, logger)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown failed")
		}
	}()

	logger.Info().Str("port", cfg.Port).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server error")
	}
}
