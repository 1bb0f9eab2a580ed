// Package config loads the server configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is everything the process needs at startup.
type Config struct {
	Port           string
	DataDir        string
	DatabaseURL    string
	BonusThreshold int
	LogLevel       string
	GameTimeout    time.Duration
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// Load reads the environment. A missing .env file is fine.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:           getenv("PORT", "8000"),
		DataDir:        getenv("DATA_DIR", "data"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		BonusThreshold: getenvInt("BONUS_THRESHOLD", 60),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		GameTimeout:    time.Duration(getenvInt("GAME_TIMEOUT_MINUTES", 10)) * time.Minute,
	}
}
