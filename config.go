package server

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries the process-level settings read from the environment.
// A .env file in the working directory is merged in when present.
type Config struct {
	Addr      string
	DBPath    string
	MazePath  string
	ClientDir string
	Seed      int64
	LogLevel  string
}

// LoadConfig reads configuration from the environment. Every setting
// has a default so a bare invocation runs a playable server.
func LoadConfig() Config {
	// Missing .env is the common case, not an error.
	_ = godotenv.Load()

	cfg := Config{
		Addr:      envOr("PELLET_ADDR", ":8080"),
		DBPath:    envOr("PELLET_DB_PATH", "pellet-run.db"),
		MazePath:  os.Getenv("PELLET_MAZE_PATH"),
		ClientDir: envOr("PELLET_CLIENT_DIR", "../client"),
		Seed:      time.Now().UnixNano(),
		LogLevel:  envOr("PELLET_LOG_LEVEL", "info"),
	}

	if raw := os.Getenv("PELLET_SEED"); raw != "" {
		if seed, err := strconv.ParseInt(raw, 10, 64); err == nil {
			cfg.Seed = seed
		}
	}

	return cfg
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
