package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the frontend's runtime configuration. Everything comes from
// the environment (optionally a .env file); there is no config file format.
type Config struct {
	Addr          string // listen address, e.g. ":3000"
	DBPath        string // local sqlite path for sessions and carts
	APIURL        string // backend REST base, /api appended if missing
	SocketURL     string // backend event channel, e.g. ws://host:5000/socket
	SessionSecret string // secret for sealing stored tokens
	LogLevel      string
	LogFormat     string
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first when present.
func Load() (Config, error) {
	// Missing .env is fine; explicit env vars always win.
	_ = godotenv.Load()

	cfg := Config{
		Addr:          getenv("TABLETAP_ADDR", ":3000"),
		DBPath:        getenv("TABLETAP_DB_PATH", "tabletap.db"),
		APIURL:        getenv("TABLETAP_API_URL", "http://localhost:5000"),
		SocketURL:     getenv("TABLETAP_SOCKET_URL", "ws://localhost:5000/socket"),
		SessionSecret: os.Getenv("TABLETAP_SESSION_SECRET"),
		LogLevel:      getenv("TABLETAP_LOG_LEVEL", "info"),
		LogFormat:     getenv("TABLETAP_LOG_FORMAT", "text"),
	}

	if cfg.SessionSecret == "" {
		return Config{}, fmt.Errorf("TABLETAP_SESSION_SECRET is required")
	}
	if !strings.HasPrefix(cfg.Addr, ":") && !strings.Contains(cfg.Addr, ":") {
		cfg.Addr = ":" + cfg.Addr
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
