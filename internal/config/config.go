package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration, loaded from the environment with an
// optional .env file.
type Config struct {
	DBDriver  string // "mysql" or "postgres"
	DSN       string
	JWTSecret string
	AppPort   string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	Debug bool
}

func Load() (Config, error) {
	// Missing .env is fine; the environment still applies.
	_ = godotenv.Load()

	cfg := Config{
		DBDriver:        getenv("DB_DRIVER", "mysql"),
		DSN:             os.Getenv("DB_DSN"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		AppPort:         getenv("APP_PORT", "8080"),
		AccessTokenTTL:  time.Duration(getenvInt("ACCESS_TOKEN_TTL_DAYS", 7)) * 24 * time.Hour,
		RefreshTokenTTL: time.Duration(getenvInt("REFRESH_TOKEN_TTL_DAYS", 30)) * 24 * time.Hour,
		Debug:           getenvBool("DEBUG", false),
	}

	if cfg.DSN == "" {
		return Config{}, fmt.Errorf("DB_DSN not set in environment")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET not set in environment")
	}
	if cfg.DBDriver != "mysql" && cfg.DBDriver != "postgres" {
		return Config{}, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	return cfg, nil
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

func getenvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
