// Package config loads server configuration from the environment.
//
// A .env file is honored when present; every value has a demo-friendly
// default so the server starts with no configuration at all, the way the
// original backend did.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/playd/coin-engine/ledger"
)

type Config struct {
	Port      string
	DBPath    string // SQLite path; ":memory:" for ephemeral storage
	JWTSecret string

	SignupBonus ledger.Coins
	StreakBonus ledger.Coins

	// SeedDemoPlayer creates the demo account at startup.
	SeedDemoPlayer bool
}

// Load reads configuration from .env and the process environment.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getenv("PORT", "8080"),
		DBPath:         getenv("DB_PATH", ":memory:"),
		JWTSecret:      getenv("JWT_SECRET", "playd-secret-key-2024"),
		SignupBonus:    ledger.DefaultSignupBonus,
		StreakBonus:    ledger.DefaultStreakBonus,
		SeedDemoPlayer: getenv("SEED_DEMO_PLAYER", "true") == "true",
	}

	if v := os.Getenv("SIGNUP_BONUS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			cfg.SignupBonus = ledger.Coins(n)
		}
	}
	if v := os.Getenv("STREAK_BONUS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.StreakBonus = ledger.Coins(n)
		}
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
