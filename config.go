package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds server settings. Values come from the environment (optionally
// seeded from a .env file) and can be overridden with flags.
type Config struct {
	Port           int
	DBPath         string
	StaticDir      string
	LeaderboardTTL time.Duration // 0 keeps idle entries forever
	JWTSecret      string
	PublicURL      string
	LogLevel       string
}

func defaultConfig() Config {
	return Config{
		Port:           1962,
		DBPath:         "survival.db",
		LeaderboardTTL: 15 * time.Second,
		LogLevel:       "info",
	}
}

// LoadConfig reads .env (if present), then the environment, then args
func LoadConfig(args []string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := defaultConfig()
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("PORT: %w", err)
		}
		cfg.Port = p
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	cfg.StaticDir = os.Getenv("STATIC_DIR")
	if v := os.Getenv("LEADERBOARD_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("LEADERBOARD_TTL: %w", err)
		}
		cfg.LeaderboardTTL = d
	}
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.PublicURL = os.Getenv("PUBLIC_URL")
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	fset := flag.NewFlagSet("wavesurvival", flag.ContinueOnError)
	fset.IntVar(&cfg.Port, "port", cfg.Port, "HTTP listen port")
	fset.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	fset.StringVar(&cfg.StaticDir, "static", cfg.StaticDir, "directory of client files to serve (optional)")
	fset.DurationVar(&cfg.LeaderboardTTL, "ttl", cfg.LeaderboardTTL, "evict leaderboard entries idle this long (0 disables)")
	fset.StringVar(&cfg.PublicURL, "public-url", cfg.PublicURL, "base URL used in share links")
	fset.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	if err := fset.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("port %d out of range", cfg.Port)
	}
	if cfg.LeaderboardTTL < 0 {
		return Config{}, fmt.Errorf("negative leaderboard ttl %s", cfg.LeaderboardTTL)
	}
	return cfg, nil
}

// Addr returns the listen address
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
