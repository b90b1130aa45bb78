// Package config loads relay settings from a .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Addr         string
	FrontendURLs []string
	RoomCapacity int
	RatePerSec   float64
	RateBurst    int
	RedisURL     string
	DatabaseURL  string
	LogLevel     logrus.Level
	SnapshotTTL  time.Duration
}

// Load reads the given .env files (default ".env") without overriding
// variables already set, then builds the Config. Missing files are ignored.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds the Config from the process environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		Addr:        getenv("RELAY_ADDR", ""),
		RedisURL:    os.Getenv("REDIS_URL"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
	}
	if cfg.Addr == "" {
		cfg.Addr = ":" + getenv("PORT", "3001")
	}
	for _, u := range strings.Split(getenv("FRONTEND_URL", "http://localhost:5173"), ",") {
		if u = strings.TrimSpace(u); u != "" {
			cfg.FrontendURLs = append(cfg.FrontendURLs, u)
		}
	}

	var err error
	if cfg.RoomCapacity, err = intEnv("ROOM_CAPACITY", 4); err != nil {
		return Config{}, err
	}
	if cfg.RoomCapacity < 2 {
		return Config{}, fmt.Errorf("ROOM_CAPACITY: must be at least 2, got %d", cfg.RoomCapacity)
	}
	if cfg.RatePerSec, err = floatEnv("RATE_LIMIT_PER_SEC", 20); err != nil {
		return Config{}, err
	}
	if cfg.RateBurst, err = intEnv("RATE_LIMIT_BURST", 40); err != nil {
		return Config{}, err
	}
	if cfg.LogLevel, err = logrus.ParseLevel(getenv("LOG_LEVEL", "info")); err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if cfg.SnapshotTTL, err = time.ParseDuration(getenv("SNAPSHOT_TTL", "6h")); err != nil {
		return Config{}, fmt.Errorf("SNAPSHOT_TTL: %w", err)
	}
	return cfg, nil
}

// OriginPatterns strips the scheme from the frontend URLs, the form the
// websocket origin check expects.
func (c Config) OriginPatterns() []string {
	out := make([]string, 0, len(c.FrontendURLs))
	for _, u := range c.FrontendURLs {
		if i := strings.Index(u, "://"); i >= 0 {
			u = u[i+3:]
		}
		out = append(out, strings.TrimSuffix(u, "/"))
	}
	return out
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func intEnv(k string, d int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return d, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}

func floatEnv(k string, d float64) (float64, error) {
	v := os.Getenv(k)
	if v == "" {
		return d, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return f, nil
}
