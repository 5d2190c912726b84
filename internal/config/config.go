// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

type AppConfig struct {
	HTTPAddr string

	RedisURL    string
	DatabaseURL string

	SessionTTLSec int
	ArchiveLimit  int

	BoardSquarePx int

	MessagesDir string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		HTTPAddr:      ":8080",
		SessionTTLSec: 3600,
		ArchiveLimit:  10,
		BoardSquarePx: 64,
	}

	if v := strings.TrimSpace(os.Getenv("HTTP_ADDR")); v != "" {
		cfg.HTTPAddr = v
	}
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.MessagesDir = strings.TrimSpace(os.Getenv("MESSAGES_DIR"))

	if v := strings.TrimSpace(os.Getenv("SESSION_TTL_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SessionTTLSec = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("ARCHIVE_LIMIT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ArchiveLimit = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("BOARD_SQUARE_PX")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 16 && n <= 256 {
			cfg.BoardSquarePx = n
		}
	}

	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}

	return cfg, nil
}
