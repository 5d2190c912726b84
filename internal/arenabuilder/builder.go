// Package arenabuilder assembles the arena service and its backing
// stores from process configuration.
package arenabuilder

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/atomic-chess-arena/internal/archive"
	"github.com/park285/atomic-chess-arena/internal/arena"
	"github.com/park285/atomic-chess-arena/internal/config"
	"github.com/park285/atomic-chess-arena/internal/msgcat"
	"github.com/park285/atomic-chess-arena/internal/render"
	"github.com/park285/atomic-chess-arena/internal/session"
)

type Deps struct {
	Service  *arena.Service
	Sessions *session.Manager
	Repo     archive.Repository

	Redis *redis.Client
	DB    *sql.DB // nil when the archive runs in memory
}

// Close releases the connections the builder opened.
func (d *Deps) Close() error {
	var first error
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			first = err
		}
	}
	if d.DB != nil {
		if err := d.DB.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// Sessions need redis; there is no in-process fallback.
	if strings.TrimSpace(cfg.RedisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL is required for game sessions")
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	// Archive prefers postgres. Without DATABASE_URL finished games stay
	// in process memory and vanish on restart.
	var (
		repo archive.Repository
		db   *sql.DB
	)
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		db, err = archive.Open(cfg.DatabaseURL)
		if err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		schemaCtx, cancelSchema := context.WithTimeout(ctx, 10*time.Second)
		defer cancelSchema()
		if err := archive.EnsureSchema(schemaCtx, db); err != nil {
			_ = db.Close()
			_ = rdb.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		repo = archive.NewRepository(db)
	} else {
		logger.Warn("archive_memory_fallback")
		repo = archive.NewMemoryRepository()
	}

	catalog, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		_ = rdb.Close()
		return nil, fmt.Errorf("load messages: %w", err)
	}

	sessions := session.NewManager(rdb, time.Duration(cfg.SessionTTLSec)*time.Second)

	svc, err := arena.NewService(
		sessions,
		repo,
		render.NewBoardRenderer(cfg.BoardSquarePx),
		catalog,
		arena.Config{ArchiveLimit: cfg.ArchiveLimit},
		logger,
	)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		_ = rdb.Close()
		return nil, err
	}

	return &Deps{
		Service:  svc,
		Sessions: sessions,
		Repo:     repo,
		Redis:    rdb,
		DB:       db,
	}, nil
}
