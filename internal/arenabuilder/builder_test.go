package arenabuilder

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"go.uber.org/zap"

	"github.com/park285/atomic-chess-arena/internal/config"
	"github.com/park285/atomic-chess-arena/pkg/atomicdto"
)

func TestNewFallsBackToMemoryArchive(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	cfg := &config.AppConfig{
		RedisURL:      "redis://" + mr.Addr(),
		SessionTTLSec: 60,
		ArchiveLimit:  5,
		BoardSquarePx: 32,
	}
	deps, err := New(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(func() { _ = deps.Close() })

	if deps.DB != nil {
		t.Fatalf("expected no sql connection without DATABASE_URL")
	}
	if deps.Repo == nil || deps.Service == nil || deps.Sessions == nil {
		t.Fatalf("incomplete deps: %+v", deps)
	}

	// The wired service must actually run a game.
	started, err := deps.Service.Start(context.Background(), atomicdto.StartRequest{Room: "room-1"})
	if err != nil {
		t.Fatalf("start through built service: %v", err)
	}
	if started.State.Turn != "white" {
		t.Fatalf("state = %+v", started.State)
	}
}

func TestNewRequiresRedisURL(t *testing.T) {
	_, err := New(context.Background(), &config.AppConfig{}, zap.NewNop())
	if err == nil {
		t.Fatalf("expected error without REDIS_URL")
	}
}

func TestNewRejectsBadRedisURL(t *testing.T) {
	cfg := &config.AppConfig{RedisURL: "http://not-redis"}
	_, err := New(context.Background(), cfg, zap.NewNop())
	if err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestNewRejectsNilConfig(t *testing.T) {
	if _, err := New(context.Background(), nil, zap.NewNop()); err == nil {
		t.Fatalf("expected error for nil config")
	}
}
