// Package archive persists finished arena games. Only the outcome is kept:
// who played, who won, how the game ended, and the final position.
package archive

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateGame means the session was already archived.
var ErrDuplicateGame = errors.New("archive: game already archived")

// Game is one archived outcome row.
type Game struct {
	ID         int64
	SessionID  string
	Room       string
	White      string
	Black      string
	Winner     string
	EndReason  string
	MoveCount  int
	FinalFEN   string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Repository stores and lists archived games.
type Repository interface {
	Save(ctx context.Context, game *Game) (int64, error)
	RecentByRoom(ctx context.Context, room string, limit int) ([]*Game, error)
	Get(ctx context.Context, id int64) (*Game, error)
}
