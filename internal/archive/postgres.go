package archive

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// Open connects to postgres with the pool settings the arena runs with and
// verifies the connection.
func Open(databaseURL string) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the archive table when it does not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS atomic_games (
			id          BIGSERIAL PRIMARY KEY,
			session_id  TEXT NOT NULL UNIQUE,
			room        TEXT NOT NULL,
			white_name  TEXT NOT NULL,
			black_name  TEXT NOT NULL,
			winner      TEXT NOT NULL,
			end_reason  TEXT NOT NULL,
			move_count  INTEGER NOT NULL,
			final_fen   TEXT NOT NULL,
			started_at  TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL
		)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create atomic_games: %w", err)
	}
	const index = `
		CREATE INDEX IF NOT EXISTS atomic_games_room_finished_idx
		ON atomic_games (room, finished_at DESC)`
	if _, err := db.ExecContext(ctx, index); err != nil {
		return fmt.Errorf("index atomic_games: %w", err)
	}
	return nil
}

type repository struct {
	db *sql.DB
}

// NewRepository wraps an open database handle.
func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Save(ctx context.Context, game *Game) (int64, error) {
	if game == nil {
		return 0, fmt.Errorf("nil archive game payload")
	}

	const query = `
		INSERT INTO atomic_games (
			session_id,
			room,
			white_name,
			black_name,
			winner,
			end_reason,
			move_count,
			final_fen,
			started_at,
			finished_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (session_id) DO NOTHING
		RETURNING id`

	var id sql.NullInt64
	err := r.db.QueryRowContext(
		ctx,
		query,
		game.SessionID,
		game.Room,
		game.White,
		game.Black,
		game.Winner,
		game.EndReason,
		game.MoveCount,
		game.FinalFEN,
		game.StartedAt,
		game.FinishedAt,
	).Scan(&id)
	if err == sql.ErrNoRows || (err == nil && !id.Valid) {
		return 0, ErrDuplicateGame
	}
	if err != nil {
		return 0, fmt.Errorf("insert atomic game: %w", err)
	}
	return id.Int64, nil
}

func (r *repository) RecentByRoom(ctx context.Context, room string, limit int) ([]*Game, error) {
	if limit <= 0 {
		limit = 10
	}
	const query = `
		SELECT
			id,
			session_id,
			room,
			white_name,
			black_name,
			winner,
			end_reason,
			move_count,
			final_fen,
			started_at,
			finished_at
		FROM atomic_games
		WHERE room = $1
		ORDER BY finished_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, room, limit)
	if err != nil {
		return nil, fmt.Errorf("select atomic games: %w", err)
	}
	defer rows.Close()

	games := make([]*Game, 0, limit)
	for rows.Next() {
		var game Game
		if err := rows.Scan(
			&game.ID,
			&game.SessionID,
			&game.Room,
			&game.White,
			&game.Black,
			&game.Winner,
			&game.EndReason,
			&game.MoveCount,
			&game.FinalFEN,
			&game.StartedAt,
			&game.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan atomic game: %w", err)
		}
		games = append(games, &game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate atomic games: %w", err)
	}
	return games, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Game, error) {
	const query = `
		SELECT
			id,
			session_id,
			room,
			white_name,
			black_name,
			winner,
			end_reason,
			move_count,
			final_fen,
			started_at,
			finished_at
		FROM atomic_games
		WHERE id = $1`

	var game Game
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&game.ID,
		&game.SessionID,
		&game.Room,
		&game.White,
		&game.Black,
		&game.Winner,
		&game.EndReason,
		&game.MoveCount,
		&game.FinalFEN,
		&game.StartedAt,
		&game.FinishedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select atomic game: %w", err)
	}
	return &game, nil
}
