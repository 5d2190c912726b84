package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/atomic-chess-arena/internal/atomic"
	"github.com/park285/atomic-chess-arena/internal/obslog"
)

// Manager runs the session lifecycle on top of a Store. Moves are applied
// under WATCH so concurrent commands on the same room cannot interleave.
type Manager struct {
	store *Store
}

func NewManager(rdb *redis.Client, ttl time.Duration) *Manager {
	return &Manager{store: NewStore(rdb, ttl)}
}

func (m *Manager) Store() *Store { return m.store }

// Start returns the live session for the room, creating a fresh game when the
// room is free or holds only a decided one. The second result reports whether
// an existing game was resumed.
func (m *Manager) Start(ctx context.Context, room, white, black string) (*Session, bool, error) {
	room = strings.TrimSpace(room)
	cur, err := m.store.Load(ctx, room)
	if err == nil && cur.Live() {
		return cur, true, nil
	}
	if err != nil && !errors.Is(err, ErrNoSession) {
		return nil, false, err
	}

	now := time.Now()
	sess := &Session{
		ID:        uuid.NewString(),
		Room:      room,
		White:     strings.TrimSpace(white),
		Black:     strings.TrimSpace(black),
		FEN:       atomic.NewGame().Encode(),
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if cur == nil {
		err = m.store.Create(ctx, sess)
		if errors.Is(err, ErrSessionExists) {
			// Lost the creation race, resume whoever won it.
			if won, lerr := m.store.Load(ctx, room); lerr == nil && won.Live() {
				return won, true, nil
			}
			return nil, false, err
		}
	} else {
		// A decided game holds the key, replace it.
		err = m.store.Save(ctx, sess)
	}
	if err != nil {
		return nil, false, err
	}
	obslog.L().Info("session_start",
		zap.String("session_id", sess.ID),
		zap.String("room", room),
		zap.String("white", sess.White),
		zap.String("black", sess.Black),
	)
	return sess, false, nil
}

// Get returns the stored session for the room.
func (m *Manager) Get(ctx context.Context, room string) (*Session, error) {
	return m.store.Load(ctx, room)
}

// GetByID resolves a session through the id index.
func (m *Manager) GetByID(ctx context.Context, id string) (*Session, error) {
	return m.store.LoadByID(ctx, id)
}

// Apply plays one move on the room's live game. Engine rejections come back
// unwrapped so callers can match the rule sentinels; the stored session is
// untouched on any rejection.
func (m *Manager) Apply(ctx context.Context, room string, from, to atomic.Square) (*Session, error) {
	key := roomKey(room)
	var out *Session
	err := m.store.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrNoSession
		}
		if err != nil {
			return err
		}
		var cur Session
		if err := json.Unmarshal(raw, &cur); err != nil {
			return err
		}
		if !cur.Live() {
			return atomic.ErrGameAlreadyOver
		}
		game, err := atomic.Decode(cur.FEN)
		if err != nil {
			return fmt.Errorf("stored position: %w", err)
		}
		if err := game.ApplyMove(from, to); err != nil {
			return err
		}
		cur.FEN = game.Encode()
		cur.MoveCount++
		cur.UpdatedAt = time.Now()
		if c, decided := game.Result().Winner(); decided {
			cur.Status = StatusFinished
			cur.Winner = c.String()
			cur.EndReason = EndReasonKingExploded
		}
		newRaw, err := json.Marshal(&cur)
		if err != nil {
			return err
		}
		pipe := tx.TxPipeline()
		pipe.Set(ctx, key, newRaw, m.store.ttl)
		pipe.Set(ctx, idKey(cur.ID), cur.Room, m.store.ttl)
		if _, err := pipe.Exec(ctx); err != nil {
			return err
		}
		out = &cur
		return nil
	}, key)
	if err != nil {
		return nil, err
	}
	obslog.L().Info("session_move",
		zap.String("session_id", out.ID),
		zap.String("room", out.Room),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
		zap.Int("move_count", out.MoveCount),
		zap.String("status", string(out.Status)),
	)
	return out, nil
}

// End force-finishes the room's live game, recording the winner and reason.
// Resignation and other service-level conclusions land here.
func (m *Manager) End(ctx context.Context, room string, status Status, winner, reason string) (*Session, error) {
	key := roomKey(room)
	var out *Session
	err := m.store.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrNoSession
		}
		if err != nil {
			return err
		}
		var cur Session
		if err := json.Unmarshal(raw, &cur); err != nil {
			return err
		}
		if !cur.Live() {
			return atomic.ErrGameAlreadyOver
		}
		cur.Status = status
		cur.Winner = winner
		cur.EndReason = reason
		cur.UpdatedAt = time.Now()
		newRaw, err := json.Marshal(&cur)
		if err != nil {
			return err
		}
		pipe := tx.TxPipeline()
		pipe.Set(ctx, key, newRaw, m.store.ttl)
		pipe.Set(ctx, idKey(cur.ID), cur.Room, m.store.ttl)
		if _, err := pipe.Exec(ctx); err != nil {
			return err
		}
		out = &cur
		return nil
	}, key)
	if err != nil {
		return nil, err
	}
	obslog.L().Info("session_end",
		zap.String("session_id", out.ID),
		zap.String("room", out.Room),
		zap.String("status", string(out.Status)),
		zap.String("winner", out.Winner),
		zap.String("reason", out.EndReason),
	)
	return out, nil
}
