// Package session keeps live arena games in redis, one session per room.
package session

import (
	"errors"
	"time"
)

// Status represents a session lifecycle state.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusFinished Status = "FINISHED"
	StatusResigned Status = "RESIGNED"
)

// End reasons recorded on a decided session.
const (
	EndReasonKingExploded = "king_exploded"
	EndReasonResigned     = "resigned"
)

var (
	// ErrNoSession means the room has no stored session.
	ErrNoSession = errors.New("session: no session for room")
	// ErrSessionExists means the room key was already taken.
	ErrSessionExists = errors.New("session: room already has a session")
)

// Session is the persisted state of one arena game.
type Session struct {
	ID        string    `json:"id"`
	Room      string    `json:"room"`
	White     string    `json:"white"`
	Black     string    `json:"black"`
	FEN       string    `json:"fen"`
	Status    Status    `json:"status"`
	Winner    string    `json:"winner,omitempty"`
	EndReason string    `json:"end_reason,omitempty"`
	MoveCount int       `json:"move_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Live reports whether the session still accepts moves.
func (s *Session) Live() bool {
	return s != nil && s.Status == StatusActive
}
