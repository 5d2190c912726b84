package atomicdto

import "time"

// GameState is the wire snapshot of one arena game.
type GameState struct {
	SessionID string    `json:"session_id"`
	Room      string    `json:"room"`
	White     string    `json:"white"`
	Black     string    `json:"black"`
	FEN       string    `json:"fen"`
	Turn      string    `json:"turn"`
	Status    string    `json:"status"`
	Winner    string    `json:"winner,omitempty"`
	EndReason string    `json:"end_reason,omitempty"`
	MoveCount int       `json:"move_count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StateUpdate events pushed to live watchers. A watcher that connects
// mid-game first receives a state frame with the current position.
const (
	EventState  = "state"
	EventStart  = "start"
	EventMove   = "move"
	EventFinish = "finish"
	EventResign = "resign"
)

// StateUpdate is one live-stream frame. From and To are set on move events.
type StateUpdate struct {
	Event string     `json:"event"`
	State *GameState `json:"state"`
	From  string     `json:"from,omitempty"`
	To    string     `json:"to,omitempty"`
}

// ArchivedGame is the wire shape of one archived outcome.
type ArchivedGame struct {
	ID         int64     `json:"id"`
	Room       string    `json:"room"`
	White      string    `json:"white"`
	Black      string    `json:"black"`
	Winner     string    `json:"winner"`
	EndReason  string    `json:"end_reason"`
	MoveCount  int       `json:"move_count"`
	FinalFEN   string    `json:"final_fen"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
