package atomic

import "errors"

// Move rejection reasons. Every rejection leaves the game untouched; the
// caller picks a different move. Callers branch with errors.Is.
var (
	ErrGameAlreadyOver       = errors.New("game already decided")
	ErrInvalidSquare         = errors.New("square off the board")
	ErrEmptyOrigin           = errors.New("no piece on origin square")
	ErrNoOp                  = errors.New("origin equals destination")
	ErrWrongMover            = errors.New("piece belongs to the other player")
	ErrIllegalGeometry       = errors.New("shape not legal for this piece")
	ErrBlocked               = errors.New("path is obstructed")
	ErrOwnColorCapture       = errors.New("destination holds a friendly piece")
	ErrKingCannotCapture     = errors.New("kings may not capture")
	ErrMutualDestructionVeto = errors.New("move would destroy both kings")
)

var reasonCodes = []struct {
	err  error
	code string
}{
	{ErrGameAlreadyOver, "game_already_over"},
	{ErrInvalidSquare, "invalid_square"},
	{ErrEmptyOrigin, "empty_origin"},
	{ErrNoOp, "no_op"},
	{ErrWrongMover, "wrong_mover"},
	{ErrIllegalGeometry, "illegal_geometry"},
	{ErrBlocked, "blocked"},
	{ErrOwnColorCapture, "own_color_capture"},
	{ErrKingCannotCapture, "king_cannot_capture"},
	{ErrMutualDestructionVeto, "mutual_destruction_veto"},
}

// ReasonCode maps a rejection to a stable snake_case code for transports
// and message catalogs. Unknown errors map to "rejected".
func ReasonCode(err error) string {
	for _, rc := range reasonCodes {
		if errors.Is(err, rc.err) {
			return rc.code
		}
	}
	return "rejected"
}

// IsRejection reports whether err is one of the move rejection reasons, as
// opposed to an infrastructure failure.
func IsRejection(err error) bool {
	for _, rc := range reasonCodes {
		if errors.Is(err, rc.err) {
			return true
		}
	}
	return false
}
