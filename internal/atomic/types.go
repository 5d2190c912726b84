// Package atomic implements the rules engine for the atomic chess variant:
// captures detonate a 3x3 explosion on the destination square, pawns are
// immune to the blast, kings may never capture, and the game is won by
// destroying the opposing king rather than by checkmate.
package atomic

// Color identifies a side. White moves first.
type Color uint8

const (
	White Color = iota
	Black
)

// Other returns the opposing side.
func (c Color) Other() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// Kind identifies a piece type. The zero value marks an empty square.
type Kind uint8

const (
	NoPiece Kind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var kindNames = [...]string{"none", "pawn", "knight", "bishop", "rook", "queen", "king"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "none"
}

// Piece is a board occupant. The zero Piece is an empty square. moved is
// tracked for pawns only and gates the two-square first advance.
type Piece struct {
	Kind  Kind
	Color Color
	moved bool
}

// Square addresses a board cell. Row 0 is the far rank (Black's back rank),
// row 7 the near rank, so "e2" is {6, 4}.
type Square struct {
	Row, Col int
}

// Valid reports whether the square lies on the board.
func (s Square) Valid() bool {
	return s.Row >= 0 && s.Row <= 7 && s.Col >= 0 && s.Col <= 7
}

func (s Square) String() string {
	return FormatSquare(s)
}

// Result is the game outcome state machine: InProgress until exactly one
// king is destroyed, then the surviving side's win, terminally.
type Result uint8

const (
	InProgress Result = iota
	WhiteWon
	BlackWon
)

func (r Result) String() string {
	switch r {
	case WhiteWon:
		return "white_won"
	case BlackWon:
		return "black_won"
	default:
		return "in_progress"
	}
}

// Winner returns the winning side for a decided result.
func (r Result) Winner() (Color, bool) {
	switch r {
	case WhiteWon:
		return White, true
	case BlackWon:
		return Black, true
	default:
		return White, false
	}
}

// forwardStep is the row delta that advances a pawn of the given color.
func forwardStep(c Color) int {
	if c == White {
		return -1
	}
	return 1
}

// pawnStartRow is the rank a pawn of the given color starts on. A pawn off
// this row has necessarily moved: capturing pawns never survive the blast,
// so a surviving pawn has only ever advanced straight ahead.
func pawnStartRow(c Color) int {
	if c == White {
		return 6
	}
	return 1
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	default:
		return 0
	}
}
