package atomic

// Game owns the board, the side to move, the outcome, and both kings'
// alive flags. It is mutated in place by ApplyMove and is not safe for
// concurrent use; callers wanting snapshots clone the whole game.
type Game struct {
	board     [8][8]Piece
	turn      Color
	result    Result
	kingAlive [2]bool
}

// NewGame returns a game with the standard initial placement, White to move.
func NewGame() *Game {
	g := &Game{kingAlive: [2]bool{true, true}}
	back := [8]Kind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}
	for col, kind := range back {
		g.board[0][col] = Piece{Kind: kind, Color: Black}
		g.board[1][col] = Piece{Kind: Pawn, Color: Black}
		g.board[6][col] = Piece{Kind: Pawn, Color: White}
		g.board[7][col] = Piece{Kind: kind, Color: White}
	}
	return g
}

// Turn returns the side to move.
func (g *Game) Turn() Color { return g.turn }

// Result returns the current outcome.
func (g *Game) Result() Result { return g.result }

// KingAlive reports whether the given side's king has survived so far.
func (g *Game) KingAlive(c Color) bool { return g.kingAlive[c] }

// At returns the piece on sq, or the zero Piece for an empty or off-board
// square.
func (g *Game) At(sq Square) Piece {
	if !sq.Valid() {
		return Piece{}
	}
	return g.board[sq.Row][sq.Col]
}

// Squares returns a copy of the grid for rendering.
func (g *Game) Squares() [8][8]Piece { return g.board }

// Clone returns an independent deep copy.
func (g *Game) Clone() *Game {
	c := *g
	return &c
}

// Equal reports whether two games hold identical state, pawn flags included.
func (g *Game) Equal(o *Game) bool {
	return o != nil && *g == *o
}

// ApplyMove validates and applies one move for the side to move. On success
// the board is mutated, the turn flips, and the result is updated if a king
// was destroyed. On any rejection the game is left byte-for-byte unchanged
// and the returned error names the reason.
func (g *Game) ApplyMove(from, to Square) error {
	if g.result != InProgress {
		return ErrGameAlreadyOver
	}
	if !from.Valid() || !to.Valid() {
		return ErrInvalidSquare
	}
	mover := g.board[from.Row][from.Col]
	if mover.Kind == NoPiece {
		return ErrEmptyOrigin
	}
	if from == to {
		return ErrNoOp
	}
	if mover.Color != g.turn {
		return ErrWrongMover
	}

	if err := g.checkLegal(mover, from, to); err != nil {
		return err
	}

	target := g.board[to.Row][to.Col]
	switch {
	case target.Kind == NoPiece:
		// A pawn's diagonal shape is only ever a capture attempt.
		if mover.Kind == Pawn && from.Col != to.Col {
			return ErrIllegalGeometry
		}
		g.commitMove(mover, from, to)
	case target.Color == mover.Color:
		return ErrOwnColorCapture
	case mover.Kind == King:
		return ErrKingCannotCapture
	default:
		if err := g.explode(from, to); err != nil {
			return err
		}
	}

	g.turn = g.turn.Other()
	g.updateResult()
	return nil
}

// commitMove applies a non-capturing move. A pawn's first straight advance
// permanently spends its two-square eligibility.
func (g *Game) commitMove(mover Piece, from, to Square) {
	if mover.Kind == Pawn {
		mover.moved = true
	}
	g.board[to.Row][to.Col] = mover
	g.board[from.Row][from.Col] = Piece{}
}

func (g *Game) updateResult() {
	switch {
	case !g.kingAlive[White]:
		g.result = BlackWon
	case !g.kingAlive[Black]:
		g.result = WhiteWon
	}
}
