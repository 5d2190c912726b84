package atomic

type shapeKind uint8

const (
	straightShape shapeKind = iota
	diagonalShape
)

// moveShape is the geometric classification of a from/to pair: straight or
// diagonal, its length, the unit step along it, and whether it advances
// toward the mover's far rank.
type moveShape struct {
	kind    shapeKind
	dist    int
	forward bool
	stepRow int
	stepCol int
}

// classify resolves the move's geometry. Shapes that are neither straight
// nor diagonal are not classifiable; knight moves never reach here.
func classify(c Color, from, to Square) (moveShape, bool) {
	dRow := to.Row - from.Row
	dCol := to.Col - from.Col
	sh := moveShape{stepRow: sign(dRow), stepCol: sign(dCol)}
	switch {
	case dRow == 0 || dCol == 0:
		sh.kind = straightShape
		sh.dist = abs(dRow) + abs(dCol)
	case abs(dRow) == abs(dCol):
		sh.kind = diagonalShape
		sh.dist = abs(dRow)
	default:
		return moveShape{}, false
	}
	sh.forward = sign(dRow) == forwardStep(c)
	return sh, true
}

// checkLegal runs geometry, per-piece legality, and path clearance. Knights
// use their own delta rule and jump over everything; all other pieces slide
// and need an empty path.
func (g *Game) checkLegal(mover Piece, from, to Square) error {
	if mover.Kind == Knight {
		return checkKnight(from, to)
	}
	sh, ok := classify(mover.Color, from, to)
	if !ok {
		return ErrIllegalGeometry
	}
	if err := checkShape(mover, sh); err != nil {
		return err
	}
	return g.checkPath(mover, sh, from, to)
}

func checkKnight(from, to Square) error {
	dr := abs(to.Row - from.Row)
	dc := abs(to.Col - from.Col)
	if (dr == 2 && dc == 1) || (dr == 1 && dc == 2) {
		return nil
	}
	return ErrIllegalGeometry
}

func checkShape(p Piece, sh moveShape) error {
	switch p.Kind {
	case Queen:
		return nil
	case King:
		if sh.dist != 1 {
			return ErrIllegalGeometry
		}
		return nil
	case Rook:
		if sh.kind != straightShape {
			return ErrIllegalGeometry
		}
		return nil
	case Bishop:
		if sh.kind != diagonalShape {
			return ErrIllegalGeometry
		}
		return nil
	case Pawn:
		return checkPawnShape(p, sh)
	}
	return ErrIllegalGeometry
}

// checkPawnShape enforces the pawn rules: forward only; diagonally exactly
// one square (a capture attempt, confirmed against the destination later);
// straight one square, or two while the pawn has never moved. Occupancy is
// not checked here, path and destination checks own that.
func checkPawnShape(p Piece, sh moveShape) error {
	if !sh.forward {
		return ErrIllegalGeometry
	}
	if sh.kind == diagonalShape {
		if sh.dist != 1 {
			return ErrIllegalGeometry
		}
		return nil
	}
	switch sh.dist {
	case 1:
		return nil
	case 2:
		if p.moved {
			return ErrIllegalGeometry
		}
		return nil
	default:
		return ErrIllegalGeometry
	}
}

// checkPath requires every square strictly between from and to to be empty.
// A pawn moving straight additionally treats an occupied destination as a
// blockage: pawns never capture head-on.
func (g *Game) checkPath(mover Piece, sh moveShape, from, to Square) error {
	sq := Square{Row: from.Row + sh.stepRow, Col: from.Col + sh.stepCol}
	for sq != to {
		if g.board[sq.Row][sq.Col].Kind != NoPiece {
			return ErrBlocked
		}
		sq.Row += sh.stepRow
		sq.Col += sh.stepCol
	}
	if mover.Kind == Pawn && sh.kind == straightShape && g.board[to.Row][to.Col].Kind != NoPiece {
		return ErrBlocked
	}
	return nil
}
