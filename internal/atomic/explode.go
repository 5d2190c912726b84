package atomic

// explode resolves a capture onto to by a piece standing on from. The 3x3
// neighborhood of the destination is scanned on the still-unmutated board
// first: if both kings stand in the blast the whole move is vetoed and
// nothing changes. Otherwise every non-pawn occupant of the neighborhood is
// removed (kings included, clearing their alive flag), every pawn survives
// in place, and the capturer is destroyed on its origin square. The capturer
// dies even when it is a pawn; a captured pawn on the destination does not.
func (g *Game) explode(from, to Square) error {
	loRow, hiRow := clipRange(to.Row)
	loCol, hiCol := clipRange(to.Col)

	var dead [2]bool
	for r := loRow; r <= hiRow; r++ {
		for c := loCol; c <= hiCol; c++ {
			if p := g.board[r][c]; p.Kind == King {
				dead[p.Color] = true
			}
		}
	}
	if dead[White] && dead[Black] {
		return ErrMutualDestructionVeto
	}

	for r := loRow; r <= hiRow; r++ {
		for c := loCol; c <= hiCol; c++ {
			if g.board[r][c].Kind != Pawn {
				g.board[r][c] = Piece{}
			}
		}
	}
	g.board[from.Row][from.Col] = Piece{}
	if dead[White] {
		g.kingAlive[White] = false
	}
	if dead[Black] {
		g.kingAlive[Black] = false
	}
	return nil
}

func clipRange(n int) (lo, hi int) {
	lo, hi = n-1, n+1
	if lo < 0 {
		lo = 0
	}
	if hi > 7 {
		hi = 7
	}
	return lo, hi
}
