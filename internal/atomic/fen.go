package atomic

import (
	"fmt"
	"strings"
)

// The wire form is FEN-flavored: piece placement from the far rank down,
// run-length empties, then the side to move. King-alive flags, the result,
// and pawn two-square eligibility are all reconstructed from placement, so
// the two fields carry the whole game.

var kindLetters = map[Kind]byte{
	Pawn:   'p',
	Knight: 'n',
	Bishop: 'b',
	Rook:   'r',
	Queen:  'q',
	King:   'k',
}

func pieceLetter(p Piece) byte {
	l := kindLetters[p.Kind]
	if p.Color == White {
		l -= 'a' - 'A'
	}
	return l
}

func pieceFromLetter(l rune) (Piece, bool) {
	p := Piece{Color: Black}
	if l >= 'A' && l <= 'Z' {
		p.Color = White
		l += 'a' - 'A'
	}
	for kind, letter := range kindLetters {
		if rune(letter) == l {
			p.Kind = kind
			return p, true
		}
	}
	return Piece{}, false
}

// Encode serializes the game into its placement/turn wire form.
func (g *Game) Encode() string {
	var b strings.Builder
	for r := 0; r < 8; r++ {
		if r > 0 {
			b.WriteByte('/')
		}
		empties := 0
		for c := 0; c < 8; c++ {
			p := g.board[r][c]
			if p.Kind == NoPiece {
				empties++
				continue
			}
			if empties > 0 {
				b.WriteByte('0' + byte(empties))
				empties = 0
			}
			b.WriteByte(pieceLetter(p))
		}
		if empties > 0 {
			b.WriteByte('0' + byte(empties))
		}
	}
	b.WriteByte(' ')
	if g.turn == White {
		b.WriteByte('w')
	} else {
		b.WriteByte('b')
	}
	return b.String()
}

// Decode rebuilds a game from its wire form. Positions with both kings
// missing are rejected: no legal move produces one.
func Decode(s string) (*Game, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return nil, fmt.Errorf("decode position: want placement and turn, got %q", s)
	}
	rows := strings.Split(fields[0], "/")
	if len(rows) != 8 {
		return nil, fmt.Errorf("decode position: want 8 ranks, got %d", len(rows))
	}

	g := &Game{}
	for r, row := range rows {
		c := 0
		for _, ch := range row {
			if ch >= '1' && ch <= '8' {
				c += int(ch - '0')
				continue
			}
			p, ok := pieceFromLetter(ch)
			if !ok {
				return nil, fmt.Errorf("decode position: bad piece letter %q", ch)
			}
			if c > 7 {
				return nil, fmt.Errorf("decode position: rank %d overflows", r)
			}
			if p.Kind == Pawn && r != pawnStartRow(p.Color) {
				p.moved = true
			}
			if p.Kind == King {
				g.kingAlive[p.Color] = true
			}
			g.board[r][c] = p
			c++
		}
		if c != 8 {
			return nil, fmt.Errorf("decode position: rank %d has %d files", r, c)
		}
	}

	switch fields[1] {
	case "w":
		g.turn = White
	case "b":
		g.turn = Black
	default:
		return nil, fmt.Errorf("decode position: bad turn %q", fields[1])
	}

	if !g.kingAlive[White] && !g.kingAlive[Black] {
		return nil, fmt.Errorf("decode position: both kings missing")
	}
	g.updateResult()
	return g, nil
}
