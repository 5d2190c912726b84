package render

import (
	"strings"

	"github.com/park285/atomic-chess-arena/internal/atomic"
)

const fileHeader = "    a   b   c   d   e   f   g   h"

var rowSeparator = "  " + strings.Repeat("—", 33)

// Text renders the position as a bordered Unicode board, rank 8 on top,
// with file letters above and below and rank digits on both sides.
func Text(g *atomic.Game) string {
	var b strings.Builder
	b.WriteString(fileHeader)
	b.WriteByte('\n')
	board := g.Squares()
	for row := 0; row < 8; row++ {
		rank := byte('8' - row)
		b.WriteByte(rank)
		b.WriteByte(' ')
		for col := 0; col < 8; col++ {
			b.WriteString("| ")
			b.WriteString(pieceGlyph(board[row][col]))
			b.WriteByte(' ')
		}
		b.WriteString("| ")
		b.WriteByte(rank)
		b.WriteByte('\n')
		b.WriteString(rowSeparator)
		b.WriteByte('\n')
	}
	b.WriteString(fileHeader)
	return b.String()
}

func pieceGlyph(p atomic.Piece) string {
	if p.Kind == atomic.NoPiece {
		return " "
	}
	if p.Color == atomic.White {
		switch p.Kind {
		case atomic.King:
			return "♔"
		case atomic.Queen:
			return "♕"
		case atomic.Rook:
			return "♖"
		case atomic.Bishop:
			return "♗"
		case atomic.Knight:
			return "♘"
		default:
			return "♙"
		}
	}
	switch p.Kind {
	case atomic.King:
		return "♚"
	case atomic.Queen:
		return "♛"
	case atomic.Rook:
		return "♜"
	case atomic.Bishop:
		return "♝"
	case atomic.Knight:
		return "♞"
	default:
		return "♟"
	}
}
