package atomic

// ParseSquare converts algebraic notation ("e2") into board coordinates.
// Files a-h map to columns 0-7, ranks 8-1 to rows 0-7. Uppercase files are
// accepted. Malformed input is reported as ErrInvalidSquare.
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return Square{}, ErrInvalidSquare
	}
	file := s[0]
	if file >= 'A' && file <= 'Z' {
		file += 'a' - 'A'
	}
	if file < 'a' || file > 'h' {
		return Square{}, ErrInvalidSquare
	}
	rank := s[1]
	if rank < '1' || rank > '8' {
		return Square{}, ErrInvalidSquare
	}
	return Square{Row: int('8' - rank), Col: int(file - 'a')}, nil
}

// FormatSquare renders a square in algebraic notation, or "??" off-board.
func FormatSquare(sq Square) string {
	if !sq.Valid() {
		return "??"
	}
	return string([]byte{byte('a' + sq.Col), byte('8' - sq.Row)})
}
