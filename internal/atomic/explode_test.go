package atomic

import "testing"

// The bare capture from the rules text: rook takes knight with nothing else
// nearby, and both pieces disappear.
func TestRookTakesKnightBothVanish(t *testing.T) {
	g := mustGame(t, "k7/8/8/8/8/2n5/8/2R4K w")
	apply(t, g, "c1", "c3")

	if p := g.At(sq(t, "c3")); p.Kind != NoPiece {
		t.Fatalf("captured knight should be gone, got %v", p.Kind)
	}
	if p := g.At(sq(t, "c1")); p.Kind != NoPiece {
		t.Fatalf("capturing rook should be gone, got %v", p.Kind)
	}
	if !g.KingAlive(White) || !g.KingAlive(Black) {
		t.Fatal("both kings should survive")
	}
	if g.Result() != InProgress {
		t.Fatalf("result = %v, want in progress", g.Result())
	}
	if g.Turn() != Black {
		t.Fatalf("turn = %v, want black", g.Turn())
	}
}

// Friendly pieces inside the blast die too; pawns inside it never do, the
// captured pawn on the destination square included.
func TestBlastSparesPawnsOnly(t *testing.T) {
	g := mustGame(t, "7k/8/3Npr2/3Qb3/5P2/8/8/K7 w")
	apply(t, g, "d5", "e5")

	gone := []string{"e5", "d5", "d6", "f6"}
	for _, name := range gone {
		if p := g.At(sq(t, name)); p.Kind != NoPiece {
			t.Fatalf("expected %s cleared, got %v %v", name, p.Color, p.Kind)
		}
	}
	if p := g.At(sq(t, "e6")); p.Kind != Pawn || p.Color != Black {
		t.Fatalf("black pawn e6 should survive, got %v %v", p.Color, p.Kind)
	}
	if p := g.At(sq(t, "f4")); p.Kind != Pawn || p.Color != White {
		t.Fatalf("white pawn f4 should survive, got %v %v", p.Color, p.Kind)
	}
}

func TestCapturedPawnHoldsItsSquare(t *testing.T) {
	g := mustGame(t, "k7/8/8/8/8/2p5/8/2R4K w")
	apply(t, g, "c1", "c3")

	if p := g.At(sq(t, "c3")); p.Kind != Pawn || p.Color != Black {
		t.Fatalf("captured pawn should still stand on c3, got %v %v", p.Color, p.Kind)
	}
	if p := g.At(sq(t, "c1")); p.Kind != NoPiece {
		t.Fatal("the rook traded itself for nothing and must be gone")
	}
}

// A blast in the corner only covers the four on-board squares.
func TestBlastClipsAtBoardEdge(t *testing.T) {
	g := mustGame(t, "7k/8/8/8/8/R7/1PN5/rQ5K w")
	apply(t, g, "a3", "a1")

	for _, name := range []string{"a1", "b1", "a3"} {
		if p := g.At(sq(t, name)); p.Kind != NoPiece {
			t.Fatalf("expected %s cleared, got %v %v", name, p.Color, p.Kind)
		}
	}
	if p := g.At(sq(t, "b2")); p.Kind != Pawn || p.Color != White {
		t.Fatalf("pawn b2 should survive the blast, got %v %v", p.Color, p.Kind)
	}
	if p := g.At(sq(t, "c2")); p.Kind != Knight || p.Color != White {
		t.Fatalf("knight c2 sits outside the blast, got %v %v", p.Color, p.Kind)
	}
	if !g.KingAlive(White) {
		t.Fatal("white king on h1 is nowhere near the blast")
	}
}

func TestMutualDestructionVetoLeavesEverything(t *testing.T) {
	g := mustGame(t, "4R3/8/8/8/3Knk2/8/8/8 w")
	rejects(t, g, sq(t, "e8"), sq(t, "e4"), ErrMutualDestructionVeto)

	// The position is still playable: the same rook may take a harmless
	// path instead.
	apply(t, g, "e8", "a8")
	if g.Result() != InProgress {
		t.Fatalf("result = %v, want in progress", g.Result())
	}
}

// Capturing the king directly is just a capture; the explosion settles it.
func TestDirectKingCaptureWins(t *testing.T) {
	g := mustGame(t, "k7/R7/8/8/8/8/8/7K w")
	apply(t, g, "a7", "a8")

	if g.Result() != WhiteWon {
		t.Fatalf("result = %v, want white_won", g.Result())
	}
	if g.At(sq(t, "a8")).Kind != NoPiece || g.At(sq(t, "a7")).Kind != NoPiece {
		t.Fatal("both king and rook should be blown away")
	}
}
