// Package render draws arena positions, as a PNG board image for the HTTP
// surface and as a Unicode text board for the console.
package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/park285/atomic-chess-arena/internal/atomic"
)

// MoveHighlight marks the from and to squares of the last applied move.
type MoveHighlight struct {
	From atomic.Square
	To   atomic.Square
}

// Options tune a single render call.
type Options struct {
	Highlight *MoveHighlight
}

// BoardRenderer turns a position into a PNG image.
type BoardRenderer interface {
	RenderPNG(ctx context.Context, g *atomic.Game, opts Options) ([]byte, error)
}

type boardRenderer struct {
	squarePx int
}

// NewBoardRenderer returns a renderer drawing squares of the given pixel
// size. Sizes below 16 fall back to the default of 64.
func NewBoardRenderer(squarePx int) BoardRenderer {
	if squarePx < 16 {
		squarePx = 64
	}
	return &boardRenderer{squarePx: squarePx}
}

var (
	lightSquare    = color.RGBA{240, 217, 181, 255}
	darkSquare     = color.RGBA{181, 136, 99, 255}
	highlightFill  = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	labelTextColor = color.NRGBA{R: 60, G: 48, B: 36, A: 255}
	marginFill     = color.RGBA{246, 240, 228, 255}
)

const (
	labelMargin = 24
	edgeMargin  = 12
)

func (r *boardRenderer) RenderPNG(ctx context.Context, g *atomic.Game, opts Options) ([]byte, error) {
	if g == nil {
		return nil, fmt.Errorf("game is nil")
	}

	boardSize := r.squarePx * 8
	totalWidth := labelMargin + boardSize + edgeMargin
	totalHeight := edgeMargin + boardSize + labelMargin
	origin := image.Point{X: labelMargin, Y: edgeMargin}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	img := image.NewRGBA(image.Rect(0, 0, totalWidth, totalHeight))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(marginFill), image.Point{}, imagedraw.Src)

	drawSquares(img, r.squarePx, origin)
	if err := drawPieces(img, g, r.squarePx, origin); err != nil {
		return nil, err
	}
	drawHighlight(img, opts.Highlight, r.squarePx, origin)
	drawCoordinates(img, r.squarePx, origin)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return pngBuf.Bytes(), nil
}

func drawSquares(dst imagedraw.Image, squarePx int, origin image.Point) {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			x := origin.X + col*squarePx
			y := origin.Y + row*squarePx
			clr := squareColor(atomic.Square{Row: row, Col: col})
			imagedraw.Draw(dst, image.Rect(x, y, x+squarePx, y+squarePx), image.NewUniform(clr), image.Point{}, imagedraw.Src)
		}
	}
}

func drawPieces(dst imagedraw.Image, g *atomic.Game, squarePx int, origin image.Point) error {
	board := g.Squares()
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			piece := board[row][col]
			if piece.Kind == atomic.NoPiece {
				continue
			}
			glyph, err := renderPieceImage(piece.Kind, piece.Color, squarePx)
			if err != nil {
				return err
			}
			x := origin.X + col*squarePx
			y := origin.Y + row*squarePx
			imagedraw.Draw(dst, image.Rect(x, y, x+squarePx, y+squarePx), glyph, image.Point{}, imagedraw.Over)
		}
	}
	return nil
}

func drawHighlight(img *image.RGBA, highlight *MoveHighlight, squarePx int, origin image.Point) {
	if img == nil || highlight == nil {
		return
	}
	drawSquareOverlay(img, highlight.From, squarePx, origin, highlightFill)
	drawSquareOverlay(img, highlight.To, squarePx, origin, highlightFill)
}

func drawSquareOverlay(img *image.RGBA, sq atomic.Square, squarePx int, origin image.Point, clr color.Color) {
	if !sq.Valid() {
		return
	}
	x := origin.X + sq.Col*squarePx
	y := origin.Y + sq.Row*squarePx
	rect := image.Rect(x, y, x+squarePx, y+squarePx)
	imagedraw.Draw(img, rect, image.NewUniform(clr), image.Point{}, imagedraw.Over)
}

func drawCoordinates(dst imagedraw.Image, squarePx int, origin image.Point) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{
		Dst:  dst,
		Face: face,
		Src:  image.NewUniform(labelTextColor),
	}
	ascent := face.Metrics().Ascent.Ceil()
	boardBottom := origin.Y + 8*squarePx

	for row := 0; row < 8; row++ {
		label := string(rune('8' - row))
		baseline := origin.Y + row*squarePx + squarePx/2 + ascent/2
		drawCenteredText(drawer, label, origin.X-labelMargin/2, baseline)
	}
	for col := 0; col < 8; col++ {
		label := string(rune('a' + col))
		center := origin.X + col*squarePx + squarePx/2
		drawCenteredText(drawer, label, center, boardBottom+ascent+3)
	}
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	if text == "" {
		return
	}
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}

func squareColor(sq atomic.Square) color.Color {
	if (sq.Row+sq.Col)%2 == 0 {
		return lightSquare
	}
	return darkSquare
}
