package render

import (
	"bytes"
	"embed"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/park285/atomic-chess-arena/internal/atomic"
)

//go:embed pieces/*.svg
var pieceFiles embed.FS

type pieceCacheKey struct {
	kind  atomic.Kind
	color atomic.Color
	size  int
}

var (
	pieceCache   = map[pieceCacheKey]image.Image{}
	pieceCacheMu sync.RWMutex
)

// renderPieceImage rasterizes the embedded glyph for a piece at the given
// square size. Results are cached per kind, color, and size.
func renderPieceImage(kind atomic.Kind, clr atomic.Color, size int) (image.Image, error) {
	key := pieceCacheKey{kind: kind, color: clr, size: size}

	pieceCacheMu.RLock()
	if img, ok := pieceCache[key]; ok {
		pieceCacheMu.RUnlock()
		return img, nil
	}
	pieceCacheMu.RUnlock()

	name := pieceAssetName(kind, clr)
	data, err := pieceFiles.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read piece asset %s: %w", name, err)
	}

	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg %s: %w", name, err)
	}

	w := int(icon.ViewBox.W)
	h := int(icon.ViewBox.H)
	if w <= 0 {
		w = size
		icon.ViewBox.W = float64(w)
	}
	if h <= 0 {
		h = size
		icon.ViewBox.H = float64(h)
	}

	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	pieceCacheMu.Lock()
	pieceCache[key] = img
	pieceCacheMu.Unlock()

	return img, nil
}

func pieceAssetName(kind atomic.Kind, clr atomic.Color) string {
	prefix := "w"
	if clr == atomic.Black {
		prefix = "b"
	}

	var suffix string
	switch kind {
	case atomic.King:
		suffix = "K"
	case atomic.Queen:
		suffix = "Q"
	case atomic.Rook:
		suffix = "R"
	case atomic.Bishop:
		suffix = "B"
	case atomic.Knight:
		suffix = "N"
	case atomic.Pawn:
		suffix = "P"
	}

	return fmt.Sprintf("pieces/%s%s.svg", prefix, suffix)
}
