package preprocess

import "image"

// Bitmap is a binary raster in row-major order; true marks ink.
type Bitmap struct {
	W, H int
	Pix  []bool
}

// NewBitmap creates an empty bitmap.
func NewBitmap(w, h int) *Bitmap {
	return &Bitmap{W: w, H: h, Pix: make([]bool, w*h)}
}

// At reports whether (x, y) is ink. Coordinates outside the bitmap are paper.
func (b *Bitmap) At(x, y int) bool {
	if x < 0 || y < 0 || x >= b.W || y >= b.H {
		return false
	}
	return b.Pix[y*b.W+x]
}

// Set marks (x, y).
func (b *Bitmap) Set(x, y int, v bool) {
	b.Pix[y*b.W+x] = v
}

// Count returns the number of ink pixels.
func (b *Bitmap) Count() int {
	n := 0
	for _, v := range b.Pix {
		if v {
			n++
		}
	}
	return n
}

// Clone returns a copy of the bitmap.
func (b *Bitmap) Clone() *Bitmap {
	out := NewBitmap(b.W, b.H)
	copy(out.Pix, b.Pix)
	return out
}

// Bytes returns the bitmap as 8-bit samples, 255 for ink.
func (b *Bitmap) Bytes() []byte {
	out := make([]byte, len(b.Pix))
	for i, v := range b.Pix {
		if v {
			out[i] = 255
		}
	}
	return out
}

// Points returns every ink pixel in scan order.
func (b *Bitmap) Points() []image.Point {
	pts := make([]image.Point, 0, b.Count())
	for y := 0; y < b.H; y++ {
		for x := 0; x < b.W; x++ {
			if b.Pix[y*b.W+x] {
				pts = append(pts, image.Pt(x, y))
			}
		}
	}
	return pts
}

// IsBoundary reports whether an ink pixel has a 4-connected paper neighbour.
func (b *Bitmap) IsBoundary(x, y int) bool {
	if !b.At(x, y) {
		return false
	}
	return !b.At(x-1, y) || !b.At(x+1, y) || !b.At(x, y-1) || !b.At(x, y+1)
}

// ring lists the 8 neighbours clockwise starting north, as P2..P9 in the
// usual thinning notation.
var ring = [8]image.Point{
	{0, -1}, {1, -1}, {1, 0}, {1, 1},
	{0, 1}, {-1, 1}, {-1, 0}, {-1, -1},
}

// neighbours returns the number of ink pixels among the 8 neighbours.
func (b *Bitmap) neighbours(x, y int) int {
	n := 0
	for _, d := range ring {
		if b.At(x+d.X, y+d.Y) {
			n++
		}
	}
	return n
}

// crossings returns the number of paper-to-ink transitions walking once
// around the 8 neighbours. It is 1 at a stroke end, 2 along a stroke and
// 3 or more where strokes branch.
func (b *Bitmap) crossings(x, y int) int {
	n := 0
	for i := range ring {
		a := ring[i]
		c := ring[(i+1)%len(ring)]
		if !b.At(x+a.X, y+a.Y) && b.At(x+c.X, y+c.Y) {
			n++
		}
	}
	return n
}
