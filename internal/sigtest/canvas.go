// Package sigtest draws deterministic synthetic signatures for tests.
package sigtest

import (
	"image"
	"image/color"
	"math"
	"math/rand/v2"

	"gocv.io/x/gocv"
)

var (
	black = color.RGBA{A: 255}
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Canvas is a white 8-bit grayscale page.
type Canvas struct {
	mat gocv.Mat
}

// NewCanvas creates a white page of w x h pixels.
func NewCanvas(w, h int) *Canvas {
	return NewCanvasWithPaper(w, h, 255)
}

// NewCanvasWithPaper creates a page of w x h pixels filled with the given
// grey level.
func NewCanvasWithPaper(w, h int, paper uint8) *Canvas {
	v := float64(paper)
	return &Canvas{mat: gocv.NewMatWithSizeFromScalar(gocv.NewScalar(v, v, v, 0), h, w, gocv.MatTypeCV8UC1)}
}

// Close releases the underlying matrix.
func (c *Canvas) Close() {
	c.mat.Close()
}

// Bar fills r with ink. Max is exclusive, so the ink extent is exactly r.
func (c *Canvas) Bar(r image.Rectangle) {
	gocv.Rectangle(&c.mat, r, black, -1)
}

// Erase fills r with white paper.
func (c *Canvas) Erase(r image.Rectangle) {
	gocv.Rectangle(&c.mat, r, white, -1)
}

// Line draws a stroke from a to b.
func (c *Canvas) Line(a, b image.Point, thickness int) {
	gocv.Line(&c.mat, a, b, black, thickness)
}

// Circle draws a circle outline; a negative thickness fills it.
func (c *Canvas) Circle(center image.Point, radius, thickness int) {
	gocv.Circle(&c.mat, center, radius, black, thickness)
}

// Polyline joins consecutive points with strokes.
func (c *Canvas) Polyline(pts []image.Point, thickness int) {
	for i := 1; i < len(pts); i++ {
		c.Line(pts[i-1], pts[i], thickness)
	}
}

// PNG encodes the page.
func (c *Canvas) PNG() ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.PNGFileExt, c.mat)
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out, nil
}

// Style parameterizes a synthetic cursive signature.
type Style struct {
	// Scale multiplies every dimension; 1 draws roughly 10 px per mm.
	Scale float64

	// Slant shears the writing; positive values lean right.
	Slant float64

	// Tremor is the amplitude in pixels of random wobble along the stroke,
	// imitating a slow, traced hand.
	Tremor float64

	// Seed makes the tremor reproducible.
	Seed uint64

	// Thickness is the pen width in pixels.
	Thickness int

	// Loops is the number of cursive loops.
	Loops int
}

// DefaultStyle is a fluent, upright three-loop signature.
func DefaultStyle() Style {
	return Style{Scale: 1, Thickness: 3, Loops: 3, Seed: 1}
}

// Signature draws a cursive signature made of a looping trochoid, an
// underline and a detached dot, centred on a page with white margins.
func Signature(s Style) *Canvas {
	if s.Scale <= 0 {
		s.Scale = 1
	}
	if s.Thickness <= 0 {
		s.Thickness = 3
	}
	if s.Loops <= 0 {
		s.Loops = 3
	}

	a := 22.0 * s.Scale
	b := 40.0 * s.Scale
	margin := 80.0 * s.Scale
	span := a * 2 * math.Pi * float64(s.Loops)
	w := int(span + 2*b + 2*margin)
	h := int(4*b + 2*margin)
	baseline := margin + 2.5*b

	c := NewCanvas(w, h)
	rng := rand.New(rand.NewPCG(s.Seed, s.Seed^0x9e3779b97f4a7c15))

	pts := make([]image.Point, 0, 1024)
	for t := 0.0; t <= 2*math.Pi*float64(s.Loops); t += 0.04 {
		x := margin + b + a*t - b*math.Sin(t)
		y := baseline - b - b*math.Cos(t)
		x += s.Slant * (baseline - y)
		if s.Tremor > 0 {
			x += (rng.Float64()*2 - 1) * s.Tremor
			y += (rng.Float64()*2 - 1) * s.Tremor
		}
		pts = append(pts, image.Pt(int(math.Round(x)), int(math.Round(y))))
	}
	c.Polyline(pts, s.Thickness)

	under := int(math.Round(baseline + 0.6*b))
	c.Line(image.Pt(int(margin), under), image.Pt(int(margin+span+b), under), s.Thickness)

	dot := image.Pt(int(margin+span+1.8*b), int(baseline-2.2*b))
	c.Circle(dot, max(2, s.Thickness), -1)

	return c
}
