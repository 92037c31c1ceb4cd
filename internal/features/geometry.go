package features

import (
	"image"
	"math"

	"github.com/grapholex/grapholex/internal/preprocess"
)

// turn is one turning-angle sample along a skeleton path.
type turn struct {
	// Angle is the change of direction in radians, 0 for a straight run
	// and pi for a full reversal.
	Angle float64

	// Span is the mean length in pixels of the two chords around the sample.
	Span float64
}

// turningAngles samples the change of direction at every path point using
// chords of step pixels on each side. Closed paths wrap around; open paths
// skip points closer than step to an end.
func turningAngles(paths []preprocess.Path, step int) []turn {
	var out []turn
	for _, p := range paths {
		n := p.Len()
		lo, hi := step, n-step
		if p.Closed {
			if n <= 2*step {
				continue
			}
			lo, hi = 0, n
		}
		for i := lo; i < hi; i++ {
			prev, cur, next := p.At(i-step), p.At(i), p.At(i+step)
			if t, ok := angleAt(prev, cur, next); ok {
				out = append(out, t)
			}
		}
	}
	return out
}

func angleAt(prev, cur, next image.Point) (turn, bool) {
	ax, ay := float64(cur.X-prev.X), float64(cur.Y-prev.Y)
	bx, by := float64(next.X-cur.X), float64(next.Y-cur.Y)
	la, lb := math.Hypot(ax, ay), math.Hypot(bx, by)
	if la == 0 || lb == 0 {
		return turn{}, false
	}
	cos := (ax*bx + ay*by) / (la * lb)
	cos = math.Max(-1, math.Min(1, cos))
	return turn{Angle: math.Acos(cos), Span: (la + lb) / 2}, true
}

// histogram bins angles over [0, pi] and normalizes the counts to sum 1.
func histogram(turns []turn, bins int) []float64 {
	out := make([]float64, bins)
	if len(turns) == 0 {
		return nil
	}
	for _, t := range turns {
		b := int(t.Angle / math.Pi * float64(bins))
		if b >= bins {
			b = bins - 1
		}
		out[b]++
	}
	for i := range out {
		out[i] /= float64(len(turns))
	}
	return out
}

// jitterRatio compares the pixel arc length of every path with the length
// of its chords of step pixels. A smooth stroke stays close to 1; tremor
// and retouching raise it.
func jitterRatio(paths []preprocess.Path, step int) (float64, bool) {
	arc, chords := 0.0, 0.0
	for _, p := range paths {
		n := p.Len()
		if n <= step {
			continue
		}
		for i := 1; i < n; i++ {
			arc += pointDist(p.Points[i-1], p.Points[i])
		}
		last := 0
		for i := step; i < n; i += step {
			chords += pointDist(p.Points[last], p.Points[i])
			last = i
		}
		if last < n-1 {
			chords += pointDist(p.Points[last], p.Points[n-1])
		}
	}
	if chords == 0 {
		return 0, false
	}
	return arc / chords, true
}

func pointDist(a, b image.Point) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
