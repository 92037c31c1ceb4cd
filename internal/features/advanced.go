package features

import (
	"math"
	"slices"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/grapholex/grapholex/internal/model"
	"github.com/grapholex/grapholex/internal/preprocess"
	"github.com/grapholex/grapholex/internal/profile"
)

// Readability label cut-offs.
const (
	HighReadability   = 0.7
	MediumReadability = 0.4
)

func (m *measurements) advanced(fv *model.FeatureVector, style profile.Style) {
	incl, hasIncl := m.inclination()
	if hasIncl {
		fv.SetValue(model.FeatureInclination, incl)
	} else {
		fv.SetMissing(model.FeatureInclination)
	}

	m.pressure(fv)

	if len(m.micro) >= MinMicroSamples {
		angles := make([]float64, len(m.micro))
		for i, t := range m.micro {
			angles[i] = t.Angle
		}
		fv.SetValue(model.FeatureMicroCurvature, stat.Variance(angles, nil))
	} else {
		fv.SetMissing(model.FeatureMicroCurvature)
	}

	areaCV := coefficientOfVariation(m.areas)
	if curv, ok := fv.Value(model.FeatureMeanCurvature); ok {
		fv.SetLabel(model.FeatureStyle, string(classifyStyle(style, areaCV, incl, curv)))
	} else {
		fv.SetMissing(model.FeatureStyle)
	}

	readability := clamp01(1 - areaCV)
	fv.SetValue(model.FeatureReadability, readability)
	fv.SetLabel(model.ReadabilityLevelFeature, string(readabilityLevel(readability)))

	m.loops(fv)

	fv.SetValue(model.FeatureSpacing, m.spacing())
	fv.SetValue(model.FeatureVelocity, 1/(1+coefficientOfVariation(m.widths)))

	overlaps, connections := 0, 0
	for _, j := range m.rep.Graph.Junctions {
		switch {
		case j.Degree >= 4:
			overlaps++
		case j.Degree == 3:
			connections++
		}
	}
	fv.SetValue(model.FeatureOverlaps, float64(overlaps))
	fv.SetValue(model.FeatureConnections, float64(connections))

	if dev, ok := m.baselineDeviation(); ok {
		fv.SetValue(model.FeatureBaselineDeviation, dev)
	} else {
		fv.SetMissing(model.FeatureBaselineDeviation)
	}
}

// inclination returns the angle in degrees of the major axis of the ink
// mass, counter-clockwise from horizontal, in (-90, 90].
func (m *measurements) inclination() (float64, bool) {
	mask := m.rep.Mask
	pts := mask.Points()
	if len(pts) < MinInclinationPixels {
		return 0, false
	}

	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		xs[i] = float64(p.X)
		ys[i] = -float64(p.Y)
	}
	cxx := stat.Covariance(xs, xs, nil)
	cxy := stat.Covariance(xs, ys, nil)
	cyy := stat.Covariance(ys, ys, nil)

	var eig mat.EigenSym
	if !eig.Factorize(mat.NewSymDense(2, []float64{cxx, cxy, cxy, cyy}), true) {
		return 0, false
	}
	values := eig.Values(nil)
	if values[1] <= 0 || values[0]/values[1] > IsotropyRatio {
		return 0, false
	}
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	angle := math.Atan2(vecs.At(1, 1), vecs.At(0, 1)) * 180 / math.Pi
	switch {
	case angle > 90:
		angle -= 180
	case angle <= -90:
		angle += 180
	}
	return angle, true
}

// pressure infers pen pressure from ink darkness on a 0..100 scale.
func (m *measurements) pressure(fv *model.FeatureVector) {
	gray, mask := m.rep.Gray, m.rep.Mask
	levels := make([]float64, 0, mask.Count())
	for y := 0; y < mask.H; y++ {
		for x := 0; x < mask.W; x++ {
			if !mask.Pix[y*mask.W+x] {
				continue
			}
			v := gray.Pix[y*gray.Stride+x]
			levels = append(levels, (255-float64(v))/255*100)
		}
	}
	if len(levels) < 2 {
		fv.SetMissing(model.FeaturePressureMean)
		fv.SetMissing(model.FeaturePressureStd)
		return
	}
	mean, std := stat.MeanStdDev(levels, nil)
	fv.SetValue(model.FeaturePressureMean, mean)
	fv.SetValue(model.FeaturePressureStd, std)
}

// loops measures holes enclosed by ink. Loop area is 0 without loops while
// convexity is undefined.
func (m *measurements) loops(fv *model.FeatureVector) {
	var areas, convexity []float64
	for _, c := range m.rep.Contours {
		if !c.Hole || c.Area < MinLoopAreaPx {
			continue
		}
		areas = append(areas, c.Area/(m.ppm*m.ppm))
		if c.HullArea > 0 {
			convexity = append(convexity, c.Area/c.HullArea)
		}
	}
	if len(areas) == 0 {
		fv.SetValue(model.FeatureLoopArea, 0)
		fv.SetMissing(model.FeatureLoopConvexity)
		return
	}
	mean, _ := stats.Mean(areas)
	fv.SetValue(model.FeatureLoopArea, mean)
	if c, err := stats.Mean(convexity); err == nil {
		fv.SetValue(model.FeatureLoopConvexity, c)
	} else {
		fv.SetMissing(model.FeatureLoopConvexity)
	}
}

// spacing is the mean positive horizontal gap between components ordered
// left to right, in mm.
func (m *measurements) spacing() float64 {
	comps := slices.Clone(m.rep.Components)
	if len(comps) < 2 {
		return 0
	}
	slices.SortStableFunc(comps, func(a, b preprocess.Component) int {
		return a.Box.Min.X - b.Box.Min.X
	})
	var gaps []float64
	for i := 1; i < len(comps); i++ {
		if gap := comps[i].Box.Min.X - comps[i-1].Box.Max.X; gap > 0 {
			gaps = append(gaps, float64(gap)/m.ppm)
		}
	}
	if len(gaps) == 0 {
		return 0
	}
	mean, _ := stats.Mean(gaps)
	return mean
}

// baselineDeviation is the RMS residual, in mm, of a straight baseline
// fitted through component centroids weighted by area. With fewer than
// three components the fit runs through the lowest ink pixel of every
// column instead.
func (m *measurements) baselineDeviation() (float64, bool) {
	var xs, ys, weights []float64
	if comps := m.rep.Components; len(comps) >= 3 {
		for _, c := range comps {
			xs = append(xs, c.Centroid.X)
			ys = append(ys, c.Centroid.Y)
			weights = append(weights, float64(c.Area))
		}
	} else {
		mask := m.rep.Mask
		for x := 0; x < mask.W; x++ {
			for y := mask.H - 1; y >= 0; y-- {
				if mask.Pix[y*mask.W+x] {
					xs = append(xs, float64(x))
					ys = append(ys, float64(y))
					break
				}
			}
		}
	}
	if len(xs) < 2 {
		return 0, false
	}

	alpha, beta := stat.LinearRegression(xs, ys, weights, false)
	sum, total := 0.0, 0.0
	for i := range xs {
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		r := ys[i] - (alpha + beta*xs[i])
		sum += w * r * r
		total += w
	}
	return math.Sqrt(sum/total) / m.ppm, true
}

func classifyStyle(p profile.Style, areaCV, incl, curv float64) model.Style {
	absIncl := math.Abs(incl)
	switch {
	case areaCV < p.RegularAreaCV && absIncl < p.RegularInclination && curv < p.RegularCurvature:
		return model.StyleRegular
	case curv > p.CursiveCurvature:
		return model.StyleCursive
	case absIncl > p.InclinedInclination:
		return model.StyleInclined
	default:
		return model.StyleMixed
	}
}

func readabilityLevel(score float64) model.Readability {
	switch {
	case score > HighReadability:
		return model.ReadabilityHigh
	case score > MediumReadability:
		return model.ReadabilityMedium
	default:
		return model.ReadabilityLow
	}
}

// coefficientOfVariation returns std/mean, or 0 for fewer than two samples.
func coefficientOfVariation(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mean, err := stats.Mean(xs)
	if err != nil || mean == 0 {
		return 0
	}
	std, err := stats.StandardDeviation(xs)
	if err != nil {
		return 0
	}
	return std / mean
}
