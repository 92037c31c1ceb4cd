package features

import (
	"github.com/montanaflynn/stats"

	"github.com/grapholex/grapholex/internal/model"
	"github.com/grapholex/grapholex/internal/preprocess"
)

// measurements caches the quantities several features share.
type measurements struct {
	rep   *preprocess.Representation
	ppm   float64
	turns []turn
	micro []turn

	// widths are stroke widths in mm.
	widths []float64

	// areas are component areas in pixels.
	areas []float64

	// lengthMM is the skeleton length.
	lengthMM float64
}

func newMeasurements(rep *preprocess.Representation) *measurements {
	m := &measurements{
		rep:      rep,
		ppm:      rep.PxPerMM,
		turns:    turningAngles(rep.Graph.Paths, CurvatureStep),
		micro:    turningAngles(rep.Graph.Paths, MicroCurvatureStep),
		lengthMM: rep.Graph.Length() / rep.PxPerMM,
	}
	m.widths = make([]float64, len(rep.StrokeWidths))
	for i, w := range rep.StrokeWidths {
		m.widths[i] = w / m.ppm
	}
	m.areas = make([]float64, len(rep.Components))
	for i, c := range rep.Components {
		m.areas[i] = float64(c.Area)
	}
	return m
}

func (m *measurements) base(fv *model.FeatureVector) {
	mask := m.rep.Mask

	fv.SetValue(model.FeatureAspectRatio, float64(mask.W)/float64(mask.H))

	if len(m.widths) > 0 {
		mean, err := stats.Trimean(m.widths)
		if err == nil {
			fv.SetValue(model.FeatureStrokeWidthMean, mean)
		} else {
			fv.SetMissing(model.FeatureStrokeWidthMean)
		}
		std, err := stats.StandardDeviation(m.widths)
		if err == nil {
			fv.SetValue(model.FeatureStrokeWidthStd, std)
		} else {
			fv.SetMissing(model.FeatureStrokeWidthStd)
		}
	} else {
		fv.SetMissing(model.FeatureStrokeWidthMean)
		fv.SetMissing(model.FeatureStrokeWidthStd)
	}

	if edge, err := stats.Mean(m.rep.EdgeStrength); err == nil {
		fv.SetValue(model.FeatureEdgeGradient, edge/(4*255))
	} else {
		fv.SetMissing(model.FeatureEdgeGradient)
	}

	m.curvature(fv)

	ink := 0
	sx, sy := 0.0, 0.0
	for y := 0; y < mask.H; y++ {
		for x := 0; x < mask.W; x++ {
			if mask.Pix[y*mask.W+x] {
				ink++
				sx += float64(x) + 0.5
				sy += float64(y) + 0.5
			}
		}
	}
	fv.SetValue(model.FeatureInkDensity, float64(ink)/float64(mask.W*mask.H))
	if ink > 0 {
		fv.SetValue(model.FeatureCentroidX, sx/float64(ink)/float64(mask.W))
		fv.SetValue(model.FeatureCentroidY, sy/float64(ink)/float64(mask.H))
	} else {
		fv.SetMissing(model.FeatureCentroidX)
		fv.SetMissing(model.FeatureCentroidY)
	}

	fv.SetValue(model.FeatureComponentCount, float64(len(m.rep.Components)))
	if m.lengthMM > 0 {
		fv.SetValue(model.FeatureFragmentation, float64(len(m.rep.Components))/(m.lengthMM/10))
		fv.SetValue(model.FeatureStrokeLength, m.lengthMM)
	} else {
		fv.SetMissing(model.FeatureFragmentation)
		fv.SetMissing(model.FeatureStrokeLength)
	}
}

// curvature sets the turning-angle histogram and the mean curvature in
// radians per millimeter.
func (m *measurements) curvature(fv *model.FeatureVector) {
	if len(m.turns) == 0 {
		fv.SetMissing(model.FeatureCurvatureHistogram)
		fv.SetMissing(model.FeatureMeanCurvature)
		return
	}
	fv.SetHistogram(model.FeatureCurvatureHistogram, histogram(m.turns, CurvatureBins))

	perMM := make([]float64, len(m.turns))
	for i, t := range m.turns {
		perMM[i] = t.Angle / (t.Span / m.ppm)
	}
	mean, _ := stats.Mean(perMM)
	fv.SetValue(model.FeatureMeanCurvature, mean)
}
