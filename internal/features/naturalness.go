package features

import (
	"github.com/grapholex/grapholex/internal/model"
	"github.com/grapholex/grapholex/internal/profile"
)

// Naturalness calibration constants.
const (
	// SmoothJitter is the jitter ratio of a fluent stroke once pixel
	// staircasing is accounted for.
	SmoothJitter = 1.05

	// JitterSpan is the jitter excess at which fluidity reaches zero.
	JitterSpan = 0.30

	// PressureSpread is the pressure deviation at which consistency
	// reaches zero.
	PressureSpread = 30

	// MicroCurvatureScale halves motor coordination at this
	// micro-curvature variance.
	MicroCurvatureScale = 0.5
)

func (m *measurements) naturalness(fv *model.FeatureVector, w profile.NaturalnessWeights) {
	fluidity, hasFluidity := 0.0, false
	if r, ok := jitterRatio(m.rep.Graph.Paths, FluidityStep); ok {
		fluidity = clamp01(1 - (r-SmoothJitter)/JitterSpan)
		hasFluidity = true
		fv.SetValue(model.FeatureFluidity, fluidity)
	} else {
		fv.SetMissing(model.FeatureFluidity)
	}

	consistency, hasConsistency := 0.0, false
	if std, ok := fv.Value(model.FeaturePressureStd); ok {
		consistency = clamp01(1 - std/PressureSpread)
		hasConsistency = true
		fv.SetValue(model.FeaturePressureConsistency, consistency)
	} else {
		fv.SetMissing(model.FeaturePressureConsistency)
	}

	coordination, hasCoordination := 0.0, false
	if hasFluidity {
		coordination = fluidity
		if micro, ok := fv.Value(model.FeatureMicroCurvature); ok {
			coordination = 0.5*fluidity + 0.5/(1+micro/MicroCurvatureScale)
		}
		hasCoordination = true
		fv.SetValue(model.FeatureMotorCoordination, coordination)
	} else {
		fv.SetMissing(model.FeatureMotorCoordination)
	}

	sum, weight := 0.0, 0.0
	for _, part := range []struct {
		value  float64
		weight float64
		ok     bool
	}{
		{fluidity, w.Fluidity, hasFluidity},
		{consistency, w.PressureConsistency, hasConsistency},
		{coordination, w.MotorCoordination, hasCoordination},
	} {
		if part.ok {
			sum += part.value * part.weight
			weight += part.weight
		}
	}
	if weight == 0 {
		fv.SetMissing(model.FeatureNaturalness)
		return
	}
	fv.SetValue(model.FeatureNaturalness, sum/weight)
}
