package profile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grapholex/grapholex/internal/model"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	p := Default()
	require.NoError(t, p.Validate())
	assert.Equal(t, Version, p.Version)
	assert.InDelta(t, 0.4, p.Categories.Base, 1e-12)
	assert.InDelta(t, 0.3, p.Categories.Advanced, 1e-12)
	assert.InDelta(t, 0.3, p.Categories.Naturalness, 1e-12)

	for _, c := range model.Categories {
		assert.NotEmpty(t, p.GroupsOf(c), c.String())
	}

	f, c, ok := p.Lookup(model.FeatureBaselineDeviation)
	require.True(t, ok)
	assert.Equal(t, model.CategoryAdvanced, c)
	assert.Equal(t, KindScalar, f.Kind)
	assert.Positive(t, f.Range)

	_, _, ok = p.Lookup("no_such_feature")
	assert.False(t, ok)
}

func TestProfile_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(p *Profile)
		want   error
	}{
		{"no version", func(p *Profile) { p.Version = "" }, ErrMissingVersion},
		{"negative weight", func(p *Profile) { p.Categories.Base = -1 }, ErrInvalidCategoryWeight},
		{"no scored weight", func(p *Profile) { p.Categories.Base, p.Categories.Advanced = 0, 0 }, ErrInvalidCategoryWeight},
		{"unknown category", func(p *Profile) { p.Groups[0].Category = "texture" }, ErrInvalidGroup},
		{"empty group", func(p *Profile) { p.Groups[0].Features = nil }, ErrInvalidGroup},
		{"duplicate feature", func(p *Profile) { p.Groups[1].Features[0] = p.Groups[0].Features[0] }, ErrDuplicateFeature},
		{"zero range", func(p *Profile) { p.Groups[0].Features[0].Range = 0 }, ErrInvalidRange},
		{"unknown kind", func(p *Profile) { p.Groups[0].Features[0].Kind = "vector" }, ErrUnknownKind},
		{"no naturalness weight", func(p *Profile) { p.Naturalness = NaturalnessWeights{} }, ErrInvalidNaturalnessWeights},
		{"threshold above one", func(p *Profile) { p.Thresholds.AuthenticSimilarity = 1.2 }, ErrInvalidThresholds},
		{"thresholds out of order", func(p *Profile) { p.Thresholds.SuspiciousSimilarity = 0.7 }, ErrInvalidThresholds},
		{"zero coverage", func(p *Profile) { p.Aggregation.MinCoverage = 0 }, ErrInvalidAggregation},
		{"label credit", func(p *Profile) { p.MixedLabelCredit = 2 }, ErrInvalidLabelCredit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := Default()
			tt.mutate(p)
			assert.True(t, errors.Is(p.Validate(), tt.want), "got %v", p.Validate())
		})
	}
}

func TestProfile_Clone(t *testing.T) {
	t.Parallel()

	p := Default()
	cp := p.Clone()
	cp.Groups[0].Features[0].Range = 99
	cp.Tolerances[model.FeatureSpacing] = 99

	assert.NotEqual(t, 99.0, p.Groups[0].Features[0].Range)
	assert.NotEqual(t, 99.0, p.Tolerances[model.FeatureSpacing])
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("override keeps defaults", func(t *testing.T) {
		t.Parallel()

		p, err := Load(strings.NewReader("version: custom-1\nthresholds:\n  authentic_similarity: 0.9\n  authentic_naturalness: 0.8\n  dissimulated_similarity: 0.75\n  dissimulated_naturalness: 0.5\n  probably_authentic_similarity: 0.65\n  suspicious_similarity: 0.45\n"))
		require.NoError(t, err)
		assert.Equal(t, "custom-1", p.Version)
		assert.InDelta(t, 0.9, p.Thresholds.AuthenticSimilarity, 1e-12)
		assert.Len(t, p.Groups, len(Default().Groups))
	})

	t.Run("empty document is the default", func(t *testing.T) {
		t.Parallel()

		p, err := Load(strings.NewReader(""))
		require.NoError(t, err)
		assert.Equal(t, Default().Fingerprint(), p.Fingerprint())
	})

	t.Run("unknown field", func(t *testing.T) {
		t.Parallel()

		_, err := Load(strings.NewReader("verison: typo\n"))
		assert.Error(t, err)
	})

	t.Run("invalid profile", func(t *testing.T) {
		t.Parallel()

		_, err := Load(strings.NewReader("aggregation:\n  min_coverage: 3\n"))
		assert.True(t, errors.Is(err, ErrInvalidAggregation))
	})
}

func TestLoadFile_RoundTrip(t *testing.T) {
	t.Parallel()

	p := Default()
	p.Version = "round-trip"
	data, err := p.Marshal()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, p.Fingerprint(), got.Fingerprint())
	assert.NotEqual(t, Default().Fingerprint(), got.Fingerprint())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
