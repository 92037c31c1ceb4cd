package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/grapholex/grapholex/internal/classify"
	"github.com/grapholex/grapholex/internal/model"
)

func vector(id string, aspect float64) *model.FeatureVector {
	fv := model.NewFeatureVector(id, id+"-cal")
	fv.ExtractorVersion = "1"
	fv.SetValue(model.FeatureAspectRatio, aspect)
	fv.SetValue(model.FeatureInclination, 5)
	fv.SetHistogram(model.FeatureCurvatureHistogram, []float64{0.5, 0.5})
	fv.SetLabel(model.FeatureStyle, string(model.StyleCursive))
	return fv
}

func analysis(id string, role model.Role, fv *model.FeatureVector) *model.Analysis {
	img := model.NewSignatureImage(id, nil, 50, 12, role)
	img.Status = model.StatusCompleted
	a := model.NewAnalysis(img)
	a.Features = fv
	return a
}

// createTestResult creates a project result with sample data for testing.
func createTestResult() *model.ProjectResult {
	return &model.ProjectResult{
		ProjectID:      "case-7",
		ProjectName:    "Estate dispute",
		ProfileVersion: "2024.1",
		GeneratedAt:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Analyses: []*model.Analysis{
			analysis("r1", model.RoleReference, vector("r1", 4.0)),
			analysis("q1", model.RoleQuestioned, vector("q1", 4.1)),
			analysis("q2", model.RoleQuestioned, vector("q2", 9.0)),
		},
		Verdicts: []*model.Verdict{
			{
				QuestionedID:        "q1",
				Category:            model.VerdictAuthentic,
				AggregateSimilarity: 0.91,
				Naturalness:         0.86,
				Confidence:          0.95,
				CategorySimilarity: map[model.Category]float64{
					model.CategoryBase:     0.93,
					model.CategoryAdvanced: 0.88,
				},
				ReferenceCount: 1,
				Rule:           classify.RuleAuthentic,
				Explanation:    "High similarity (91%) with natural execution (naturalness 86%).",
				ProfileVersion: "2024.1",
			},
			{
				QuestionedID:        "q2",
				Category:            model.VerdictProbablyFalse,
				AggregateSimilarity: 0.31,
				Naturalness:         0.5,
				Confidence:          0.9,
				CategorySimilarity:  map[model.Category]float64{model.CategoryBase: 0.3},
				ReferenceCount:      1,
				Weak:                []model.Category{model.CategoryBase},
				WeakFeatures:        []model.FeatureName{model.FeatureAspectRatio},
				Rule:                classify.RuleProbablyFalse,
				Explanation:         "Low similarity (31%) to the reference signatures.",
				ProfileVersion:      "2024.1",
			},
		},
		Failures: []model.Failure{{
			ImageID: "q3",
			Label:   "q3.png",
			Role:    model.RoleQuestioned,
			Stage:   "calibrate",
			Kind:    model.KindInputDefect,
			Message: "calibrate q3: insufficient ink",
		}},
	}
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header summary verdicts and failures", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		_, err := NewSimpleWriter(&buf).Write(createTestResult())
		require.NoError(t, err)

		out := buf.String()
		assert.Contains(t, out, "SIGNATURE VERIFICATION REPORT")
		assert.Contains(t, out, "Estate dispute (case-7)")
		assert.Contains(t, out, "Authentic:")
		assert.NotContains(t, out, "Suspicious:")
		assert.Contains(t, out, "[OK] q1: Authentic")
		assert.Contains(t, out, "Similarity: 91%")
		assert.Contains(t, out, "FAILURES")
		assert.Contains(t, out, "q3.png (questioned) at calibrate [input_defect]")
	})

	t.Run("show empty lists every category", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		_, err := NewSimpleWriter(&buf, WithShowEmpty(true)).Write(&model.ProjectResult{ProjectID: "empty"})
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "Suspicious:")
		assert.Contains(t, buf.String(), "No verdicts")
	})

	t.Run("verbose adds categories and weak features", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		_, err := NewSimpleWriter(&buf, WithVerbose(true)).WriteVerdict(createTestResult().Verdicts[1])
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "Base:")
		assert.Contains(t, buf.String(), "Weak features: aspect ratio")
		assert.Contains(t, buf.String(), "Rule: probably_false")
	})

	t.Run("localized labels", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		w.SetLabeler(classify.New(classify.WithLanguage("it")))
		_, err := w.WriteVerdict(createTestResult().Verdicts[1])
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "Probabilmente falsa")
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("round trips the result", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		_, err := NewJSONWriter(&buf).Write(createTestResult())
		require.NoError(t, err)

		var got model.ProjectResult
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, "case-7", got.ProjectID)
		require.Len(t, got.Verdicts, 2)
		assert.Equal(t, model.VerdictProbablyFalse, got.Verdicts[1].Category)
		assert.Equal(t, model.KindInputDefect, got.Failures[0].Kind)
		assert.True(t, strings.HasSuffix(buf.String(), "\n"))
	})

	t.Run("pretty print", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		_, err := NewJSONWriter(&buf, WithPrettyPrint()).WriteVerdict(createTestResult().Verdicts[0])
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "\n  \"category\": \"authentic\"")
	})

	t.Run("full report carries version and labels", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		_, err := NewFullJSONWriter(&buf, "v1.2.3").Write(createTestResult())
		require.NoError(t, err)

		var got JSONReport
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, "v1.2.3", got.Version)
		assert.Equal(t, "Probably false", got.Labels["q2"])
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	n, err := NewMarkdownWriter(&buf).Write(createTestResult())
	require.NoError(t, err)
	assert.Positive(t, n)

	out := buf.String()
	assert.Contains(t, out, "# Signature Verification Report")
	assert.Contains(t, out, "```mermaid")
	assert.Contains(t, out, "Verdict Distribution")
	assert.Contains(t, out, "### q1: Authentic")
	assert.Contains(t, out, "#### Compared with r1")
	assert.Contains(t, out, "aspect ratio")
	assert.Contains(t, out, "**different**", "q2 aspect ratio is far from r1")
	assert.Contains(t, out, "[!CAUTION]")
	assert.Contains(t, out, "## Failures")
}

func TestXLSXWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	_, err := NewXLSXWriter(&buf, nil).Write(createTestResult())
	require.NoError(t, err)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetVerdicts, SheetFeatures, SheetFailures}, f.GetSheetList())

	verdicts, err := f.GetRows(SheetVerdicts)
	require.NoError(t, err)
	require.Len(t, verdicts, 3)
	assert.Equal(t, "Questioned", verdicts[0][0])
	assert.Equal(t, []string{"q1", "Authentic", "0.91"}, verdicts[1][:3])

	feats, err := f.GetRows(SheetFeatures)
	require.NoError(t, err)
	require.Len(t, feats, 4)
	assert.Equal(t, "r1", feats[1][0])
	assert.Contains(t, feats[0], string(model.FeatureAspectRatio))

	failures, err := f.GetRows(SheetFailures)
	require.NoError(t, err)
	require.Len(t, failures, 2)
	assert.Equal(t, "q3", failures[1][0])
}

type failingWriter struct{ err error }

func (f failingWriter) Write(*model.ProjectResult) (int, error)  { return 1, f.err }
func (f failingWriter) WriteVerdict(*model.Verdict) (int, error) { return 1, f.err }

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to every writer", func(t *testing.T) {
		t.Parallel()

		var a, b bytes.Buffer
		m := NewMultiWriter(NewSimpleWriter(&a), NewJSONWriter(&b))
		n, err := m.Write(createTestResult())
		require.NoError(t, err)
		assert.Equal(t, a.Len()+b.Len(), n)
		assert.NotZero(t, a.Len())
		assert.NotZero(t, b.Len())
	})

	t.Run("stops at the first error", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		var b bytes.Buffer
		m := NewMultiWriter(failingWriter{err: boom}, NewJSONWriter(&b))
		n, err := m.WriteVerdict(createTestResult().Verdicts[0])
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, n)
		assert.Zero(t, b.Len())
	})
}
