package report

import (
	"io"
	"math"

	"github.com/grapholex/grapholex/internal/classify"
	"github.com/grapholex/grapholex/internal/model"
)

// Writer renders verification results.
type Writer interface {
	// Write renders the result of a whole project.
	Write(res *model.ProjectResult) (int, error)

	// WriteVerdict renders a single verdict.
	WriteVerdict(v *model.Verdict) (int, error)
}

// Labeler provides display names. *classify.Classifier implements it.
type Labeler interface {
	Label(v model.VerdictCategory) string
	CategoryName(c model.Category) string
	FeatureName(f model.FeatureName) string
}

// MultiWriter writes to multiple Writers in order and stops at the first
// error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write renders res with every writer and returns the total bytes written.
func (m *MultiWriter) Write(res *model.ProjectResult) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(res)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteVerdict renders v with every writer.
func (m *MultiWriter) WriteVerdict(v *model.Verdict) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteVerdict(v)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
	labels Labeler
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output, labels: classify.New()}
}

// SetLabeler replaces the English display names, typically with a
// classifier configured for another language. nil is ignored.
func (b *baseWriter) SetLabeler(l Labeler) {
	if l != nil {
		b.labels = l
	}
}

// singleVerdict wraps v so that verdict output shares the project layout.
func singleVerdict(v *model.Verdict) *model.ProjectResult {
	return &model.ProjectResult{
		ProfileVersion: v.ProfileVersion,
		Verdicts:       []*model.Verdict{v},
	}
}

// percent formats a [0,1] score as a whole percentage.
func percent(x float64) int {
	if math.IsNaN(x) {
		return 0
	}
	return int(math.Round(x * 100))
}
