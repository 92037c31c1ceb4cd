package report

import (
	"encoding/json"
	"io"

	"github.com/grapholex/grapholex/internal/model"
)

// JSONWriter outputs results as JSON for tool integration.
type JSONWriter struct {
	baseWriter

	indent       bool
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint is WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the project result.
func (w *JSONWriter) Write(res *model.ProjectResult) (int, error) {
	return w.writeJSON(res)
}

// WriteVerdict outputs a single verdict.
func (w *JSONWriter) WriteVerdict(v *model.Verdict) (int, error) {
	return w.writeJSON(v)
}

// WriteValue outputs any serializable record, such as a calibration or a
// feature vector.
func (w *JSONWriter) WriteValue(v any) (int, error) {
	return w.writeJSON(v)
}

func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')
	return w.output.Write(data)
}

// JSONReport wraps a project result with the tool version and localized
// verdict labels.
type JSONReport struct {
	Version string               `json:"version"`
	Result  *model.ProjectResult `json:"result"`

	// Labels maps questioned IDs to display labels of their verdicts.
	Labels map[string]string `json:"labels,omitempty"`
}

// FullJSONWriter outputs project results wrapped in a JSONReport.
type FullJSONWriter struct {
	*JSONWriter

	version string
}

// NewFullJSONWriter creates a writer for complete reports with metadata.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write outputs the wrapped project result.
func (w *FullJSONWriter) Write(res *model.ProjectResult) (int, error) {
	wrapped := &JSONReport{
		Version: w.version,
		Result:  res,
		Labels:  make(map[string]string, len(res.Verdicts)),
	}
	for _, v := range res.Verdicts {
		wrapped.Labels[v.QuestionedID] = w.labels.Label(v.Category)
	}
	return w.writeJSON(wrapped)
}
