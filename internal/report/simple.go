package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/grapholex/grapholex/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with nothing to show are printed.
	showEmpty bool

	// verbose adds per-category similarities and weak features.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the project result.
func (w *SimpleWriter) Write(res *model.ProjectResult) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, res)
	w.writeSummary(&sb, res)
	w.writeVerdicts(&sb, res.Verdicts)
	w.writeFailures(&sb, res.Failures)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// WriteVerdict outputs a single verdict without project sections.
func (w *SimpleWriter) WriteVerdict(v *model.Verdict) (int, error) {
	var sb strings.Builder
	w.writeVerdict(&sb, v)
	return w.output.Write([]byte(sb.String()))
}

func rule(sb *strings.Builder, ch string) {
	sb.WriteString(strings.Repeat(ch, 70))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, res *model.ProjectResult) {
	sb.WriteString("\n")
	rule(sb, "=")
	sb.WriteString("                    SIGNATURE VERIFICATION REPORT\n")
	rule(sb, "=")
	sb.WriteString("\n")

	project := res.ProjectID
	if res.ProjectName != "" {
		project = fmt.Sprintf("%s (%s)", res.ProjectName, res.ProjectID)
	}
	fmt.Fprintf(sb, "Project:        %s\n", project)
	if !res.GeneratedAt.IsZero() {
		fmt.Fprintf(sb, "Date:           %s\n", res.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Fprintf(sb, "Profile:        %s\n", res.ProfileVersion)
	fmt.Fprintf(sb, "Images:         %d\n", len(res.Analyses))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeSummary(sb *strings.Builder, res *model.ProjectResult) {
	rule(sb, "-")
	sb.WriteString("SUMMARY\n")
	rule(sb, "-")
	sb.WriteString("\n")

	counts := res.VerdictCounts()
	for _, cat := range model.VerdictCategories {
		if counts[cat] == 0 && !w.showEmpty {
			continue
		}
		fmt.Fprintf(sb, "  %-28s %d\n", w.labels.Label(cat)+":", counts[cat])
	}
	fmt.Fprintf(sb, "\n  %-28s %d\n", "TOTAL:", len(res.Verdicts))
	if len(res.Failures) > 0 {
		fmt.Fprintf(sb, "  %-28s %d\n", "FAILURES:", len(res.Failures))
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeVerdicts(sb *strings.Builder, verdicts []*model.Verdict) {
	if len(verdicts) == 0 && !w.showEmpty {
		return
	}

	rule(sb, "-")
	sb.WriteString("VERDICTS\n")
	rule(sb, "-")
	sb.WriteString("\n")

	if len(verdicts) == 0 {
		sb.WriteString("  No verdicts\n\n")
		return
	}
	for _, v := range verdicts {
		w.writeVerdict(sb, v)
	}
}

func (w *SimpleWriter) writeVerdict(sb *strings.Builder, v *model.Verdict) {
	fmt.Fprintf(sb, "[%s] %s: %s\n", indicator(v.Category), v.QuestionedID, w.labels.Label(v.Category))
	fmt.Fprintf(sb, "    Similarity: %d%%  Naturalness: %d%%  Confidence: %d%%  References: %d\n",
		percent(v.AggregateSimilarity), percent(v.Naturalness), percent(v.Confidence), v.ReferenceCount)

	if w.verbose {
		for _, cat := range model.Categories {
			if s, ok := v.CategorySimilarity[cat]; ok {
				fmt.Fprintf(sb, "    %-12s %d%%\n", w.labels.CategoryName(cat)+":", percent(s))
			}
		}
		if len(v.WeakFeatures) > 0 {
			names := make([]string, len(v.WeakFeatures))
			for i, f := range v.WeakFeatures {
				names[i] = w.labels.FeatureName(f)
			}
			fmt.Fprintf(sb, "    Weak features: %s\n", strings.Join(names, ", "))
		}
		fmt.Fprintf(sb, "    Rule: %s\n", v.Rule)
	}
	fmt.Fprintf(sb, "    %s\n\n", v.Explanation)
}

func (w *SimpleWriter) writeFailures(sb *strings.Builder, failures []model.Failure) {
	if len(failures) == 0 && !w.showEmpty {
		return
	}

	rule(sb, "-")
	sb.WriteString("FAILURES\n")
	rule(sb, "-")
	sb.WriteString("\n")

	if len(failures) == 0 {
		sb.WriteString("  No failures\n\n")
		return
	}
	for _, f := range failures {
		fmt.Fprintf(sb, "  * %s (%s) at %s [%s]\n", displayName(f), f.Role, f.Stage, f.Kind)
		fmt.Fprintf(sb, "    %s\n", f.Message)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	rule(sb, "=")
	sb.WriteString("Report generated by grapholex\n")
	rule(sb, "=")
}

// indicator returns a short marker for the verdict category.
func indicator(c model.VerdictCategory) string {
	switch c {
	case model.VerdictAuthentic, model.VerdictAuthenticDissimulated:
		return "OK"
	case model.VerdictProbablyAuthentic:
		return "ok"
	case model.VerdictSuspicious:
		return "!"
	case model.VerdictProbablyFalse:
		return "!!"
	default:
		return "?"
	}
}

func displayName(f model.Failure) string {
	if f.Label != "" {
		return f.Label
	}
	return f.ImageID
}
