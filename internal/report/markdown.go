package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/grapholex/grapholex/internal/features"
	"github.com/grapholex/grapholex/internal/model"
	"github.com/grapholex/grapholex/internal/profile"
)

// MarkdownWriter outputs a case report in Markdown: verdict summary with a
// distribution chart, one section per questioned signature with feature
// observations against each reference, and failures.
type MarkdownWriter struct {
	baseWriter

	profile *profile.Profile
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithProfile sets the tolerances used for feature observations.
func WithProfile(p *profile.Profile) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.profile = p
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.profile == nil {
		w.profile = profile.Default()
	}
	return w
}

// Write outputs the project report.
func (w *MarkdownWriter) Write(res *model.ProjectResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, res)
	w.writeSummary(md, res)
	w.writeVerdicts(md, res)
	w.writeFailures(md, res.Failures)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteVerdict outputs a report holding a single verdict.
func (w *MarkdownWriter) WriteVerdict(v *model.Verdict) (int, error) {
	return w.Write(singleVerdict(v))
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, res *model.ProjectResult) {
	md.H1("Signature Verification Report")
	md.PlainText("")

	rows := [][]string{}
	if res.ProjectID != "" {
		rows = append(rows, []string{"Project", "`" + res.ProjectID + "`"})
	}
	if res.ProjectName != "" {
		rows = append(rows, []string{"Name", res.ProjectName})
	}
	if !res.GeneratedAt.IsZero() {
		rows = append(rows, []string{"Date", res.GeneratedAt.Format("2006-01-02 15:04:05 MST")})
	}
	rows = append(rows,
		[]string{"Profile", res.ProfileVersion},
		[]string{"Questioned signatures", strconv.Itoa(len(res.Verdicts) + questionedFailures(res.Failures))},
	)
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, res *model.ProjectResult) {
	md.H2("Summary")
	md.PlainText("")

	counts := res.VerdictCounts()
	rows := make([][]string, 0, len(model.VerdictCategories)+1)
	for _, cat := range model.VerdictCategories {
		rows = append(rows, []string{w.labels.Label(cat), strconv.Itoa(counts[cat])})
	}
	rows = append(rows, []string{"**Total**", "**" + strconv.Itoa(len(res.Verdicts)) + "**"})
	md.Table(markdown.TableSet{
		Header: []string{"Verdict", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(res.Verdicts) > 0 {
		w.writePieChart(md, counts)
	}
	w.writeAlert(md, counts, res)
}

func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, counts map[model.VerdictCategory]int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Verdict Distribution"),
		piechart.WithShowData(true),
	)
	for _, cat := range model.VerdictCategories {
		if n := counts[cat]; n > 0 {
			chart.LabelAndIntValue(w.labels.Label(cat), uint64(n))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, counts map[model.VerdictCategory]int, res *model.ProjectResult) {
	switch {
	case counts[model.VerdictProbablyFalse] > 0:
		md.Cautionf("%d signature(s) classified as %s.", counts[model.VerdictProbablyFalse], w.labels.Label(model.VerdictProbablyFalse))
	case counts[model.VerdictSuspicious] > 0:
		md.Warningf("%d signature(s) classified as %s.", counts[model.VerdictSuspicious], w.labels.Label(model.VerdictSuspicious))
	case counts[model.VerdictUncertain] > 0 || res.HasFailures():
		md.Importantf("%d verdict(s) uncertain and %d failure(s); see below.", counts[model.VerdictUncertain], len(res.Failures))
	case len(res.Verdicts) > 0:
		md.Tip("Every questioned signature is consistent with the references.")
	default:
		md.Note("No questioned signature could be compared.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeVerdicts(md *markdown.Markdown, res *model.ProjectResult) {
	md.H2("Verdicts")
	md.PlainText("")

	if len(res.Verdicts) == 0 {
		md.PlainText("No verdicts.")
		md.PlainText("")
		return
	}

	refs := referenceVectors(res)
	for _, v := range res.Verdicts {
		md.H3(v.QuestionedID + ": " + w.labels.Label(v.Category))
		md.PlainText("")

		rows := [][]string{
			{"Similarity", strconv.Itoa(percent(v.AggregateSimilarity)) + "%"},
			{"Naturalness", strconv.Itoa(percent(v.Naturalness)) + "%"},
			{"Confidence", strconv.Itoa(percent(v.Confidence)) + "%"},
			{"Spread", strconv.Itoa(percent(v.Spread)) + "%"},
			{"References", strconv.Itoa(v.ReferenceCount)},
		}
		for _, cat := range model.Categories {
			if s, ok := v.CategorySimilarity[cat]; ok {
				rows = append(rows, []string{w.labels.CategoryName(cat), strconv.Itoa(percent(s)) + "%"})
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Measure", "Value"},
			Rows:   rows,
		})
		md.PlainText("")
		md.PlainText(v.Explanation)
		md.PlainText("")

		q, ok := res.Analysis(v.QuestionedID)
		if !ok || q.Features == nil {
			continue
		}
		for _, ref := range refs {
			w.writeObservations(md, q.Features, ref)
		}
	}
}

func (w *MarkdownWriter) writeObservations(md *markdown.Markdown, q, r *model.FeatureVector) {
	obs := features.Describe(q, r, w.profile)
	if len(obs) == 0 {
		return
	}

	rows := make([][]string, len(obs))
	for i, o := range obs {
		status := "consistent"
		if !o.Consistent {
			status = "**different**"
		}
		diff := "-"
		if o.Tolerance > 0 {
			diff = fmt.Sprintf("%.2f (±%.2f)", o.Difference, o.Tolerance)
		}
		rows[i] = []string{w.labels.FeatureName(o.Feature), o.Questioned, o.Reference, diff, status}
	}

	md.H4("Compared with " + r.ImageID)
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Feature", "Questioned", "Reference", "Difference", "Assessment"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, failures []model.Failure) {
	if len(failures) == 0 {
		return
	}

	md.H2("Failures")
	md.PlainText("")

	rows := make([][]string, len(failures))
	for i, f := range failures {
		rows[i] = []string{displayName(f), f.Role.String(), f.Stage, f.Kind.String(), truncateString(f.Message, 80)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Image", "Role", "Stage", "Kind", "Message"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by grapholex*")
}

// referenceVectors returns the completed reference vectors in input order.
func referenceVectors(res *model.ProjectResult) []*model.FeatureVector {
	var refs []*model.FeatureVector
	for _, a := range res.Analyses {
		if a.Image != nil && a.Image.Role == model.RoleReference && a.Features != nil && !a.Failed() {
			refs = append(refs, a.Features)
		}
	}
	return refs
}

func questionedFailures(failures []model.Failure) int {
	n := 0
	for _, f := range failures {
		if f.Role == model.RoleQuestioned {
			n++
		}
	}
	return n
}

// truncateString truncates a string to maxLen bytes with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
