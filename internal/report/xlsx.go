package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/grapholex/grapholex/internal/model"
	"github.com/grapholex/grapholex/internal/profile"
)

// Sheet names of the XLSX report.
const (
	SheetVerdicts = "Verdicts"
	SheetFeatures = "Features"
	SheetFailures = "Failures"
)

// XLSXWriter outputs a spreadsheet with verdict, feature and failure
// sheets for case files.
type XLSXWriter struct {
	baseWriter

	profile *profile.Profile
}

// NewXLSXWriter creates an XLSXWriter. A nil profile selects the default
// one, which fixes the feature columns.
func NewXLSXWriter(output io.Writer, p *profile.Profile) *XLSXWriter {
	if p == nil {
		p = profile.Default()
	}
	return &XLSXWriter{
		baseWriter: newBaseWriter(output),
		profile:    p,
	}
}

// Write outputs the project workbook.
func (w *XLSXWriter) Write(res *model.ProjectResult) (int, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetVerdicts); err != nil {
		return 0, err
	}
	if err := w.writeVerdicts(f, res.Verdicts); err != nil {
		return 0, fmt.Errorf("verdicts sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetFeatures); err != nil {
		return 0, err
	}
	if err := w.writeFeatures(f, res.Analyses); err != nil {
		return 0, fmt.Errorf("features sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetFailures); err != nil {
		return 0, err
	}
	if err := writeFailureRows(f, res.Failures); err != nil {
		return 0, fmt.Errorf("failures sheet: %w", err)
	}

	n, err := f.WriteTo(w.output)
	return int(n), err
}

// WriteVerdict outputs a workbook holding a single verdict.
func (w *XLSXWriter) WriteVerdict(v *model.Verdict) (int, error) {
	return w.Write(singleVerdict(v))
}

func (w *XLSXWriter) writeVerdicts(f *excelize.File, verdicts []*model.Verdict) error {
	header := []any{"Questioned", "Verdict", "Similarity", "Naturalness", "Confidence", "Spread", "References"}
	for _, cat := range model.Categories {
		header = append(header, w.labels.CategoryName(cat))
	}
	header = append(header, "Weak", "Rule", "Explanation")
	if err := setRow(f, SheetVerdicts, 1, header); err != nil {
		return err
	}

	for i, v := range verdicts {
		row := []any{
			v.QuestionedID,
			w.labels.Label(v.Category),
			round(v.AggregateSimilarity),
			round(v.Naturalness),
			round(v.Confidence),
			round(v.Spread),
			v.ReferenceCount,
		}
		for _, cat := range model.Categories {
			if s, ok := v.CategorySimilarity[cat]; ok {
				row = append(row, round(s))
			} else {
				row = append(row, "")
			}
		}
		weak := make([]string, len(v.Weak))
		for j, c := range v.Weak {
			weak[j] = w.labels.CategoryName(c)
		}
		row = append(row, strings.Join(weak, ", "), v.Rule, v.Explanation)
		if err := setRow(f, SheetVerdicts, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func (w *XLSXWriter) writeFeatures(f *excelize.File, analyses []*model.Analysis) error {
	names := w.profile.FeatureNames()
	header := []any{"Image", "Role", "Partial", "Extractor"}
	for _, name := range names {
		header = append(header, string(name))
	}
	if err := setRow(f, SheetFeatures, 1, header); err != nil {
		return err
	}

	r := 2
	for _, a := range analyses {
		fv := a.Features
		if fv == nil {
			continue
		}
		row := []any{a.Image.ID, a.Image.Role.String(), fv.Partial, fv.ExtractorVersion}
		for _, name := range names {
			row = append(row, cellValue(fv, name))
		}
		if err := setRow(f, SheetFeatures, r, row); err != nil {
			return err
		}
		r++
	}
	return nil
}

func writeFailureRows(f *excelize.File, failures []model.Failure) error {
	if err := setRow(f, SheetFailures, 1, []any{"Image", "Label", "Role", "Stage", "Kind", "Message"}); err != nil {
		return err
	}
	for i, fl := range failures {
		row := []any{fl.ImageID, fl.Label, fl.Role.String(), fl.Stage, fl.Kind.String(), fl.Message}
		if err := setRow(f, SheetFailures, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// cellValue renders a feature for a spreadsheet cell. Histograms become a
// space-separated list.
func cellValue(fv *model.FeatureVector, name model.FeatureName) any {
	if v, ok := fv.Value(name); ok {
		return round(v)
	}
	if l, ok := fv.Label(name); ok {
		return l
	}
	if h, ok := fv.Histogram(name); ok {
		parts := make([]string, len(h))
		for i, x := range h {
			parts[i] = strconv.FormatFloat(x, 'f', 3, 64)
		}
		return strings.Join(parts, " ")
	}
	return ""
}

// round keeps four decimals so that spreadsheets stay readable.
func round(x float64) float64 {
	v, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', 4, 64), 64)
	if err != nil {
		return x
	}
	return v
}
