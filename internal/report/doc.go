// Package report renders verification results.
//
// SimpleWriter prints a terminal summary, JSONWriter and FullJSONWriter
// emit machine-readable records, MarkdownWriter produces a case report
// with a verdict distribution chart and per-feature observations, and
// XLSXWriter produces a workbook for case files. All of them implement
// Writer and can be combined with MultiWriter. Display names come from a
// Labeler, so reports follow the explanation language.
package report
