// Package classify maps aggregated similarity and naturalness onto the
// forensic verdict categories.
//
// The decision table is an ordered list of rules evaluated top to bottom;
// the first match wins and an input matching no rule is Uncertain. All
// thresholds come from the profile. Explanations are rendered through
// golang.org/x/text message catalogs in English and Italian.
package classify
