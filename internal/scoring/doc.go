// Package scoring compares feature vectors and aggregates the comparisons
// of one questioned signature against all of its references.
//
// Scalar features score by absolute difference over the profile range,
// histograms by L1 distance and labels by equality. Category similarities
// are weighted group means; the aggregate similarity combines Base and
// Advanced only, while naturalness is carried alongside for the classifier.
package scoring
