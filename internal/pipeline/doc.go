// Package pipeline runs signature images through calibration and feature
// extraction.
//
// A Pipeline is an ordered list of Steps sharing one model.Analysis. The
// analysis image moves from pending to processing and ends completed or
// failed; the failing step name becomes the failure stage. A
// BatchProcessor runs a fresh Pipeline per image with errgroup-bounded
// concurrency and never lets one image's failure stop the others.
package pipeline
