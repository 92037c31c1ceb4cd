// Package engine is the entry point of signature verification.
//
// An Engine calibrates images, extracts their feature vectors, scores a
// questioned vector against every usable reference and classifies the
// result. CompareAll runs a whole project: images are processed
// concurrently through the pipeline package, failures are recorded per
// image and never abort the run.
package engine
