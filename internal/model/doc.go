// Package model defines the plain records exchanged between the
// verification stages.
//
// This package contains the following main types:
//   - SignatureImage: An uploaded signature with its declared physical size
//   - CalibrationResult: Crop box and px-per-mm scale for one image
//   - FeatureVector: Calibrated graphological features of one image
//   - SimilarityResult and Aggregate: Pairwise and multi-reference scores
//   - Verdict: The forensic classification of a questioned signature
//   - Project and ProjectResult: A comparison case and its outcome
//
// Every type serializes to JSON unchanged so that any caller (CLI, batch
// job, web API) can store or forward it. No type here depends on an image
// library.
package model
