// Package preprocess turns a calibrated signature into the reusable
// representations the feature extractor works on: an Otsu binary mask, a
// Zhang-Suen skeleton with its topology, 8-connected components, contours
// with hole detection, and per-pixel stroke width and edge strength.
//
// No step is randomized; the same cropped image always yields the same
// representation.
package preprocess
