// Package calibrate converts a scanned signature and its declared
// physical size into a pixel-per-millimeter scale.
//
// The ink extent is found with adaptive thresholding, so the scale is
// based on the signature itself rather than on page whitespace. The
// result carries a confidence score blending edge crispness, agreement of
// the width- and height-derived scales, and ink/paper contrast; results
// under the manual adjustment threshold ask for a human-drawn crop.
package calibrate
