// Package features computes the calibrated feature vector of a signature.
//
// Features fall into three categories. Base features describe proportions,
// stroke width, curvature, ink layout and connectivity. Advanced features
// describe inclination, inferred pressure, style, loops, spacing and
// skeleton topology. Naturalness features estimate how fluently the
// signature was executed and are used by the classifier rather than the
// similarity aggregate.
//
// Spatial values are converted to millimeters with the calibration scale,
// so signatures scanned at different resolutions stay comparable.
package features
