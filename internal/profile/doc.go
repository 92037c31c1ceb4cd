// Package profile holds the versioned weights, normalization ranges and
// verdict thresholds of the verification model.
//
// Every constant that influences a verdict lives in a Profile, so tuning
// is auditable: a report records the profile version and fingerprint, and
// a profile can be overridden from YAML without touching code.
package profile
