package config

import "errors"

// Configuration validation errors, returned by Config.Validate and
// Manifest.Validate.
var (
	// ErrInvalidConcurrency is returned when the concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrConflictingReportFormats is returned when more than one of
	// --json, --markdown and --xlsx is given.
	ErrConflictingReportFormats = errors.New("conflicting report formats: choose one of --json, --markdown and --xlsx")

	// ErrXLSXNeedsFile is returned when an XLSX report would go to stdout.
	ErrXLSXNeedsFile = errors.New("xlsx report needs an output file: use --output")

	// ErrNoDBDir is returned when the database is needed but no directory
	// is configured.
	ErrNoDBDir = errors.New("no database directory configured")

	// ErrManifestNotFound is returned when the manifest file does not exist.
	ErrManifestNotFound = errors.New("manifest file not found")

	// ErrNoProjectID is returned when the manifest names no project.
	ErrNoProjectID = errors.New("manifest has no project id")

	// ErrNoReferences is returned when the manifest lists no reference.
	ErrNoReferences = errors.New("manifest lists no reference signature")

	// ErrNoQuestioned is returned when the manifest lists no questioned
	// signature.
	ErrNoQuestioned = errors.New("manifest lists no questioned signature")

	// ErrInvalidEntry is returned for an image entry without a path or
	// with a non-positive declared size.
	ErrInvalidEntry = errors.New("invalid image entry")
)
