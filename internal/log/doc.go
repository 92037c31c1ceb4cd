// Package log provides slog loggers that mask personal data.
//
// Signature cases name real people: the signer, the subject of the
// expertise, and often both in the image file names. SecureHandler wraps
// any slog.Handler and replaces values whose key or content looks like
// personal data (names, e-mail addresses, fiscal codes, file paths) or a
// credential with MaskValue. Verbose mode changes the level, never the
// masking.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Info("loaded manifest",
//	    "project", "case-17",
//	    "path", "/cases/mario_rossi/q.png", // masked
//	)
//	slog.SetDefault(logger)
package log
