// Package imageio decodes signature scans and derives stable identifiers
// from their content.
//
// Decoding goes through OpenCV first and falls back to the Go image
// registry (PNG, JPEG, GIF, BMP, TIFF, WebP). Scanner resolution is read
// from EXIF when present.
package imageio
