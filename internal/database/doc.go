// Package database stores feature vectors, verdicts and project runs in a
// single SQLite file (modernc.org/sqlite, no cgo).
//
// The features table is a cache keyed by image, calibration and extractor
// version; a key is written at most once. The verdicts table keeps the
// latest verdict per questioned signature and project. The runs table
// keeps every complete project result for history.
package database
