// Package main provides the entry point for the grapholex CLI.
//
// grapholex compares questioned handwritten signatures with reference
// signatures of the same person and classifies each questioned one as
// authentic, dissimulated, probably authentic, suspicious, uncertain or
// probably false, with an explanation.
//
// Usage:
//
//	grapholex compare --questioned q.png:48x14 --reference r1.png:50x15
//	grapholex batch grapholex.yaml
//
// See --help for all available options.
package main

func main() {
	Execute()
}
