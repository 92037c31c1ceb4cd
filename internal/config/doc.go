// Package config provides the CLI settings and the project manifest.
//
// Settings come from flags, .env files and GRAPHOLEX_* environment
// variables. A manifest is a YAML file listing the reference and
// questioned signatures of one project with their declared sizes.
package config
