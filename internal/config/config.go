package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"

	"github.com/grapholex/grapholex/internal/pipeline"
	"github.com/grapholex/grapholex/internal/profile"
)

const (
	// AppName is the application name used for XDG directory paths.
	AppName = "grapholex"

	// DefaultConcurrency is the number of images processed at once.
	DefaultConcurrency = pipeline.DefaultConcurrency

	// DefaultLanguage is the explanation language.
	DefaultLanguage = "en"
)

// Environment variables read by ApplyEnv. They fill only settings that
// flags left empty.
const (
	EnvProfile  = "GRAPHOLEX_PROFILE"
	EnvLanguage = "GRAPHOLEX_LANG"
	EnvDBDir    = "GRAPHOLEX_DB_DIR"
)

// Config holds the CLI settings. It is populated from flags, the manifest
// and the environment, then passed down explicitly.
type Config struct {
	// ProfilePath is a YAML profile overriding weights, ranges and
	// thresholds. Empty selects the built-in profile.
	ProfilePath string

	// Concurrency bounds the number of images processed at once.
	Concurrency int

	// Language is a BCP 47 tag or Accept-Language string selecting the
	// explanation language.
	Language string

	// Verbose enables debug logging. Otherwise only warnings and errors
	// are logged.
	Verbose bool

	// JSONReport, MarkdownReport and XLSXReport select the report format.
	// At most one may be set; none selects the plain text report.
	JSONReport     bool
	MarkdownReport bool
	XLSXReport     bool

	// ReportFile is the output path. Empty writes to stdout, which the
	// XLSX format does not support.
	ReportFile string

	// DBDir is the directory of the SQLite database.
	DBDir string

	// SaveToDB stores verdicts and the run in the database.
	SaveToDB bool

	// CacheFeatures reads and writes feature vectors through the database.
	CacheFeatures bool

	// ManifestPath is the project manifest.
	ManifestPath string
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		Concurrency: DefaultConcurrency,
		Language:    DefaultLanguage,
		DBDir:       XDGDataDir(),
	}
}

// XDGDataDir returns the data directory, ~/.local/share/grapholex on Linux.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the config directory, ~/.config/grapholex on Linux.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	formats := 0
	for _, on := range []bool{c.JSONReport, c.MarkdownReport, c.XLSXReport} {
		if on {
			formats++
		}
	}
	if formats > 1 {
		return ErrConflictingReportFormats
	}
	if c.XLSXReport && c.ReportFile == "" {
		return ErrXLSXNeedsFile
	}

	if (c.SaveToDB || c.CacheFeatures) && c.DBDir == "" {
		return ErrNoDBDir
	}
	return nil
}

// UsesDB reports whether the database must be opened.
func (c *Config) UsesDB() bool {
	return c.SaveToDB || c.CacheFeatures
}

// LoadEnv loads .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return err
		}
	}
	return nil
}

// ApplyEnv fills empty settings from the environment. The language
// variable also replaces the default language.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvProfile); v != "" && c.ProfilePath == "" {
		c.ProfilePath = v
	}
	if v := os.Getenv(EnvLanguage); v != "" && (c.Language == "" || c.Language == DefaultLanguage) {
		c.Language = v
	}
	if v := os.Getenv(EnvDBDir); v != "" && (c.DBDir == "" || c.DBDir == XDGDataDir()) {
		c.DBDir = v
	}
}

// LoadProfile returns the profile at path, or the built-in profile when
// path is empty.
func LoadProfile(path string) (*profile.Profile, error) {
	if path == "" {
		return profile.Default(), nil
	}
	return profile.LoadFile(path)
}
