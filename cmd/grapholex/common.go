package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/grapholex/grapholex/internal/config"
	"github.com/grapholex/grapholex/internal/database"
	"github.com/grapholex/grapholex/internal/engine"
	"github.com/grapholex/grapholex/internal/log"
	"github.com/grapholex/grapholex/internal/model"
	"github.com/grapholex/grapholex/internal/profile"
	"github.com/grapholex/grapholex/internal/report"
)

// errNoSize is returned when an image argument has no declared size.
var errNoSize = errors.New("missing declared size: use PATH:WIDTHxHEIGHT in millimeters")

// addReportFlags adds the flags selecting the report format and destination.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown and --xlsx)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json and --xlsx)")
	cmd.Flags().BoolP("xlsx", "x", false,
		"Output an Excel workbook (requires --output)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from the command flags, the env file and
// the environment. Flags that the command does not define keep their
// defaults.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	envFile, err := flags.GetString("env-file")
	if err != nil {
		return nil, err
	}
	if err := config.LoadEnv(envFile); err != nil {
		return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
	}

	cfg.Verbose = getVerboseFlag(cmd)
	if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
		return nil, err
	}
	if cfg.ProfilePath, err = flags.GetString("profile"); err != nil {
		return nil, err
	}
	if cfg.CacheFeatures, err = flags.GetBool("cache"); err != nil {
		return nil, err
	}
	if flags.Changed("lang") {
		if cfg.Language, err = flags.GetString("lang"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("db-dir") {
		if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
			return nil, err
		}
	}

	for name, dst := range map[string]*bool{
		"json":     &cfg.JSONReport,
		"markdown": &cfg.MarkdownReport,
		"xlsx":     &cfg.XLSXReport,
		"save-db":  &cfg.SaveToDB,
	} {
		if flags.Lookup(name) == nil {
			continue
		}
		if *dst, err = flags.GetBool(name); err != nil {
			return nil, err
		}
	}
	if flags.Lookup("output") != nil {
		if cfg.ReportFile, err = flags.GetString("output"); err != nil {
			return nil, err
		}
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// setupLogger creates the secure logger and installs it as the default.
func setupLogger(verbose bool) *slog.Logger {
	logger := log.NewSecureLogger(os.Stderr, verbose)
	slog.SetDefault(logger)
	return logger
}

// signalContext returns a context cancelled on interrupt or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// openStore opens the database when the configuration needs it. It
// returns nil otherwise.
func openStore(cfg *config.Config, logger *slog.Logger) (*database.Store, error) {
	if !cfg.UsesDB() {
		return nil, nil
	}
	store, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.Debug("database opened", "dir", cfg.DBDir)
	return store, nil
}

// newEngine builds the engine for the configuration. store may be nil.
func newEngine(cfg *config.Config, prof *profile.Profile, store *database.Store, logger *slog.Logger, extra ...engine.Option) *engine.Engine {
	opts := []engine.Option{
		engine.WithProfile(prof),
		engine.WithConcurrency(cfg.Concurrency),
		engine.WithLanguage(cfg.Language),
		engine.WithLogger(logger),
	}
	opts = append(opts, extra...)
	if store != nil && cfg.CacheFeatures {
		opts = append(opts, engine.WithCache(store))
	}
	return engine.New(opts...)
}

// progressPrinter returns an engine callback printing one line per
// processed image to w.
func progressPrinter(w io.Writer) func(a *model.Analysis, done, total int) {
	var mu sync.Mutex
	return func(a *model.Analysis, done, total int) {
		mu.Lock()
		defer mu.Unlock()

		name := a.Image.Label
		if name == "" {
			name = a.Image.ID
		}
		line := fmt.Sprintf("[%d/%d] %s %s: %s", done, total, a.Image.Role, name, a.Image.Status)
		if a.Failed() {
			line += " (" + a.ErrorMessage + ")"
		}
		fmt.Fprintln(w, line)
	}
}

// openOutput returns the report destination and a function closing it.
// An empty path selects stdout. Reports may name real people, so files
// are created readable by the owner only.
func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// newReportWriter selects the report writer for the configuration.
func newReportWriter(cfg *config.Config, out io.Writer, eng *engine.Engine) report.Writer {
	var w interface {
		report.Writer
		SetLabeler(report.Labeler)
	}
	switch {
	case cfg.JSONReport:
		w = report.NewFullJSONWriter(out, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(out, report.WithProfile(eng.Profile()))
	case cfg.XLSXReport:
		w = report.NewXLSXWriter(out, eng.Profile())
	default:
		w = report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose))
	}
	w.SetLabeler(eng.Classifier())
	return w
}

// writeResult renders res to the configured destination.
func writeResult(cmd *cobra.Command, cfg *config.Config, eng *engine.Engine, res *model.ProjectResult) error {
	out, closeOut, err := openOutput(cfg.ReportFile, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if _, err := newReportWriter(cfg, out, eng).Write(res); err != nil {
		_ = closeOut() //nolint:errcheck // The write error is reported
		return fmt.Errorf("failed to write report: %w", err)
	}
	return closeOut()
}

// imageArg is an image path with its declared size, parsed from
// PATH:WIDTHxHEIGHT.
type imageArg struct {
	Path     string
	WidthMM  float64
	HeightMM float64
}

// parseImageArg parses PATH:WIDTHxHEIGHT. The size is taken after the
// last colon so that paths may contain colons.
func parseImageArg(s string) (imageArg, error) {
	i := strings.LastIndex(s, ":")
	if i <= 0 || i == len(s)-1 {
		return imageArg{}, fmt.Errorf("%q: %w", s, errNoSize)
	}
	w, h, err := parseSize(s[i+1:])
	if err != nil {
		return imageArg{}, fmt.Errorf("%q: %w", s, err)
	}
	return imageArg{Path: s[:i], WidthMM: w, HeightMM: h}, nil
}

// parseSize parses WIDTHxHEIGHT in millimeters.
func parseSize(s string) (float64, float64, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid size %q: use WIDTHxHEIGHT in millimeters", s)
	}
	w, err := strconv.ParseFloat(strings.TrimSpace(ws), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid width %q: %w", ws, err)
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(hs), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid height %q: %w", hs, err)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid size %q: dimensions must be positive", s)
	}
	return w, h, nil
}

// load reads the image file into a pending SignatureImage.
func (a imageArg) load(role model.Role) (*model.SignatureImage, error) {
	data, err := os.ReadFile(a.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s image: %w", role, err)
	}
	img := model.NewSignatureImage("", data, a.WidthMM, a.HeightMM, role)
	img.Label = filepath.Base(a.Path)
	return img, nil
}
