package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grapholex/grapholex/internal/config"
	"github.com/grapholex/grapholex/internal/model"
	"github.com/grapholex/grapholex/internal/report"
)

// NewExtractCmd creates the extract command.
func NewExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract IMAGE:WIDTHxHEIGHT",
		Short: "Extract the calibrated features of a signature",
		Long: `Extract calibrates a signature scan and prints its feature vector:
base metrics (proportions, stroke width, curvature, spacing), advanced
metrics (pressure, inclination, loops, baseline, style) and naturalness
indicators (fluidity, pressure consistency, motor coordination).

Spatial values are in millimeters, so they do not depend on the scan
resolution.

Examples:
  grapholex extract scan.png:50x15
  grapholex extract --json scan.png:50x15`,
		Args: cobra.ExactArgs(1),
		RunE: runExtractCmd,
	}

	cmd.Flags().BoolP("json", "j", false, "Output the feature vector as JSON")

	return cmd
}

// runExtractCmd executes the extract command.
func runExtractCmd(cmd *cobra.Command, args []string) error {
	arg, err := parseImageArg(args[0])
	if err != nil {
		return err
	}
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	logger := setupLogger(cfg.Verbose)

	img, err := arg.load(model.RoleQuestioned)
	if err != nil {
		return err
	}
	prof, err := config.LoadProfile(cfg.ProfilePath)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	eng := newEngine(cfg, prof, store, logger)
	cal, err := eng.Calibrate(ctx, img.Data, img.WidthMM, img.HeightMM)
	if err != nil {
		return fmt.Errorf("calibration failed: %w", err)
	}
	fv, err := eng.ExtractFeatures(ctx, cal)
	if err != nil {
		return fmt.Errorf("feature extraction failed: %w", err)
	}

	jsonOut, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	if jsonOut {
		_, err := report.NewJSONWriter(cmd.OutOrStdout(), report.WithPrettyPrint()).WriteValue(fv)
		return err
	}
	printFeatures(cmd.OutOrStdout(), img.Label, fv)
	return nil
}

// printFeatures writes the feature vector as an aligned table, sorted by
// feature name.
func printFeatures(w io.Writer, label string, fv *model.FeatureVector) {
	fmt.Fprintf(w, "Features of %s (extractor v%s)\n\n", label, fv.ExtractorVersion)

	names := make([]model.FeatureName, 0, len(fv.Values)+len(fv.Labels)+len(fv.Histograms))
	for name := range fv.Values {
		names = append(names, name)
	}
	for name := range fv.Labels {
		names = append(names, name)
	}
	for name := range fv.Histograms {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		var value string
		if v, ok := fv.Value(name); ok {
			value = fmt.Sprintf("%.4f", v)
		} else if l, ok := fv.Label(name); ok {
			value = l
		} else if h, ok := fv.Histogram(name); ok {
			bins := make([]string, len(h))
			for i, b := range h {
				bins[i] = fmt.Sprintf("%.2f", b)
			}
			value = "[" + strings.Join(bins, " ") + "]"
		}
		fmt.Fprintf(w, "  %-26s %s\n", name, value)
	}

	if fv.Partial {
		missing := make([]string, len(fv.Missing))
		for i, name := range fv.Missing {
			missing[i] = string(name)
		}
		fmt.Fprintf(w, "\n  Not measurable: %s\n", strings.Join(missing, ", "))
	}
}
