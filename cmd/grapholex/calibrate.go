package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/grapholex/grapholex/internal/model"
	"github.com/grapholex/grapholex/internal/report"
)

// NewCalibrateCmd creates the calibrate command.
func NewCalibrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calibrate IMAGE:WIDTHxHEIGHT",
		Short: "Calibrate a signature scan to millimeters",
		Long: `Calibrate detects the ink extent of a signature scan and maps it onto the
declared physical size of the signature, in millimeters.

The result reports the crop box, the pixel density per axis and a
confidence score. Low confidence means the crop should be checked by hand.

Examples:
  # Calibrate a signature that measures 50 x 15 mm on paper
  grapholex calibrate scan.png:50x15

  # Save the cropped signature
  grapholex calibrate scan.png:50x15 --crop-out cropped.png

  # Output JSON
  grapholex calibrate --json scan.png:50x15`,
		Args: cobra.ExactArgs(1),
		RunE: runCalibrateCmd,
	}

	cmd.Flags().BoolP("json", "j", false, "Output the calibration as JSON")
	cmd.Flags().String("crop-out", "", "Write the cropped signature as PNG to this path")

	return cmd
}

// runCalibrateCmd executes the calibrate command.
func runCalibrateCmd(cmd *cobra.Command, args []string) error {
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

	ctx, cancel := signalContext(cmd)
	defer cancel()

	eng := newEngine(cfg, nil, nil, logger)
	cal, calErr := eng.Calibrate(ctx, img.Data, img.WidthMM, img.HeightMM)
	if cal == nil {
		return fmt.Errorf("calibration failed: %w", calErr)
	}

	jsonOut, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	if jsonOut {
		if _, err := report.NewJSONWriter(cmd.OutOrStdout(), report.WithPrettyPrint()).WriteValue(cal); err != nil {
			return err
		}
	} else {
		printCalibration(cmd.OutOrStdout(), img.Label, cal)
	}

	cropOut, err := cmd.Flags().GetString("crop-out")
	if err != nil {
		return err
	}
	if cropOut != "" && len(cal.Cropped) > 0 {
		if err := os.WriteFile(cropOut, cal.Cropped, 0600); err != nil {
			return fmt.Errorf("failed to write cropped image: %w", err)
		}
	}

	if calErr != nil {
		if errors.Is(calErr, model.ErrInsufficientInk) {
			return fmt.Errorf("%w (check the scan or crop it by hand)", calErr)
		}
		return calErr
	}
	return nil
}

// printCalibration writes a human-readable calibration summary.
func printCalibration(w io.Writer, label string, cal *model.CalibrationResult) {
	fmt.Fprintf(w, "Calibration of %s\n\n", label)
	fmt.Fprintf(w, "  %-22s %s\n", "Image ID:", cal.ImageID)
	fmt.Fprintf(w, "  %-22s %s\n", "Calibration ID:", cal.ID)
	fmt.Fprintf(w, "  %-22s %.1f x %.1f mm\n", "Declared size:", cal.DeclaredWidthMM, cal.DeclaredHeightMM)
	fmt.Fprintf(w, "  %-22s %d,%d %dx%d px\n", "Crop:", cal.Crop.Left, cal.Crop.Top, cal.Crop.Width, cal.Crop.Height)
	fmt.Fprintf(w, "  %-22s %.2f (x %.2f, y %.2f)\n", "Pixels per mm:", cal.PxPerMM, cal.PxPerMMX, cal.PxPerMMY)
	if cal.ScanPxPerMM > 0 {
		fmt.Fprintf(w, "  %-22s %.2f\n", "Scanner px per mm:", cal.ScanPxPerMM)
	}
	fmt.Fprintf(w, "  %-22s %.2f%%\n", "Ink coverage:", cal.InkCoverage*100)
	fmt.Fprintf(w, "  %-22s %.0f%%\n", "Confidence:", cal.Confidence*100)
	if cal.NeedsManualAdjustment {
		fmt.Fprintln(w, "\n  Manual adjustment recommended.")
	}
}
