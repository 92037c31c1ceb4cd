package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/grapholex/grapholex/internal/config"
)

// NewRootCmd creates the root command for grapholex.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grapholex",
		Short: "Forensic handwritten signature verification",
		Long: `grapholex compares questioned signatures with reference signatures of the
same person. Every scan is calibrated to millimeters from its declared
physical size, so scans taken at different resolutions are comparable.

Each questioned signature is classified as authentic, authentic
(dissimulated), probably authentic, suspicious, uncertain or probably
false, with an explanation naming the weakest feature areas.

Settings may also come from a .env file and GRAPHOLEX_* variables.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("lang", "l", "",
		"Explanation language as a BCP 47 tag (en, it); default en or $"+config.EnvLanguage)
	cmd.PersistentFlags().StringP("profile", "P", "",
		"YAML profile overriding weights, ranges and thresholds")
	cmd.PersistentFlags().IntP("concurrency", "c", config.DefaultConcurrency,
		"Number of images processed at once")
	cmd.PersistentFlags().String("db-dir", "",
		"Database directory (default: XDG data directory or $"+config.EnvDBDir+")")
	cmd.PersistentFlags().Bool("cache", false,
		"Reuse feature vectors stored in the database")
	cmd.PersistentFlags().String("env-file", ".env",
		"Environment file to load before reading GRAPHOLEX_* variables")

	cmd.AddCommand(NewCalibrateCmd())
	cmd.AddCommand(NewExtractCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewBatchCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
