package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/grapholex/grapholex/internal/config"
	"github.com/grapholex/grapholex/internal/engine"
	"github.com/grapholex/grapholex/internal/model"
)

// NewBatchCmd creates the batch command.
func NewBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [manifest]",
		Short: "Verify every questioned signature of a project manifest",
		Long: `Batch loads a project manifest, processes all its images concurrently and
classifies every questioned signature against the project's references.

Without an argument, grapholex.yaml is looked up in the current directory
and then in the XDG config directory. Use 'grapholex init' to create one.

Manifest example:
  project: case-2024-017
  name: Contract signature
  language: it
  references:
    - path: refs/r1.png
      width_mm: 50
      height_mm: 15
  questioned:
    - path: questioned.jpg
      width_mm: 48
      height_mm: 14

Examples:
  # Verify the project in ./grapholex.yaml
  grapholex batch

  # Excel workbook, verdicts saved, features cached in the database
  grapholex batch case.yaml --xlsx -o case.xlsx --save-db --cache`,
		Args: cobra.MaximumNArgs(1),
		RunE: runBatchCmd,
	}

	cmd.Flags().Bool("save-db", false, "Save verdicts and the run to the database")
	addReportFlags(cmd)

	return cmd
}

// runBatchCmd executes the batch command.
func runBatchCmd(cmd *cobra.Command, args []string) error {
	var explicit string
	if len(args) == 1 {
		explicit = args[0]
	}
	path := config.FindConfigFile(explicit)
	if path == "" {
		if explicit != "" {
			return fmt.Errorf("manifest not found: %s", explicit)
		}
		return errors.New("no manifest found (pass a path or run 'grapholex init')")
	}

	m, err := config.LoadManifest(path)
	if err != nil {
		return fmt.Errorf("failed to load manifest %s: %w", path, err)
	}

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	// The manifest overrides the environment, flags override the manifest.
	if m.Language != "" && !cmd.Flags().Changed("lang") {
		cfg.Language = m.Language
	}
	if m.Profile != "" && !cmd.Flags().Changed("profile") {
		cfg.ProfilePath = m.ProfilePath()
	}
	cfg.ManifestPath = path
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	project, err := m.ToProject()
	if err != nil {
		return err
	}
	return runProject(cmd, cfg, project)
}

// runProject compares a project, writes the report and optionally stores
// the run.
func runProject(cmd *cobra.Command, cfg *config.Config, project *model.Project) error {
	logger := setupLogger(cfg.Verbose)

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

	eng := newEngine(cfg, prof, store, logger, engine.WithProgress(progressPrinter(cmd.ErrOrStderr())))

	logger.Info("starting comparison",
		"project", project.ID,
		"references", len(project.References),
		"questioned", len(project.Questioned),
		"concurrency", cfg.Concurrency,
	)
	startTime := time.Now()

	res, err := eng.CompareAll(ctx, project)
	if err != nil {
		return fmt.Errorf("comparison interrupted: %w", err)
	}

	if err := writeResult(cmd, cfg, eng, res); err != nil {
		return err
	}

	if cfg.SaveToDB {
		id, err := store.SaveProjectResult(ctx, res)
		if err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved run %d for project %s\n", id, res.ProjectID)
	}

	logger.Info("comparison complete",
		"project", project.ID,
		"verdicts", len(res.Verdicts),
		"failures", len(res.Failures),
		"elapsed", time.Since(startTime).Round(time.Millisecond),
	)
	return nil
}
