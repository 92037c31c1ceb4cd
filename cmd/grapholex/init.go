package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/grapholex/grapholex/internal/config"
)

//go:embed templates/grapholex.yaml
var manifestTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a project manifest",
		Long: `Initialize creates a grapholex.yaml project manifest in the current directory.

The generated file includes:
- A project ID and display name
- One reference and one questioned signature with declared sizes
- Commented examples for the language, profile and optional fields

Examples:
  # Create grapholex.yaml in current directory
  grapholex init

  # Create the manifest at a specific path
  grapholex init -o cases/case-17/grapholex.yaml

  # Force overwrite existing file
  grapholex init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the manifest")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing manifest")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("manifest already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := manifestTemplate.ReadFile("templates/grapholex.yaml")
	if err != nil {
		return fmt.Errorf("failed to read manifest template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created manifest: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to list:")
	fmt.Fprintln(out, "  - Reference signatures with their size in millimeters")
	fmt.Fprintln(out, "  - Questioned signatures to verify")
	fmt.Fprintln(out, "  - The explanation language and an optional profile")

	return nil
}
