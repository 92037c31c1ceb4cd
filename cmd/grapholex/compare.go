package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grapholex/grapholex/internal/model"
)

// adHocProject is the project ID used by compare unless --project is given.
const adHocProject = "ad-hoc"

// NewCompareCmd creates the compare command.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare --questioned IMAGE:WxH --reference IMAGE:WxH...",
		Short: "Compare questioned signatures with reference signatures",
		Long: `Compare calibrates every image, extracts its features and classifies each
questioned signature against all usable references.

Every image is given as PATH:WIDTHxHEIGHT, where WIDTH and HEIGHT are the
physical size of the signature in millimeters. An image that cannot be
processed is reported as a failure and never stops the comparison.

Examples:
  # Compare one questioned signature with three references
  grapholex compare -q contract.png:48x14 \
      -r ref1.png:50x15 -r ref2.png:51x15 -r ref3.png:49x16

  # Italian explanations in a Markdown report
  grapholex compare --lang it --markdown -o report.md -q q.png:48x14 -r r.png:50x15

  # Store the verdicts in the database
  grapholex compare --save-db --project case-17 -q q.png:48x14 -r r.png:50x15`,
		Args: cobra.NoArgs,
		RunE: runCompareCmd,
	}

	cmd.Flags().StringArrayP("questioned", "q", nil,
		"Questioned signature as PATH:WIDTHxHEIGHT (repeatable)")
	cmd.Flags().StringArrayP("reference", "r", nil,
		"Reference signature as PATH:WIDTHxHEIGHT (repeatable)")
	cmd.Flags().StringP("project", "p", adHocProject,
		"Project ID used when saving to the database")
	cmd.Flags().Bool("save-db", false,
		"Save verdicts and the run to the database")
	addReportFlags(cmd)

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, _ []string) error {
	questioned, err := cmd.Flags().GetStringArray("questioned")
	if err != nil {
		return err
	}
	references, err := cmd.Flags().GetStringArray("reference")
	if err != nil {
		return err
	}
	if len(questioned) == 0 {
		return errors.New("at least one --questioned signature is required")
	}
	if len(references) == 0 {
		return errors.New("at least one --reference signature is required")
	}
	projectID, err := cmd.Flags().GetString("project")
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

	refArgs, err := parseImageArgs(references)
	if err != nil {
		return err
	}
	qArgs, err := parseImageArgs(questioned)
	if err != nil {
		return err
	}

	project := &model.Project{ID: projectID}
	for _, a := range refArgs {
		img, err := a.load(model.RoleReference)
		if err != nil {
			return err
		}
		project.References = append(project.References, img)
	}
	for _, a := range qArgs {
		img, err := a.load(model.RoleQuestioned)
		if err != nil {
			return err
		}
		project.Questioned = append(project.Questioned, img)
	}

	return runProject(cmd, cfg, project)
}

// parseImageArgs parses every PATH:WIDTHxHEIGHT argument before any file
// is read.
func parseImageArgs(in []string) ([]imageArg, error) {
	out := make([]imageArg, 0, len(in))
	for _, s := range in {
		a, err := parseImageArg(s)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
