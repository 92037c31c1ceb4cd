package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grapholex/grapholex/internal/config"
	"github.com/grapholex/grapholex/internal/database"
	"github.com/grapholex/grapholex/internal/model"
)

// noVerdictsMessage is shown for a run without verdicts.
const noVerdictsMessage = "No verdicts"

// NewHistoryCmd creates the history command.
// This command shows the runs and verdicts stored in the database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [project]",
		Short: "Show stored runs and verdicts",
		Long: `History lists the projects, runs and verdicts stored in the database by
'grapholex compare --save-db' and 'grapholex batch --save-db'.

Examples:
  # List all projects in the database
  grapholex history

  # List the runs of a project, newest first
  grapholex history case-17

  # Show the current verdict of every questioned signature of a project
  grapholex history --verdicts case-17

  # Render a stored run again, as Markdown
  grapholex history --run 12 --markdown case-17`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().Int64("run", 0, "Render the stored run with this ID (use history <project> to see IDs)")
	cmd.Flags().Bool("verdicts", false, "List the current verdicts of the project")
	addReportFlags(cmd)

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.DBDir == "" {
		return config.ErrNoDBDir
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	logger := setupLogger(cfg.Verbose)

	runID, err := cmd.Flags().GetInt64("run")
	if err != nil {
		return err
	}
	listVerdicts, err := cmd.Flags().GetBool("verdicts")
	if err != nil {
		return err
	}

	var projectID string
	if len(args) == 1 {
		projectID = args[0]
	}
	if listVerdicts && projectID == "" {
		return fmt.Errorf("--verdicts needs a project ID")
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	switch {
	case runID > 0:
		res, err := db.GetRun(ctx, runID)
		if err != nil {
			return err
		}
		if res == nil {
			return fmt.Errorf("run %d not found", runID)
		}
		if projectID != "" && res.ProjectID != projectID {
			return fmt.Errorf("run %d belongs to %s, not %s", runID, res.ProjectID, projectID)
		}
		prof, err := config.LoadProfile(cfg.ProfilePath)
		if err != nil {
			return fmt.Errorf("failed to load profile: %w", err)
		}
		return writeResult(cmd, cfg, newEngine(cfg, prof, nil, logger), res)
	case listVerdicts:
		return listProjectVerdicts(ctx, out, db, projectID, cfg)
	case projectID != "":
		return listRunHistory(ctx, out, db, projectID)
	default:
		return listProjects(ctx, out, db)
	}
}

// listProjects lists all projects that have runs in the database.
func listProjects(ctx context.Context, w io.Writer, db *database.Store) error {
	projects, err := db.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}

	if len(projects) == 0 {
		fmt.Fprintln(w, "No projects found in the database.")
		fmt.Fprintln(w, "\nUse 'grapholex batch --save-db' to store a run.")
		return nil
	}

	fmt.Fprintf(w, "Projects (%d):\n\n", len(projects))
	for _, p := range projects {
		fmt.Fprintf(w, "  • %s\n", p)
	}
	fmt.Fprintln(w, "\nUse 'grapholex history <project>' to see the runs of a project.")
	return nil
}

// listRunHistory lists all runs of a project.
func listRunHistory(ctx context.Context, w io.Writer, db *database.Store, projectID string) error {
	runs, err := db.History(ctx, projectID)
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintf(w, "No runs found for %s\n", projectID)
		return nil
	}

	fmt.Fprintf(w, "Runs of %s (%d):\n\n", projectID, len(runs))
	fmt.Fprintf(w, "  %-6s  %-20s  %-8s  %-8s  %s\n", "ID", "Date", "Profile", "Failures", "Verdicts")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 72))

	for _, meta := range runs {
		fmt.Fprintf(w, "  %-6d  %-20s  %-8s  %-8d  %s\n",
			meta.ID,
			meta.Timestamp.Format("2006-01-02 15:04:05"),
			meta.ProfileVersion,
			meta.FailureCount,
			formatVerdictSummary(meta.VerdictCounts),
		)
	}

	fmt.Fprintln(w, "\nUse 'grapholex history --run <id>' to render a run again.")
	return nil
}

// listProjectVerdicts lists the current verdict of each questioned
// signature of a project.
func listProjectVerdicts(ctx context.Context, w io.Writer, db *database.Store, projectID string, cfg *config.Config) error {
	records, err := db.Verdicts(ctx, projectID)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintf(w, "No verdicts found for %s\n", projectID)
		return nil
	}

	labels := newEngine(cfg, nil, nil, nil).Classifier()
	fmt.Fprintf(w, "Verdicts of %s (%d):\n\n", projectID, len(records))
	for _, rec := range records {
		v := rec.Verdict
		fmt.Fprintf(w, "  %-38s  %-26s  sim %3.0f%%  nat %3.0f%%  %s\n",
			v.QuestionedID,
			labels.Label(v.Category),
			v.AggregateSimilarity*100,
			v.Naturalness*100,
			rec.Timestamp.Format("2006-01-02 15:04"),
		)
	}
	return nil
}

// formatVerdictSummary formats verdict counts in decision-table order,
// for example "authentic:2 suspicious:1".
func formatVerdictSummary(counts map[string]int) string {
	if len(counts) == 0 {
		return noVerdictsMessage
	}

	order := make(map[string]int, len(model.VerdictCategories))
	for i, c := range model.VerdictCategories {
		order[c.String()] = i
	}
	keys := make([]string, 0, len(counts))
	for k, n := range counts {
		if n > 0 {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return noVerdictsMessage
	}
	sort.Slice(keys, func(i, j int) bool { return order[keys[i]] < order[keys[j]] })

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s:%d", k, counts[k])
	}
	return strings.Join(parts, " ")
}
