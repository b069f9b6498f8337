package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/flaghunt/internal/config"
	"github.com/nao1215/flaghunt/internal/database"
	"github.com/nao1215/flaghunt/internal/model"
	"github.com/nao1215/flaghunt/internal/report"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
// This command inspects hunt results stored in the history database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [server]",
		Short: "Inspect hunts saved to the history database",
		Long: `History lists and inspects hunt results saved with 'flaghunt hunt --save'.

Without arguments it lists every server that has stored runs. With a
server it lists that server's run history, newest first.

Examples:
  # List all servers with stored runs
  flaghunt history

  # List run history for a server
  flaghunt history proj5.3700.network

  # Show the most recent run in full
  flaghunt history proj5.3700.network --last

  # Show a specific run by ID (use the history listing to find IDs)
  flaghunt history --id 7

  # Print every flag ever captured against a server, one per line
  flaghunt history proj5.3700.network --flags

  # Dump all runs for a server as JSON
  flaghunt history proj5.3700.network --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().Bool("last", false,
		"Show the most recent run for the server in full")
	cmd.Flags().Int64("id", 0,
		"Show the run with the given database ID")
	cmd.Flags().Bool("flags", false,
		"Print every flag captured against the server, one per line")
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().Int("limit", 0,
		"Cap the number of runs listed (0 = no cap)")
	cmd.Flags().String("db-dir", "",
		"Directory holding the history database (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	runID, err := cmd.Flags().GetInt64("id")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	// --id works without a server argument: IDs are unique across the
	// whole database.
	if runID > 0 {
		return showRunByID(ctx, out, db, runID, jsonOutput)
	}

	if len(args) == 0 {
		return listHuntedTargets(ctx, out, db)
	}
	server := args[0]

	showFlags, err := cmd.Flags().GetBool("flags")
	if err != nil {
		return err
	}
	if showFlags {
		return listTargetFlags(ctx, out, db, server)
	}

	showLast, err := cmd.Flags().GetBool("last")
	if err != nil {
		return err
	}
	if showLast {
		return showLatestRun(ctx, out, db, server, jsonOutput)
	}

	if jsonOutput {
		return dumpRunsJSON(ctx, out, db, server)
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	return listRunHistory(ctx, out, db, server, limit)
}

// listHuntedTargets lists every server that has stored runs.
func listHuntedTargets(ctx context.Context, out io.Writer, db *database.HistoryDB) error {
	targets, err := db.ListTargets(ctx)
	if err != nil {
		return fmt.Errorf("failed to list targets: %w", err)
	}

	if len(targets) == 0 {
		fmt.Fprintln(out, "No saved runs found in the database.")
		fmt.Fprintln(out, "\nUse 'flaghunt hunt --save' to store a run.")
		return nil
	}

	fmt.Fprintf(out, "Hunted servers (%d):\n\n", len(targets))
	for _, target := range targets {
		fmt.Fprintf(out, "  • %s\n", target)
	}
	fmt.Fprintln(out, "\nUse 'flaghunt history <server>' to see a server's run history.")

	return nil
}

// listRunHistory lists stored run metadata for a server, newest first.
func listRunHistory(ctx context.Context, out io.Writer, db *database.HistoryDB, server string, limit int) error {
	runs, err := db.RunHistory(ctx, server)
	if err != nil {
		return fmt.Errorf("failed to get run history: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintf(out, "No saved runs found for %s\n", server)
		fmt.Fprintln(out, "\nUse 'flaghunt hunt --save' to store a run against this server.")
		return nil
	}

	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}

	fmt.Fprintf(out, "Run history for %s (%d runs):\n\n", server, len(runs))
	fmt.Fprintf(out, "  %-6s  %-20s  %-16s  %-10s  %s\n", "ID", "Date", "Username", "Flags", "Termination")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 70))

	for _, meta := range runs {
		fmt.Fprintf(out, "  %-6d  %-20s  %-16s  %-10d  %s\n",
			meta.ID,
			meta.Timestamp.Format("2006-01-02 15:04:05"),
			meta.Username,
			meta.FlagCount,
			meta.Termination,
		)
	}

	fmt.Fprintln(out, "\nUse 'flaghunt history --id <id>' to see a run in full.")

	return nil
}

// listTargetFlags prints every flag ever captured against a server,
// one per line, deduplicated across runs.
func listTargetFlags(ctx context.Context, out io.Writer, db *database.HistoryDB, server string) error {
	flags, err := db.FlagsForTarget(ctx, server)
	if err != nil {
		return fmt.Errorf("failed to get flags: %w", err)
	}

	for _, flag := range flags {
		fmt.Fprintln(out, flag)
	}

	return nil
}

// showLatestRun shows the most recent run for a server in full.
func showLatestRun(ctx context.Context, out io.Writer, db *database.HistoryDB, server string, jsonOutput bool) error {
	rep, err := db.LatestRun(ctx, server)
	if err != nil {
		return fmt.Errorf("failed to get latest run: %w", err)
	}
	if rep == nil {
		return fmt.Errorf("no saved runs found for %s", server)
	}

	return writeStoredRun(out, rep, jsonOutput)
}

// showRunByID shows a single stored run in full.
func showRunByID(ctx context.Context, out io.Writer, db *database.HistoryDB, id int64, jsonOutput bool) error {
	rep, err := db.RunByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get run %d: %w", id, err)
	}
	if rep == nil {
		return fmt.Errorf("run with ID %d not found", id)
	}

	return writeStoredRun(out, rep, jsonOutput)
}

// writeStoredRun renders one stored run, either as the human summary
// or as pretty JSON.
func writeStoredRun(out io.Writer, rep *model.CrawlReport, jsonOutput bool) error {
	var w report.Writer
	if jsonOutput {
		w = report.NewFullJSONWriter(out, getVersion(), report.WithPrettyPrint())
	} else {
		w = report.NewSummaryWriter(out)
	}

	_, err := w.Write(rep)
	return err
}

// dumpRunsJSON dumps every stored run for a server as a pretty JSON
// stream, newest first.
func dumpRunsJSON(ctx context.Context, out io.Writer, db *database.HistoryDB, server string) error {
	reports, err := db.RunsForTarget(ctx, server)
	if err != nil {
		return fmt.Errorf("failed to get runs: %w", err)
	}
	if len(reports) == 0 {
		return errors.New("no saved runs found for " + server)
	}

	w := report.NewFullJSONWriter(out, getVersion(), report.WithPrettyPrint())
	for _, rep := range reports {
		if _, err := w.Write(rep); err != nil {
			return err
		}
	}

	return nil
}
