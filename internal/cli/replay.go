package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/halcyard/akr/internal/journal"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - single run only
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs             []journal.RunReport `json:"runs"`
	TotalRuns        int                 `json:"total_runs"`
	AllDeterministic bool                `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay journaled runs and verify determinism",
		Long: `Re-run every journaled batch from genesis and compare the recomputed
outputs, chain heads, and state hashes against the journal, byte for
byte. Any divergence means the journal was altered or the kernel is not
deterministic.

Exit codes:
  0 - All runs replay identically
  1 - Divergence detected
  2 - Command error (database not found, etc.)

Examples:
  akr replay --db ./akr.db
  akr replay --db ./akr.db --run audit-2026
  akr replay --db ./akr.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to journal database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "verify a specific run only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	j, err := journal.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	var runIDs []string
	if opts.RunID != "" {
		runIDs = []string{opts.RunID}
	} else {
		runIDs, err = j.ListRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
	}

	result := ReplayResult{AllDeterministic: true, TotalRuns: len(runIDs)}
	if len(runIDs) == 0 {
		if opts.Format == "json" {
			result.Runs = []journal.RunReport{}
			return outputReplayJSON(cmd, result)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No runs found in journal.")
		return nil
	}

	for _, runID := range runIDs {
		report, err := journal.VerifyRun(ctx, j, runID)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to verify run %s", runID), err)
		}
		result.Runs = append(result.Runs, report)
		if !report.Deterministic {
			result.AllDeterministic = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}
	return outputReplayText(cmd, result, opts.Verbose)
}

func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	formatter := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}

	response := CLIResponse{Status: "ok", Data: result}
	if !result.AllDeterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_DETERMINISM",
			Message: "replay verification failed",
		}
	}
	if err := formatter.JSON(response); err != nil {
		return err
	}
	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "replay verification failed")
	}
	return nil
}

func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replay Summary: %d run(s)\n\n", result.TotalRuns)
	for _, run := range result.Runs {
		status := "✓"
		if !run.Deterministic {
			status = "✗"
		}
		fmt.Fprintf(w, "%s Run: %s (%d steps)\n", status, run.RunID, len(run.Steps))

		for _, step := range run.Steps {
			if !verbose && step.OutputsOK && step.ChainOK && step.StateOK {
				continue
			}
			fmt.Fprintf(w, "  step %d: outputs=%v chain=%v state=%v\n",
				step.StepIndex, step.OutputsOK, step.ChainOK, step.StateOK)
		}
		fmt.Fprintln(w)
	}

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All runs replay identically")
		return nil
	}
	fmt.Fprintln(w, "✗ Replay verification failed")
	return NewExitError(ExitFailure, "replay verification failed")
}
