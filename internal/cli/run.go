package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/halcyard/akr/internal/batch"
	"github.com/halcyard/akr/internal/journal"
	"github.com/halcyard/akr/internal/kernel"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	RunID    string
	Budget   int64
}

// RunSummary is the run command's result payload.
type RunSummary struct {
	RunID          string `json:"run_id"`
	StepsAppended  int    `json:"steps_appended"`
	TotalSteps     int64  `json:"total_steps"`
	Epoch          int64  `json:"epoch"`
	ChainHead      string `json:"chain_head"`
	StateHash      string `json:"state_hash"`
	Deadlocked     bool   `json:"deadlocked"`
	DeadlockCause  string `json:"deadlock_cause"`
	OutputsEmitted int    `json:"outputs_emitted"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <batch-file>...",
		Short: "Submit step batches to a journaled run",
		Long: `Submit one or more batch files to the kernel and journal the results.

If the run already has recorded steps, the kernel state is rebuilt by
replaying them from genesis before the new batches apply. Each new step
is appended to the journal with its outputs, chain head, and state hash.

The run id comes from --run, else the batch file's "run" field, else a
fresh UUID. The epoch budget is pinned on first use of a run id; later
submissions replay under the recorded budget.

Exit codes:
  0 - All batches applied
  1 - A batch invalidated the run (contract violation)
  2 - Command error (bad paths, database errors, etc.)

Examples:
  akr run --db ./akr.db ./batches/epoch-1.yaml
  akr run --db ./akr.db --run audit-2026 --budget 4096 ./batches/*.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatches(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to journal database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id (default: batch file's run field, else a new UUID)")
	cmd.Flags().Int64Var(&opts.Budget, "budget", kernel.DefaultEpochBudget, "per-epoch instruction budget for new runs")

	return cmd
}

func runBatches(opts *RunOptions, paths []string, cmd *cobra.Command) error {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	docs := make([]*batch.Document, 0, len(paths))
	for _, path := range paths {
		doc, err := batch.Load(path)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load batch file "+path, err)
		}
		docs = append(docs, doc)
	}

	runID := opts.RunID
	if runID == "" {
		for _, doc := range docs {
			if doc.Run != "" {
				runID = doc.Run
				break
			}
		}
	}
	if runID == "" {
		runID = uuid.NewString()
	}

	j, err := journal.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer func() {
		if closeErr := j.Close(); closeErr != nil {
			logger.Error("error closing journal", "error", closeErr)
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := j.EnsureRun(ctx, runID, opts.Budget); err != nil {
		return WrapExitError(ExitCommandError, "failed to register run", err)
	}
	budget, err := j.RunBudget(ctx, runID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run budget", err)
	}

	k := kernel.New(
		kernel.WithEpochBudget(budget),
		kernel.WithLogger(logger),
	)

	// Rebuild the run's state by replaying the journal from genesis.
	recorded, err := j.ReadSteps(ctx, runID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}
	st := k.Genesis()
	for _, rec := range recorded {
		b, err := journal.DecodeBatch(rec.Batch)
		if err != nil {
			return WrapExitError(ExitCommandError, "corrupt journal batch", err)
		}
		next, _, err := k.Step(st, b)
		if err != nil {
			return WrapExitError(ExitCommandError, "journaled steps no longer replay", err)
		}
		st = next
	}
	logger.Debug("state rebuilt", "run", runID, "recorded_steps", len(recorded), "epoch", st.Epoch)

	stepIndex := int64(len(recorded))
	appended := 0
	emitted := 0
	for i, doc := range docs {
		batches, err := doc.Batches()
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid batch file "+paths[i], err)
		}
		for _, b := range batches {
			next, outputs, err := k.Step(st, b)
			if err != nil {
				if kernel.IsRunError(err) {
					_ = formatter.Error(string(kernel.RunErrorCodeOf(err)), err.Error(), nil)
					return WrapExitError(ExitFailure, "run invalidated", err)
				}
				return WrapExitError(ExitCommandError, "step failed", err)
			}

			batchJSON, err := journal.EncodeBatch(b)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to encode batch", err)
			}
			outputsJSON, err := journal.EncodeOutputs(outputs)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to encode outputs", err)
			}
			stateHash, err := next.SnapshotHash()
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to hash state", err)
			}
			rec := journal.StepRecord{
				StepIndex: stepIndex,
				Epoch:     next.Epoch,
				Batch:     batchJSON,
				Outputs:   outputsJSON,
				ChainHead: next.Chain.Head.Hex(),
				StateHash: stateHash.Hex(),
			}
			if err := j.AppendStep(ctx, runID, rec); err != nil {
				return WrapExitError(ExitCommandError, "failed to journal step", err)
			}

			st = next
			stepIndex++
			appended++
			emitted += len(outputs)
		}
	}

	stateHash, err := st.SnapshotHash()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to hash state", err)
	}
	summary := RunSummary{
		RunID:          runID,
		StepsAppended:  appended,
		TotalSteps:     stepIndex,
		Epoch:          st.Epoch,
		ChainHead:      st.Chain.Head.Hex(),
		StateHash:      stateHash.Hex(),
		Deadlocked:     st.Deadlocked,
		DeadlockCause:  string(st.Cause),
		OutputsEmitted: emitted,
	}

	if opts.Format == "json" {
		return formatter.JSON(CLIResponse{Status: "ok", Data: summary})
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Run: %s\n", summary.RunID)
	fmt.Fprintf(w, "Steps appended: %d (total %d)\n", summary.StepsAppended, summary.TotalSteps)
	fmt.Fprintf(w, "Epoch: %d\n", summary.Epoch)
	fmt.Fprintf(w, "Outputs emitted: %d\n", summary.OutputsEmitted)
	if summary.Deadlocked {
		fmt.Fprintf(w, "Deadlocked: yes (%s)\n", summary.DeadlockCause)
	}
	fmt.Fprintf(w, "Chain head: %s\n", summary.ChainHead)
	fmt.Fprintf(w, "State hash: %s\n", summary.StateHash)
	return nil
}
