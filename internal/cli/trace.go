package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/halcyard/akr/internal/journal"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string
	Kind     string // optional - filter to one event kind
}

// TraceEvent is a single event in the trace timeline.
type TraceEvent struct {
	StepIndex int64          `json:"step_index"`
	Epoch     int64          `json:"epoch"`
	Kind      string         `json:"kind"`
	Event     map[string]any `json:"event"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalSteps  int            `json:"total_steps"`
	TotalEvents int            `json:"total_events"`
	ByKind      map[string]int `json:"by_kind"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	RunID     string       `json:"run_id"`
	Timeline  []TraceEvent `json:"timeline"`
	Stats     TraceStats   `json:"stats"`
	ChainHead string       `json:"chain_head"`
	StateHash string       `json:"state_hash"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the output timeline of a journaled run",
		Long: `Show the chronological output events of a run: expirations, renewals,
destructions, creations, executions, refusals, and deadlock events,
with the step each was emitted in.

Examples:
  akr trace --db ./akr.db --run audit-2026
  akr trace --db ./akr.db --run audit-2026 --kind ACTION_REFUSED
  akr trace --db ./akr.db --run audit-2026 --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to journal database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id (required)")
	_ = cmd.MarkFlagRequired("run")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "filter to a single event kind")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	j, err := journal.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	recs, err := j.ReadSteps(ctx, opts.RunID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}
	if len(recs) == 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("run %q has no journaled steps", opts.RunID))
	}

	result := TraceResult{
		RunID: opts.RunID,
		Stats: TraceStats{TotalSteps: len(recs), ByKind: make(map[string]int)},
	}
	for _, rec := range recs {
		events, err := journal.DecodeOutputs(rec.Outputs)
		if err != nil {
			return WrapExitError(ExitCommandError, "corrupt journal outputs", err)
		}
		for _, raw := range events {
			var wrapper struct {
				Kind  string         `json:"kind"`
				Event map[string]any `json:"event"`
			}
			if err := json.Unmarshal(raw, &wrapper); err != nil {
				return WrapExitError(ExitCommandError, "corrupt journal event", err)
			}
			result.Stats.TotalEvents++
			result.Stats.ByKind[wrapper.Kind]++
			if opts.Kind != "" && wrapper.Kind != opts.Kind {
				continue
			}
			result.Timeline = append(result.Timeline, TraceEvent{
				StepIndex: rec.StepIndex,
				Epoch:     rec.Epoch,
				Kind:      wrapper.Kind,
				Event:     wrapper.Event,
			})
		}
	}
	last := recs[len(recs)-1]
	result.ChainHead = last.ChainHead
	result.StateHash = last.StateHash

	if opts.Format == "json" {
		formatter := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}
		return formatter.JSON(CLIResponse{Status: "ok", Data: result})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Run: %s (%d steps, %d events)\n\n", result.RunID, result.Stats.TotalSteps, result.Stats.TotalEvents)
	for _, ev := range result.Timeline {
		fields, err := json.Marshal(ev.Event)
		if err != nil {
			return WrapExitError(ExitCommandError, "encode event", err)
		}
		fmt.Fprintf(w, "[step %d, epoch %d] %s %s\n", ev.StepIndex, ev.Epoch, ev.Kind, fields)
	}
	fmt.Fprintf(w, "\nChain head: %s\n", result.ChainHead)
	fmt.Fprintf(w, "State hash: %s\n", result.StateHash)
	return nil
}
