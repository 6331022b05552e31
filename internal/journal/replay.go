package journal

import (
	"context"
	"fmt"

	"github.com/halcyard/akr/internal/kernel"
)

// StepReport is the verification result for one recorded step.
type StepReport struct {
	StepIndex int64 `json:"step_index"`
	Epoch     int64 `json:"epoch"`
	OutputsOK bool  `json:"outputs_ok"`
	ChainOK   bool  `json:"chain_ok"`
	StateOK   bool  `json:"state_ok"`
}

// RunReport is the verification result for a whole run.
type RunReport struct {
	RunID         string       `json:"run_id"`
	Steps         []StepReport `json:"steps"`
	Deterministic bool         `json:"deterministic"`
}

// VerifyRun replays a run's recorded batches from genesis and compares
// the recomputed outputs, chain heads, and state hashes against the
// journal, byte for byte. The kernel is rebuilt from the run's recorded
// epoch budget so the exhaustion points replay identically.
//
// A mismatch anywhere means either the journal was tampered with or the
// kernel is not deterministic; both are fatal findings, not drift.
func VerifyRun(ctx context.Context, j *Journal, runID string, opts ...kernel.Option) (RunReport, error) {
	budget, err := j.RunBudget(ctx, runID)
	if err != nil {
		return RunReport{}, err
	}
	recs, err := j.ReadSteps(ctx, runID)
	if err != nil {
		return RunReport{}, err
	}

	k := kernel.New(append([]kernel.Option{kernel.WithEpochBudget(budget)}, opts...)...)
	st := k.Genesis()

	report := RunReport{RunID: runID, Deterministic: true}
	for _, rec := range recs {
		batch, err := DecodeBatch(rec.Batch)
		if err != nil {
			return RunReport{}, fmt.Errorf("step %d: %w", rec.StepIndex, err)
		}
		next, outputs, err := k.Step(st, batch)
		if err != nil {
			return RunReport{}, fmt.Errorf("step %d replay: %w", rec.StepIndex, err)
		}
		st = next

		outputsJSON, err := EncodeOutputs(outputs)
		if err != nil {
			return RunReport{}, fmt.Errorf("step %d: %w", rec.StepIndex, err)
		}
		stateHash, err := st.SnapshotHash()
		if err != nil {
			return RunReport{}, fmt.Errorf("step %d snapshot: %w", rec.StepIndex, err)
		}

		sr := StepReport{
			StepIndex: rec.StepIndex,
			Epoch:     rec.Epoch,
			OutputsOK: outputsJSON == rec.Outputs,
			ChainOK:   st.Chain.Head.Hex() == rec.ChainHead,
			StateOK:   stateHash.Hex() == rec.StateHash,
		}
		if !sr.OutputsOK || !sr.ChainOK || !sr.StateOK {
			report.Deterministic = false
		}
		report.Steps = append(report.Steps, sr)
	}
	return report, nil
}
