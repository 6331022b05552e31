package harness

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/halcyard/akr/internal/batch"
	"github.com/halcyard/akr/internal/kernel"
	"github.com/halcyard/akr/internal/testutil"
)

// Run executes a scenario against a fresh kernel from genesis and
// evaluates its assertions. Every trace event is kernel-produced.
func Run(scenario *Scenario) (*Result, error) {
	var opts []kernel.Option
	opts = append(opts, kernel.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if scenario.EpochBudget > 0 {
		opts = append(opts, kernel.WithEpochBudget(scenario.EpochBudget))
	}
	if len(scenario.Verified) > 0 {
		v := testutil.NewScriptedVerifier()
		for _, pair := range scenario.Verified {
			v.Allow(pair.AuthorizerID, pair.Nonce)
		}
		opts = append(opts, kernel.WithVerifier(v))
	}
	k := kernel.New(opts...)

	doc := batch.Document{Steps: scenario.Steps}
	batches, err := doc.Batches()
	if err != nil {
		return nil, fmt.Errorf("scenario steps: %w", err)
	}

	result := &Result{}
	st := k.Genesis()
	for i, b := range batches {
		next, outputs, err := k.Step(st, b)
		if err != nil {
			if !kernel.IsRunError(err) {
				return nil, fmt.Errorf("step %d: %w", i, err)
			}
			result.RunErrCode = string(kernel.RunErrorCodeOf(err))
			if scenario.ExpectError == "" {
				result.AddError(fmt.Sprintf("step %d: unexpected run error %s: %v", i, result.RunErrCode, err))
			}
			break
		}
		if err := result.addOutputs(i, outputs); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		st = next
	}

	if scenario.ExpectError != "" && result.RunErrCode != scenario.ExpectError {
		got := result.RunErrCode
		if got == "" {
			got = "none"
		}
		result.AddError(fmt.Sprintf("expected run error %s, got %s", scenario.ExpectError, got))
	}

	result.Final = st
	result.ChainHead = st.Chain.Head.Hex()
	stateHash, err := st.SnapshotHash()
	if err != nil {
		return nil, fmt.Errorf("state hash: %w", err)
	}
	result.StateHash = stateHash.Hex()

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}
