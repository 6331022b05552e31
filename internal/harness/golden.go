package harness

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// snapshotBytes renders a run's trace in a line-oriented, byte-stable
// form. Event lines carry the exact canonical bytes that fed the hash
// chain, so a golden diff shows precisely which event diverged.
func snapshotBytes(scenarioName string, result *Result) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "scenario: %s\n", scenarioName)
	for _, ev := range result.Trace {
		fmt.Fprintf(&buf, "step %d %s\n", ev.Step, ev.Canonical)
	}
	if result.RunErrCode != "" {
		fmt.Fprintf(&buf, "run_error: %s\n", result.RunErrCode)
	}
	fmt.Fprintf(&buf, "chain_head: %s\n", result.ChainHead)
	fmt.Fprintf(&buf, "state_hash: %s\n", result.StateHash)
	return buf.Bytes()
}

// RunWithGolden executes a scenario and compares its trace snapshot
// against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, snapshotBytes(scenario.Name, result))
	return result, nil
}
