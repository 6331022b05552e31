package harness

import (
	"encoding/json"
	"fmt"

	"github.com/halcyard/akr/internal/kernel"
)

// TraceEvent is one emitted output in the scenario trace: the step it
// was emitted in, its kind, the decoded event fields, and the exact
// canonical bytes that fed the hash chain.
type TraceEvent struct {
	Step      int
	Kind      string
	Event     map[string]any
	Canonical []byte
}

// Result is the outcome of a scenario run.
type Result struct {
	// Trace holds every emitted output in emission order.
	Trace []TraceEvent

	// Final is the state after the last completed step. On an expected
	// run error it is the state before the failing step.
	Final *kernel.State

	// ChainHead and StateHash are the hex digests over Final.
	ChainHead string
	StateHash string

	// RunErrCode is the run-error code the run failed with, or empty.
	RunErrCode string

	// Errors collects assertion failures. Empty means the scenario
	// passed.
	Errors []string
}

// Passed reports whether all assertions held.
func (r *Result) Passed() bool {
	return len(r.Errors) == 0
}

// AddError records an assertion failure.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// addOutputs decodes a step's outputs into trace events.
func (r *Result) addOutputs(step int, outputs []kernel.Output) error {
	for _, o := range outputs {
		data, err := kernel.EncodeOutput(o)
		if err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		var wrapper struct {
			Kind  string         `json:"kind"`
			Event map[string]any `json:"event"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return fmt.Errorf("decode output: %w", err)
		}
		r.Trace = append(r.Trace, TraceEvent{
			Step:      step,
			Kind:      wrapper.Kind,
			Event:     wrapper.Event,
			Canonical: data,
		})
	}
	return nil
}
