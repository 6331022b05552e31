package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/halcyard/akr/internal/batch"
)

// Scenario defines a conformance test scenario: a full run from genesis
// plus assertions over its trace and final state.
type Scenario struct {
	// Name uniquely identifies this scenario. It is also the golden
	// file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// EpochBudget overrides the per-epoch instruction allowance.
	// Zero means the kernel default. Small values exhaust the budget
	// deliberately.
	EpochBudget int64 `yaml:"epoch_budget,omitempty"`

	// Verified lists the (authorizer, nonce) pairs the external
	// verification primitive accepts. If empty, everything verifies.
	Verified []VerifiedPair `yaml:"verified,omitempty"`

	// Steps are the step batches submitted to the kernel in order.
	Steps []batch.StepSpec `yaml:"steps"`

	// ExpectError names a run-error code the scenario expects. When
	// set, the run must fail with exactly this code; the trace covers
	// the steps completed before the failure.
	ExpectError string `yaml:"expect_error,omitempty"`

	// Assertions validate the emitted trace and the final state.
	// Supported types: trace_contains, trace_order, trace_count,
	// final_state.
	Assertions []Assertion `yaml:"assertions"`
}

// VerifiedPair is one (authorizer, nonce) pair the scenario's verifier
// accepts.
type VerifiedPair struct {
	AuthorizerID string `yaml:"authorizer_id"`
	Nonce        string `yaml:"nonce"`
}

// Assertion validates the trace or the final state.
type Assertion struct {
	// Type selects the assertion:
	//   - "trace_contains": an event of Kind with Event as a subset match
	//   - "trace_order": events of Kinds appear in this relative order
	//   - "trace_count": events of Kind appear exactly Count times
	//   - "final_state": final-state fields match
	Type string `yaml:"type"`

	// Kind is the output event kind (trace_contains, trace_count).
	Kind string `yaml:"kind,omitempty"`

	// Event holds expected event fields (trace_contains). Subset
	// match: only the listed fields are compared.
	Event map[string]any `yaml:"event,omitempty"`

	// Kinds is the expected relative event order (trace_order).
	Kinds []string `yaml:"kinds,omitempty"`

	// Count is the expected number of occurrences (trace_count).
	Count int `yaml:"count,omitempty"`

	// State holds expected final-state fields (final_state):
	// epoch, deadlocked, deadlock_cause, active_authorities, and an
	// optional "authorities" list of {authority_id, status} pairs.
	State map[string]any `yaml:"state,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so that typos fail loudly instead of silently weakening a
// scenario.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 && s.ExpectError == "" {
		return fmt.Errorf("assertions list is required unless expect_error is set")
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertTraceContains:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Kinds) == 0 {
			return fmt.Errorf("assertions[%d]: kinds list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if len(a.State) == 0 {
			return fmt.Errorf("assertions[%d]: state is required for final_state", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
