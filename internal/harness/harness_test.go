package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_AllScenarioFixtures(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		path := path
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Passed(), "failures: %v", result.Errors)
		})
	}
}

func TestRunWithGolden_TraceSnapshots(t *testing.T) {
	for _, name := range []string{
		"conflict_declares_deadlock",
		"eager_expiry",
		"amplification_blocked",
	} {
		name := name
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
			require.NoError(t, err)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Passed(), "failures: %v", result.Errors)
		})
	}
}

func TestRun_ExpectedErrorScenario(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "duplicate_injection_error.yaml"))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Passed(), "failures: %v", result.Errors)
	assert.Equal(t, "DUPLICATE_AUTHORITY_ID", result.RunErrCode)
}

func TestRun_UnexpectedErrorFailsScenario(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "duplicate_injection_error.yaml"))
	require.NoError(t, err)
	scenario.ExpectError = ""

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Passed())
}

func writeScenarioFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_RejectsUnknownFields(t *testing.T) {
	path := writeScenarioFile(t, `
name: typo
description: a field name typo must not silently pass
stepps:
  - actions: []
assertions:
  - type: trace_count
    kind: ACTION_EXECUTED
    count: 0
`)
	_, err := LoadScenario(path)
	assert.Error(t, err)
}

func TestLoadScenario_RequiresAssertionsOrExpectedError(t *testing.T) {
	path := writeScenarioFile(t, `
name: bare
description: steps without assertions prove nothing
steps:
  - actions: []
`)
	_, err := LoadScenario(path)
	assert.Error(t, err)
}

func TestLoadScenario_RejectsUnknownAssertionType(t *testing.T) {
	path := writeScenarioFile(t, `
name: bad-assert
description: unknown assertion types fail at load
steps:
  - actions: []
assertions:
  - type: trace_vibes
    kind: ACTION_EXECUTED
`)
	_, err := LoadScenario(path)
	assert.Error(t, err)
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	result := &Result{
		Trace: []TraceEvent{
			{Step: 0, Kind: "ACTION_EXECUTED", Event: map[string]any{"request_id": "req-1"}},
		},
	}

	failures := EvaluateAssertions(result, []Assertion{
		{Type: AssertTraceContains, Kind: "ACTION_EXECUTED", Event: map[string]any{"request_id": "req-2"}},
		{Type: AssertTraceCount, Kind: "ACTION_EXECUTED", Count: 2},
		{Type: AssertTraceOrder, Kinds: []string{"ACTION_REFUSED", "ACTION_EXECUTED"}},
	})
	assert.Len(t, failures, 3)
}

func TestMatchValue_NumericNormalization(t *testing.T) {
	// YAML assertions decode numbers as int, kernel events decode from
	// JSON as float64; both sides normalize.
	assert.True(t, matchValue(2, float64(2)))
	assert.True(t, matchValue(int64(7), 7))
	assert.False(t, matchValue(2, float64(2.5)))
	assert.True(t, matchValue([]any{"a", 1}, []any{"a", float64(1)}))
	assert.False(t, matchValue("x", 1))
}
