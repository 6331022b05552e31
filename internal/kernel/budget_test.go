package kernel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyard/akr/internal/kernel"
	"github.com/halcyard/akr/internal/testutil"
)

func TestBudget_ExhaustionIsDeterministicWithinBatch(t *testing.T) {
	// One stored authority prices an admissibility evaluation at 8 units;
	// 20 units admit exactly two of three identical-cost actions.
	k := newKernel(t, kernel.WithEpochBudget(20))

	st, _, err := k.Step(k.Genesis(), []kernel.Input{
		testutil.Grant("auth-1", "holder-a", "res://x", kernel.VectorOf(opExec)),
	})
	require.NoError(t, err)

	st, outputs, err := k.Step(st, []kernel.Input{
		testutil.Action("req-a", "holder-a", "res://x", opExec),
		testutil.Action("req-b", "holder-a", "res://x", opExec),
		testutil.Action("req-c", "holder-a", "res://x", opExec),
	})
	require.NoError(t, err)

	var executed, refused int
	for _, out := range outputs {
		switch o := out.(type) {
		case kernel.ActionExecuted:
			executed++
		case kernel.ActionRefused:
			refused++
			assert.Equal(t, kernel.RefuseBoundExhausted, o.Reason)
		}
	}
	assert.Equal(t, 2, executed)
	assert.Equal(t, 1, refused)
	// The failed charge deducts nothing.
	assert.Equal(t, int64(4), st.Budget)
}

func TestBudget_RefusedChargeCommitsNoConflict(t *testing.T) {
	// Two covering authorities price the evaluation at 9; a 5-unit
	// allowance refuses the action before disagreement is ever examined,
	// so no conflict record and no deadlock appear.
	k := newKernel(t, kernel.WithEpochBudget(5))

	st, _, err := k.Step(k.Genesis(), []kernel.Input{
		testutil.Grant("auth-allow", "holder-a", "res://x", kernel.VectorOf(opExec)),
		testutil.Grant("auth-deny", "holder-b", "res://x", 0),
	})
	require.NoError(t, err)

	st, outputs, err := k.Step(st, []kernel.Input{
		testutil.Action("req-1", "holder-a", "res://x", opExec),
	})
	require.NoError(t, err)

	require.Equal(t, []kernel.OutputKind{kernel.OutActionRefused}, kinds(outputs))
	assert.Equal(t, kernel.RefuseBoundExhausted, outputs[0].(kernel.ActionRefused).Reason)
	_, ok := st.Conflict(1)
	assert.False(t, ok, "a refused charge leaves no partial evaluation behind")
	assert.False(t, st.Deadlocked)
}

func TestBudget_BoundsGovernanceChains(t *testing.T) {
	// Each successful creation grows the table and with it the price of
	// the next one; a fixed allowance cuts the chain off lawfully.
	k := newKernel(t, kernel.WithEpochBudget(30))

	st, _, err := k.Step(k.Genesis(), []kernel.Input{
		testutil.Grant("auth-root", "holder-root", "res://governed",
			kernel.VectorOf(kernel.TransformCreateAuthority)),
	})
	require.NoError(t, err)

	var created, refused int
	for i := 0; i < 5; i++ {
		req := createRequest("auth-gen-"+string(rune('a'+i)), kernel.VectorOf(kernel.TransformCreateAuthority))
		var outputs []kernel.Output
		st, outputs, err = k.Step(st, []kernel.Input{req})
		require.NoError(t, err)
		switch out := outputs[0].(type) {
		case kernel.AuthorityCreated:
			created++
		case kernel.ActionRefused:
			require.Equal(t, kernel.RefuseBoundExhausted, out.Reason)
			refused++
		}
	}

	assert.Greater(t, created, 0, "the first links of the chain fit")
	assert.Greater(t, refused, 0, "the allowance cuts the chain off")
}

func TestBudget_CarriesAcrossStepsWithinEpoch(t *testing.T) {
	k := newKernel(t, kernel.WithEpochBudget(9))

	st, _, err := k.Step(k.Genesis(), []kernel.Input{
		testutil.Grant("auth-1", "holder-a", "res://x", kernel.VectorOf(opExec)),
	})
	require.NoError(t, err)
	require.Equal(t, int64(9), st.Budget, "injections are not charged")

	st, _, err = k.Step(st, []kernel.Input{
		testutil.Action("req-1", "holder-a", "res://x", opExec),
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), st.Budget)

	// A later step in the same epoch inherits the drained allowance.
	_, outputs, err := k.Step(st, []kernel.Input{
		testutil.Action("req-2", "holder-a", "res://x", opExec),
	})
	require.NoError(t, err)
	require.Equal(t, kernel.OutActionRefused, outputs[0].Kind())
	assert.Equal(t, kernel.RefuseBoundExhausted, outputs[0].(kernel.ActionRefused).Reason)
}
