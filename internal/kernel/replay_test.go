package kernel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyard/akr/internal/kernel"
	"github.com/halcyard/akr/internal/testutil"
)

// eventfulHistory exercises every event family: injection, conflict,
// deadlock, destruction, governance creation, renewal, and expiry.
func eventfulHistory() [][]kernel.Input {
	destroyDeny := kernel.DestructionAuthorizationRequest{
		TargetIDs:    []string{"auth-deny"},
		ConflictID:   1,
		AuthorizerID: "court-1",
		Nonce:        "nonce-court-1",
	}
	create := kernel.GovernanceActionRequest{
		Type:         kernel.GovernanceCreate,
		RequestID:    "gov-child",
		InitiatorIDs: []string{"holder-a"},
		Scope:        "res://disputed",
		Params: kernel.GovernanceParams{
			NewAuthorityID: "auth-child",
			HolderID:       "holder-c",
			Scope:          "res://disputed",
			Vector:         kernel.VectorOf(opExec),
			StartEpoch:     0,
			ExpiryEpoch:    4,
		},
	}
	return [][]kernel.Input{
		{
			testutil.Grant("auth-allow", "holder-a", "res://disputed",
				kernel.VectorOf(opExec, kernel.TransformCreateAuthority)),
			testutil.Grant("auth-deny", "holder-b", "res://disputed", 0),
		},
		{testutil.Action("req-1", "holder-a", "res://disputed", opExec)},
		{destroyDeny},
		{create},
		{
			testutil.Action("req-2", "holder-a", "res://disputed", opExec),
			kernel.AuthorityRenewalRequest{
				NewAuthorityID: "auth-renewed",
				HolderID:       "holder-a",
				Scope:          "res://disputed",
				Vector:         kernel.VectorOf(opExec),
				StartEpoch:     0,
				ExpiryEpoch:    100,
				EventID:        "ren-1",
				AuthorizerID:   "registrar-1",
				Nonce:          "nonce-ren-1",
			},
		},
		{testutil.Advance(5)},
	}
}

func TestReplay_ReproducesChainHeadAndStateHash(t *testing.T) {
	k := newKernel(t)
	history := eventfulHistory()

	// First execution, step by step.
	st := k.Genesis()
	var firstOutputs []kernel.Output
	for _, batch := range history {
		next, outputs, err := k.Step(st, batch)
		require.NoError(t, err)
		st = next
		firstOutputs = append(firstOutputs, outputs...)
	}
	firstHash, err := st.SnapshotHash()
	require.NoError(t, err)

	// Replay over the same history: byte-identical chain head, snapshot
	// hash, and output sequence.
	replayed, replayedOutputs, err := kernel.Replay(k, history)
	require.NoError(t, err)

	assert.Equal(t, st.Chain.Head, replayed.Chain.Head)
	replayedHash, err := replayed.SnapshotHash()
	require.NoError(t, err)
	assert.Equal(t, firstHash, replayedHash)

	require.Equal(t, len(firstOutputs), len(replayedOutputs))
	for i := range firstOutputs {
		a, err := kernel.EncodeOutput(firstOutputs[i])
		require.NoError(t, err)
		b, err := kernel.EncodeOutput(replayedOutputs[i])
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
}

func TestReplay_BatchPermutationDoesNotChangeOutcome(t *testing.T) {
	k := newKernel(t)

	base := eventfulHistory()
	permuted := eventfulHistory()
	for _, batch := range permuted {
		for i, j := 0, len(batch)-1; i < j; i, j = i+1, j-1 {
			batch[i], batch[j] = batch[j], batch[i]
		}
	}

	stA, outA, err := kernel.Replay(k, base)
	require.NoError(t, err)
	stB, outB, err := kernel.Replay(k, permuted)
	require.NoError(t, err)

	assert.Equal(t, stA.Chain.Head, stB.Chain.Head)
	hashA, err := stA.SnapshotHash()
	require.NoError(t, err)
	hashB, err := stB.SnapshotHash()
	require.NoError(t, err)
	assert.Equal(t, hashA, hashB)
	assert.Equal(t, len(outA), len(outB))
}

func TestReplay_StopsOnRunError(t *testing.T) {
	k := newKernel(t)

	history := [][]kernel.Input{
		{testutil.Grant("auth-1", "holder-a", "res://x", kernel.VectorOf(opExec))},
		{testutil.Grant("auth-1", "holder-a", "res://x", kernel.VectorOf(opExec))},
	}
	st, outputs, err := kernel.Replay(k, history)
	require.Error(t, err)
	assert.Equal(t, kernel.ErrCodeDuplicateAuthority, kernel.RunErrorCodeOf(err))
	assert.Nil(t, st)
	assert.Nil(t, outputs)
}
