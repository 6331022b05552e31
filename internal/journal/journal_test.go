package journal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyard/akr/internal/kernel"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournal_RunLifecycle(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.EnsureRun(ctx, "run-1", 4096))
	// Idempotent: the second call neither fails nor overwrites.
	require.NoError(t, j.EnsureRun(ctx, "run-1", 99))

	budget, err := j.RunBudget(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, int64(4096), budget)

	require.NoError(t, j.EnsureRun(ctx, "run-2", 30))
	runs, err := j.ListRuns(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"run-1", "run-2"}, runs)
}

func TestJournal_AppendAndReadSteps(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	require.NoError(t, j.EnsureRun(ctx, "run-1", 4096))

	recs := []StepRecord{
		{StepIndex: 0, Epoch: 0, Batch: "[]", Outputs: "[]", ChainHead: "aa", StateHash: "bb"},
		{StepIndex: 1, Epoch: 2, Batch: "[]", Outputs: "[]", ChainHead: "cc", StateHash: "dd"},
	}
	for _, rec := range recs {
		require.NoError(t, j.AppendStep(ctx, "run-1", rec))
	}

	got, err := j.ReadSteps(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, recs, got)

	latest, ok, err := j.LatestStep(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, recs[1], latest)

	// Duplicate step index violates the primary key.
	err = j.AppendStep(ctx, "run-1", recs[1])
	assert.Error(t, err)
}

func TestJournal_LatestStepOnEmptyRun(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	require.NoError(t, j.EnsureRun(ctx, "run-empty", 4096))

	_, ok, err := j.LatestStep(ctx, "run-empty")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEncodeBatch_RoundTripsEveryInputKind(t *testing.T) {
	batch := []kernel.Input{
		kernel.EpochAdvance{NewEpoch: 3, EventID: "adv-3", Nonce: "n-adv"},
		kernel.AuthorityInjection{
			AuthorityID: "auth-1", HolderID: "holder-a", Scope: "res://x",
			Vector: kernel.VectorOf(kernel.Transformation(2)), StartEpoch: 0, ExpiryEpoch: 10,
		},
		kernel.AuthorityRenewalRequest{
			NewAuthorityID: "auth-2", HolderID: "holder-a", Scope: "res://x",
			Vector: kernel.VectorOf(kernel.Transformation(2)), ExpiryEpoch: 20,
			PriorAuthorityID: "auth-1", EventID: "ren-1", AuthorizerID: "reg-1", Nonce: "n-ren",
		},
		kernel.DestructionAuthorizationRequest{
			TargetIDs: []string{"auth-1"}, ConflictID: 1, AuthorizerID: "court-1", Nonce: "n-d",
		},
		kernel.GovernanceActionRequest{
			Type: kernel.GovernanceCreate, RequestID: "gov-1",
			InitiatorIDs: []string{"holder-a"}, Scope: "res://x",
			Params: kernel.GovernanceParams{
				NewAuthorityID: "auth-3", HolderID: "holder-b", Scope: "res://x",
				Vector: kernel.VectorOf(kernel.Transformation(2)), ExpiryEpoch: 30,
			},
		},
		kernel.ActionRequest{
			RequestID: "req-1", HolderID: "holder-a", Scope: "res://x",
			Transformation: kernel.Transformation(2), Epoch: 1, Nonce: "n-req",
		},
	}

	encoded, err := EncodeBatch(batch)
	require.NoError(t, err)
	decoded, err := DecodeBatch(encoded)
	require.NoError(t, err)

	require.Len(t, decoded, len(batch))
	for i := range batch {
		assert.Equal(t, batch[i], decoded[i], "input %d", i)
	}
}

func TestDecodeBatch_UnknownKind(t *testing.T) {
	_, err := DecodeBatch(`[{"kind":"TIME_TRAVEL","input":{}}]`)
	assert.Error(t, err)
}

func TestVerifyRun_DeterministicHistory(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	require.NoError(t, j.EnsureRun(ctx, "run-1", kernel.DefaultEpochBudget))

	k := kernel.New(kernel.WithEpochBudget(kernel.DefaultEpochBudget))
	st := k.Genesis()

	history := [][]kernel.Input{
		{kernel.AuthorityInjection{
			AuthorityID: "auth-1", HolderID: "holder-a", Scope: "res://x",
			Vector: kernel.VectorOf(kernel.Transformation(2)), ExpiryEpoch: 10,
		}},
		{kernel.ActionRequest{
			RequestID: "req-1", HolderID: "holder-a", Scope: "res://x",
			Transformation: kernel.Transformation(2), Epoch: 0, Nonce: "n-1",
		}},
		{kernel.EpochAdvance{NewEpoch: 11, EventID: "adv-11", Nonce: "n-adv"}},
	}
	for i, batch := range history {
		next, outputs, err := k.Step(st, batch)
		require.NoError(t, err)
		st = next

		batchJSON, err := EncodeBatch(batch)
		require.NoError(t, err)
		outputsJSON, err := EncodeOutputs(outputs)
		require.NoError(t, err)
		stateHash, err := st.SnapshotHash()
		require.NoError(t, err)
		require.NoError(t, j.AppendStep(ctx, "run-1", StepRecord{
			StepIndex: int64(i),
			Epoch:     st.Epoch,
			Batch:     batchJSON,
			Outputs:   outputsJSON,
			ChainHead: st.Chain.Head.Hex(),
			StateHash: stateHash.Hex(),
		}))
	}

	report, err := VerifyRun(ctx, j, "run-1")
	require.NoError(t, err)
	assert.True(t, report.Deterministic)
	require.Len(t, report.Steps, len(history))
	for _, sr := range report.Steps {
		assert.True(t, sr.OutputsOK)
		assert.True(t, sr.ChainOK)
		assert.True(t, sr.StateOK)
	}
}

func TestVerifyRun_DetectsTampering(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	require.NoError(t, j.EnsureRun(ctx, "run-1", kernel.DefaultEpochBudget))

	k := kernel.New()
	st, outputs, err := k.Step(k.Genesis(), []kernel.Input{
		kernel.AuthorityInjection{
			AuthorityID: "auth-1", HolderID: "holder-a", Scope: "res://x",
			Vector: kernel.VectorOf(kernel.Transformation(2)), ExpiryEpoch: 10,
		},
	})
	require.NoError(t, err)

	batchJSON, err := EncodeBatch([]kernel.Input{kernel.AuthorityInjection{
		AuthorityID: "auth-1", HolderID: "holder-a", Scope: "res://x",
		Vector: kernel.VectorOf(kernel.Transformation(2)), ExpiryEpoch: 10,
	}})
	require.NoError(t, err)
	outputsJSON, err := EncodeOutputs(outputs)
	require.NoError(t, err)

	// Record a forged state hash.
	require.NoError(t, j.AppendStep(ctx, "run-1", StepRecord{
		StepIndex: 0,
		Epoch:     st.Epoch,
		Batch:     batchJSON,
		Outputs:   outputsJSON,
		ChainHead: st.Chain.Head.Hex(),
		StateHash: "deadbeef",
	}))

	report, err := VerifyRun(ctx, j, "run-1")
	require.NoError(t, err)
	assert.False(t, report.Deterministic)
	require.Len(t, report.Steps, 1)
	assert.True(t, report.Steps[0].ChainOK)
	assert.False(t, report.Steps[0].StateOK)
}
