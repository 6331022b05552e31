package kernel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyard/akr/internal/kernel"
	"github.com/halcyard/akr/internal/testutil"
)

func renewalOf(prior, newID string) kernel.AuthorityRenewalRequest {
	return kernel.AuthorityRenewalRequest{
		NewAuthorityID:   newID,
		HolderID:         "holder-a",
		Scope:            "res://ledger",
		Vector:           kernel.VectorOf(opExec),
		StartEpoch:       0,
		ExpiryEpoch:      200,
		PriorAuthorityID: prior,
		EventID:          "ren-" + newID,
		AuthorizerID:     "registrar-1",
		Nonce:            "nonce-" + newID,
	}
}

func TestRenewal_CreatesLinkedRecord(t *testing.T) {
	k := newKernel(t)

	st, _, err := k.Step(k.Genesis(), []kernel.Input{
		testutil.Grant("auth-old", "holder-a", "res://ledger", kernel.VectorOf(opExec)),
	})
	require.NoError(t, err)

	st, outputs, err := k.Step(st, []kernel.Input{renewalOf("auth-old", "auth-new")})
	require.NoError(t, err)

	require.Equal(t, []kernel.OutputKind{kernel.OutAuthorityRenewed}, kinds(outputs))
	renewed := outputs[0].(kernel.AuthorityRenewed)
	assert.Equal(t, "auth-new", renewed.NewAuthorityID)
	assert.Equal(t, "auth-old", renewed.PriorAuthorityID)
	assert.Equal(t, "ren-auth-new", renewed.EventID)

	rec, ok := st.Authority("auth-new")
	require.True(t, ok)
	assert.Equal(t, "auth-old", rec.Lineage)
}

func TestRenewal_DoesNotResurrectExpiredPrior(t *testing.T) {
	k := newKernel(t)

	inj := testutil.Grant("auth-old", "holder-a", "res://ledger", kernel.VectorOf(opExec))
	inj.ExpiryEpoch = 2
	st, _, err := k.Step(k.Genesis(), []kernel.Input{inj})
	require.NoError(t, err)
	st, _, err = k.Step(st, []kernel.Input{testutil.Advance(3)})
	require.NoError(t, err)
	prior, _ := st.Authority("auth-old")
	require.Equal(t, kernel.StatusExpired, prior.Status)

	st, outputs, err := k.Step(st, []kernel.Input{renewalOf("auth-old", "auth-new")})
	require.NoError(t, err)
	require.Equal(t, kernel.OutAuthorityRenewed, outputs[0].Kind())

	// The ancestor stays dead; the new record stands on its own.
	prior, _ = st.Authority("auth-old")
	assert.Equal(t, kernel.StatusExpired, prior.Status)
	renewedRec, _ := st.Authority("auth-new")
	assert.Equal(t, kernel.StatusActive, renewedRec.Status)
}

func TestRenewal_WithoutPriorIsPlainIssuance(t *testing.T) {
	k := newKernel(t)

	st, outputs, err := k.Step(k.Genesis(), []kernel.Input{renewalOf("", "auth-fresh")})
	require.NoError(t, err)

	require.Equal(t, kernel.OutAuthorityRenewed, outputs[0].Kind())
	assert.Empty(t, outputs[0].(kernel.AuthorityRenewed).PriorAuthorityID)
	rec, ok := st.Authority("auth-fresh")
	require.True(t, ok)
	assert.Empty(t, rec.Lineage)
}

func TestRenewal_UnknownPriorInvalidatesRun(t *testing.T) {
	k := newKernel(t)

	_, _, err := k.Step(k.Genesis(), []kernel.Input{renewalOf("auth-ghost", "auth-new")})
	require.Error(t, err)
	assert.Equal(t, kernel.ErrCodeUnknownPrior, kernel.RunErrorCodeOf(err))
}

func TestRenewal_DuplicateNewIDInvalidatesRun(t *testing.T) {
	k := newKernel(t)

	st, _, err := k.Step(k.Genesis(), []kernel.Input{
		testutil.Grant("auth-old", "holder-a", "res://ledger", kernel.VectorOf(opExec)),
	})
	require.NoError(t, err)

	_, _, err = k.Step(st, []kernel.Input{renewalOf("auth-old", "auth-old")})
	require.Error(t, err)
	assert.Equal(t, kernel.ErrCodeDuplicateAuthority, kernel.RunErrorCodeOf(err))
}

func TestRenewal_VerificationFailureInvalidatesRun(t *testing.T) {
	k := newKernel(t, kernel.WithVerifier(testutil.NewScriptedVerifier()))

	_, _, err := k.Step(k.Genesis(), []kernel.Input{renewalOf("", "auth-new")})
	require.Error(t, err)
	assert.Equal(t, kernel.ErrCodeVerificationFailed, kernel.RunErrorCodeOf(err))
}
