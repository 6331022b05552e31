package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyard/akr/internal/kernel"
)

const validBatchYAML = `
run: demo
steps:
  - injections:
      - authority_id: auth-1
        holder_id: holder-a
        scope: res://ledger
        vector: [EXECUTE_OP0, CREATE_AUTHORITY]
        start_epoch: 0
        expiry_epoch: 10
  - epoch_advance:
      new_epoch: 2
      event_id: adv-2
      nonce: n-adv
    actions:
      - request_id: req-1
        holder_id: holder-a
        scope: res://ledger
        transformation_type: EXECUTE_OP0
        epoch: 2
        nonce: n-req
  - destructions:
      - target_ids: [auth-1]
        conflict_id: 1
        authorizer_id: court-1
        nonce: n-court
    governance:
      - type: CREATE_AUTHORITY
        request_id: gov-1
        initiator_ids: [holder-a]
        scope: res://ledger
        params:
          new_authority_id: auth-2
          holder_id: holder-b
          scope: res://ledger
          vector: [EXECUTE_OP0]
          expiry_epoch: 20
`

func TestParse_ValidDocument(t *testing.T) {
	doc, err := Parse([]byte(validBatchYAML))
	require.NoError(t, err)

	assert.Equal(t, "demo", doc.Run)
	require.Len(t, doc.Steps, 3)
	require.Len(t, doc.Steps[0].Injections, 1)
	assert.Equal(t, []string{"EXECUTE_OP0", "CREATE_AUTHORITY"}, doc.Steps[0].Injections[0].Vector)
	require.NotNil(t, doc.Steps[1].EpochAdvance)
	assert.Equal(t, int64(2), doc.Steps[1].EpochAdvance.NewEpoch)
}

func TestBatches_ConvertsToKernelInputs(t *testing.T) {
	doc, err := Parse([]byte(validBatchYAML))
	require.NoError(t, err)

	batches, err := doc.Batches()
	require.NoError(t, err)
	require.Len(t, batches, 3)

	require.Len(t, batches[0], 1)
	inj, ok := batches[0][0].(kernel.AuthorityInjection)
	require.True(t, ok)
	assert.Equal(t, "auth-1", inj.AuthorityID)
	assert.True(t, inj.Vector.Has(kernel.TransformCreateAuthority))
	assert.True(t, inj.Vector.Has(kernel.Transformation(2)))

	require.Len(t, batches[1], 2)
	_, ok = batches[1][0].(kernel.EpochAdvance)
	assert.True(t, ok)
	act, ok := batches[1][1].(kernel.ActionRequest)
	require.True(t, ok)
	assert.Equal(t, kernel.Transformation(2), act.Transformation)

	require.Len(t, batches[2], 2)
	_, ok = batches[2][0].(kernel.DestructionAuthorizationRequest)
	assert.True(t, ok)
	gov, ok := batches[2][1].(kernel.GovernanceActionRequest)
	require.True(t, ok)
	assert.Equal(t, kernel.GovernanceCreate, gov.Type)
	assert.Equal(t, "auth-2", gov.Params.NewAuthorityID)
}

func TestParse_UnknownTransformationName(t *testing.T) {
	doc, err := Parse([]byte(`
steps:
  - actions:
      - request_id: req-1
        holder_id: holder-a
        scope: res://ledger
        transformation_type: EXECUTE_OP99
        epoch: 0
        nonce: n
`))
	require.NoError(t, err, "name resolution happens at conversion, not schema validation")
	_, err = doc.Batches()
	assert.Error(t, err)
}

func TestValidate_RejectsSchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing steps", `run: demo`},
		{"empty authority id", `
steps:
  - injections:
      - authority_id: ""
        holder_id: holder-a
        scope: res://x
        vector: []
        start_epoch: 0
        expiry_epoch: 1
`},
		{"zero expiry", `
steps:
  - injections:
      - authority_id: auth-1
        holder_id: holder-a
        scope: res://x
        vector: []
        start_epoch: 0
        expiry_epoch: 0
`},
		{"unknown governance type", `
steps:
  - governance:
      - type: TRANSMUTE_AUTHORITY
        request_id: gov-1
        initiator_ids: []
        scope: res://x
`},
		{"zero conflict id", `
steps:
  - destructions:
      - target_ids: [auth-1]
        conflict_id: 0
        authorizer_id: court-1
        nonce: n
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate([]byte(tt.yaml))
			assert.NotEmpty(t, errs)
		})
	}
}

func TestValidate_ReportsPath(t *testing.T) {
	errs := Validate([]byte(`
steps:
  - epoch_advance:
      new_epoch: 0
      event_id: adv
      nonce: n
`))
	require.NotEmpty(t, errs)
	assert.NotEmpty(t, errs[0].Error())
}

func TestValidate_RejectsMalformedYAML(t *testing.T) {
	errs := Validate([]byte("steps: [\n"))
	assert.NotEmpty(t, errs)
}

func TestParse_AcceptsEmptySteps(t *testing.T) {
	doc, err := Parse([]byte("steps: []\n"))
	require.NoError(t, err)
	batches, err := doc.Batches()
	require.NoError(t, err)
	assert.Empty(t, batches)
}
