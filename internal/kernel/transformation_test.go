package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformation_String(t *testing.T) {
	assert.Equal(t, "CREATE_AUTHORITY", TransformCreateAuthority.String())
	assert.Equal(t, "DESTROY_AUTHORITY", TransformDestroyAuthority.String())
	assert.Equal(t, "EXECUTE_OP0", Transformation(2).String())
	assert.Equal(t, "EXECUTE_OP13", Transformation(15).String())
}

func TestParseTransformation(t *testing.T) {
	tests := []struct {
		name    string
		want    Transformation
		wantErr bool
	}{
		{"CREATE_AUTHORITY", TransformCreateAuthority, false},
		{"DESTROY_AUTHORITY", TransformDestroyAuthority, false},
		{"EXECUTE_OP0", Transformation(2), false},
		{"EXECUTE_OP13", Transformation(15), false},
		{"EXECUTE_OP14", 0, true}, // beyond vector width
		{"EXECUTE_OP-1", 0, true},
		{"EXECUTE_OPx", 0, true},
		{"DELETE", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTransformation(tt.name)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTransformation_RoundTrip(t *testing.T) {
	for i := 0; i < VectorWidth; i++ {
		tr := Transformation(i)
		parsed, err := ParseTransformation(tr.String())
		require.NoError(t, err)
		assert.Equal(t, tr, parsed)
	}
}

func TestActionVector_HasWithUnion(t *testing.T) {
	v := VectorOf(TransformCreateAuthority, Transformation(2))
	assert.True(t, v.Has(TransformCreateAuthority))
	assert.True(t, v.Has(Transformation(2)))
	assert.False(t, v.Has(TransformDestroyAuthority))

	u := v.Union(VectorOf(TransformDestroyAuthority))
	assert.True(t, u.Has(TransformDestroyAuthority))
	assert.True(t, u.Has(TransformCreateAuthority))
}

func TestActionVector_SubsetOf(t *testing.T) {
	small := VectorOf(Transformation(2))
	big := VectorOf(TransformCreateAuthority, Transformation(2), Transformation(3))

	assert.True(t, small.SubsetOf(big))
	assert.True(t, big.SubsetOf(big))
	assert.False(t, big.SubsetOf(small))
	assert.True(t, ActionVector(0).SubsetOf(small), "empty vector is a subset of everything")
}

func TestActionVector_InRange(t *testing.T) {
	assert.True(t, ActionVector(0).InRange())
	assert.True(t, VectorOf(Transformation(15)).InRange())
	assert.False(t, ActionVector(1<<VectorWidth).InRange())
	assert.False(t, ActionVector(1<<40).InRange())
}

func TestParseVector(t *testing.T) {
	v, err := ParseVector([]string{"CREATE_AUTHORITY", "EXECUTE_OP0"})
	require.NoError(t, err)
	assert.Equal(t, VectorOf(TransformCreateAuthority, Transformation(2)), v)

	_, err = ParseVector([]string{"EXECUTE_OP99"})
	require.Error(t, err)

	empty, err := ParseVector(nil)
	require.NoError(t, err)
	assert.Equal(t, ActionVector(0), empty)
}

func TestActionVector_Names(t *testing.T) {
	v := VectorOf(TransformDestroyAuthority, Transformation(2))
	assert.Equal(t, []string{"DESTROY_AUTHORITY", "EXECUTE_OP0"}, v.Names())
}
