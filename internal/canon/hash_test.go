package canon

import (
	"crypto/sha256"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenesis_AllZero(t *testing.T) {
	assert.Equal(t, strings.Repeat("0", 64), Genesis.Hex())
	assert.Equal(t, Genesis, NewChain().Head)
	assert.Equal(t, int64(0), NewChain().Len)
}

func TestHashWithDomain_Separation(t *testing.T) {
	data := []byte(`{"a":1}`)
	assert.NotEqual(t, HashWithDomain(DomainOutput, data), HashWithDomain(DomainState, data))
	assert.NotEqual(t, HashWithDomain(DomainState, data), HashWithDomain(DomainParams, data))
}

func TestHashWithDomain_SeparatorByte(t *testing.T) {
	// The null separator means moving a byte across the boundary
	// changes the digest: ("ab", "c") != ("a", "bc").
	assert.NotEqual(t, HashWithDomain("ab", []byte("c")), HashWithDomain("a", []byte("bc")))
}

func TestChain_AppendLinksPreviousHeadAsHex(t *testing.T) {
	event := []byte(`{"event":{"request_id":"r1"},"kind":"ACTION_EXECUTED"}`)

	c := NewChain().Append(event)

	h := sha256.New()
	h.Write([]byte(Genesis.Hex()))
	h.Write(event)
	var want Digest
	h.Sum(want[:0])

	assert.Equal(t, want, c.Head)
	assert.Equal(t, int64(1), c.Len)
}

func TestChain_AppendIsOrderSensitive(t *testing.T) {
	a := []byte(`{"kind":"A"}`)
	b := []byte(`{"kind":"B"}`)

	ab := NewChain().Append(a).Append(b)
	ba := NewChain().Append(b).Append(a)
	assert.NotEqual(t, ab.Head, ba.Head)
	assert.Equal(t, int64(2), ab.Len)
}

func TestChain_AppendDoesNotMutate(t *testing.T) {
	c := NewChain()
	_ = c.Append([]byte(`{"kind":"A"}`))
	assert.Equal(t, Genesis, c.Head)
	assert.Equal(t, int64(0), c.Len)
}

func TestParamsHash_Stable(t *testing.T) {
	params := Object{"scope": String("res://x"), "epoch": Int(3)}

	first, err := ParamsHash(params)
	require.NoError(t, err)
	second, err := ParamsHash(params)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
}

func TestParseDigest(t *testing.T) {
	d := HashWithDomain(DomainOutput, []byte("x"))

	parsed, err := ParseDigest(d.Hex())
	require.NoError(t, err)
	assert.Equal(t, d, parsed)

	_, err = ParseDigest("zz")
	require.Error(t, err)

	_, err = ParseDigest("abcd")
	require.Error(t, err)
}
