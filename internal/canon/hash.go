package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for hashing. The version suffix allows algorithm
// migration without ambiguity between old and new digests.
const (
	DomainOutput = "akr/output/v1"
	DomainState  = "akr/state/v1"
	DomainParams = "akr/params/v1"
)

// Digest is a raw SHA-256 digest.
type Digest [sha256.Size]byte

// Hex returns the lowercase hex encoding of the digest.
func (d Digest) Hex() string {
	return hex.EncodeToString(d[:])
}

// Genesis is the hash chain origin: the all-zero digest.
var Genesis = Digest{}

// HashWithDomain computes SHA256(domain || 0x00 || data). The null byte
// separator prevents domain/data boundary ambiguity.
func HashWithDomain(domain string, data []byte) Digest {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	var d Digest
	h.Sum(d[:0])
	return d
}

// ParamsHash computes the domain-separated hash of an input's enumerated
// parameters. Used by the canonical input ordering tuple.
func ParamsHash(params Object) (string, error) {
	data, err := Marshal(params)
	if err != nil {
		return "", fmt.Errorf("params hash: %w", err)
	}
	return HashWithDomain(DomainParams, data).Hex(), nil
}

// Chain is the hash-linked output log head:
//
//	H[i] = SHA256(hex(H[i-1]) || canonical_bytes(output[i]))
//
// with H[0] = Genesis (all zeroes). Chain values are plain data; append
// returns a new head rather than mutating, so prior heads stay valid for
// audit comparison.
type Chain struct {
	Head Digest
	Len  int64
}

// NewChain returns a chain positioned at genesis.
func NewChain() Chain {
	return Chain{Head: Genesis, Len: 0}
}

// Append links canonical output bytes onto the chain and returns the
// advanced chain.
func (c Chain) Append(canonical []byte) Chain {
	h := sha256.New()
	h.Write([]byte(c.Head.Hex()))
	h.Write(canonical)
	var d Digest
	h.Sum(d[:0])
	return Chain{Head: d, Len: c.Len + 1}
}

// ParseDigest decodes a lowercase hex digest.
func ParseDigest(s string) (Digest, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Digest{}, fmt.Errorf("parse digest: %w", err)
	}
	if len(raw) != sha256.Size {
		return Digest{}, fmt.Errorf("parse digest: want %d bytes, got %d", sha256.Size, len(raw))
	}
	var d Digest
	copy(d[:], raw)
	return d, nil
}
