package testutil

import "sync"

// ScriptedVerifier approves or rejects authorization pairs from a fixed script.
//
// Tests register the (authorizer, nonce) pairs that should verify; every other
// pair is rejected. This enables deterministic coverage of both the honored
// and the failed verification paths without any real signature scheme.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type ScriptedVerifier struct {
	mu      sync.Mutex
	allowed map[string]bool
	calls   []string
}

// NewScriptedVerifier creates a verifier with no approved pairs.
//
// A fresh ScriptedVerifier rejects everything; use Allow to add pairs.
func NewScriptedVerifier() *ScriptedVerifier {
	return &ScriptedVerifier{allowed: make(map[string]bool)}
}

// Allow registers an (authorizer, nonce) pair as verifiable.
func (v *ScriptedVerifier) Allow(authorizerID, nonce string) *ScriptedVerifier {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.allowed[authorizerID+"\x00"+nonce] = true
	return v
}

// Verify reports whether the pair was registered with Allow.
//
// Implements kernel.Verifier. Every call is recorded for Calls.
func (v *ScriptedVerifier) Verify(authorizerID, nonce string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	key := authorizerID + "\x00" + nonce
	v.calls = append(v.calls, key)
	return v.allowed[key]
}

// Calls returns the recorded verification attempts in call order.
//
// Each entry is authorizerID and nonce joined by a NUL byte.
func (v *ScriptedVerifier) Calls() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]string, len(v.calls))
	copy(out, v.calls)
	return out
}
