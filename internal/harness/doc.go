// Package harness provides a conformance testing framework for the
// authority kernel.
//
// Scenarios are YAML files describing a run: an optional per-epoch
// budget, the set of (authorizer, nonce) pairs that verify, a sequence of
// step batches, and assertions over the emitted trace and final state.
// The harness drives the real kernel: every output event in the trace
// comes from kernel.Step, never from the scenario's expectations.
//
// Traces serialize to canonical bytes, so golden files are byte-stable
// across runs and machines. A scenario passes when all assertions hold
// and, for golden tests, the trace matches its recorded golden file.
package harness
