// Package kernel implements the deterministic authority kernel.
//
// The kernel tracks structural authority grants over scoped resources,
// decides whether proposed actions and governance changes are admissible,
// records irreconcilable conflicts without arbitrating them, and exposes
// lawful deadlock states instead of guessing.
//
// ARCHITECTURE:
//
// Pure Stepping:
// The whole kernel is one transition function:
//
//	step(state, batch) -> (state', outputs)
//
// State is threaded explicitly; there is no shared singleton and no
// implicit clock. A step either completes with a full, self-consistent
// output set or returns a run-invalidating error that leaves the prior
// state untouched.
//
// Batch Processing Flow:
//  1. Inputs are canonicalized and sorted by a fixed tuple, never by
//     arrival order.
//  2. Temporal effects apply first: at most one epoch advance, then eager
//     expiry in sorted authority-id order.
//  3. Renewals, destructions, creations, and ordinary actions follow in
//     that fixed sub-phase order.
//  4. Every output event links into the hash chain; the deadlock condition
//     is recomputed at the end of the step.
//
// CRITICAL PATTERNS:
//
// Logical Time:
// Epochs advance only by explicit EpochAdvance input. Wall-clock time
// never influences any decision.
//
// Deterministic Bounding:
// Self-referential governance chains are bounded exclusively by the
// per-epoch instruction budget. There is no cycle detection and no
// semantic loop-breaking.
//
// Two Error Classes:
// Lawful refusals are per-action ACTION_REFUSED outputs and do not affect
// run validity. Run-invalidating conditions (duplicate authority id,
// epoch non-monotonicity, unknown lineage, failed external verification)
// are harness contract violations surfaced as *RunError.
package kernel
