// Package journal provides durable storage for kernel runs.
//
// A journal row holds one step: the canonicalized input batch, the
// emitted outputs (as canonical bytes), and the resulting chain head and
// state snapshot hash. The journal is append-only; rows are never
// updated or deleted, matching the kernel's retain-forever audit model.
//
// Replay verification reads a run's batches back, re-runs the kernel from
// genesis, and compares the recomputed chain heads and state hashes
// against the recorded ones byte for byte.
package journal
