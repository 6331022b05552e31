// Package batch loads operator-authored step-batch files.
//
// A batch file is YAML describing one run: a sequence of steps, each
// holding at most one epoch advance plus injections, renewals,
// destruction authorizations, governance actions, and ordinary actions.
// Files are validated against an embedded CUE schema before any input
// reaches the kernel, so malformed files fail with positioned errors
// instead of run-invalidating mid-step.
package batch
