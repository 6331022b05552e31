// Package canon implements the kernel's canonical codec and hash chain.
//
// Everything that feeds replay verification goes through this package:
// output events are serialized with Marshal and linked into a Chain, and
// state snapshots hash through the same encoding under DomainState.
//
// The encoding rules are fixed: object keys sorted by UTF-16 code units,
// no whitespace, integers only (floats rejected), explicit nulls, strings
// NFC-normalized with minimal escaping. A deviation anywhere is a fatal
// defect, not tolerable drift: two encoders that disagree on a single
// byte produce divergent chains.
package canon
