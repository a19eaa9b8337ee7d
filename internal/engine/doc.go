// Package engine implements FD inference: attribute closure, the axiom
// rules, the fixed-point rule driver and the superkey search.
//
// The engine has no package state. All mutable state lives in a WorkingSet
// owned by the caller, and the rule version counter is threaded explicitly:
// every rule receives the current ir.Version and returns the next one in its
// Derivation.
//
// Determinism:
// A WorkingSet iterates in insertion order and attribute sets are sorted, so
// the same sequence of calls always derives the same FDs in the same order.
//
// Rules never print. Each rule returns a Derivation listing the FDs it added
// and the premises of each one; the caller decides how to report them.
package engine
