// Package harness runs YAML scenarios against a shell session and checks
// the results.
//
// A scenario lists shell commands and assertions about the final working
// set:
//
//	name: transitive_chain
//	description: "A -> B and B -> C yield A -> C"
//	commands:
//	  - push a -> b
//	  - push b -> c
//	  - apply-closure-rules
//	assertions:
//	  - type: contains_fd
//	    fd: "a -> c"
//	  - type: closure
//	    attrs: "a"
//	    expect: "a, b, c"
//
// Each scenario runs in a fresh session recorded to an in-memory store
// under a fixed session ID, so transcripts are reproducible and can be
// compared against golden files.
package harness
