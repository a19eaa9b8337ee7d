// Package shell implements the command dispatcher over a working set of
// functional dependencies.
//
// A Session owns one engine.WorkingSet and the version counter. Each
// command line is parsed, dispatched to the engine, and its result printed
// to the session's output. Commands:
//
//	push <fd>              add an FD, e.g. push {a, b} -> {c}
//	pop                    remove the most recently added FD
//	reflexive              apply reflexivity and augmentation
//	transitive             apply transitivity
//	combine                apply combination
//	split                  apply decomposition
//	apply-closure-rules    apply all rules until nothing new is derived
//	closure <attrs>        print the closure of a set of attributes
//	get-superkeys          print every superkey of the attribute universe
//	candidate-keys         print the minimal superkeys
//	show                   print the working set ordered by version
//	load <file>            execute the commands of a script
//	save <file>            write the command history as a script
//	import <cue>           push the FDs of declared relations
//	help                   list commands
//	quit                   end the session
//
// When a Recorder is configured, every history command and the final
// working set are written to it, so sessions can be listed and replayed.
package shell
