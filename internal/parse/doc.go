// Package parse reads the textual FD notation used by the shell, scripts
// and scenario files.
//
//	fd    = attrs "->" attrs
//	attrs = "{" [ name { "," name } ] "}" | name { "," name }
//	name  = identifier | integer | quoted string
//
// Braces are optional around a non-empty list, so "a, b -> c" and
// "{a, b} -> {c}" are the same FD. "{}" is the empty set.
package parse
