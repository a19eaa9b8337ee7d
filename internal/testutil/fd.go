package testutil

import (
	"strings"

	"github.com/roach88/armstrong/internal/ir"
)

// Attrs builds an attribute set from a comma-separated list.
// Surrounding braces and blanks are ignored, so "{a, b}", "a,b" and "" all
// work.
func Attrs(list string) ir.AttrSet {
	list = strings.TrimSpace(list)
	list = strings.TrimSuffix(strings.TrimPrefix(list, "{"), "}")
	var names []string
	for _, n := range strings.Split(list, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return ir.NewAttrSet(names...)
}

// FD builds a version-0 FD from two comma-separated attribute lists.
//
//	testutil.FD("a, b", "c") // {a, b} -> {c}
func FD(lhs, rhs string) ir.FD {
	return ir.NewFD(Attrs(lhs), Attrs(rhs), 0)
}

// Strings renders fds with FD.String, for readable assertions.
func Strings(fds []ir.FD) []string {
	out := make([]string, len(fds))
	for i, fd := range fds {
		out[i] = fd.String()
	}
	return out
}
