package engine

import "github.com/roach88/armstrong/internal/ir"

// Closure computes the closure of attrs under fds: the largest attribute set
// determined by attrs.
//
// Passes over fds repeat until one makes no change. Each pass unions the
// RHS of every FD whose LHS is already contained in the result. fds is only
// read.
//
// The result always contains attrs (monotone) and
// Closure(Closure(a, f), f) equals Closure(a, f) (idempotent).
func Closure(attrs ir.AttrSet, fds []ir.FD) ir.AttrSet {
	result := ir.Attrs(attrs...)
	changed := true
	for changed {
		changed = false
		for _, fd := range fds {
			if fd.LHS.SubsetOf(result) && !fd.RHS.SubsetOf(result) {
				result = result.Union(fd.RHS)
				changed = true
			}
		}
	}
	return result
}

// Universe returns every attribute mentioned on either side of any FD.
func Universe(fds []ir.FD) ir.AttrSet {
	var u ir.AttrSet
	for _, fd := range fds {
		u = u.Union(fd.LHS).Union(fd.RHS)
	}
	return u
}
