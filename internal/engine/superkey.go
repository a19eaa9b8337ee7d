package engine

import (
	"gonum.org/v1/gonum/stat/combin"

	"github.com/roach88/armstrong/internal/ir"
)

// Superkeys returns every attribute set whose closure under fds is the whole
// universe of attributes mentioned by fds.
//
// Candidates are enumerated by size, smallest first, and within a size in
// lexicographic order over the sorted universe. Non-minimal superkeys are
// included. The search is exhaustive, O(2^n) closures for n attributes.
//
// With no attributes at all the empty set is its own closure and equals the
// (empty) universe, so the result is a single empty superkey.
func Superkeys(fds []ir.FD) []ir.AttrSet {
	universe := Universe(fds)
	if universe.IsEmpty() {
		return []ir.AttrSet{{}}
	}

	var keys []ir.AttrSet
	n := universe.Len()
	for k := 1; k <= n; k++ {
		gen := combin.NewCombinationGenerator(n, k)
		idx := make([]int, k)
		for gen.Next() {
			gen.Combination(idx)
			picked := make([]ir.Attribute, k)
			for i, j := range idx {
				picked[i] = universe[j]
			}
			candidate := ir.Attrs(picked...)
			if Closure(candidate, fds).Equal(universe) {
				keys = append(keys, candidate)
			}
		}
	}
	return keys
}

// IsSuperkey reports whether the closure of attrs under fds covers the
// universe of fds.
func IsSuperkey(attrs ir.AttrSet, fds []ir.FD) bool {
	return Closure(attrs, fds).SupersetOf(Universe(fds))
}

// CandidateKeys returns the minimal superkeys: those with no proper subset
// that is also a superkey. Order follows Superkeys.
func CandidateKeys(fds []ir.FD) []ir.AttrSet {
	var keys []ir.AttrSet
	for _, sk := range Superkeys(fds) {
		minimal := true
		for _, k := range keys {
			if k.SubsetOf(sk) {
				minimal = false
				break
			}
		}
		if minimal {
			keys = append(keys, sk)
		}
	}
	return keys
}
