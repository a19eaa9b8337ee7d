package ir

import (
	"fmt"
	"slices"
)

// FD is a functional dependency LHS -> RHS.
//
// FD is an immutable value. Identity is (LHS, RHS): two FDs with equal
// sides are the same dependency whatever their Version or Trivial flag.
// Use Key for map keys and Same for comparisons.
type FD struct {
	LHS     AttrSet `json:"lhs"`
	RHS     AttrSet `json:"rhs"`
	Version Version `json:"version"`
	Trivial bool    `json:"trivial,omitempty"`
}

// NewFD returns a non-trivial FD tagged with version v.
func NewFD(lhs, rhs AttrSet, v Version) FD {
	return FD{LHS: lhs, RHS: rhs, Version: v}
}

// Key returns the canonical identity of fd: {"lhs":[...],"rhs":[...]}.
func (fd FD) Key() string {
	return fdKey(fd.LHS, fd.RHS)
}

// Normalized returns fd with both sides in the form Attrs builds.
func (fd FD) Normalized() FD {
	fd.LHS = fd.LHS.Normalized()
	fd.RHS = fd.RHS.Normalized()
	return fd
}

// Same reports whether fd and other are the same dependency.
func (fd FD) Same(other FD) bool {
	return fd.LHS.Equal(other.LHS) && fd.RHS.Equal(other.RHS)
}

// String renders fd as "{a, b} -> {c}", with " (trivial)" appended for
// trivial dependencies.
func (fd FD) String() string {
	s := fmt.Sprintf("%s -> %s", fd.LHS, fd.RHS)
	if fd.Trivial {
		s += " (trivial)"
	}
	return s
}

// SortByVersion sorts fds by Version, keeping the relative order of equal
// versions.
func SortByVersion(fds []FD) {
	slices.SortStableFunc(fds, func(a, b FD) int {
		switch {
		case a.Version < b.Version:
			return -1
		case a.Version > b.Version:
			return 1
		}
		return 0
	})
}

func fdKey(lhs, rhs AttrSet) string {
	b, err := MarshalCanonical(map[string]any{
		"lhs": lhs.Names(),
		"rhs": rhs.Names(),
	})
	if err != nil {
		// Strings always marshal.
		panic(err)
	}
	return string(b)
}

// Relation is a named attribute universe with its declared FDs.
type Relation struct {
	Name       string  `json:"name"`
	Attributes AttrSet `json:"attributes"`
	FDs        []FD    `json:"fds"`
}

// Universe returns the declared attributes together with every attribute
// mentioned by an FD.
func (r Relation) Universe() AttrSet {
	u := r.Attributes
	for _, fd := range r.FDs {
		u = u.Union(fd.LHS).Union(fd.RHS)
	}
	return u
}
