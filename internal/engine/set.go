package engine

import (
	"slices"

	"github.com/roach88/armstrong/internal/ir"
)

// WorkingSet is a mutable set of FDs keyed on (LHS, RHS).
//
// Adding an FD whose sides equal an existing member is a no-op, whatever
// its version. Iteration follows insertion order. Every mutation bumps the
// generation, which lets callers memoize queries over an unchanged set.
//
// WorkingSet is not safe for concurrent use.
type WorkingSet struct {
	index      map[string]int
	fds        []ir.FD
	generation uint64
}

// NewWorkingSet creates a set holding fds (duplicates collapse).
func NewWorkingSet(fds ...ir.FD) *WorkingSet {
	ws := &WorkingSet{index: make(map[string]int, len(fds))}
	for _, fd := range fds {
		ws.Push(fd)
	}
	return ws
}

// Push adds fd unless an FD with the same sides is present. Both sides are
// normalized first so stored FDs agree with their keys.
// Returns true if the set changed.
func (ws *WorkingSet) Push(fd ir.FD) bool {
	fd = fd.Normalized()
	key := fd.Key()
	if _, ok := ws.index[key]; ok {
		return false
	}
	ws.index[key] = len(ws.fds)
	ws.fds = append(ws.fds, fd)
	ws.generation++
	return true
}

// Pop removes and returns the most recently added FD.
// Returns false if the set is empty.
func (ws *WorkingSet) Pop() (ir.FD, bool) {
	if len(ws.fds) == 0 {
		return ir.FD{}, false
	}
	last := ws.fds[len(ws.fds)-1]
	ws.fds = ws.fds[:len(ws.fds)-1]
	delete(ws.index, last.Key())
	ws.generation++
	return last, true
}

// Contains reports whether an FD with the same sides as fd is present.
func (ws *WorkingSet) Contains(fd ir.FD) bool {
	_, ok := ws.index[fd.Key()]
	return ok
}

// Get returns the stored FD with the same sides as fd, carrying the stored
// version and trivial flag.
func (ws *WorkingSet) Get(fd ir.FD) (ir.FD, bool) {
	i, ok := ws.index[fd.Key()]
	if !ok {
		return ir.FD{}, false
	}
	return ws.fds[i], true
}

// Len returns the number of FDs.
func (ws *WorkingSet) Len() int {
	return len(ws.fds)
}

// Generation returns a counter that changes whenever the set changes.
func (ws *WorkingSet) Generation() uint64 {
	return ws.generation
}

// All returns a copy of the FDs in insertion order.
func (ws *WorkingSet) All() []ir.FD {
	return slices.Clone(ws.fds)
}

// ByVersion returns a copy of the FDs sorted by version, insertion order
// breaking ties.
func (ws *WorkingSet) ByVersion() []ir.FD {
	fds := ws.All()
	ir.SortByVersion(fds)
	return fds
}

// Reset removes every FD.
func (ws *WorkingSet) Reset() {
	clear(ws.index)
	ws.fds = nil
	ws.generation++
}

// Clone returns an independent copy of ws.
func (ws *WorkingSet) Clone() *WorkingSet {
	return NewWorkingSet(ws.fds...)
}

// Closure computes the closure of attrs under the FDs in ws.
func (ws *WorkingSet) Closure(attrs ir.AttrSet) ir.AttrSet {
	return Closure(attrs, ws.fds)
}
