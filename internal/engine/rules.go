package engine

import (
	"log/slog"

	"github.com/roach88/armstrong/internal/ir"
)

// RuleName identifies an inference rule.
type RuleName string

const (
	RuleReflexive  RuleName = "reflexive"
	RuleTransitive RuleName = "transitive"
	RuleCombine    RuleName = "combine"
	RuleSplit      RuleName = "split"
)

// Rule applies one inference rule to ws. It tags every FD it adds with
// v.Next() and reports that version in the returned Derivation, whether or
// not anything was added.
type Rule func(ws *WorkingSet, v ir.Version) Derivation

// Step records one derived FD and the premises it came from.
type Step struct {
	FD       ir.FD   `json:"fd"`
	Premises []ir.FD `json:"premises"`
}

// Derivation is the outcome of one rule application.
type Derivation struct {
	Rule    RuleName   `json:"rule"`
	Version ir.Version `json:"version"`
	Steps   []Step     `json:"steps,omitempty"`
}

// Added returns the FDs the rule added, in derivation order.
func (d Derivation) Added() []ir.FD {
	fds := make([]ir.FD, len(d.Steps))
	for i, s := range d.Steps {
		fds[i] = s.FD
	}
	return fds
}

// Rules returns the inference rules in driver order.
func Rules() []Rule {
	return []Rule{Reflexive, Transitive, Combine, Split}
}

// RuleByName looks up a rule by its command name.
func RuleByName(name RuleName) (Rule, bool) {
	switch name {
	case RuleReflexive:
		return Reflexive, true
	case RuleTransitive:
		return Transitive, true
	case RuleCombine:
		return Combine, true
	case RuleSplit:
		return Split, true
	}
	return nil, false
}

// Reflexive applies reflexivity and augmentation to every FD X -> Y present
// at entry:
//
//	X -> X                 (trivial)
//	X ∪ {a} -> Y           for each a in Y
//	X -> Y ∪ {a}           for each a in X
//
// Only X -> X is flagged trivial. An augmented FD stays non-trivial even
// when its sides come out equal. New FDs enter ws immediately but are not scanned by this call.
func Reflexive(ws *WorkingSet, v ir.Version) Derivation {
	d := Derivation{Rule: RuleReflexive, Version: v.Next()}

	add := func(lhs, rhs ir.AttrSet, trivial bool, premise ir.FD) {
		fd := ir.FD{LHS: lhs, RHS: rhs, Version: d.Version, Trivial: trivial}
		if ws.Push(fd) {
			d.Steps = append(d.Steps, Step{FD: fd, Premises: []ir.FD{premise}})
		}
	}

	for _, fd := range ws.All() {
		add(fd.LHS, fd.LHS, true, fd)
		for _, a := range fd.RHS {
			add(fd.LHS.With(a), fd.RHS, false, fd)
		}
		for _, a := range fd.LHS {
			add(fd.LHS, fd.RHS.With(a), false, fd)
		}
	}

	logRule(d)
	return d
}

// Transitive derives X -> Z from every ordered pair of distinct FDs X -> Y
// and Y' -> Z with Y == Y'. Only FDs present at entry pair up; results are
// merged after the scan, so one call never chains three FDs.
func Transitive(ws *WorkingSet, v ir.Version) Derivation {
	d := Derivation{Rule: RuleTransitive, Version: v.Next()}
	st := newStage(ws)

	fds := ws.All()
	for i, fd1 := range fds {
		for j, fd2 := range fds {
			// Members are unique by identity, so i == j is the only self pair.
			if i == j || !fd1.RHS.Equal(fd2.LHS) {
				continue
			}
			st.add(ir.NewFD(fd1.LHS, fd2.RHS, d.Version), fd1, fd2)
		}
	}

	d.Steps = st.commit()
	logRule(d)
	return d
}

// Combine derives X -> Y ∪ W from every ordered pair of distinct FDs
// X -> Y and V -> W with X ⊇ V. The derived LHS is X ∪ V, which equals X.
// Staged like Transitive.
func Combine(ws *WorkingSet, v ir.Version) Derivation {
	d := Derivation{Rule: RuleCombine, Version: v.Next()}
	st := newStage(ws)

	fds := ws.All()
	for i, fd1 := range fds {
		for j, fd2 := range fds {
			if i == j || !fd1.LHS.SupersetOf(fd2.LHS) {
				continue
			}
			st.add(ir.NewFD(fd1.LHS.Union(fd2.LHS), fd1.RHS.Union(fd2.RHS), d.Version), fd1, fd2)
		}
	}

	d.Steps = st.commit()
	logRule(d)
	return d
}

// Split decomposes every FD with more than one RHS attribute into
// single-attribute FDs X -> {a}. The original FD stays.
func Split(ws *WorkingSet, v ir.Version) Derivation {
	d := Derivation{Rule: RuleSplit, Version: v.Next()}
	st := newStage(ws)

	for _, fd := range ws.All() {
		if fd.RHS.Len() <= 1 {
			continue
		}
		for _, a := range fd.RHS {
			st.add(ir.NewFD(fd.LHS, ir.AttrSet{a}, d.Version), fd)
		}
	}

	d.Steps = st.commit()
	logRule(d)
	return d
}

// stage collects derivations against a fixed view of the working set and
// merges them in one go.
type stage struct {
	ws    *WorkingSet
	seen  map[string]bool
	steps []Step
}

func newStage(ws *WorkingSet) *stage {
	return &stage{ws: ws, seen: make(map[string]bool)}
}

func (s *stage) add(fd ir.FD, premises ...ir.FD) {
	key := fd.Key()
	if s.seen[key] || s.ws.Contains(fd) {
		return
	}
	s.seen[key] = true
	s.steps = append(s.steps, Step{FD: fd, Premises: premises})
}

func (s *stage) commit() []Step {
	for _, step := range s.steps {
		s.ws.Push(step.FD)
	}
	return s.steps
}

func logRule(d Derivation) {
	slog.Debug("rule applied",
		"rule", d.Rule,
		"version", d.Version,
		"added", len(d.Steps),
	)
}
