package engine

import (
	"log/slog"

	"github.com/roach88/armstrong/internal/ir"
)

// DriverResult reports what ApplyAll did.
type DriverResult struct {
	// Rounds counts full reflexive/transitive/combine/split passes,
	// including the final pass that added nothing.
	Rounds int `json:"rounds"`

	// Derivations holds every rule application in order.
	Derivations []Derivation `json:"derivations"`

	// Version is the counter value after the last rule application.
	Version ir.Version `json:"version"`
}

// Added returns every FD added across all rounds.
func (r DriverResult) Added() []ir.FD {
	var fds []ir.FD
	for _, d := range r.Derivations {
		fds = append(fds, d.Added()...)
	}
	return fds
}

// Driver applies the inference rules until the working set stops growing.
type Driver struct {
	// MaxRounds bounds the number of rounds. Zero means unlimited.
	MaxRounds int
}

// ApplyAll runs the rules to a fixed point with no round limit.
// Afterwards no single rule can add anything to ws.
func ApplyAll(ws *WorkingSet, v ir.Version) DriverResult {
	res, _ := Driver{}.Run(ws, v)
	return res
}

// Run applies reflexive, transitive, combine and split in turn, each
// against the live set, and repeats while a round grows the set.
//
// Termination: each continuing round adds at least one FD and the FDs over
// a finite attribute universe are finite. When MaxRounds is set and
// reached first, Run returns the partial result and a *RuleError.
func (d Driver) Run(ws *WorkingSet, v ir.Version) (DriverResult, error) {
	res := DriverResult{Version: v}
	rules := Rules()

	for {
		if d.MaxRounds > 0 && res.Rounds >= d.MaxRounds {
			return res, newRoundLimitError(res.Rounds, d.MaxRounds)
		}

		start := ws.Len()
		for _, rule := range rules {
			der := rule(ws, res.Version)
			res.Version = der.Version
			res.Derivations = append(res.Derivations, der)
		}
		res.Rounds++

		slog.Debug("driver round complete",
			"round", res.Rounds,
			"size", ws.Len(),
			"grew", ws.Len()-start,
		)

		if ws.Len() == start {
			return res, nil
		}
	}
}
