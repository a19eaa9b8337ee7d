package harness

import (
	"github.com/roach88/armstrong/internal/ir"
)

// Step is one executed command and the output it printed.
type Step struct {
	Command string   `json:"command"`
	Output  []string `json:"output"`
	// Error holds the command error code, if the command failed.
	Error string `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	// True if every assertion holds.
	Pass bool `json:"pass"`

	// Steps holds the transcript in execution order.
	Steps []Step `json:"steps"`

	// FDs is the final working set in insertion order.
	FDs []ir.FD `json:"fds"`

	// Version is the final version counter.
	Version ir.Version `json:"version"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []Step{},
		FDs:    []ir.FD{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStep appends a transcript step.
func (r *Result) AddStep(command string, output []string, code string) {
	if output == nil {
		output = []string{}
	}
	r.Steps = append(r.Steps, Step{Command: command, Output: output, Error: code})
}
