package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/armstrong/internal/engine"
	"github.com/roach88/armstrong/internal/fdspec"
	"github.com/roach88/armstrong/internal/ir"
)

// AnalyzeOptions holds flags for the analyze command.
type AnalyzeOptions struct {
	*RootOptions
}

// ClosureResult is the closure of one FD left-hand side.
type ClosureResult struct {
	Attrs   ir.AttrSet `json:"attrs"`
	Closure ir.AttrSet `json:"closure"`
}

// RelationAnalysis holds the derived facts about one relation.
type RelationAnalysis struct {
	Name          string          `json:"name"`
	Attributes    ir.AttrSet      `json:"attributes"`
	FDs           []ir.FD         `json:"fds"`
	Closures      []ClosureResult `json:"closures"`
	Superkeys     []ir.AttrSet    `json:"superkeys"`
	CandidateKeys []ir.AttrSet    `json:"candidate_keys"`
}

// AnalyzeResult is the JSON payload of the analyze command.
type AnalyzeResult struct {
	Relations []RelationAnalysis `json:"relations"`
	FileCount int                `json:"file_count"`
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnalyzeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "analyze <specs>",
		Short: "Report closures and keys of CUE relations",
		Long: `Load relation specs from a .cue file or a directory holding one CUE
package, then report for every relation the closure of each FD
left-hand side, its superkeys and its candidate keys.

Keys are computed over the declared attributes, so an attribute no
FD mentions must appear in every key.

Exit codes:
  0 - All relations analyzed
  2 - Specs could not be loaded

Examples:
  armstrong analyze ./specs
  armstrong analyze ./specs/course.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(opts, args[0], cmd)
		},
	}

	return cmd
}

func runAnalyze(opts *AnalyzeOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	loaded, errs := fdspec.LoadSpecs(path, fdspec.LoadModeCollectAll)
	if len(errs) > 0 {
		return reportLoadErrors(formatter, errs)
	}
	formatter.VerboseLog("Loaded %d relation(s) from %d file(s)", len(loaded.Relations), loaded.FileCount)

	result := AnalyzeResult{
		Relations: make([]RelationAnalysis, 0, len(loaded.Relations)),
		FileCount: loaded.FileCount,
	}
	for _, rel := range loaded.Relations {
		result.Relations = append(result.Relations, analyzeRelation(rel))
	}

	return formatter.Success(result)
}

// analyzeRelation computes closures and keys over the relation's declared
// attributes. The trivial FD universe -> universe puts attributes no FD
// mentions into the key search without changing any closure.
func analyzeRelation(rel ir.Relation) RelationAnalysis {
	universe := rel.Universe()
	fds := append(append([]ir.FD(nil), rel.FDs...), ir.FD{LHS: universe, RHS: universe, Trivial: true})

	analysis := RelationAnalysis{
		Name:       rel.Name,
		Attributes: universe,
		FDs:        rel.FDs,
		Closures:   []ClosureResult{},
	}

	seen := make(map[string]bool)
	for _, fd := range rel.FDs {
		if seen[fd.LHS.Key()] {
			continue
		}
		seen[fd.LHS.Key()] = true
		analysis.Closures = append(analysis.Closures, ClosureResult{
			Attrs:   fd.LHS,
			Closure: engine.Closure(fd.LHS, fds),
		})
	}

	analysis.Superkeys = engine.Superkeys(fds)
	analysis.CandidateKeys = engine.CandidateKeys(fds)

	slog.Debug("relation analyzed",
		"relation", rel.Name,
		"attributes", universe.Len(),
		"superkeys", len(analysis.Superkeys),
		"candidate_keys", len(analysis.CandidateKeys),
	)
	return analysis
}

// reportLoadErrors prints every load error and returns a command error.
func reportLoadErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.Format == "json" {
		details := make([]string, len(errs))
		for i, err := range errs {
			details[i] = err.Error()
		}
		code := "E001"
		var le *fdspec.LoadError
		if errors.As(errs[0], &le) {
			code = le.Code
		}
		if err := formatter.Error(code, "failed to load specs", details); err != nil {
			return err
		}
	} else {
		for _, err := range errs {
			fmt.Fprintf(formatter.Writer, "Error: %v\n", err)
		}
	}
	return WrapExitError(ExitCommandError, "failed to load specs", errs[0])
}

// RenderText lists each relation's closures and keys.
func (result AnalyzeResult) RenderText(w io.Writer) {
	for i, rel := range result.Relations {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "Relation %s %s\n", rel.Name, rel.Attributes)

		fmt.Fprintln(w, "=== Dependencies ===")
		if len(rel.FDs) == 0 {
			fmt.Fprintln(w, "  (none)")
		}
		for _, fd := range rel.FDs {
			fmt.Fprintf(w, "  %s\n", fd)
		}

		fmt.Fprintln(w, "=== Closures ===")
		if len(rel.Closures) == 0 {
			fmt.Fprintln(w, "  (none)")
		}
		for _, c := range rel.Closures {
			fmt.Fprintf(w, "  %s+ = %s\n", c.Attrs, c.Closure)
		}

		fmt.Fprintln(w, "=== Superkeys ===")
		for _, k := range rel.Superkeys {
			fmt.Fprintf(w, "  %s\n", k)
		}

		fmt.Fprintln(w, "=== Candidate Keys ===")
		for _, k := range rel.CandidateKeys {
			fmt.Fprintf(w, "  %s\n", k)
		}
	}
}

// encodeJSON writes v as indented JSON.
func encodeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
