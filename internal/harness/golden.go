package harness

import (
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/armstrong/internal/ir"
)

// Transcript renders a result as golden-file text: each command prefixed
// with "> " followed by its output, then the final working set ordered by
// version.
//
//	# scenario: transitive_chain
//	> push a -> b
//	Added: {a} -> {b}
//	...
//	# final version: 1
//	0: {a} -> {b}
func Transcript(scenarioName string, result *Result) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# scenario: %s\n", scenarioName)
	for _, step := range result.Steps {
		fmt.Fprintf(&b, "> %s\n", step.Command)
		for _, line := range step.Output {
			fmt.Fprintf(&b, "%s\n", line)
		}
	}
	fmt.Fprintf(&b, "# final version: %d\n", result.Version)
	fds := slices.Clone(result.FDs)
	ir.SortByVersion(fds)
	for _, fd := range fds {
		fmt.Fprintf(&b, "%d: %s\n", fd.Version, fd)
	}
	return []byte(b.String())
}

// RunWithGolden executes a scenario and compares its transcript against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the transcript doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	AssertGolden(t, scenario.Name, result)
	return nil
}

// AssertGolden compares an already computed result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, Transcript(scenarioName, result))
}
