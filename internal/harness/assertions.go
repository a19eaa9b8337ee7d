package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/armstrong/internal/engine"
	"github.com/roach88/armstrong/internal/ir"
	"github.com/roach88/armstrong/internal/parse"
)

// AssertionError is returned when an assertion fails.
// It includes the final working set to help debug the failure.
type AssertionError struct {
	Type     string  // Assertion type for categorization
	Expected string  // Human-readable expected outcome
	Actual   string  // Human-readable actual outcome
	FDs      []ir.FD // Final working set for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nWorking set:\n")
	for _, fd := range e.FDs {
		fmt.Fprintf(&buf, "  %d: %s\n", fd.Version, fd)
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against result and returns the
// failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion) error {
	switch a.Type {
	case AssertContainsFD:
		return assertContainsFD(result.FDs, a, true)
	case AssertNotContainsFD:
		return assertContainsFD(result.FDs, a, false)
	case AssertClosure:
		return assertClosure(result.FDs, a)
	case AssertSuperkeysInclude:
		return assertSuperkeys(result.FDs, a, true)
	case AssertSuperkeysExclude:
		return assertSuperkeys(result.FDs, a, false)
	case AssertCandidateKeys:
		return assertCandidateKeys(result.FDs, a)
	case AssertSize:
		return assertSize(result.FDs, a)
	case AssertOutputContains:
		return assertOutputContains(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertContainsFD checks FD membership by identity, ignoring version and
// the trivial flag.
func assertContainsFD(fds []ir.FD, a Assertion, want bool) error {
	fd, err := parse.FD(a.FD)
	if err != nil {
		return fmt.Errorf("%s: %w", a.Type, err)
	}

	found := slices.ContainsFunc(fds, fd.Same)
	if found == want {
		return nil
	}

	expected := "working set contains " + fd.String()
	actual := "not found"
	if !want {
		expected = "working set does not contain " + fd.String()
		actual = "found"
	}
	return &AssertionError{Type: a.Type, Expected: expected, Actual: actual, FDs: fds}
}

func assertClosure(fds []ir.FD, a Assertion) error {
	attrs, err := parse.Attrs(a.Attrs)
	if err != nil {
		return fmt.Errorf("closure: %w", err)
	}
	expect, err := parse.Attrs(a.Expect)
	if err != nil {
		return fmt.Errorf("closure: %w", err)
	}

	got := engine.Closure(attrs, fds)
	if got.Equal(expect) {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("closure of %s is %s", attrs, expect),
		Actual:   got.String(),
		FDs:      fds,
	}
}

func assertSuperkeys(fds []ir.FD, a Assertion, want bool) error {
	keys, err := parseKeys(a.Keys)
	if err != nil {
		return fmt.Errorf("%s: %w", a.Type, err)
	}

	superkeys := engine.Superkeys(fds)
	for _, k := range keys {
		found := slices.ContainsFunc(superkeys, k.Equal)
		if found == want {
			continue
		}
		expected := k.String() + " is a superkey"
		if !want {
			expected = k.String() + " is not a superkey"
		}
		return &AssertionError{Type: a.Type, Expected: expected, Actual: formatKeys(superkeys), FDs: fds}
	}
	return nil
}

func assertCandidateKeys(fds []ir.FD, a Assertion) error {
	keys, err := parseKeys(a.Keys)
	if err != nil {
		return fmt.Errorf("candidate_keys: %w", err)
	}

	got := engine.CandidateKeys(fds)
	if slices.EqualFunc(got, keys, ir.AttrSet.Equal) {
		return nil
	}
	return &AssertionError{Type: a.Type, Expected: formatKeys(keys), Actual: formatKeys(got), FDs: fds}
}

func assertSize(fds []ir.FD, a Assertion) error {
	if len(fds) == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%d dependencies", a.Count),
		Actual:   fmt.Sprintf("%d dependencies", len(fds)),
		FDs:      fds,
	}
}

func assertOutputContains(result *Result, a Assertion) error {
	for _, step := range result.Steps {
		if slices.Contains(step.Output, a.Text) {
			return nil
		}
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("output line %q", a.Text),
		Actual:   "not found in transcript",
		FDs:      result.FDs,
	}
}

func parseKeys(lists []string) ([]ir.AttrSet, error) {
	keys := make([]ir.AttrSet, 0, len(lists))
	for _, l := range lists {
		k, err := parse.Attrs(l)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

func formatKeys(keys []ir.AttrSet) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}
