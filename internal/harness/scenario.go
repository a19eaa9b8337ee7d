package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a test scenario: commands to run in a fresh session
// and assertions about the final working set.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Specs lists CUE relation files imported before the commands run.
	// Paths are relative to BaseDir.
	Specs []string `yaml:"specs,omitempty"`

	// Commands are shell command lines executed in order.
	Commands []string `yaml:"commands"`

	// Strict makes any failing command fail the scenario.
	Strict bool `yaml:"strict,omitempty"`

	// MaxRounds bounds apply-closure-rules. Zero means unlimited.
	MaxRounds int `yaml:"max_rounds,omitempty"`

	// Assertions validate the final working set and transcript.
	Assertions []Assertion `yaml:"assertions"`

	// SessionID is an optional fixed session ID for the recorded session.
	// If empty, defaults to "test-session-default".
	SessionID string `yaml:"session_id,omitempty"`

	// BaseDir resolves relative paths in specs and in load, save and
	// import commands. Set by the loaders to the scenario's directory.
	BaseDir string `yaml:"-"`
}

// Assertion validates the final working set or transcript.
type Assertion struct {
	// Type specifies the assertion type:
	// - "contains_fd": the working set holds FD
	// - "not_contains_fd": the working set does not hold FD
	// - "closure": the closure of Attrs equals Expect
	// - "superkeys_include": every set in Keys is a superkey
	// - "superkeys_exclude": no set in Keys is a superkey
	// - "candidate_keys": the candidate keys are exactly Keys
	// - "size": the working set holds Count FDs
	// - "output_contains": some output line equals Text
	Type string `yaml:"type"`

	// FD in FD notation (contains_fd, not_contains_fd).
	FD string `yaml:"fd,omitempty"`

	// Attrs is an attribute list (closure).
	Attrs string `yaml:"attrs,omitempty"`

	// Expect is the expected attribute list (closure).
	Expect string `yaml:"expect,omitempty"`

	// Keys are attribute lists (superkeys_include, superkeys_exclude,
	// candidate_keys).
	Keys []string `yaml:"keys,omitempty"`

	// Count is the expected working set size (size).
	Count int `yaml:"count,omitempty"`

	// Text is an expected output line (output_contains).
	Text string `yaml:"text,omitempty"`
}

// Assertion type constants.
const (
	AssertContainsFD       = "contains_fd"
	AssertNotContainsFD    = "not_contains_fd"
	AssertClosure          = "closure"
	AssertSuperkeysInclude = "superkeys_include"
	AssertSuperkeysExclude = "superkeys_exclude"
	AssertCandidateKeys    = "candidate_keys"
	AssertSize             = "size"
	AssertOutputContains   = "output_contains"
)

// LoadScenario reads and parses a scenario YAML file. Relative paths
// resolve against the file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving relative paths against basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	scenario.BaseDir = basePath

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Commands) == 0 && len(s.Specs) == 0 {
		return fmt.Errorf("commands list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if s.MaxRounds < 0 {
		return fmt.Errorf("max_rounds must be non-negative")
	}

	for _, specPath := range s.Specs {
		if _, err := os.Stat(s.resolve(specPath)); os.IsNotExist(err) {
			return fmt.Errorf("spec file not found: %s", specPath)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func (s *Scenario) resolve(path string) string {
	if filepath.IsAbs(path) || s.BaseDir == "" {
		return path
	}
	return filepath.Join(s.BaseDir, path)
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertContainsFD, AssertNotContainsFD:
		if a.FD == "" {
			return fmt.Errorf("assertions[%d]: fd is required for %s", index, a.Type)
		}
	case AssertClosure:
		if a.Attrs == "" {
			return fmt.Errorf("assertions[%d]: attrs is required for closure", index)
		}
	case AssertSuperkeysInclude, AssertSuperkeysExclude:
		if len(a.Keys) == 0 {
			return fmt.Errorf("assertions[%d]: keys list is required for %s", index, a.Type)
		}
	case AssertCandidateKeys:
		// An empty keys list asserts there are none.
	case AssertSize:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for size", index)
		}
	case AssertOutputContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for output_contains", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
