package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/armstrong/internal/ir"
	"github.com/roach88/armstrong/internal/shell"
	"github.com/roach88/armstrong/internal/store"
	"github.com/roach88/armstrong/internal/testutil"
)

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database and a recorded session
// 2. Import the scenario's relation specs
// 3. Execute commands, capturing each command's output
// 4. Check the recorded snapshot against the live working set
// 5. Evaluate assertions
//
// Failing commands are part of the transcript; they fail the scenario only
// when Strict is set. Store failures are returned as errors.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	var out bytes.Buffer
	sess, err := shell.New(ctx, shell.Options{
		Out:         &out,
		Recorder:    st,
		IDGenerator: testutil.NewFixedSessionGenerator(scenario.SessionID),
		Label:       scenario.Name,
		BaseDir:     scenario.BaseDir,
		MaxRounds:   scenario.MaxRounds,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	lines := make([]string, 0, len(scenario.Specs)+len(scenario.Commands))
	for _, spec := range scenario.Specs {
		lines = append(lines, "import "+spec)
	}
	lines = append(lines, scenario.Commands...)

	result := NewResult()
	for i, line := range lines {
		out.Reset()
		cont, err := sess.Execute(ctx, line)

		code := ""
		if err != nil {
			var ce *shell.CommandError
			if !errors.As(err, &ce) {
				return nil, fmt.Errorf("command %d (%q): %w", i, line, err)
			}
			code = string(ce.Code)
			if scenario.Strict {
				result.AddError(fmt.Sprintf("command %d (%q) failed: %v", i, line, err))
			}
		}
		result.AddStep(line, splitOutput(out.String()), code)

		slog.Debug("scenario step completed",
			"scenario", scenario.Name,
			"step", i,
			"command", line,
			"error", code,
		)
		if !cont {
			break
		}
	}

	ws := sess.WorkingSet()
	result.FDs = ws.All()
	result.Version = sess.Version()

	if err := checkSnapshot(ctx, st, sess.ID(), result.FDs); err != nil {
		result.AddError(err.Error())
	}

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	return result, nil
}

// checkSnapshot verifies the recorded working set matches the live one.
// A scenario of blank lines only records nothing and is skipped.
func checkSnapshot(ctx context.Context, st *store.Store, sessionID string, fds []ir.FD) error {
	snap, err := st.ReadSnapshot(ctx, sessionID)
	if err != nil {
		if len(fds) == 0 {
			return nil
		}
		return fmt.Errorf("recorded snapshot: %w", err)
	}
	want, err := ir.SnapshotHash(fds)
	if err != nil {
		return err
	}
	if snap.Hash != want {
		return fmt.Errorf("recorded snapshot hash %s does not match working set hash %s", snap.Hash, want)
	}
	return nil
}

func splitOutput(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return []string{}
	}
	return strings.Split(s, "\n")
}
