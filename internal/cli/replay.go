package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/armstrong/internal/ir"
	"github.com/roach88/armstrong/internal/shell"
	"github.com/roach88/armstrong/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database  string
	SessionID string // optional - specific session only
	BaseDir   string
}

// ReplaySessionResult holds the replay result for a single session.
type ReplaySessionResult struct {
	SessionID       string     `json:"session_id"`
	Commands        int        `json:"commands"`
	RecordedVersion ir.Version `json:"recorded_version"`
	ReplayedVersion ir.Version `json:"replayed_version"`
	RecordedHash    string     `json:"recorded_hash"`
	ReplayedHash    string     `json:"replayed_hash"`
	Deterministic   bool       `json:"deterministic"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Sessions         []ReplaySessionResult `json:"sessions"`
	TotalSessions    int                   `json:"total_sessions"`
	AllDeterministic bool                  `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay recorded sessions and verify their working sets",
		Long: `Re-execute the command log of recorded sessions in a fresh, unrecorded
session and compare the resulting working set with the stored snapshot.

Sessions without a snapshot are skipped. Relative paths in load and
import commands resolve against --base-dir.

Exit codes:
  0 - Every replayed working set matches its snapshot
  1 - At least one working set differs
  2 - Command error (database not found, unknown session, etc.)

Examples:
  armstrong replay --db ./armstrong.db
  armstrong replay --db ./armstrong.db --session 0190f3c2-...
  armstrong replay --db ./armstrong.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.SessionID, "session", "", "replay specific session only")
	cmd.Flags().StringVar(&opts.BaseDir, "base-dir", "", "directory for relative load and import paths")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var sessionIDs []string
	if opts.SessionID != "" {
		if _, err := st.ReadSession(ctx, opts.SessionID); err != nil {
			if errors.Is(err, store.ErrSessionNotFound) {
				return NewExitError(ExitCommandError, fmt.Sprintf("session not found: %s", opts.SessionID))
			}
			return WrapExitError(ExitCommandError, "failed to read session", err)
		}
		sessionIDs = []string{opts.SessionID}
	} else {
		sessions, err := st.ListSessions(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list sessions", err)
		}
		for _, s := range sessions {
			if s.HasSnapshot {
				sessionIDs = append(sessionIDs, s.ID)
			}
		}
	}

	result := ReplayResult{
		Sessions:         make([]ReplaySessionResult, 0, len(sessionIDs)),
		AllDeterministic: true,
	}

	for _, id := range sessionIDs {
		sessResult, err := replaySession(ctx, st, id, opts.BaseDir)
		if errors.Is(err, sql.ErrNoRows) {
			// No snapshot to compare against.
			continue
		}
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay session %s", id), err)
		}

		result.Sessions = append(result.Sessions, sessResult)
		if !sessResult.Deterministic {
			result.AllDeterministic = false
		}
	}
	result.TotalSessions = len(result.Sessions)

	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}
	if result.TotalSessions == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No sessions found in database.")
		return nil
	}
	return outputReplayText(cmd.OutOrStdout(), result, opts.Verbose)
}

// replaySession re-executes a session's commands and compares the final
// working set against the stored snapshot.
func replaySession(ctx context.Context, st *store.Store, sessionID, baseDir string) (ReplaySessionResult, error) {
	snap, err := st.ReadSnapshot(ctx, sessionID)
	if err != nil {
		return ReplaySessionResult{}, err
	}
	commands, err := st.ReadCommands(ctx, sessionID)
	if err != nil {
		return ReplaySessionResult{}, err
	}

	sess, err := shell.New(ctx, shell.Options{BaseDir: baseDir})
	if err != nil {
		return ReplaySessionResult{}, err
	}
	for _, line := range commands {
		// Failing commands failed when recorded too.
		if _, err := sess.Execute(ctx, line); err != nil {
			var ce *shell.CommandError
			if !errors.As(err, &ce) {
				return ReplaySessionResult{}, err
			}
		}
	}

	hash, err := ir.SnapshotHash(sess.WorkingSet().All())
	if err != nil {
		return ReplaySessionResult{}, fmt.Errorf("hash replayed working set: %w", err)
	}

	return ReplaySessionResult{
		SessionID:       sessionID,
		Commands:        len(commands),
		RecordedVersion: snap.Version,
		ReplayedVersion: sess.Version(),
		RecordedHash:    snap.Hash,
		ReplayedHash:    hash,
		Deterministic:   hash == snap.Hash && sess.Version() == snap.Version,
	}, nil
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	if !result.AllDeterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_DETERMINISM",
			Message: "replayed working set differs from snapshot",
		}
	}

	if err := encodeJSON(cmd.OutOrStdout(), response); err != nil {
		return err
	}

	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "replayed working set differs from snapshot")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(w io.Writer, result ReplayResult, verbose bool) error {
	fmt.Fprintf(w, "Replay Summary: %d session(s)\n", result.TotalSessions)
	fmt.Fprintln(w)

	for _, s := range result.Sessions {
		status := "✓"
		if !s.Deterministic {
			status = "✗"
		}

		fmt.Fprintf(w, "%s Session: %s\n", status, s.SessionID)
		fmt.Fprintf(w, "  Commands: %d, version %d\n", s.Commands, s.ReplayedVersion)
		if verbose || !s.Deterministic {
			fmt.Fprintf(w, "  Recorded: %s (version %d)\n", s.RecordedHash, s.RecordedVersion)
			fmt.Fprintf(w, "  Replayed: %s (version %d)\n", s.ReplayedHash, s.ReplayedVersion)
		}
		if !s.Deterministic {
			fmt.Fprintln(w, "  Warning: replayed working set differs from snapshot!")
		}
		fmt.Fprintln(w)
	}

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All sessions reproduce their snapshots")
		return nil
	}

	fmt.Fprintln(w, "✗ Replay verification failed")
	return NewExitError(ExitFailure, "replayed working set differs from snapshot")
}
