package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/armstrong/internal/ir"
	"github.com/roach88/armstrong/internal/shell"
	"github.com/roach88/armstrong/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database  string
	Strict    bool
	MaxRounds int

	// IDGenerator allows overriding the session ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator shell.SessionIDGenerator
}

// RunResult is the JSON payload of the run command.
type RunResult struct {
	Script    string     `json:"script"`
	SessionID string     `json:"session_id,omitempty"`
	Version   ir.Version `json:"version"`
	FDs       []ir.FD    `json:"fds"`
	Output    []string   `json:"output"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Execute a command script in a fresh session",
		Long: `Execute a file of shell commands, one per line, in a fresh session.

Relative paths in load, save and import resolve against the script's
directory. With --db the session's commands and final working set are
recorded for history and replay.

Exit codes:
  0 - Script completed
  1 - A command failed with --strict
  2 - Command error (script not found, database error, etc.)

Example:
  armstrong run ./chain.fd
  armstrong run --db ./armstrong.db --strict ./chain.fd`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "record the session to this SQLite database")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "stop at the first failing command")
	cmd.Flags().IntVar(&opts.MaxRounds, "max-rounds", 0, "bound apply-closure-rules rounds (0 = unlimited)")

	return cmd
}

func runScript(opts *RunOptions, script string, cmd *cobra.Command) error {
	lines, err := store.ReadScript(script)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewExitError(ExitCommandError, fmt.Sprintf("script not found: %s", script))
		}
		return WrapExitError(ExitCommandError, "failed to read script", err)
	}

	st, err := openRecorder(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer closeRecorder(st)

	ctx, cancel := signalContext(cmd)
	defer cancel()

	// JSON mode collects the transcript into the response.
	var out io.Writer = cmd.OutOrStdout()
	var buf bytes.Buffer
	if opts.Format == "json" {
		out = &buf
	}

	sess, err := shell.New(ctx, shell.Options{
		Out:         out,
		Recorder:    recorderOf(st),
		IDGenerator: opts.IDGenerator,
		Label:       script,
		BaseDir:     filepath.Dir(script),
		MaxRounds:   opts.MaxRounds,
		Strict:      opts.Strict,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start session", err)
	}

	slog.Info("running script", "path", script, "lines", len(lines), "session", sess.ID())
	runErr := sess.Run(ctx, shell.NewLinesReader(lines))
	slog.Info("script finished", "version", sess.Version(), "size", sess.WorkingSet().Len())

	if opts.Format == "json" {
		result := RunResult{
			Script:    script,
			SessionID: sess.ID(),
			Version:   sess.Version(),
			FDs:       sess.WorkingSet().All(),
			Output:    splitLines(buf.String()),
		}
		if err := outputRunJSON(cmd, result, runErr); err != nil {
			return err
		}
	}

	return runExitError(runErr)
}

// runExitError maps a session error to an exit code: failing commands are
// failures, anything else is a command error.
func runExitError(err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	var ce *shell.CommandError
	if errors.As(err, &ce) {
		return WrapExitError(ExitFailure, "command failed", err)
	}
	return WrapExitError(ExitCommandError, "session error", err)
}

// outputRunJSON outputs the run result as JSON.
func outputRunJSON(cmd *cobra.Command, result RunResult, runErr error) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	var ce *shell.CommandError
	if errors.As(runErr, &ce) {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    string(ce.Code),
			Message: ce.Error(),
		}
	}

	return encodeJSON(cmd.OutOrStdout(), response)
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return []string{}
	}
	return strings.Split(s, "\n")
}
