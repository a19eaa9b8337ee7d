package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/armstrong/internal/parse"
	"github.com/roach88/armstrong/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database  string
	SessionID string // optional - show one session in detail
	FD        string // optional - list sessions whose working set holds this FD
}

// SessionHistory is the detail view of one recorded session.
type SessionHistory struct {
	Session  store.Session   `json:"session"`
	Commands []string        `json:"commands"`
	Snapshot *store.Snapshot `json:"snapshot,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded sessions",
		Long: `List the sessions recorded in a database, or show one session's
command log and final working set. With --fd, list only the sessions
whose final working set holds that dependency.

Examples:
  armstrong history --db ./armstrong.db
  armstrong history --db ./armstrong.db --session 0190f3c2-...
  armstrong history --db ./armstrong.db --fd "a -> c"
  armstrong history --db ./armstrong.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.SessionID, "session", "", "session ID to show")
	cmd.Flags().StringVar(&opts.FD, "fd", "", "filter sessions by FD in their working set")
	cmd.MarkFlagsMutuallyExclusive("session", "fd")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.SessionID == "" {
		sessions, err := st.ListSessions(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list sessions", err)
		}
		if opts.FD != "" {
			if sessions, err = filterSessionsByFD(ctx, st, sessions, opts.FD); err != nil {
				return err
			}
		}
		if opts.Format == "json" {
			return encodeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: sessions})
		}
		outputSessionsText(cmd.OutOrStdout(), sessions)
		return nil
	}

	history, err := loadSessionHistory(ctx, st, opts.SessionID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return NewExitError(ExitCommandError, fmt.Sprintf("session not found: %s", opts.SessionID))
		}
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}

	if opts.Format == "json" {
		return encodeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: history})
	}
	outputSessionText(cmd.OutOrStdout(), history, opts.Verbose)
	return nil
}

// filterSessionsByFD keeps the sessions whose snapshot holds the FD in
// notation.
func filterSessionsByFD(ctx context.Context, st *store.Store, sessions []store.Session, notation string) ([]store.Session, error) {
	fd, err := parse.FD(notation)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid --fd", err)
	}
	ids, err := st.SessionsWithFD(ctx, fd)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to query sessions", err)
	}

	filtered := []store.Session{}
	for _, s := range sessions {
		if slices.Contains(ids, s.ID) {
			filtered = append(filtered, s)
		}
	}
	return filtered, nil
}

func loadSessionHistory(ctx context.Context, st *store.Store, id string) (SessionHistory, error) {
	sess, err := st.ReadSession(ctx, id)
	if err != nil {
		return SessionHistory{}, err
	}
	commands, err := st.ReadCommands(ctx, id)
	if err != nil {
		return SessionHistory{}, err
	}

	history := SessionHistory{Session: sess, Commands: commands}
	snap, err := st.ReadSnapshot(ctx, id)
	switch {
	case err == nil:
		history.Snapshot = &snap
	case !errors.Is(err, sql.ErrNoRows):
		return SessionHistory{}, err
	}
	return history, nil
}

// outputSessionsText outputs the session list as text.
func outputSessionsText(w io.Writer, sessions []store.Session) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions found in database.")
		return
	}

	fmt.Fprintf(w, "Sessions: %d\n", len(sessions))
	fmt.Fprintln(w)
	for _, s := range sessions {
		label := s.Label
		if label == "" {
			label = "-"
		}
		fmt.Fprintf(w, "  [%d] %s  %s  (%d commands)\n", s.Seq, s.ID, label, s.Commands)
	}
}

// outputSessionText outputs one session's log and snapshot as text.
func outputSessionText(w io.Writer, h SessionHistory, verbose bool) {
	fmt.Fprintf(w, "Session: %s\n", h.Session.ID)
	if h.Session.Label != "" {
		fmt.Fprintf(w, "Label: %s\n", h.Session.Label)
	}
	if verbose {
		fmt.Fprintf(w, "Engine: %s\n", h.Session.EngineVersion)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Commands ===")
	if len(h.Commands) == 0 {
		fmt.Fprintln(w, "  (no commands)")
	}
	for i, c := range h.Commands {
		fmt.Fprintf(w, "  %d  %s\n", i+1, c)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Working Set ===")
	if h.Snapshot == nil {
		fmt.Fprintln(w, "  (no snapshot)")
		return
	}
	if len(h.Snapshot.FDs) == 0 {
		fmt.Fprintln(w, "  (empty)")
	}
	for _, fd := range h.Snapshot.FDs {
		fmt.Fprintf(w, "  %d: %s\n", fd.Version, fd)
	}
	if verbose {
		fmt.Fprintf(w, "  Hash: %s\n", h.Snapshot.Hash)
	}
}
