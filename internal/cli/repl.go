package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/armstrong/internal/shell"
)

// ReplOptions holds flags for the repl command.
type ReplOptions struct {
	*RootOptions
	Database    string
	HistoryFile string
	MaxRounds   int
}

// NewReplCommand creates the repl command.
func NewReplCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive shell",
		Long: `Start an interactive functional dependency shell.

When stdin is a terminal the shell offers line editing and persistent
history; otherwise commands are read line by line until end of input.
Type 'help' for the command list and 'quit' to leave.

Example:
  armstrong repl
  armstrong repl --db ./armstrong.db --history-file ~/.armstrong_history
  armstrong repl < commands.txt`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "record the session to this SQLite database")
	cmd.Flags().StringVar(&opts.HistoryFile, "history-file", "", "line-editing history file (terminal only)")
	cmd.Flags().IntVar(&opts.MaxRounds, "max-rounds", 0, "bound apply-closure-rules rounds (0 = unlimited)")

	return cmd
}

func runRepl(opts *ReplOptions, cmd *cobra.Command) error {
	st, err := openRecorder(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer closeRecorder(st)

	ctx, cancel := signalContext(cmd)
	defer cancel()

	w := cmd.OutOrStdout()
	sess, err := shell.New(ctx, shell.Options{
		Out:       w,
		Recorder:  recorderOf(st),
		Label:     "repl",
		MaxRounds: opts.MaxRounds,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start session", err)
	}

	var reader shell.LineReader
	if in := cmd.InOrStdin(); in == os.Stdin && shell.IsTerminal(os.Stdin) {
		tr, err := shell.NewTerminalReader(opts.HistoryFile)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to initialize terminal", err)
		}
		defer tr.Close()
		reader = tr
		fmt.Fprintln(w, "Type 'help' for a list of commands.")
	} else {
		reader = shell.NewScannerReader(in)
	}

	return runExitError(sess.Run(ctx, reader))
}
