package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/armstrong/internal/shell"
	"github.com/roach88/armstrong/internal/store"
)

// openRecorder opens the session database at path. An empty path means
// the session is not recorded and both return values are nil.
func openRecorder(path string) (*store.Store, error) {
	if path == "" {
		return nil, nil
	}
	slog.Info("opening database", "path", path)
	return store.Open(path)
}

func closeRecorder(st *store.Store) {
	if st == nil {
		return
	}
	if err := st.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// recorderOf avoids handing the shell a typed nil *store.Store.
func recorderOf(st *store.Store) shell.Recorder {
	if st == nil {
		return nil
	}
	return st
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
// Uses the command's context if available (for testing).
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
