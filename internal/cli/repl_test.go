package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/armstrong/internal/store"
)

func TestReplReadsPipedInput(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewReplCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetIn(strings.NewReader("push a -> b\nclosure a\nquit\npush c -> d\n"))
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())

	assert.Equal(t, "Added: {a} -> {b}\n{a, b}\n", buf.String())
}

func TestReplStopsAtEOF(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewReplCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetIn(strings.NewReader("pop\nbogus\n"))
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "Active set is empty.\nInvalid command. Please try again.\n", buf.String())
}

func TestReplRecordsSession(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "armstrong.db")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewReplCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetIn(strings.NewReader("push a -> b\nsave " + filepath.Join(dir, "out.fd") + "\nquit\n"))
	cmd.SetArgs([]string{"--db", dbPath})

	require.NoError(t, cmd.Execute())

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	sessions, err := st.ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "repl", sessions[0].Label)
	assert.Equal(t, 1, sessions[0].Commands)

	saved, err := os.ReadFile(filepath.Join(dir, "out.fd"))
	require.NoError(t, err)
	assert.Equal(t, "push a -> b\n", string(saved))
}

func TestReplRejectsArgs(t *testing.T) {
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewReplCommand(rootOpts)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"extra"})

	require.Error(t, cmd.Execute())
}
