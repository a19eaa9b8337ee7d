package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/armstrong/internal/store"
)

func TestHistoryMissingDatabaseFlag(t *testing.T) {
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewHistoryCommand(rootOpts)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestHistoryEmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	st.Close()

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewHistoryCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "No sessions found in database.")
}

func TestHistoryListSessions(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	recordSession(t, dbPath, "s1", "push a -> b", "push b -> c")
	recordSession(t, dbPath, "s2", "push x -> y")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewHistoryCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath})

	require.NoError(t, cmd.Execute())
	out := buf.String()
	assert.Contains(t, out, "Sessions: 2")
	assert.Contains(t, out, "[1] s1  test  (2 commands)")
	assert.Contains(t, out, "[2] s2  test  (1 commands)")
}

func TestHistorySessionDetail(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	recordSession(t, dbPath, "s1", "push a -> b", "push b -> c", "transitive")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewHistoryCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath, "--session", "s1"})

	require.NoError(t, cmd.Execute())

	want := "Session: s1\n" +
		"Label: test\n" +
		"\n" +
		"=== Commands ===\n" +
		"  1  push a -> b\n" +
		"  2  push b -> c\n" +
		"  3  transitive\n" +
		"\n" +
		"=== Working Set ===\n" +
		"  0: {a} -> {b}\n" +
		"  0: {b} -> {c}\n" +
		"  1: {a} -> {c}\n"
	assert.Equal(t, want, buf.String())
}

func TestHistorySessionJSON(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	recordSession(t, dbPath, "s1", "push a -> b")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewHistoryCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath, "--session", "s1"})

	require.NoError(t, cmd.Execute())

	var resp struct {
		Status string         `json:"status"`
		Data   SessionHistory `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "s1", resp.Data.Session.ID)
	assert.Equal(t, []string{"push a -> b"}, resp.Data.Commands)
	require.NotNil(t, resp.Data.Snapshot)
	assert.Len(t, resp.Data.Snapshot.FDs, 1)
}

func TestHistoryUnknownSession(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	recordSession(t, dbPath, "s1", "push a -> b")

	rootOpts := &RootOptions{Format: "text"}
	cmd := NewHistoryCommand(rootOpts)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", dbPath, "--session", "nope"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "session not found: nope")
}

func TestHistoryFilterByFD(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	recordSession(t, dbPath, "s1", "push a -> b", "push b -> c", "transitive")
	recordSession(t, dbPath, "s2", "push a -> b")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewHistoryCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath, "--fd", "a -> c"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Sessions: 1")
	assert.Contains(t, buf.String(), "s1")
	assert.NotContains(t, buf.String(), "s2")
}

func TestHistoryFilterByInvalidFD(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	recordSession(t, dbPath, "s1", "push a -> b")

	rootOpts := &RootOptions{Format: "text"}
	cmd := NewHistoryCommand(rootOpts)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", dbPath, "--fd", "a b"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
