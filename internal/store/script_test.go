package store

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScript_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.txt")
	commands := []string{"push {a} -> {b}", "reflexive", "show"}

	require.NoError(t, WriteScript(path, commands))

	got, err := ReadScript(path)
	require.NoError(t, err)
	assert.Equal(t, commands, got)
}

func TestReadScript_TrimsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.txt")
	require.NoError(t, os.WriteFile(path, []byte("  show  \n\n\tpop\r\n"), 0o644))

	got, err := ReadScript(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"show", "", "pop"}, got)
}

func TestReadScript_Missing(t *testing.T) {
	_, err := ReadScript(filepath.Join(t.TempDir(), "nope.txt"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
