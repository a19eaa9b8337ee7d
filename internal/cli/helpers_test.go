package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/armstrong/internal/shell"
	"github.com/roach88/armstrong/internal/store"
	"github.com/roach88/armstrong/internal/testutil"
)

const courseSpec = `
package specs

relation: Course: {
	attributes: ["course", "teacher", "room"]
	fds: [
		"course -> teacher",
		{lhs: ["teacher"], rhs: ["room"]},
	]
}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// recordSession runs lines in a session recorded to dbPath under id.
func recordSession(t *testing.T, dbPath, id string, lines ...string) {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	sess, err := shell.New(ctx, shell.Options{
		Recorder:    st,
		IDGenerator: testutil.NewFixedSessionGenerator(id),
		Label:       "test",
	})
	require.NoError(t, err)
	for _, line := range lines {
		_, err := sess.Execute(ctx, line)
		var ce *shell.CommandError
		if err != nil && !errors.As(err, &ce) {
			require.NoError(t, err)
		}
	}
}
