package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/armstrong/internal/ir"
)

func TestCreateSession_AssignsIncreasingSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSession(ctx, "s1", "first"))
	require.NoError(t, s.CreateSession(ctx, "s2", ""))

	sessions, err := s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "s1", sessions[0].ID)
	assert.Equal(t, int64(1), sessions[0].Seq)
	assert.Equal(t, "first", sessions[0].Label)
	assert.Equal(t, ir.EngineVersion, sessions[0].EngineVersion)
	assert.Equal(t, "s2", sessions[1].ID)
	assert.Equal(t, int64(2), sessions[1].Seq)
}

func TestCreateSession_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSession(ctx, "s1", "first"))
	require.NoError(t, s.CreateSession(ctx, "s1", "again"))

	sessions, err := s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "first", sessions[0].Label)
}

func TestAppendCommand_Sequential(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestSession(t, s, "s1")

	for i, cmd := range []string{"push {a} -> {b}", "reflexive", "show"} {
		seq, err := s.AppendCommand(ctx, "s1", cmd)
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), seq)
	}

	commands, err := s.ReadCommands(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"push {a} -> {b}", "reflexive", "show"}, commands)
}

func TestAppendCommand_SeqIsPerSession(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestSession(t, s, "s1")
	createTestSession(t, s, "s2")

	_, err := s.AppendCommand(ctx, "s1", "show")
	require.NoError(t, err)
	seq, err := s.AppendCommand(ctx, "s2", "show")
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)
}

func TestAppendCommand_UnknownSession(t *testing.T) {
	s := createTestStore(t)

	_, err := s.AppendCommand(context.Background(), "missing", "show")
	assert.Error(t, err)
}

func TestWriteSnapshot_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestSession(t, s, "s1")

	trivial := testFD([]string{"a"}, []string{"a"}, 2)
	trivial.Trivial = true
	fds := []ir.FD{
		testFD([]string{"a"}, []string{"b"}, 1),
		trivial,
		testFD([]string{"a", "b"}, []string{"c", "d"}, 3),
	}
	require.NoError(t, s.WriteSnapshot(ctx, "s1", 3, fds))

	snap, err := s.ReadSnapshot(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, ir.Version(3), snap.Version)
	require.Len(t, snap.FDs, 3)
	for i := range fds {
		assert.True(t, fds[i].Same(snap.FDs[i]), "fd %d: got %s, want %s", i, snap.FDs[i], fds[i])
		assert.Equal(t, fds[i].Version, snap.FDs[i].Version)
		assert.Equal(t, fds[i].Trivial, snap.FDs[i].Trivial)
	}

	want, err := ir.SnapshotHash(fds)
	require.NoError(t, err)
	assert.Equal(t, want, snap.Hash)
}

func TestWriteSnapshot_Replaces(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestSession(t, s, "s1")

	require.NoError(t, s.WriteSnapshot(ctx, "s1", 1, []ir.FD{
		testFD([]string{"a"}, []string{"b"}, 1),
		testFD([]string{"b"}, []string{"c"}, 1),
	}))
	require.NoError(t, s.WriteSnapshot(ctx, "s1", 2, []ir.FD{
		testFD([]string{"x"}, []string{"y"}, 2),
	}))

	snap, err := s.ReadSnapshot(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, ir.Version(2), snap.Version)
	require.Len(t, snap.FDs, 1)
	assert.Equal(t, "{x} -> {y}", snap.FDs[0].String())
}

func TestWriteSnapshot_Empty(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestSession(t, s, "s1")

	require.NoError(t, s.WriteSnapshot(ctx, "s1", 0, nil))

	snap, err := s.ReadSnapshot(ctx, "s1")
	require.NoError(t, err)
	assert.NotNil(t, snap.FDs)
	assert.Empty(t, snap.FDs)
}
