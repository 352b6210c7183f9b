package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndLoadCheckpoint(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateRun(ctx, "run-1", "standard"))
	require.NoError(t, s.SaveCheckpoint(ctx, "run-1", 10000, []byte("snap-a")))

	got, err := s.LoadCheckpoint(ctx, "run-1", 10000)
	require.NoError(t, err)
	assert.Equal(t, []byte("snap-a"), got)
}

func TestLoadCheckpointMissing(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.LoadCheckpoint(ctx, "nope", 1)
	assert.ErrorIs(t, err, ErrNoCheckpoint)
}

func TestSaveCheckpointOverwrites(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateRun(ctx, "run-1", "standard"))
	require.NoError(t, s.SaveCheckpoint(ctx, "run-1", 500, []byte("old")))
	require.NoError(t, s.SaveCheckpoint(ctx, "run-1", 500, []byte("new")))

	got, err := s.LoadCheckpoint(ctx, "run-1", 500)
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)
}

func TestLatestSnapshotPerVariant(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateRun(ctx, "run-std", "standard"))
	require.NoError(t, s.CreateRun(ctx, "run-rev", "reverse"))
	require.NoError(t, s.SaveCheckpoint(ctx, "run-std", 100, []byte("std-100")))
	require.NoError(t, s.SaveCheckpoint(ctx, "run-std", 200, []byte("std-200")))
	require.NoError(t, s.SaveCheckpoint(ctx, "run-rev", 50, []byte("rev-50")))

	snap, episode, err := s.LatestSnapshot(ctx, "standard")
	require.NoError(t, err)
	assert.Equal(t, []byte("std-200"), snap)
	assert.Equal(t, 200, episode)

	snap, episode, err = s.LatestSnapshot(ctx, "reverse")
	require.NoError(t, err)
	assert.Equal(t, []byte("rev-50"), snap)
	assert.Equal(t, 50, episode)

	_, _, err = s.LatestSnapshot(ctx, "other")
	assert.ErrorIs(t, err, ErrNoCheckpoint)
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}
