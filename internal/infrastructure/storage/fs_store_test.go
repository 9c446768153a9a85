package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSObjectStore_UploadAndExists(t *testing.T) {
	root := t.TempDir()
	store, err := NewFSObjectStore(root)
	require.NoError(t, err)
	ctx := context.Background()

	artifact := filepath.Join(t.TempDir(), "markethub-20260830.dump")
	require.NoError(t, os.WriteFile(artifact, []byte("dump contents"), 0o644))

	require.NoError(t, store.Upload(ctx, "backups/2026/markethub-20260830.dump", artifact))

	exists, err := store.ObjectExists(ctx, "backups/2026/markethub-20260830.dump")
	require.NoError(t, err)
	assert.True(t, exists)

	stored, err := os.ReadFile(filepath.Join(root, "backups", "2026", "markethub-20260830.dump"))
	require.NoError(t, err)
	assert.Equal(t, []byte("dump contents"), stored)
}

func TestFSObjectStore_UploadMissingArtifact(t *testing.T) {
	store, err := NewFSObjectStore(t.TempDir())
	require.NoError(t, err)

	err = store.Upload(context.Background(), "backups/missing.dump", "/nonexistent/path.dump")
	assert.Error(t, err)
}

func TestFSObjectStore_Delete(t *testing.T) {
	root := t.TempDir()
	store, err := NewFSObjectStore(root)
	require.NoError(t, err)
	ctx := context.Background()

	artifact := filepath.Join(t.TempDir(), "a.dump")
	require.NoError(t, os.WriteFile(artifact, []byte("x"), 0o644))
	require.NoError(t, store.Upload(ctx, "a.dump", artifact))

	require.NoError(t, store.DeleteObject(ctx, "a.dump"))

	exists, err := store.ObjectExists(ctx, "a.dump")
	require.NoError(t, err)
	assert.False(t, exists)

	// Deleting a missing object is not an error
	assert.NoError(t, store.DeleteObject(ctx, "a.dump"))
}

func TestFSObjectStore_RequiresKey(t *testing.T) {
	store, err := NewFSObjectStore(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, store.Upload(context.Background(), "", "whatever"))
	assert.Error(t, store.DeleteObject(context.Background(), ""))
	_, err = store.ObjectExists(context.Background(), "")
	assert.Error(t, err)
}

func TestNewFSObjectStore_RequiresDir(t *testing.T) {
	_, err := NewFSObjectStore("")
	assert.Error(t, err)
}
