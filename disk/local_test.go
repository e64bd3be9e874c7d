package disk

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalMoveAndRemove(t *testing.T) {
	root := t.TempDir()
	d := NewLocal(root)

	src := filepath.Join(t.TempDir(), "src.txt")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))

	err := d.Move(context.Background(), src, "/system/users/1/original/a.txt", Public)
	require.NoError(t, err)

	stored, err := os.ReadFile(filepath.Join(root, "system", "users", "1", "original", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), stored)

	d.Remove(context.Background(), []string{"/system/users/1/original/a.txt"})
	_, err = os.Stat(filepath.Join(root, "system", "users", "1", "original", "a.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalMovePrivatePermissions(t *testing.T) {
	root := t.TempDir()
	d := NewLocal(root)

	src := filepath.Join(t.TempDir(), "src.txt")
	require.NoError(t, os.WriteFile(src, []byte("secret"), 0o644))

	require.NoError(t, d.Move(context.Background(), src, "a/b.txt", Private))

	info, err := os.Stat(filepath.Join(root, "a", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLocalRemoveMissingIsSilent(t *testing.T) {
	d := NewLocal(t.TempDir())

	// Must not panic or error; missing blobs are not a failure.
	d.Remove(context.Background(), []string{"not/there.png", ""})
}

func TestLocalMoveMissingSource(t *testing.T) {
	d := NewLocal(t.TempDir())

	err := d.Move(context.Background(), "/does/not/exist", "a/b.txt", Public)
	assert.ErrorIs(t, err, ErrStorage)
}
