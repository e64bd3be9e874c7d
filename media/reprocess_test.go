package media

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"mediakit/disk"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func localManager(t *testing.T, extra Layer) (*Manager, string, *fakeRecord) {
	t.Helper()

	root := t.TempDir()

	m, err := New("avatar", testConfig(t, extra), disk.NewLocal(root))
	require.NoError(t, err)

	rec := newFakeRecord(7)
	m.SetRecord(rec)

	return m, root, rec
}

func writeImageUpload(t *testing.T, name string, w, h int) string {
	t.Helper()

	p := filepath.Join(t.TempDir(), name)
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 120, B: 40, A: 255})
	require.NoError(t, imaging.Save(img, p))
	return p
}

func TestReprocessKeepsStoredOriginal(t *testing.T) {
	m, root, _ := localManager(t, nil)
	ctx := context.Background()

	require.NoError(t, m.Assign(ctx, writeUpload(t, "avatar.txt")))
	require.NoError(t, m.CommitSave(ctx))

	originalPath := filepath.Join(root, "system", "models", "photo", "avatars", "7", "original", "avatar.txt")
	payload, err := os.ReadFile(originalPath)
	require.NoError(t, err)
	require.Equal(t, "payload of avatar.txt", string(payload))

	require.NoError(t, m.Reprocess(ctx))

	after, err := os.ReadFile(originalPath)
	require.NoError(t, err)
	assert.Equal(t, "payload of avatar.txt", string(after),
		"the stored original survives reprocessing intact")

	thumbPath := filepath.Join(root, "system", "models", "photo", "avatars", "7", "thumb", "avatar.txt")
	thumb, err := os.ReadFile(thumbPath)
	require.NoError(t, err)
	assert.Equal(t, "payload of avatar.txt", string(thumb))
}

func TestReprocessRegeneratesImageVariants(t *testing.T) {
	m, root, _ := localManager(t, nil)
	ctx := context.Background()

	require.NoError(t, m.Assign(ctx, writeImageUpload(t, "photo.png", 300, 200)))
	require.NoError(t, m.CommitSave(ctx))

	thumbPath := filepath.Join(root, "system", "models", "photo", "avatars", "7", "thumb", "photo.png")
	require.FileExists(t, thumbPath)
	require.NoError(t, os.Remove(thumbPath))

	require.NoError(t, m.Reprocess(ctx))

	thumb, err := imaging.Open(thumbPath)
	require.NoError(t, err)
	assert.Equal(t, 100, thumb.Bounds().Dx())
	assert.Equal(t, 100, thumb.Bounds().Dy())

	originalPath := filepath.Join(root, "system", "models", "photo", "avatars", "7", "original", "photo.png")
	original, err := imaging.Open(originalPath)
	require.NoError(t, err)
	assert.Equal(t, 300, original.Bounds().Dx())
	assert.Equal(t, 200, original.Bounds().Dy())
}

func TestReprocessFallsBackToVariantWhenOriginalMissing(t *testing.T) {
	m, root, _ := localManager(t, nil)
	ctx := context.Background()

	require.NoError(t, m.Assign(ctx, writeUpload(t, "avatar.txt")))
	require.NoError(t, m.CommitSave(ctx))

	originalPath := filepath.Join(root, "system", "models", "photo", "avatars", "7", "original", "avatar.txt")
	require.NoError(t, os.Remove(originalPath))

	require.NoError(t, m.Reprocess(ctx))

	// Each style falls back to its own current file, so the thumb keeps
	// its bytes instead of being truncated against itself.
	thumbPath := filepath.Join(root, "system", "models", "photo", "avatars", "7", "thumb", "avatar.txt")
	thumb, err := os.ReadFile(thumbPath)
	require.NoError(t, err)
	assert.Equal(t, "payload of avatar.txt", string(thumb))
}

func TestReprocessSkipsNonLocalDisk(t *testing.T) {
	m, d, rec := testManager(t, nil)
	ctx := context.Background()

	require.NoError(t, m.Assign(ctx, writeUpload(t, "avatar.txt")))
	require.NoError(t, m.CommitSave(ctx))

	before := len(d.ops)
	require.NoError(t, m.Reprocess(ctx))

	assert.Len(t, d.ops, before, "a disk without local reads performs no work")
	assert.Equal(t, "avatar.txt", rec.fields["avatar_file_name"])
}

func TestReprocessEmptyAttachmentIsNoop(t *testing.T) {
	m, root, _ := localManager(t, nil)

	require.NoError(t, m.Reprocess(context.Background()))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
