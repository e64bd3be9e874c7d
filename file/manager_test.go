package file

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 1x1 transparent PNG.
var pngBytes = mustDecode("iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg==")

func mustDecode(s string) []byte {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

func TestMakeFromPath(t *testing.T) {
	p := filepath.Join(t.TempDir(), "Some Image.PNG")
	require.NoError(t, os.WriteFile(p, pngBytes, 0o644))

	f, err := NewManager().Make(p)
	require.NoError(t, err)

	assert.Equal(t, p, f.TempPath)
	assert.Equal(t, "some-image.png", f.OriginalName)
	assert.Equal(t, "image/png", f.MimeType)
	assert.Equal(t, int64(len(pngBytes)), f.Size)
	assert.True(t, f.IsImage())
}

func TestMakeFromBase64(t *testing.T) {
	f, err := NewManager().Make(Base64Upload{
		Name: "My Avatar.png",
		Data: base64.StdEncoding.EncodeToString(pngBytes),
	})
	require.NoError(t, err)
	defer os.Remove(f.TempPath)

	assert.Equal(t, "my-avatar.png", f.OriginalName)
	assert.Equal(t, "image/png", f.MimeType)

	stored, err := os.ReadFile(f.TempPath)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, stored)
}

func TestMakeFromBase64Invalid(t *testing.T) {
	_, err := NewManager().Make(Base64Upload{Name: "x.png", Data: "%%%not-base64%%%"})
	assert.ErrorIs(t, err, ErrFile)
}

func TestMakeFromMap(t *testing.T) {
	p := filepath.Join(t.TempDir(), "tmpupload")
	require.NoError(t, os.WriteFile(p, pngBytes, 0o644))

	f, err := NewManager().Make(map[string]string{
		"tmp_path": p,
		"name":     "Portrait Shot.png",
		"mime":     "image/png",
	})
	require.NoError(t, err)

	assert.Equal(t, "portrait-shot.png", f.OriginalName)
	assert.Equal(t, "image/png", f.MimeType)
}

func TestMakeRejectsBannedExtension(t *testing.T) {
	p := filepath.Join(t.TempDir(), "malware.exe")
	require.NoError(t, os.WriteFile(p, []byte("MZ"), 0o644))

	_, err := NewManager().Make(p)
	assert.ErrorIs(t, err, ErrFile)
}

func TestMakeRejectsMissingFile(t *testing.T) {
	_, err := NewManager().Make(filepath.Join(t.TempDir(), "nope.png"))
	assert.ErrorIs(t, err, ErrFile)
}

func TestMakeRejectsUnsupportedType(t *testing.T) {
	_, err := NewManager().Make(42)
	assert.ErrorIs(t, err, ErrFile)
}

func TestMakePassesThroughUploadedFile(t *testing.T) {
	orig := &UploadedFile{TempPath: "/tmp/x", OriginalName: "x.png"}
	f, err := NewManager().Make(orig)
	require.NoError(t, err)
	assert.Same(t, orig, f)
}
