package resize

import (
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"mediakit/file"
	"mediakit/style"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestImage(t *testing.T, name string, w, h int) *file.UploadedFile {
	t.Helper()

	img := imaging.New(w, h, image.White.C)
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, imaging.Save(img, p))

	return &file.UploadedFile{
		TempPath:     p,
		OriginalName: name,
		MimeType:     "image/png",
	}
}

func dims(t *testing.T, path string) (int, int) {
	t.Helper()

	img, err := imaging.Open(path)
	require.NoError(t, err)

	b := img.Bounds()
	return b.Dx(), b.Dy()
}

func TestResizeCropCentered(t *testing.T) {
	f := writeTestImage(t, "crop.png", 800, 600)

	out, err := New(Options{}).Resize(f, style.Style{Dimensions: "200x200#"})
	require.NoError(t, err)
	defer os.Remove(out)

	// Optimal ratio is min(600/200, 800/200) = 3; the scaled box is 267x200
	// and the final center crop is exactly 200x200.
	w, h := dims(t, out)
	assert.Equal(t, 200, w)
	assert.Equal(t, 200, h)
}

func TestResizeLandscapeNoEnlarge(t *testing.T) {
	f := writeTestImage(t, "small.png", 50, 40)

	out, err := New(Options{}).Resize(f, style.Style{Dimensions: "200?"})
	require.NoError(t, err)
	defer os.Remove(out)

	// Enlarging is disabled, so the 50px source keeps its dimensions.
	w, h := dims(t, out)
	assert.Equal(t, 50, w)
	assert.Equal(t, 40, h)
}

func TestResizeLandscape(t *testing.T) {
	f := writeTestImage(t, "wide.png", 400, 200)

	out, err := New(Options{}).Resize(f, style.Style{Dimensions: "200"})
	require.NoError(t, err)
	defer os.Remove(out)

	w, h := dims(t, out)
	assert.Equal(t, 200, w)
	assert.Equal(t, 100, h)
}

func TestResizePortrait(t *testing.T) {
	f := writeTestImage(t, "tall.png", 200, 400)

	out, err := New(Options{}).Resize(f, style.Style{Dimensions: "x100"})
	require.NoError(t, err)
	defer os.Remove(out)

	w, h := dims(t, out)
	assert.Equal(t, 50, w)
	assert.Equal(t, 100, h)
}

func TestResizeExactIgnoresAspect(t *testing.T) {
	f := writeTestImage(t, "exact.png", 300, 300)

	out, err := New(Options{}).Resize(f, style.Style{Dimensions: "120x40!"})
	require.NoError(t, err)
	defer os.Remove(out)

	w, h := dims(t, out)
	assert.Equal(t, 120, w)
	assert.Equal(t, 40, h)
}

func TestResizeAutoPicksOrientation(t *testing.T) {
	wide := writeTestImage(t, "auto-wide.png", 400, 100)

	out, err := New(Options{}).Resize(wide, style.Style{Dimensions: "200x200"})
	require.NoError(t, err)
	defer os.Remove(out)

	// Wider than tall resolves to landscape: width 200, height by ratio.
	w, h := dims(t, out)
	assert.Equal(t, 200, w)
	assert.Equal(t, 50, h)
}

func TestResizePassthrough(t *testing.T) {
	f := writeTestImage(t, "orig.png", 100, 100)

	out, err := New(Options{}).Resize(f, style.Style{})
	require.NoError(t, err)
	assert.Equal(t, f.TempPath, out)
}

func TestResizeCustomCallback(t *testing.T) {
	f := writeTestImage(t, "custom.png", 100, 100)

	st := style.Style{
		Custom: func(_ string, img image.Image, enlarge bool) (image.Image, error) {
			assert.False(t, enlarge)
			return imaging.Resize(img, 10, 10, imaging.Lanczos), nil
		},
	}

	out, err := New(Options{}).Resize(f, st)
	require.NoError(t, err)
	defer os.Remove(out)

	w, h := dims(t, out)
	assert.Equal(t, 10, w)
	assert.Equal(t, 10, h)
}

func TestResizeCustomCallbackError(t *testing.T) {
	f := writeTestImage(t, "boom.png", 100, 100)

	st := style.Style{
		Custom: func(string, image.Image, bool) (image.Image, error) {
			return nil, errors.New("boom")
		},
	}

	_, err := New(Options{}).Resize(f, st)
	assert.ErrorIs(t, err, ErrTransform)
}

func TestResizeUnreadableSource(t *testing.T) {
	f := &file.UploadedFile{
		TempPath:     filepath.Join(t.TempDir(), "missing.png"),
		OriginalName: "missing.png",
	}

	_, err := New(Options{}).Resize(f, style.Style{Dimensions: "100x100"})
	assert.ErrorIs(t, err, ErrTransform)
}

func TestOrientCorruptMetadata(t *testing.T) {
	f := writeTestImage(t, "plain.png", 40, 20)

	img, err := imaging.Open(f.TempPath)
	require.NoError(t, err)

	// PNGs carry no EXIF blocks at all; orientation must be a no-op.
	out := orient(f.TempPath, img)
	assert.Equal(t, img.Bounds(), out.Bounds())
}
