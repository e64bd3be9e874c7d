// Package resize executes parsed style directives against decoded images
// and writes the encoded variants to temp files.
package resize

import (
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"

	"mediakit/file"
	"mediakit/style"
	"mediakit/util"

	"github.com/disintegration/imaging"
)

// ErrTransform is the category error for decode, resize and encode
// failures. A transform failure aborts the whole flush it belongs to.
var ErrTransform = errors.New("transform failed")

// Options carries the encode and orientation settings shared by every
// style of one attachment.
type Options struct {
	// Quality applies to JPEG encoding, 0-100. Lossless formats ignore it.
	Quality int

	// AutoOrient applies the flip/rotate combination of the embedded EXIF
	// orientation tag and is tolerant of missing or corrupt metadata.
	AutoOrient bool

	// Palette forces a color palette on the output. Only "grayscale" is
	// recognized; anything else leaves the image colors untouched.
	Palette string
}

type Resizer struct {
	opts Options
}

func New(opts Options) *Resizer {
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = 90
	}

	return &Resizer{opts: opts}
}

// Resize runs one style against the uploaded file and returns the path of
// a fresh temp file holding the encoded variant. The caller owns the
// returned file and removes it once moved.
func (r *Resizer) Resize(f *file.UploadedFile, st style.Style) (string, error) {
	d := style.Parse(st)

	if d.Mode == style.ModeNone {
		// Pass-through styles never reach the decoder.
		return f.TempPath, nil
	}

	img, err := imaging.Open(f.TempPath)
	if err != nil {
		return "", fmt.Errorf("%w: failed to decode %q, %v", ErrTransform, f.TempPath, err)
	}

	if r.opts.AutoOrient {
		img = orient(f.TempPath, img)
	}

	if r.opts.Palette == "grayscale" {
		img = imaging.Grayscale(img)
	}

	out, err := r.apply(f, img, st, d)
	if err != nil {
		return "", err
	}

	target := filepath.Join(os.TempDir(), util.RandStr(10)+"-"+f.OriginalName)

	if err := imaging.Save(out, target, imaging.JPEGQuality(r.opts.Quality)); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("%w: failed to encode %q, %v", ErrTransform, target, err)
	}

	return target, nil
}

func (r *Resizer) apply(f *file.UploadedFile, img image.Image, st style.Style, d style.Directive) (image.Image, error) {
	switch d.Mode {
	case style.ModeLandscape:
		return landscape(img, d), nil
	case style.ModePortrait:
		return portrait(img, d), nil
	case style.ModeCrop:
		return crop(img, d), nil
	case style.ModeExact:
		return imaging.Resize(img, atLeastOne(d.Width), atLeastOne(d.Height), imaging.Lanczos), nil
	case style.ModeAuto:
		return auto(img, d), nil
	case style.ModeCustom:
		out, err := st.Custom(f.TempPath, img, d.Enlarge)
		if err != nil {
			return nil, fmt.Errorf("%w: custom style callback, %v", ErrTransform, err)
		}
		return out, nil
	}

	return nil, fmt.Errorf("%w: unsupported mode %v", ErrTransform, d.Mode)
}

// landscape resizes to a target width, height following the aspect ratio.
func landscape(img image.Image, d style.Directive) image.Image {
	b := img.Bounds()
	ratio := float64(b.Dy()) / float64(b.Dx())

	width := d.Width
	if !d.Enlarge && b.Dx() < width {
		width = b.Dx()
	}

	return imaging.Resize(img, atLeastOne(width), roundDim(float64(width)*ratio), imaging.Lanczos)
}

// portrait resizes to a target height, width following the aspect ratio.
func portrait(img image.Image, d style.Directive) image.Image {
	b := img.Bounds()
	ratio := float64(b.Dx()) / float64(b.Dy())

	height := d.Height
	if !d.Enlarge && b.Dy() < height {
		height = b.Dy()
	}

	return imaging.Resize(img, roundDim(float64(height)*ratio), atLeastOne(height), imaging.Lanczos)
}

// crop resizes to the minimal box covering the target aspect ratio, then
// center-crops to the exact target dimensions.
func crop(img image.Image, d style.Directive) image.Image {
	b := img.Bounds()

	width, height := d.Width, d.Height
	if !d.Enlarge && b.Dx() < width {
		width = b.Dx()
	}
	if !d.Enlarge && b.Dy() < height {
		height = b.Dy()
	}

	heightRatio := float64(b.Dy()) / float64(height)
	widthRatio := float64(b.Dx()) / float64(width)

	optimal := math.Min(heightRatio, widthRatio)

	scaled := imaging.Resize(img,
		roundDim(float64(b.Dx())/optimal),
		roundDim(float64(b.Dy())/optimal),
		imaging.Lanczos)

	return imaging.CropCenter(scaled, atLeastOne(width), atLeastOne(height))
}

// auto picks landscape for wide sources, portrait for tall ones, and falls
// back to the target shape (or exact) for square sources.
func auto(img image.Image, d style.Directive) image.Image {
	b := img.Bounds()

	switch {
	case b.Dy() < b.Dx():
		return landscape(img, d)
	case b.Dy() > b.Dx():
		return portrait(img, d)
	case d.Height < d.Width:
		return landscape(img, d)
	case d.Height > d.Width:
		return portrait(img, d)
	}

	return imaging.Resize(img, atLeastOne(d.Width), atLeastOne(d.Height), imaging.Lanczos)
}

func roundDim(v float64) int {
	return atLeastOne(int(math.Round(v)))
}

func atLeastOne(v int) int {
	if v < 1 {
		return 1
	}

	return v
}
