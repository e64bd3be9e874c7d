package resize

import (
	"image"
	"os"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
)

// orient applies the flip/rotate combination for EXIF orientation codes
// 2-8. Decoding already dropped the metadata, so there is nothing to strip
// afterwards. Missing or corrupt EXIF data returns the image unmodified; a
// bad orientation tag must never fail the whole transform.
func orient(path string, img image.Image) image.Image {
	f, err := os.Open(path)
	if err != nil {
		return img
	}
	defer f.Close()

	meta, err := exif.Decode(f)
	if err != nil {
		return img
	}

	tag, err := meta.Get(exif.Orientation)
	if err != nil {
		return img
	}

	code, err := tag.Int(0)
	if err != nil {
		return img
	}

	// imaging rotates counter-clockwise, so a 90° clockwise turn is
	// Rotate270.
	switch code {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Rotate270(imaging.FlipV(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Rotate270(imaging.FlipH(img))
	case 8:
		return imaging.Rotate90(img)
	}

	return img
}
