// Package style parses the compact resize directive strings attached to
// style names, e.g. "thumb" => "100x100#".
package style

import (
	"image"
	"strings"
)

// CustomFunc is a user supplied transform. It receives the path of the
// source file, the decoded image and the enlarge flag, and its return value
// is used verbatim as the variant.
type CustomFunc func(path string, img image.Image, enlarge bool) (image.Image, error)

// Style is one named variant recipe. A zero Style (no dimensions, no custom
// func) is the pass-through recipe used by the implicit "original" style.
type Style struct {
	Dimensions string
	Custom     CustomFunc
}

// IsPassthrough reports whether the style performs no transform at all.
func (s Style) IsPassthrough() bool {
	return s.Dimensions == "" && s.Custom == nil
}

// Mode selects the geometric operation of a parsed directive.
type Mode int

const (
	// ModeNone is the pass-through directive of an empty style string.
	ModeNone Mode = iota
	ModeLandscape
	ModePortrait
	ModeCrop
	ModeExact
	ModeAuto
	ModeCustom
)

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeLandscape:
		return "landscape"
	case ModePortrait:
		return "portrait"
	case ModeCrop:
		return "crop"
	case ModeExact:
		return "exact"
	case ModeAuto:
		return "auto"
	case ModeCustom:
		return "custom"
	}

	return "unknown"
}

// Directive is the parsed form of a style string. Width or height may be
// zero when the mode derives them from the aspect ratio.
type Directive struct {
	Width   int
	Height  int
	Mode    Mode
	Enlarge bool
}

// Parse converts a style into a directive. It is a pure function of the
// style and total: every input maps to exactly one directive, and
// unrecognized trailing characters after the height fall back to ModeAuto.
func Parse(s Style) Directive {
	if s.Custom != nil {
		return Directive{Mode: ModeCustom}
	}

	dims := s.Dimensions
	if dims == "" {
		return Directive{Mode: ModeNone}
	}

	enlarge := true
	if strings.Contains(dims, "?") {
		dims = strings.ReplaceAll(dims, "?", "")
		enlarge = false
	}

	// Width only, height follows the aspect ratio.
	if !strings.Contains(dims, "x") {
		return Directive{
			Width:   leadingInt(dims),
			Mode:    ModeLandscape,
			Enlarge: enlarge,
		}
	}

	width, height, _ := strings.Cut(dims, "x")

	if width == "" {
		return Directive{
			Height:  leadingInt(height),
			Mode:    ModePortrait,
			Enlarge: enlarge,
		}
	}

	mode := ModeAuto
	switch {
	case strings.HasSuffix(height, "#"):
		height = strings.TrimSuffix(height, "#")
		mode = ModeCrop
	case strings.HasSuffix(height, "!"):
		height = strings.TrimSuffix(height, "!")
		mode = ModeExact
	}

	return Directive{
		Width:   leadingInt(width),
		Height:  leadingInt(height),
		Mode:    mode,
		Enlarge: enlarge,
	}
}

// leadingInt reads the leading run of digits so that stray trailing
// characters never make parsing partial.
func leadingInt(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}

	return n
}
