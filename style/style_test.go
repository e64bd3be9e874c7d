package style

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name string
		dims string
		want Directive
	}{
		{"width only", "200", Directive{Width: 200, Mode: ModeLandscape, Enlarge: true}},
		{"width only no enlarge", "200?", Directive{Width: 200, Mode: ModeLandscape, Enlarge: false}},
		{"height only", "x150", Directive{Height: 150, Mode: ModePortrait, Enlarge: true}},
		{"crop", "100x100#", Directive{Width: 100, Height: 100, Mode: ModeCrop, Enlarge: true}},
		{"crop no enlarge", "100x100#?", Directive{Width: 100, Height: 100, Mode: ModeCrop, Enlarge: false}},
		{"exact", "640x480!", Directive{Width: 640, Height: 480, Mode: ModeExact, Enlarge: true}},
		{"auto", "640x480", Directive{Width: 640, Height: 480, Mode: ModeAuto, Enlarge: true}},
		{"unknown trailing char", "640x480$", Directive{Width: 640, Height: 480, Mode: ModeAuto, Enlarge: true}},
		{"empty passthrough", "", Directive{Mode: ModeNone}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, Parse(Style{Dimensions: c.dims}))
		})
	}
}

func TestParseCustom(t *testing.T) {
	s := Style{
		Custom: func(_ string, img image.Image, _ bool) (image.Image, error) {
			return img, nil
		},
	}

	d := Parse(s)
	assert.Equal(t, ModeCustom, d.Mode)
	assert.False(t, d.Enlarge)
}

func TestParseDeterministic(t *testing.T) {
	s := Style{Dimensions: "120x80#?"}
	assert.Equal(t, Parse(s), Parse(s))
}

func TestIsPassthrough(t *testing.T) {
	assert.True(t, Style{}.IsPassthrough())
	assert.False(t, Style{Dimensions: "100"}.IsPassthrough())
}
