package render

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jwulff/bgldash/internal/dashboard"
)

func TestParseHex(t *testing.T) {
	assert.Equal(t, color.RGBA{R: 0x43, G: 0xa0, B: 0x47, A: 255}, ParseHex(dashboard.ColourTarget))
	assert.Equal(t, color.RGBA{R: 0xe5, G: 0x39, B: 0x35, A: 255}, ParseHex("e53935"))
}

func TestParseHexMalformed(t *testing.T) {
	assert.Equal(t, ColorGray, ParseHex(""))
	assert.Equal(t, ColorGray, ParseHex("#fff"))
	assert.Equal(t, ColorGray, ParseHex("#zzzzzz"))
}

func TestLerpColor(t *testing.T) {
	black := color.RGBA{A: 255}
	white := ColorWhite

	assert.Equal(t, black, LerpColor(black, white, 0))
	assert.Equal(t, white, LerpColor(black, white, 1))
	assert.Equal(t, black, LerpColor(black, white, -0.5))
	assert.Equal(t, white, LerpColor(black, white, 1.5))

	mid := LerpColor(black, white, 0.5)
	assert.InDelta(t, 127, int(mid.R), 1)
	assert.InDelta(t, 127, int(mid.G), 1)
	assert.InDelta(t, 127, int(mid.B), 1)
}

func TestWithAlpha(t *testing.T) {
	c := color.RGBA{R: 200, G: 100, B: 50, A: 255}

	assert.Equal(t, color.RGBA{}, WithAlpha(c, 0))
	assert.Equal(t, c, WithAlpha(c, 1))
	assert.Equal(t, color.RGBA{R: 100, G: 50, B: 25, A: 127}, WithAlpha(c, 0.5))
}

func TestContrastText(t *testing.T) {
	assert.Equal(t, color.RGBA{A: 255}, ContrastText(ParseHex(dashboard.ColourOutside)))
	assert.Equal(t, ColorWhite, ContrastText(ColorBg))
}
