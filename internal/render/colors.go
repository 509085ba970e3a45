package render

import (
	"image/color"
	"strconv"
	"strings"

	"github.com/jwulff/bgldash/internal/dashboard"
)

// Common colors for the preview.
var (
	// Background
	ColorBg   = color.RGBA{R: 18, G: 18, B: 18, A: 255}
	ColorPlot = color.RGBA{R: 28, G: 28, B: 28, A: 255}

	// Text colors
	ColorWhite   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	ColorGray    = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	ColorDimGray = color.RGBA{R: 64, G: 64, B: 64, A: 255}

	// Shown for a status older than the stale threshold.
	ColorStale = color.RGBA{R: 156, G: 163, B: 175, A: 255}

	// Chart grid
	ColorChartGrid = color.RGBA{R: 48, G: 48, B: 48, A: 255}

	// Hour markers fade from midnight purple to noon yellow.
	ColorMidnight = color.RGBA{R: 120, G: 50, B: 180, A: 255}
	ColorNoon     = color.RGBA{R: 120, G: 100, B: 25, A: 255}
)

// ParseHex converts a "#rrggbb" colour. Malformed input yields gray.
func ParseHex(c dashboard.Colour) color.RGBA {
	s := strings.TrimPrefix(string(c), "#")
	if len(s) != 6 {
		return ColorGray
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return ColorGray
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}

// LerpColor linearly interpolates between two colors.
func LerpColor(a, b color.RGBA, t float64) color.RGBA {
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}
	return color.RGBA{
		R: uint8(float64(a.R) + t*float64(int(b.R)-int(a.R))),
		G: uint8(float64(a.G) + t*float64(int(b.G)-int(a.G))),
		B: uint8(float64(a.B) + t*float64(int(b.B)-int(a.B))),
		A: 255,
	}
}

// WithAlpha returns c with the given opacity (0-1), premultiplied.
func WithAlpha(c color.RGBA, alpha float64) color.RGBA {
	if alpha <= 0 {
		return color.RGBA{}
	}
	if alpha >= 1 {
		return c
	}
	return color.RGBA{
		R: uint8(float64(c.R) * alpha),
		G: uint8(float64(c.G) * alpha),
		B: uint8(float64(c.B) * alpha),
		A: uint8(255 * alpha),
	}
}

// ContrastText returns black or white, whichever reads better on bg.
func ContrastText(bg color.RGBA) color.RGBA {
	brightness := (int(bg.R)*299 + int(bg.G)*587 + int(bg.B)*114) / 1000
	if brightness > 128 {
		return color.RGBA{A: 255}
	}
	return ColorWhite
}
