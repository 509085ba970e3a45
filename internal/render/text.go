package render

import (
	"fmt"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	fontOnce   sync.Once
	parsedFont *truetype.Font
	fontErr    error
)

// face returns the Go Regular face at size points.
func face(size float64) (font.Face, error) {
	fontOnce.Do(func() {
		parsedFont, fontErr = truetype.Parse(goregular.TTF)
	})
	if fontErr != nil {
		return nil, fmt.Errorf("failed to parse font: %w", fontErr)
	}
	return truetype.NewFace(parsedFont, &truetype.Options{Size: size}), nil
}

// setFont selects the Go Regular face at size points on dc.
func setFont(dc *gg.Context, size float64) error {
	f, err := face(size)
	if err != nil {
		return err
	}
	dc.SetFontFace(f)
	return nil
}

// MeasureText returns the width and height of s at size points.
func MeasureText(s string, size float64) (float64, float64, error) {
	dc := gg.NewContext(1, 1)
	if err := setFont(dc, size); err != nil {
		return 0, 0, err
	}
	w, h := dc.MeasureString(s)
	return w, h, nil
}
