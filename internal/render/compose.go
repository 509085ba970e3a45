// Package render draws a PNG preview of the dashboard: the status line on
// top and the glucose chart below.
package render

import (
	"fmt"
	"io"
	"time"

	"github.com/fogleman/gg"

	"github.com/jwulff/bgldash/internal/bloodsugar"
	"github.com/jwulff/bgldash/internal/dashboard"
)

// Default preview size.
const (
	DefaultWidth  = 960
	DefaultHeight = 480
)

// Options sizes the preview.
type Options struct {
	Width    int
	Height   int
	Location *time.Location
}

// ApplyDefaults applies default values to zero fields.
func (o *Options) ApplyDefaults() {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= StatusHeight+plotMarginTop+plotMarginBottom {
		o.Height = DefaultHeight
	}
	if o.Location == nil {
		o.Location = time.Local
	}
}

// Frame contains all data needed to render a preview.
type Frame struct {
	Time   time.Time
	Status bloodsugar.Status
	// Unit for the status line. Empty uses the chart's unit, else mg/dL.
	Unit  bloodsugar.Unit
	Chart *dashboard.Chart
}

func (f Frame) unit() bloodsugar.Unit {
	if f.Unit.Valid() {
		return f.Unit
	}
	if f.Chart != nil && f.Chart.ValueAxis.Unit.Valid() {
		return f.Chart.ValueAxis.Unit
	}
	return bloodsugar.CanonicalUnit
}

// Compose draws the frame and returns the drawing context.
func Compose(f Frame, opts Options) (*gg.Context, error) {
	opts.ApplyDefaults()
	if f.Time.IsZero() {
		f.Time = time.Now()
	}

	dc := gg.NewContext(opts.Width, opts.Height)
	dc.SetColor(ColorBg)
	dc.Clear()

	var rule *dashboard.ColourRule
	if f.Chart != nil {
		rule = &f.Chart.Colours
	}
	if err := drawStatus(dc, f.Status, f.unit(), rule, f.Time, float64(opts.Width)); err != nil {
		return nil, fmt.Errorf("failed to draw status: %w", err)
	}

	area := plotArea{
		X: plotMarginLeft,
		Y: StatusHeight + plotMarginTop,
		W: float64(opts.Width - plotMarginLeft - plotMarginRight),
		H: float64(opts.Height - StatusHeight - plotMarginTop - plotMarginBottom),
	}
	if f.Chart == nil {
		if err := setFont(dc, titleSize); err != nil {
			return nil, err
		}
		dc.SetColor(ColorGray)
		dc.DrawStringAnchored("No chart yet", area.X+area.W/2, area.Y+area.H/2, 0.5, 0.5)
		return dc, nil
	}
	if err := drawChart(dc, f.Chart, area, opts.Location); err != nil {
		return nil, fmt.Errorf("failed to draw chart: %w", err)
	}
	return dc, nil
}

// WritePNG renders the frame as PNG to w.
func WritePNG(w io.Writer, f Frame, opts Options) error {
	dc, err := Compose(f, opts)
	if err != nil {
		return err
	}
	return dc.EncodePNG(w)
}

// SavePNG renders the frame as PNG to path.
func SavePNG(path string, f Frame, opts Options) error {
	dc, err := Compose(f, opts)
	if err != nil {
		return err
	}
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("failed to save preview: %w", err)
	}
	return nil
}
