package render

import (
	"image/color"
	"time"

	"github.com/fogleman/gg"

	"github.com/jwulff/bgldash/internal/bloodsugar"
	"github.com/jwulff/bgldash/internal/dashboard"
)

// Status header layout.
const (
	StatusHeight     = 56
	statusMargin     = 16
	statusValueSize  = 30
	statusDetailSize = 14
	arrowSize        = 22
)

// arrowAngles rotates the up arrow for each trend, in degrees.
var arrowAngles = map[bloodsugar.Trend]float64{
	bloodsugar.TrendDoubleUp:      0,
	bloodsugar.TrendSingleUp:      0,
	bloodsugar.TrendFortyFiveUp:   45,
	bloodsugar.TrendFlat:          90,
	bloodsugar.TrendFortyFiveDown: 135,
	bloodsugar.TrendSingleDown:    180,
	bloodsugar.TrendDoubleDown:    180,
}

// drawTrendArrow draws a trend arrow centred at x, y. Unknown trends draw
// nothing. Returns the width consumed.
func drawTrendArrow(dc *gg.Context, trend bloodsugar.Trend, x, y, size float64) float64 {
	angle, ok := arrowAngles[trend]
	if !ok {
		return 0
	}

	dc.Push()
	defer dc.Pop()
	dc.Translate(x, y)
	dc.Rotate(gg.Radians(angle))

	if trend == bloodsugar.TrendDoubleUp || trend == bloodsugar.TrendDoubleDown {
		drawSingleArrow(dc, 0, -size/4, size*0.8)
		drawSingleArrow(dc, 0, size/4, size*0.8)
	} else {
		drawSingleArrow(dc, 0, 0, size)
	}
	return size + 6
}

func drawSingleArrow(dc *gg.Context, ox, oy, s float64) {
	w := s * 0.5

	dc.NewSubPath()
	dc.MoveTo(ox, oy-s/2)
	dc.LineTo(ox+w/2, oy)
	dc.LineTo(ox+w/6, oy)
	dc.LineTo(ox+w/6, oy+s/2)
	dc.LineTo(ox-w/6, oy+s/2)
	dc.LineTo(ox-w/6, oy)
	dc.LineTo(ox-w/2, oy)
	dc.ClosePath()
	dc.Fill()
}

// statusColor picks the value colour: stale readings are grey, otherwise
// the chart's colour rule applies when there is one.
func statusColor(value float64, stale bool, rule *dashboard.ColourRule) color.RGBA {
	if stale {
		return ColorStale
	}
	if rule == nil {
		return ColorWhite
	}
	return ParseHex(rule.ColourFor(value))
}

// drawStatus renders the status line: arrow, value, delta and age.
func drawStatus(dc *gg.Context, s bloodsugar.Status, unit bloodsugar.Unit, rule *dashboard.ColourRule, now time.Time, width float64) error {
	cy := float64(StatusHeight) / 2

	if s.IsEmpty() || s.Bgl == nil {
		if err := setFont(dc, statusValueSize); err != nil {
			return err
		}
		dc.SetColor(ColorGray)
		dc.DrawStringAnchored("BG --", width/2, cy, 0.5, 0.5)
		return nil
	}

	value, err := bloodsugar.ScaleFromCanonical(*s.Bgl, unit)
	if err != nil {
		return err
	}
	valueColor := statusColor(value, s.IsStale(now), rule)

	x := float64(statusMargin)
	dc.SetColor(valueColor)
	x += drawTrendArrow(dc, s.Trend, x+arrowSize/2, cy, arrowSize)

	if err := setFont(dc, statusValueSize); err != nil {
		return err
	}
	valueText := bloodsugar.FormatBgl(value, unit)
	dc.DrawStringAnchored(valueText, x, cy, 0, 0.5)
	w, _ := dc.MeasureString(valueText)
	x += w + 8

	if err := setFont(dc, statusDetailSize); err != nil {
		return err
	}
	dc.SetColor(ColorGray)
	dc.DrawStringAnchored(unit.Label(), x, cy, 0, 0.5)
	w, _ = dc.MeasureString(unit.Label())
	x += w + 16

	dc.SetColor(ColorWhite)
	if s.Delta != nil {
		delta, err := bloodsugar.ScaleFromCanonical(*s.Delta, unit)
		if err != nil {
			return err
		}
		deltaText := bloodsugar.FormatDelta(delta)
		dc.DrawStringAnchored(deltaText, x, cy, 0, 0.5)
		w, _ = dc.MeasureString(deltaText)
		x += w + 16
	}

	dc.DrawStringAnchored(s.RelativeTime(now), x, cy, 0, 0.5)
	return nil
}
