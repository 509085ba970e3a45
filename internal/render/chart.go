package render

import (
	"math"
	"time"

	"github.com/fogleman/gg"

	"github.com/jwulff/bgldash/internal/bloodsugar"
	"github.com/jwulff/bgldash/internal/dashboard"
	"github.com/jwulff/bgldash/internal/preferences"
)

// Chart drawing constants, in pixels.
const (
	plotMarginLeft   = 56
	plotMarginRight  = 16
	plotMarginTop    = 32
	plotMarginBottom = 28

	lineWidth    = 2
	pointRadius  = 2.5
	markerSize   = 9
	labelSize    = 11
	titleSize    = 14
	headroomRate = 0.05
)

// plotArea is the rectangle the series are drawn into.
type plotArea struct {
	X, Y, W, H float64
}

// axisRange is the value range mapped onto the plot height.
type axisRange struct {
	Lo, Hi float64
}

// valueRange spans the axis floor up to the larger of the soft maximum and
// the highest plotted value, plus headroom.
func valueRange(c *dashboard.Chart) axisRange {
	lo := c.ValueAxis.Min
	hi := c.ValueAxis.SoftMax
	for _, s := range c.Series {
		for _, p := range s.Points {
			if p.Value > hi {
				hi = p.Value
			}
		}
	}
	if hi <= lo {
		hi = lo + 1
	}
	hi += (hi - lo) * headroomRate
	return axisRange{Lo: lo, Hi: hi}
}

// timeToX converts a time to an X position within the visible window.
func timeToX(t, from, to time.Time, area plotArea) float64 {
	span := to.Sub(from)
	if span <= 0 {
		return area.X
	}
	return area.X + float64(t.Sub(from))/float64(span)*area.W
}

// valueToY converts a value to a Y position. Values outside the range are
// clamped to the plot edges.
func valueToY(v float64, r axisRange, area plotArea) float64 {
	span := r.Hi - r.Lo
	if span <= 0 {
		return area.Y + area.H/2
	}
	v = math.Max(r.Lo, math.Min(r.Hi, v))
	// Higher value = lower Y (top of chart)
	return area.Y + area.H - (v-r.Lo)/span*area.H
}

// visible reports whether t lies in the chart's visible time window.
func visible(c *dashboard.Chart, t time.Time) bool {
	return !t.Before(c.TimeAxis.VisibleFrom) && !t.After(c.TimeAxis.VisibleTo)
}

// markerStep picks the spacing of vertical time markers for a window.
func markerStep(span time.Duration) time.Duration {
	switch {
	case span <= 6*time.Hour:
		return time.Hour
	case span <= 24*time.Hour:
		return 3 * time.Hour
	case span <= 7*24*time.Hour:
		return 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}

// markerColor shades a time marker by hour of day, peaking at noon.
func markerColor(t time.Time) (r, g, b float64) {
	sunlight := (1 + math.Cos(float64(t.Hour()-12)*math.Pi/12)) / 2
	c := LerpColor(ColorMidnight, ColorNoon, sunlight)
	return float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255
}

func markerLabel(t time.Time, step time.Duration, format preferences.TimeFormat) string {
	if step >= 24*time.Hour {
		return t.Format("Jan 2")
	}
	if format == preferences.TimeFormat12 {
		return t.Format("3PM")
	}
	return t.Format("15:04")
}

// drawChart renders c into area.
func drawChart(dc *gg.Context, c *dashboard.Chart, area plotArea, loc *time.Location) error {
	r := valueRange(c)

	dc.SetColor(ColorPlot)
	dc.DrawRectangle(area.X, area.Y, area.W, area.H)
	dc.Fill()

	drawBands(dc, c, r, area)
	if err := drawTimeMarkers(dc, c, area, loc); err != nil {
		return err
	}
	if err := drawValueLabels(dc, c, r, area); err != nil {
		return err
	}

	if s := c.SeriesByKind(dashboard.SeriesGlucose); s != nil {
		drawGlucose(dc, c, s, r, area)
	}
	if s := c.SeriesByKind(dashboard.SeriesTrend); s != nil {
		drawTrend(dc, c, s, r, area)
	}
	if s := c.SeriesByKind(dashboard.SeriesActivity); s != nil {
		if err := drawActivity(dc, c, s, r, area); err != nil {
			return err
		}
	}

	if err := setFont(dc, titleSize); err != nil {
		return err
	}
	dc.SetColor(ColorWhite)
	dc.DrawStringAnchored(c.Title, area.X, area.Y-titleSize/2-4, 0, 0.5)
	return nil
}

func drawBands(dc *gg.Context, c *dashboard.Chart, r axisRange, area plotArea) {
	for _, band := range c.Colours.Bands {
		top := r.Hi
		if band.To != nil {
			top = *band.To
		}
		y0 := valueToY(top, r, area)
		y1 := valueToY(band.From, r, area)
		if y1 <= y0 {
			continue
		}
		dc.SetColor(WithAlpha(ParseHex(band.Colour), 0.12))
		dc.DrawRectangle(area.X, y0, area.W, y1-y0)
		dc.Fill()
	}
}

func drawTimeMarkers(dc *gg.Context, c *dashboard.Chart, area plotArea, loc *time.Location) error {
	from, to := c.TimeAxis.VisibleFrom.In(loc), c.TimeAxis.VisibleTo.In(loc)
	step := markerStep(to.Sub(from))

	if err := setFont(dc, labelSize); err != nil {
		return err
	}

	first := from.Truncate(time.Hour)
	if step >= 24*time.Hour {
		first = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)
	}
	for t := first; !t.After(to); t = t.Add(step) {
		if t.Before(from) {
			continue
		}
		x := timeToX(t, from, to, area)
		dc.SetRGB(markerColor(t))
		dc.SetLineWidth(1)
		dc.DrawLine(x, area.Y, x, area.Y+area.H)
		dc.Stroke()

		dc.SetColor(ColorGray)
		dc.DrawStringAnchored(markerLabel(t, step, c.TimeFormat), x, area.Y+area.H+labelSize, 0.5, 0.5)
	}
	return nil
}

func drawValueLabels(dc *gg.Context, c *dashboard.Chart, r axisRange, area plotArea) error {
	if err := setFont(dc, labelSize); err != nil {
		return err
	}

	ticks := []float64{c.ValueAxis.SoftMax}
	if c.Colours.Mode != preferences.PlotColourUniform {
		ticks = append(ticks, c.Colours.LowThreshold, c.Colours.TargetMin, c.Colours.TargetMax)
	}
	for _, v := range ticks {
		if v <= r.Lo || v >= r.Hi {
			continue
		}
		y := valueToY(v, r, area)
		dc.SetColor(ColorChartGrid)
		dc.SetLineWidth(1)
		dc.DrawLine(area.X, y, area.X+area.W, y)
		dc.Stroke()

		dc.SetColor(ColorGray)
		dc.DrawStringAnchored(bloodsugar.FormatBgl(v, c.ValueAxis.Unit), area.X-6, y, 1, 0.5)
	}

	dc.SetColor(ColorGray)
	dc.DrawStringAnchored(c.ValueAxis.Label, area.X-6, area.Y+area.H, 1, 0)
	return nil
}

// drawGlucose connects consecutive points, each segment in the colour of
// the point it ends at.
func drawGlucose(dc *gg.Context, c *dashboard.Chart, s *dashboard.Series, r axisRange, area plotArea) {
	from, to := c.TimeAxis.VisibleFrom, c.TimeAxis.VisibleTo

	var prevX, prevY float64
	hasPrev := false
	dc.SetLineWidth(lineWidth)
	for _, p := range s.Points {
		if !visible(c, p.Time) {
			hasPrev = false
			continue
		}
		x := timeToX(p.Time, from, to, area)
		y := valueToY(p.Value, r, area)
		col := ParseHex(p.Colour)

		if hasPrev {
			dc.SetColor(col)
			dc.DrawLine(prevX, prevY, x, y)
			dc.Stroke()
		}
		dc.SetColor(col)
		dc.DrawCircle(x, y, pointRadius)
		dc.Fill()

		prevX, prevY = x, y
		hasPrev = true
	}
}

// drawTrend draws the moving average, dashed where it is a prediction.
func drawTrend(dc *gg.Context, c *dashboard.Chart, s *dashboard.Series, r axisRange, area plotArea) {
	from, to := c.TimeAxis.VisibleFrom, c.TimeAxis.VisibleTo
	dc.SetColor(ParseHex(s.Colour))
	dc.SetLineWidth(lineWidth)

	var prevX, prevY float64
	hasPrev := false
	for _, p := range s.Points {
		if p.Time.Before(from) {
			continue
		}
		// Predictions may run past the visible window; clip at its edge.
		if p.Time.After(to) && !p.Predicted {
			continue
		}
		x := math.Min(timeToX(p.Time, from, to, area), area.X+area.W)
		y := valueToY(p.Value, r, area)
		if hasPrev {
			if p.Predicted {
				dc.SetDash(6, 4)
			} else {
				dc.SetDash()
			}
			dc.DrawLine(prevX, prevY, x, y)
			dc.Stroke()
		}
		prevX, prevY = x, y
		hasPrev = true
	}
	dc.SetDash()
}

// drawActivity draws a downward triangle per activity entry, labelled when
// the chart shows data labels.
func drawActivity(dc *gg.Context, c *dashboard.Chart, s *dashboard.Series, r axisRange, area plotArea) error {
	from, to := c.TimeAxis.VisibleFrom, c.TimeAxis.VisibleTo
	if err := setFont(dc, labelSize); err != nil {
		return err
	}

	for _, p := range s.Points {
		if !visible(c, p.Time) {
			continue
		}
		x := timeToX(p.Time, from, to, area)
		y := valueToY(p.Value, r, area)

		dc.SetColor(ParseHex(p.Colour))
		dc.NewSubPath()
		dc.MoveTo(x, y)
		dc.LineTo(x-markerSize/2, y-markerSize)
		dc.LineTo(x+markerSize/2, y-markerSize)
		dc.ClosePath()
		dc.Fill()

		if c.DataLabels && p.Label != "" {
			dc.SetColor(ColorWhite)
			dc.DrawStringAnchored(p.Label, x, y-markerSize-labelSize/2-2, 0.5, 0.5)
		}
	}
	return nil
}
