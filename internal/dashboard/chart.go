// Package dashboard builds the declarative glucose chart shown on the
// dashboard from statistics, preferences and activity log entries.
package dashboard

import (
	"time"

	"github.com/jwulff/bgldash/internal/activitylog"
	"github.com/jwulff/bgldash/internal/bloodsugar"
	"github.com/jwulff/bgldash/internal/histogram"
	"github.com/jwulff/bgldash/internal/preferences"
)

// AxisFloor is the lower bound of the value axis, in display units. It is
// positive so that zero and near-zero values stay visible.
const AxisFloor = 0.1

// Colour is a hex RGB colour such as "#43a047".
type Colour string

// Chart colours.
const (
	ColourLow      Colour = "#e53935"
	ColourTarget   Colour = "#43a047"
	ColourOutside  Colour = "#fdd835"
	ColourUniform  Colour = "#1e88e5"
	ColourTrend    Colour = "#8e24aa"
	ColourActivity Colour = "#6d4c41"
)

// SeriesKind identifies a chart series.
type SeriesKind string

const (
	SeriesGlucose  SeriesKind = "glucose"
	SeriesTrend    SeriesKind = "trend"
	SeriesActivity SeriesKind = "activity"
)

// Point is a single plotted value. Values are in the chart's display unit.
type Point struct {
	Time    time.Time `json:"time"`
	Value   float64   `json:"value"`
	Colour  Colour    `json:"colour"`
	Tooltip string    `json:"tooltip"`

	// Glucose points.
	Delta     *float64 `json:"delta,omitempty"`
	DeltaText string   `json:"deltaText,omitempty"`

	// Trend points.
	Predicted bool `json:"predicted,omitempty"`

	// Activity markers.
	EntryID  string               `json:"entryId,omitempty"`
	Category activitylog.Category `json:"category,omitempty"`
	Icon     string               `json:"icon,omitempty"`
	Label    string               `json:"label,omitempty"`
}

// Series is a named set of points drawn the same way.
type Series struct {
	Kind   SeriesKind `json:"kind"`
	Name   string     `json:"name"`
	Colour Colour     `json:"colour"`
	Points []Point    `json:"points"`
}

// Band is a horizontal value range painted in one colour. A nil To extends
// to the top of the chart.
type Band struct {
	From   float64  `json:"from"`
	To     *float64 `json:"to,omitempty"`
	Colour Colour   `json:"colour"`
}

// ColourRule describes how glucose values are coloured.
type ColourRule struct {
	Mode         preferences.PlotColour `json:"mode"`
	LowThreshold float64                `json:"lowThreshold"`
	TargetMin    float64                `json:"targetMin"`
	TargetMax    float64                `json:"targetMax"`
	Bands        []Band                 `json:"bands"`
}

// ColourFor returns the colour of a value in display units.
func (r ColourRule) ColourFor(value float64) Colour {
	if r.Mode == preferences.PlotColourUniform {
		return ColourUniform
	}
	switch bloodsugar.ClassifyRange(value, r.LowThreshold, r.TargetMin, r.TargetMax) {
	case bloodsugar.RangeLow:
		return ColourLow
	case bloodsugar.RangeTarget:
		return ColourTarget
	default:
		return ColourOutside
	}
}

// TimeAxis bounds the horizontal axis. Visible is the initial zoom; Data
// covers everything fetched.
type TimeAxis struct {
	VisibleFrom time.Time `json:"visibleFrom"`
	VisibleTo   time.Time `json:"visibleTo"`
	DataFrom    time.Time `json:"dataFrom"`
	DataTo      time.Time `json:"dataTo"`
}

// ValueAxis bounds the vertical axis. SoftMax may be exceeded by data.
type ValueAxis struct {
	Min     float64         `json:"min"`
	SoftMax float64         `json:"softMax"`
	Unit    bloodsugar.Unit `json:"unit"`
	Label   string          `json:"label"`
}

// Chart is a complete, renderer-independent chart description.
type Chart struct {
	GeneratedAt time.Time              `json:"generatedAt"`
	Profile     histogram.ProfileType  `json:"profile"`
	Title       string                 `json:"title"`
	TimeFormat  preferences.TimeFormat `json:"timeFormat"`
	TimeAxis    TimeAxis               `json:"timeAxis"`
	ValueAxis   ValueAxis              `json:"valueAxis"`
	Colours     ColourRule             `json:"colours"`
	Series      []Series               `json:"series"`
	Tooltips    map[SeriesKind]string  `json:"tooltips"`
	DataLabels  bool                   `json:"dataLabels"`
}

// SeriesByKind returns the series of the given kind, or nil.
func (c *Chart) SeriesByKind(kind SeriesKind) *Series {
	for i := range c.Series {
		if c.Series[i].Kind == kind {
			return &c.Series[i]
		}
	}
	return nil
}
