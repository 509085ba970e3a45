package bloodsugar

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// RangeStatus represents the glucose range classification.
type RangeStatus string

const (
	RangeLow     RangeStatus = "low"
	RangeTarget  RangeStatus = "target"
	RangeOutside RangeStatus = "outside"
)

// Default thresholds in mg/dL.
const (
	ThresholdLow       = 55
	ThresholdTargetMin = 70
	ThresholdTargetMax = 180
)

// StaleThreshold is how old a reading can be before it's considered stale.
const StaleThreshold = 10 * time.Minute

// Trend is the direction reported by the backend for the latest reading.
type Trend string

const (
	TrendDoubleUp      Trend = "DoubleUp"
	TrendSingleUp      Trend = "SingleUp"
	TrendFortyFiveUp   Trend = "FortyFiveUp"
	TrendFlat          Trend = "Flat"
	TrendFortyFiveDown Trend = "FortyFiveDown"
	TrendSingleDown    Trend = "SingleDown"
	TrendDoubleDown    Trend = "DoubleDown"
)

// TrendArrows maps lower-cased trend names to display arrows.
var TrendArrows = map[string]string{
	"doubleup":      "⇈",
	"singleup":      "↑",
	"fortyfiveup":   "↗",
	"flat":          "→",
	"fortyfivedown": "↘",
	"singledown":    "↓",
	"doubledown":    "⇊",
}

// Arrow converts a trend to a display arrow.
func (t Trend) Arrow() string {
	if arrow, ok := TrendArrows[strings.ToLower(string(t))]; ok {
		return arrow
	}
	return "?"
}

// Reading is a single glucose reading as returned by the backend, in mg/dL.
type Reading struct {
	Timestamp time.Time `json:"timestamp"`
	Bgl       float64   `json:"bgl"`
	Trend     Trend     `json:"trend,omitempty"`
}

// Status is the latest known glucose state. Values are canonical (mg/dL).
// A zero Status means nothing is known.
type Status struct {
	Bgl         *float64   `json:"bgl,omitempty"`
	Delta       *float64   `json:"delta,omitempty"`
	Trend       Trend      `json:"trend,omitempty"`
	LastReading *time.Time `json:"lastReading,omitempty"`
}

// IsEmpty reports whether the status carries no reading.
func (s Status) IsEmpty() bool {
	return s.Bgl == nil && s.Delta == nil && s.Trend == "" && s.LastReading == nil
}

// Age returns how long ago the last reading was taken.
func (s Status) Age(now time.Time) time.Duration {
	if s.LastReading == nil {
		return 0
	}
	return now.Sub(*s.LastReading)
}

// IsStale checks if the last reading is older than the stale threshold.
func (s Status) IsStale(now time.Time) bool {
	return s.LastReading != nil && s.Age(now) >= StaleThreshold
}

// RelativeTime renders the reading age, e.g. "5 minutes ago".
func (s Status) RelativeTime(now time.Time) string {
	if s.LastReading == nil {
		return ""
	}
	return humanize.RelTime(*s.LastReading, now, "ago", "from now")
}

// ClassifyRange determines the range status for a glucose value.
// All arguments must share a unit.
func ClassifyRange(value, low, targetMin, targetMax float64) RangeStatus {
	if value < low {
		return RangeLow
	}
	if value >= targetMin && value <= targetMax {
		return RangeTarget
	}
	return RangeOutside
}
