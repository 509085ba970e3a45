// Package preferences resolves per-user preferences against compiled-in
// defaults.
package preferences

import (
	"github.com/jwulff/bgldash/internal/bloodsugar"
	"github.com/jwulff/bgldash/internal/histogram"
)

// TimeFormat is the clock style used for display.
type TimeFormat int

const (
	TimeFormat12 TimeFormat = 12
	TimeFormat24 TimeFormat = 24
)

// PlotColour selects how the glucose series is coloured.
type PlotColour string

const (
	PlotColourUniform     PlotColour = "Uniform"
	PlotColourScaledByBgl PlotColour = "ScaledByBgl"
)

// Preferences is the server-side preference document. Every field may be
// absent; absent fields fall back to defaults individually.
type Preferences struct {
	Treatment *Treatment `json:"treatment,omitempty"`
	Dashboard *Dashboard `json:"dashboard,omitempty"`
}

// Treatment holds unit and threshold settings. Thresholds are mg/dL.
type Treatment struct {
	BglUnit         *bloodsugar.Unit `json:"bglUnit,omitempty" validate:"omitempty,oneof=MgDl MmolL"`
	TimeFormat      *TimeFormat      `json:"timeFormat,omitempty" validate:"omitempty,oneof=12 24"`
	TargetBglRange  *BglRange        `json:"targetBglRange,omitempty"`
	BglLowThreshold *float64         `json:"bglLowThreshold,omitempty" validate:"omitempty,gt=0"`
}

// BglRange is a closed target interval.
type BglRange struct {
	Min *float64 `json:"min,omitempty" validate:"omitempty,gt=0"`
	Max *float64 `json:"max,omitempty" validate:"omitempty,gt=0"`
}

// Dashboard holds dashboard display options.
type Dashboard struct {
	BglStatsHistogram *HistogramOptions `json:"bglStatsHistogram,omitempty"`
}

// HistogramOptions configures the dashboard chart.
type HistogramOptions struct {
	ProfileType   *histogram.ProfileType `json:"profileType,omitempty" validate:"omitempty,profile"`
	PlotHeight    *float64               `json:"plotHeight,omitempty" validate:"omitempty,gt=0"`
	PlotColour    *PlotColour            `json:"plotColour,omitempty" validate:"omitempty,oneof=Uniform ScaledByBgl"`
	MovingAverage *MovingAverage         `json:"movingAverage,omitempty"`
	ActivityLog   *bool                  `json:"activityLog,omitempty"`
	DataLabels    *bool                  `json:"dataLabels,omitempty"`
}

// MovingAverage is the user-facing moving average configuration.
type MovingAverage struct {
	Enabled         *bool                `json:"enabled,omitempty"`
	ModelType       *histogram.ModelType `json:"modelType,omitempty" validate:"omitempty,oneof=Simple Linear Ewma HoltLinear HoltWinters"`
	Window          *int                 `json:"window,omitempty" validate:"omitempty,gte=1"`
	Minimize        *bool                `json:"minimize,omitempty"`
	Alpha           *float64             `json:"alpha,omitempty" validate:"omitempty,gte=0,lte=1"`
	Beta            *float64             `json:"beta,omitempty" validate:"omitempty,gte=0,lte=1"`
	Period          *int                 `json:"period,omitempty" validate:"omitempty,gte=1"`
	PredictionCount *int                 `json:"predictionCount,omitempty" validate:"omitempty,gte=0"`
}

// Effective is a fully resolved, pointer-free view of Preferences.
type Effective struct {
	BglUnit         bloodsugar.Unit
	TimeFormat      TimeFormat
	TargetMin       float64
	TargetMax       float64
	LowThreshold    float64
	ProfileType     histogram.ProfileType
	PlotHeight      *float64
	PlotColour      PlotColour
	MovingAverage   histogram.MovingAverageParams
	ShowActivityLog bool
	ShowDataLabels  bool
}

func ptr[T any](v T) *T {
	return &v
}

func valueOr[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}

// Defaults returns the compiled-in preferences. Optional model parameters
// (alpha, beta, period) and the plot height are left unset.
func Defaults() Preferences {
	return Preferences{
		Treatment: &Treatment{
			BglUnit:    ptr(bloodsugar.MgDl),
			TimeFormat: ptr(TimeFormat24),
			TargetBglRange: &BglRange{
				Min: ptr(float64(bloodsugar.ThresholdTargetMin)),
				Max: ptr(float64(bloodsugar.ThresholdTargetMax)),
			},
			BglLowThreshold: ptr(float64(bloodsugar.ThresholdLow)),
		},
		Dashboard: &Dashboard{
			BglStatsHistogram: &HistogramOptions{
				ProfileType: ptr(histogram.DefaultProfileType),
				PlotColour:  ptr(PlotColourScaledByBgl),
				MovingAverage: &MovingAverage{
					Enabled:         ptr(true),
					ModelType:       ptr(histogram.Simple),
					Window:          ptr(1),
					Minimize:        ptr(false),
					PredictionCount: ptr(0),
				},
				ActivityLog: ptr(true),
				DataLabels:  ptr(false),
			},
		},
	}
}

// ResolveEffective merges server over the defaults and flattens the result.
func ResolveEffective(server Preferences) Effective {
	return server.Flatten()
}

// Flatten returns the pointer-free view. Fields still absent after a merge
// fall back to the compiled-in defaults.
func (p Preferences) Flatten() Effective {
	m := Merge(p, Defaults())
	t := m.Treatment
	h := m.Dashboard.BglStatsHistogram
	ma := h.MovingAverage

	return Effective{
		BglUnit:         *t.BglUnit,
		TimeFormat:      *t.TimeFormat,
		TargetMin:       *t.TargetBglRange.Min,
		TargetMax:       *t.TargetBglRange.Max,
		LowThreshold:    *t.BglLowThreshold,
		ProfileType:     *h.ProfileType,
		PlotHeight:      clonePtr(h.PlotHeight),
		PlotColour:      *h.PlotColour,
		ShowActivityLog: *h.ActivityLog,
		ShowDataLabels:  *h.DataLabels,
		MovingAverage: histogram.MovingAverageParams{
			Enabled:         *ma.Enabled,
			ModelType:       *ma.ModelType,
			Window:          *ma.Window,
			Minimize:        *ma.Minimize,
			Alpha:           clonePtr(ma.Alpha),
			Beta:            clonePtr(ma.Beta),
			Period:          valueOr(ma.Period, 0),
			PredictionCount: *ma.PredictionCount,
		},
	}
}
