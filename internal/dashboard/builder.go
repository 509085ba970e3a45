package dashboard

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/jwulff/bgldash/internal/activitylog"
	"github.com/jwulff/bgldash/internal/bloodsugar"
	"github.com/jwulff/bgldash/internal/histogram"
	"github.com/jwulff/bgldash/internal/preferences"
)

// activitySearchSize caps the markers fetched for one chart.
const activitySearchSize = 500

// StatsSource returns bucketed glucose statistics.
type StatsSource interface {
	AccountStatsHistogram(ctx context.Context, req histogram.StatsRequest) ([]histogram.Bucket, error)
}

// ActivitySource searches the activity log.
type ActivitySource interface {
	Search(ctx context.Context, params activitylog.SearchParams) (*activitylog.SearchResult, error)
}

// Builder assembles charts. It holds no chart state.
type Builder struct {
	stats    StatsSource
	activity ActivitySource
	logger   *zap.Logger

	// Location is used for tooltip times.
	Location *time.Location

	now func() time.Time
}

// NewBuilder creates a Builder.
func NewBuilder(stats StatsSource, activity ActivitySource, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		stats:    stats,
		activity: activity,
		logger:   logger,
		Location: time.Local,
		now:      time.Now,
	}
}

// StatsRequest returns the statistics query Build would send for prefs.
func (b *Builder) StatsRequest(prefs preferences.Effective) histogram.StatsRequest {
	profile := histogram.Lookup(prefs.ProfileType)
	return histogram.NewStatsRequest(profile, prefs.MovingAverage, b.now())
}

// build holds the per-call state of a chart build.
type build struct {
	prefs   preferences.Effective
	profile histogram.Profile
	now     time.Time
	loc     *time.Location
	unit    bloodsugar.Unit
	rule    ColourRule
}

func (s *build) scale(mgdl float64) float64 {
	v, _ := bloodsugar.ScaleFromCanonical(mgdl, s.unit)
	return v
}

func (s *build) timeText(t time.Time) string {
	return formatTime(t, s.loc, s.prefs.TimeFormat)
}

// Build produces a chart for prefs. A failed statistics or activity query
// fails the whole build.
func (b *Builder) Build(ctx context.Context, prefs preferences.Effective) (*Chart, error) {
	if !prefs.BglUnit.Valid() {
		return nil, &bloodsugar.UnsupportedUnitError{From: bloodsugar.CanonicalUnit, To: prefs.BglUnit}
	}

	now := b.now()
	s := &build{
		prefs:   prefs,
		profile: histogram.Lookup(prefs.ProfileType),
		now:     now,
		loc:     b.Location,
		unit:    prefs.BglUnit,
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	s.rule = s.colourRule()

	req := histogram.NewStatsRequest(s.profile, prefs.MovingAverage, now)
	buckets, err := b.stats.AccountStatsHistogram(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetching glucose statistics: %w", err)
	}
	buckets = chronological(buckets)

	glucose := s.glucoseSeries(buckets)
	series := []Series{glucose}
	if prefs.MovingAverage.Enabled {
		series = append(series, s.trendSeries(buckets))
	}

	if prefs.ShowActivityLog {
		entries, err := b.activityEntries(ctx, s)
		if err != nil {
			return nil, err
		}
		series = append(series, s.activitySeries(entries, buckets))
	}

	chart := &Chart{
		GeneratedAt: now,
		Profile:     s.profile.Type,
		Title:       "Glucose, last " + s.profile.Label,
		TimeFormat:  prefs.TimeFormat,
		TimeAxis: TimeAxis{
			VisibleFrom: now.Add(-s.profile.DisplayPeriod),
			VisibleTo:   now,
			DataFrom:    req.QueryFrom,
			DataTo:      req.QueryTo,
		},
		ValueAxis:  s.valueAxis(),
		Colours:    s.rule,
		Series:     series,
		Tooltips:   Templates(),
		DataLabels: prefs.ShowDataLabels,
	}

	b.logger.Debug("chart built",
		zap.String("profile", string(s.profile.Type)),
		zap.Int("buckets", len(buckets)),
		zap.Int("glucose_points", len(glucose.Points)))
	return chart, nil
}

func (b *Builder) activityEntries(ctx context.Context, s *build) ([]activitylog.Entry, error) {
	from := s.now.Add(-s.profile.DisplayPeriod)
	to := s.now
	result, err := b.activity.Search(ctx, activitylog.SearchParams{
		Size:      activitySearchSize,
		FromDate:  &from,
		ToDate:    &to,
		SortField: activitylog.DefaultSortField,
		SortOrder: "asc",
	})
	if err != nil {
		return nil, fmt.Errorf("fetching activity log: %w", err)
	}

	var entries []activitylog.Entry
	for _, e := range result.Entries() {
		if e.Created.Before(from) || e.Created.After(to) {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func chronological(buckets []histogram.Bucket) []histogram.Bucket {
	out := make([]histogram.Bucket, len(buckets))
	copy(out, buckets)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// glucoseSeries plots bucket averages. Buckets without an average are
// skipped and do not reset the previous value used for deltas.
func (s *build) glucoseSeries(buckets []histogram.Bucket) Series {
	series := Series{Kind: SeriesGlucose, Name: "Glucose", Colour: ColourUniform}
	var prev *float64

	for _, bucket := range buckets {
		if bucket.Average == nil {
			continue
		}
		avg := *bucket.Average
		value := s.scale(avg)
		p := Point{
			Time:   bucket.Timestamp,
			Value:  value,
			Colour: s.rule.ColourFor(value),
		}
		if prev != nil {
			delta := s.scale(avg - *prev)
			p.Delta = &delta
			p.DeltaText = bloodsugar.FormatDelta(delta)
		}
		p.Tooltip = renderTooltip(SeriesGlucose, tooltipData{
			Time:  s.timeText(p.Time),
			Value: bloodsugar.FormatBgl(value, s.unit),
			Unit:  s.unit.Label(),
			Delta: p.DeltaText,
		})
		series.Points = append(series.Points, p)
		prev = &avg
	}
	return series
}

// trendSeries plots the moving average. Points after now are predictions.
func (s *build) trendSeries(buckets []histogram.Bucket) Series {
	series := Series{Kind: SeriesTrend, Name: "Trend", Colour: ColourTrend}
	for _, bucket := range buckets {
		if bucket.MovingAverage == nil {
			continue
		}
		value := s.scale(*bucket.MovingAverage)
		predicted := bucket.Timestamp.After(s.now)
		series.Points = append(series.Points, Point{
			Time:      bucket.Timestamp,
			Value:     value,
			Colour:    ColourTrend,
			Predicted: predicted,
			Tooltip: renderTooltip(SeriesTrend, tooltipData{
				Time:      s.timeText(bucket.Timestamp),
				Value:     bloodsugar.FormatBgl(value, s.unit),
				Unit:      s.unit.Label(),
				Predicted: predicted,
			}),
		})
	}
	return series
}

func (s *build) activitySeries(entries []activitylog.Entry, buckets []histogram.Bucket) Series {
	series := Series{Kind: SeriesActivity, Name: "Activity", Colour: ColourActivity}
	for _, e := range entries {
		info := activitylog.Info(e.Category())
		text := ""
		if e.Details != nil {
			text = e.Details.DisplayText()
		}
		notes := ""
		if e.Notes != nil {
			notes = *e.Notes
		}
		series.Points = append(series.Points, Point{
			Time:     e.Created,
			Value:    s.markerValue(e, buckets),
			Colour:   ColourActivity,
			EntryID:  e.ID,
			Category: info.Category,
			Icon:     info.Icon,
			Label:    text,
			Tooltip: renderTooltip(SeriesActivity, tooltipData{
				Time:     s.timeText(e.Created),
				Category: info.Name,
				Text:     text,
				Notes:    notes,
			}),
		})
	}
	return series
}

// markerValue places an activity marker. A manual reading uses its own
// value and unit; otherwise the glucose captured with the entry is used,
// then the nearest bucket average, then the axis floor.
func (s *build) markerValue(e activitylog.Entry, buckets []histogram.Bucket) float64 {
	if reading, ok := e.Details.(activitylog.BglReadingDetails); ok && reading.Bgl > 0 {
		if v, err := bloodsugar.ScaleBglValue(reading.Bgl, reading.Unit, s.unit); err == nil {
			return v
		}
	}
	if e.Bgl != nil {
		return s.scale(*e.Bgl)
	}
	if avg, ok := nearestAverage(buckets, e.Created); ok {
		return s.scale(avg)
	}
	return AxisFloor
}

func nearestAverage(buckets []histogram.Bucket, at time.Time) (float64, bool) {
	best := time.Duration(math.MaxInt64)
	var value float64
	found := false
	for _, b := range buckets {
		if b.Average == nil {
			continue
		}
		d := b.Timestamp.Sub(at)
		if d < 0 {
			d = -d
		}
		if d < best {
			best = d
			value = *b.Average
			found = true
		}
	}
	return value, found
}

func (s *build) colourRule() ColourRule {
	low := s.scale(s.prefs.LowThreshold)
	targetMin := s.scale(s.prefs.TargetMin)
	targetMax := s.scale(s.prefs.TargetMax)
	rule := ColourRule{
		Mode:         s.prefs.PlotColour,
		LowThreshold: low,
		TargetMin:    targetMin,
		TargetMax:    targetMax,
	}
	if rule.Mode == preferences.PlotColourUniform {
		rule.Bands = []Band{{From: 0, Colour: ColourUniform}}
		return rule
	}
	rule.Bands = []Band{
		{From: 0, To: &low, Colour: ColourLow},
		{From: low, To: &targetMin, Colour: ColourOutside},
		{From: targetMin, To: &targetMax, Colour: ColourTarget},
		{From: targetMax, Colour: ColourOutside},
	}
	return rule
}

func (s *build) valueAxis() ValueAxis {
	ceiling := s.prefs.TargetMax
	if s.prefs.PlotHeight != nil && *s.prefs.PlotHeight > 0 {
		ceiling = *s.prefs.PlotHeight
	}
	return ValueAxis{
		Min:     AxisFloor,
		SoftMax: s.scale(ceiling),
		Unit:    s.unit,
		Label:   s.unit.Label(),
	}
}
