package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwulff/bgldash/internal/activitylog"
	"github.com/jwulff/bgldash/internal/app"
	"github.com/jwulff/bgldash/internal/bloodsugar"
	"github.com/jwulff/bgldash/internal/config"
	"github.com/jwulff/bgldash/internal/preferences"
	"github.com/jwulff/bgldash/internal/refresh"
)

type fakeActivity struct {
	params []activitylog.SearchParams
}

func (f *fakeActivity) SearchActivityLog(ctx context.Context, params activitylog.SearchParams) (*activitylog.SearchResult, error) {
	f.params = append(f.params, params)
	return &activitylog.SearchResult{}, nil
}

func (f *fakeActivity) GetActivityLog(ctx context.Context, id string) (*activitylog.Entry, error) {
	return &activitylog.Entry{ID: id}, nil
}

func (f *fakeActivity) CreateActivityLog(ctx context.Context, entry activitylog.Entry) (*activitylog.Entry, error) {
	entry.ID = "new-id"
	return &entry, nil
}

func (f *fakeActivity) UpdateActivityLog(ctx context.Context, id string, entry activitylog.Entry) (*activitylog.Entry, error) {
	return &entry, nil
}

func (f *fakeActivity) DeleteActivityLog(ctx context.Context, id string) error {
	return nil
}

func newTestApp(activity activitylog.Backend) *app.App {
	cfg := &config.Config{RefreshInterval: time.Minute, Throttle: time.Millisecond, SampleSize: 3}
	return app.New(cfg, app.Deps{Activity: activity}, nil)
}

func TestFormatStatus(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	bgl, delta := 130.0, 5.4
	at := now.Add(-5 * time.Minute)
	s := bloodsugar.Status{Bgl: &bgl, Delta: &delta, Trend: bloodsugar.TrendFortyFiveUp, LastReading: &at}

	mgdl := preferences.Defaults().Flatten()
	assert.Equal(t, "↗ 130 mg/dL +5.4 (5 minutes ago)", formatStatus(s, mgdl, now))

	mmol := mgdl
	mmol.BglUnit = bloodsugar.MmolL
	assert.Equal(t, "↗ 7.2 mmol/L +0.3 (5 minutes ago)", formatStatus(s, mmol, now))
}

func TestFormatStatusStale(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	bgl := 130.0
	at := now.Add(-20 * time.Minute)
	s := bloodsugar.Status{Bgl: &bgl, LastReading: &at}

	assert.Equal(t, "130 mg/dL (20 minutes ago) [stale]", formatStatus(s, preferences.Defaults().Flatten(), now))
}

func TestFormatStatusEmpty(t *testing.T) {
	assert.Equal(t, "No recent reading", formatStatus(bloodsugar.Status{}, preferences.Defaults().Flatten(), time.Now()))
}

func TestParseDetails(t *testing.T) {
	d, err := parseDetails(activitylog.Insulin, "4.5", bloodsugar.MgDl)
	require.NoError(t, err)
	assert.Equal(t, activitylog.InsulinDetails{Units: 4.5}, d)

	d, err = parseDetails(activitylog.BglReading, "6.1", bloodsugar.MmolL)
	require.NoError(t, err)
	assert.Equal(t, activitylog.BglReadingDetails{Bgl: 6.1, Unit: bloodsugar.MmolL}, d)

	d, err = parseDetails(activitylog.Exercise, "30", bloodsugar.MgDl)
	require.NoError(t, err)
	assert.Equal(t, activitylog.ExerciseDetails{DurationMins: 30}, d)

	d, err = parseDetails(activitylog.Other, "", bloodsugar.MgDl)
	require.NoError(t, err)
	assert.Equal(t, activitylog.OtherDetails{}, d)
}

func TestParseDetailsErrors(t *testing.T) {
	_, err := parseDetails(activitylog.Food, "lots", bloodsugar.MgDl)
	assert.ErrorContains(t, err, "lots")

	_, err = parseDetails("Sleep", "8", bloodsugar.MgDl)
	assert.ErrorContains(t, err, "Sleep")
}

func TestFormatPeriod(t *testing.T) {
	assert.Equal(t, "7d", formatPeriod(7*24*time.Hour))
	assert.Equal(t, "12h", formatPeriod(12*time.Hour))
	assert.Equal(t, "5m", formatPeriod(5*time.Minute))
	assert.Equal(t, "36h", formatPeriod(36*time.Hour))
}

func TestSearchLogTerm(t *testing.T) {
	backend := &fakeActivity{}
	a := newTestApp(backend)
	ctx := context.Background()

	require.NoError(t, searchLog(ctx, a, ""))
	require.NoError(t, searchLog(ctx, a, "pizza"))

	require.Len(t, backend.params, 2)
	assert.Nil(t, backend.params[0].SearchTerm)
	require.NotNil(t, backend.params[1].SearchTerm)
	assert.Equal(t, "pizza", *backend.params[1].SearchTerm)
}

func TestToggleAutoRefresh(t *testing.T) {
	c := refresh.NewCoordinator(time.Minute, true, nil)

	assert.False(t, toggleAutoRefresh(c))
	assert.False(t, c.Enabled())
	assert.True(t, toggleAutoRefresh(c))
	assert.True(t, c.Enabled())
}

func TestReadCommands(t *testing.T) {
	commands := readCommands(strings.NewReader(" p \nq\n"))

	assert.Equal(t, "p", <-commands)
	assert.Equal(t, "q", <-commands)
}

func TestCategoryLines(t *testing.T) {
	lines := categoryLines()

	require.Len(t, lines, len(activitylog.Categories()))
	assert.Contains(t, lines[0], "Insulin")
	assert.Contains(t, lines[len(lines)-1], "Other")
}
