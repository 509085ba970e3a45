package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwulff/bgldash/internal/bloodsugar"
	"github.com/jwulff/bgldash/internal/dashboard"
	"github.com/jwulff/bgldash/internal/histogram"
	"github.com/jwulff/bgldash/internal/preferences"
	"github.com/jwulff/bgldash/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	store, err := NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewMemoryStore(t *testing.T) {
	store, err := NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	assert.NotNil(t, store)
}

func TestNewFileStore(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewFileStore(tmpDir + "/test.db")
	require.NoError(t, err)
	defer store.Close()

	assert.NotNil(t, store)
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	path := t.TempDir() + "/cache.db"
	ctx := context.Background()

	store, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.SetConfig(ctx, "profile", "Day1"))
	require.NoError(t, store.Close())

	store, err = NewFileStore(path)
	require.NoError(t, err)
	defer store.Close()

	value, err := store.GetConfig(ctx, "profile")
	require.NoError(t, err)
	assert.Equal(t, "Day1", value)
}

// Preference tests

func TestSaveAndGetPreferences(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	unit := bloodsugar.MmolL
	profile := histogram.Day1
	prefs := preferences.Preferences{
		Treatment: &preferences.Treatment{BglUnit: &unit},
		Dashboard: &preferences.Dashboard{BglStatsHistogram: &preferences.HistogramOptions{ProfileType: &profile}},
	}

	err := store.SavePreferences(ctx, "user-1", prefs)
	require.NoError(t, err)

	retrieved, err := store.GetPreferences(ctx, "user-1")
	require.NoError(t, err)

	require.NotNil(t, retrieved.Treatment)
	assert.Equal(t, bloodsugar.MmolL, *retrieved.Treatment.BglUnit)
	assert.Nil(t, retrieved.Treatment.TimeFormat)
	assert.Equal(t, histogram.Day1, *retrieved.Dashboard.BglStatsHistogram.ProfileType)
}

func TestGetPreferencesNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetPreferences(context.Background(), "nobody")
	assert.True(t, storage.IsNotFound(err))
}

// Status tests

func TestSaveAndGetStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	bgl, delta := 140.0, -4.0
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cached := &storage.CachedStatus{
		Status:   bloodsugar.Status{Bgl: &bgl, Delta: &delta, Trend: bloodsugar.TrendFortyFiveDown, LastReading: &at},
		StoredAt: at.Add(time.Minute),
	}

	require.NoError(t, store.SaveStatus(ctx, cached))

	retrieved, err := store.GetStatus(ctx)
	require.NoError(t, err)

	assert.Equal(t, 140.0, *retrieved.Status.Bgl)
	assert.Equal(t, -4.0, *retrieved.Status.Delta)
	assert.Equal(t, bloodsugar.TrendFortyFiveDown, retrieved.Status.Trend)
	assert.True(t, at.Equal(*retrieved.Status.LastReading))
	assert.True(t, cached.StoredAt.Equal(retrieved.StoredAt))
}

func TestSaveEmptyStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveStatus(ctx, storage.NewCachedStatus(bloodsugar.Status{})))

	retrieved, err := store.GetStatus(ctx)
	require.NoError(t, err)
	assert.True(t, retrieved.Status.IsEmpty())
}

func TestGetStatusNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetStatus(context.Background())
	assert.True(t, storage.IsNotFound(err))
}

// Reading tests

func TestStoreAndQueryReadings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	readings := []bloodsugar.Reading{
		{Timestamp: now, Bgl: 120, Trend: bloodsugar.TrendFlat},
		{Timestamp: now.Add(-2 * time.Hour), Bgl: 100},
		{Timestamp: now.Add(-1 * time.Hour), Bgl: 110, Trend: bloodsugar.TrendSingleUp},
	}

	err := store.StoreReadings(ctx, readings)
	require.NoError(t, err)

	results, err := store.QueryReadings(ctx, now.Add(-3*time.Hour), now.Add(time.Hour))
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.Equal(t, 100.0, results[0].Bgl)
	assert.Equal(t, 110.0, results[1].Bgl)
	assert.Equal(t, bloodsugar.TrendSingleUp, results[1].Trend)
	assert.Equal(t, 120.0, results[2].Bgl)
}

func TestStoreReadingsReplacesSameTimestamp(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.StoreReadings(ctx, []bloodsugar.Reading{{Timestamp: at, Bgl: 100}}))
	require.NoError(t, store.StoreReadings(ctx, []bloodsugar.Reading{{Timestamp: at, Bgl: 105}}))

	results, err := store.QueryReadings(ctx, at.Add(-time.Minute), at.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 105.0, results[0].Bgl)
}

func TestQueryReadingsTimeRange(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	readings := []bloodsugar.Reading{
		{Timestamp: now.Add(-3 * time.Hour), Bgl: 90},
		{Timestamp: now.Add(-2 * time.Hour), Bgl: 100},
		{Timestamp: now.Add(-1 * time.Hour), Bgl: 110},
		{Timestamp: now, Bgl: 120},
	}

	_ = store.StoreReadings(ctx, readings)

	// Query only last 90 minutes
	results, err := store.QueryReadings(ctx, now.Add(-90*time.Minute), now.Add(time.Minute))
	require.NoError(t, err)

	assert.Len(t, results, 2)
}

func TestDeleteOldReadings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	readings := []bloodsugar.Reading{
		{Timestamp: now.Add(-48 * time.Hour), Bgl: 80},
		{Timestamp: now, Bgl: 120},
	}

	_ = store.StoreReadings(ctx, readings)

	err := store.DeleteOldReadings(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)

	results, _ := store.QueryReadings(ctx, now.Add(-72*time.Hour), now.Add(time.Hour))
	require.Len(t, results, 1)
	assert.Equal(t, 120.0, results[0].Bgl)
}

// Chart cache tests

func TestCacheAndGetChart(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	delta := 2.0
	generated := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	chart := &dashboard.Chart{
		GeneratedAt: generated,
		Profile:     histogram.Hours6,
		Title:       "Glucose, last 6 hours",
		ValueAxis:   dashboard.ValueAxis{Min: dashboard.AxisFloor, SoftMax: 180, Unit: bloodsugar.MgDl, Label: "mg/dL"},
		Series: []dashboard.Series{{
			Kind: dashboard.SeriesGlucose,
			Name: "Glucose",
			Points: []dashboard.Point{
				{Time: generated.Add(-5 * time.Minute), Value: 100, Colour: dashboard.ColourTarget},
				{Time: generated, Value: 102, Colour: dashboard.ColourTarget, Delta: &delta, DeltaText: "+2"},
			},
		}},
		Tooltips: dashboard.Templates(),
	}

	err := store.CacheChart(ctx, chart)
	require.NoError(t, err)

	retrieved, err := store.GetCachedChart(ctx)
	require.NoError(t, err)

	assert.True(t, generated.Equal(retrieved.GeneratedAt))
	assert.Equal(t, histogram.Hours6, retrieved.Profile)
	assert.Equal(t, chart.Tooltips, retrieved.Tooltips)
	glucose := retrieved.SeriesByKind(dashboard.SeriesGlucose)
	require.NotNil(t, glucose)
	require.Len(t, glucose.Points, 2)
	assert.Equal(t, "+2", glucose.Points[1].DeltaText)
	assert.Nil(t, glucose.Points[0].Delta)
}

func TestCacheChartKeepsOnlyLatest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CacheChart(ctx, &dashboard.Chart{Profile: histogram.Hours3}))
	require.NoError(t, store.CacheChart(ctx, &dashboard.Chart{Profile: histogram.Week1}))

	retrieved, err := store.GetCachedChart(ctx)
	require.NoError(t, err)
	assert.Equal(t, histogram.Week1, retrieved.Profile)
}

func TestGetCachedChartNotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetCachedChart(ctx)
	assert.True(t, storage.IsNotFound(err))
}

// Config tests

func TestSetAndGetConfig(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.SetConfig(ctx, "timezone", "America/Los_Angeles")
	require.NoError(t, err)

	value, err := store.GetConfig(ctx, "timezone")
	require.NoError(t, err)

	assert.Equal(t, "America/Los_Angeles", value)
}

func TestGetConfigNotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetConfig(ctx, "nonexistent")
	assert.True(t, storage.IsNotFound(err))
}

func TestDeleteConfig(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_ = store.SetConfig(ctx, "key", "value")

	err := store.DeleteConfig(ctx, "key")
	require.NoError(t, err)

	_, err = store.GetConfig(ctx, "key")
	assert.True(t, storage.IsNotFound(err))
}

func TestUpdateConfig(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_ = store.SetConfig(ctx, "key", "value1")
	_ = store.SetConfig(ctx, "key", "value2")

	value, err := store.GetConfig(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, "value2", value)
}
