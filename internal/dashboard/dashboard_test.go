package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwulff/bgldash/internal/bloodsugar"
	"github.com/jwulff/bgldash/internal/histogram"
	"github.com/jwulff/bgldash/internal/notify"
	"github.com/jwulff/bgldash/internal/preferences"
)

type staticPrefs struct {
	prefs preferences.Preferences
}

func (s staticPrefs) Preferences() preferences.Preferences { return s.prefs }

type recordingNotifier struct {
	mu  sync.Mutex
	got []notify.Notification
}

func (r *recordingNotifier) Notify(n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
}

func TestRefreshKeepsLastChartOnFailure(t *testing.T) {
	stats := &fakeStats{buckets: []histogram.Bucket{bucketAt(10, f(100))}}
	notifier := &recordingNotifier{}
	d := New(newTestBuilder(stats, &fakeActivity{}), staticPrefs{}, notifier, time.Millisecond, nil)
	charts, cancel := d.Subscribe()
	defer cancel()

	good, err := d.Refresh(context.Background())
	require.NoError(t, err)
	assert.Same(t, good, <-charts)

	stats.mu.Lock()
	stats.err = errors.New("timeout")
	stats.mu.Unlock()

	_, err = d.Refresh(context.Background())
	assert.ErrorContains(t, err, "timeout")

	assert.Same(t, good, d.Current())
	assert.Len(t, charts, 0)
	require.Len(t, notifier.got, 1)
	assert.Equal(t, notify.LevelError, notifier.got[0].Level)
}

func TestRefreshUsesServerPreferences(t *testing.T) {
	unit := bloodsugar.MmolL
	profile := histogram.Hours3
	prefs := preferences.Preferences{
		Treatment: &preferences.Treatment{BglUnit: &unit},
		Dashboard: &preferences.Dashboard{BglStatsHistogram: &preferences.HistogramOptions{ProfileType: &profile}},
	}
	stats := &fakeStats{}
	d := New(newTestBuilder(stats, &fakeActivity{}), staticPrefs{prefs}, nil, time.Millisecond, nil)

	chart, err := d.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, histogram.Hours3, chart.Profile)
	assert.Equal(t, bloodsugar.MmolL, chart.ValueAxis.Unit)
	assert.Equal(t, 5, stats.requests[0].BucketTimeFactor)
}

func TestRefreshCancelledDoesNotNotify(t *testing.T) {
	notifier := &recordingNotifier{}
	stats := &fakeStats{err: context.Canceled}
	d := New(newTestBuilder(stats, &fakeActivity{}), nil, notifier, time.Millisecond, nil)

	_, err := d.Refresh(context.Background())

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, notifier.got)
}

func TestTwoTriggersTwoBuilds(t *testing.T) {
	stats := &fakeStats{}
	d := New(newTestBuilder(stats, &fakeActivity{}), staticPrefs{}, nil, 50*time.Millisecond, nil)

	d.Trigger()
	d.Trigger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	require.Eventually(t, func() bool { return stats.calls() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 2, stats.calls())
}

func TestRestore(t *testing.T) {
	d := New(newTestBuilder(&fakeStats{}, &fakeActivity{}), nil, nil, time.Millisecond, nil)
	assert.Nil(t, d.Current())

	cached := &Chart{Profile: histogram.Week1}
	d.Restore(cached)

	assert.Same(t, cached, d.Current())
}
