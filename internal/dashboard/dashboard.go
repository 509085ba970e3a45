package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jwulff/bgldash/internal/notify"
	"github.com/jwulff/bgldash/internal/preferences"
	"github.com/jwulff/bgldash/internal/refresh"
)

// PreferenceSource returns the user's server-side preferences.
type PreferenceSource interface {
	Preferences() preferences.Preferences
}

// Dashboard keeps the last successfully built chart and rebuilds it on
// demand.
type Dashboard struct {
	builder   *Builder
	prefs     PreferenceSource
	notifier  notify.Notifier
	logger    *zap.Logger
	coalescer *refresh.Coalescer

	mu      sync.Mutex
	current *Chart
	subs    map[uuid.UUID]chan *Chart
}

// New creates a Dashboard. Triggers within throttle of a build are
// collapsed into one trailing build.
func New(builder *Builder, prefs PreferenceSource, notifier notify.Notifier, throttle time.Duration, logger *zap.Logger) *Dashboard {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dashboard{
		builder:  builder,
		prefs:    prefs,
		notifier: notifier,
		logger:   logger,
		subs:     make(map[uuid.UUID]chan *Chart),
	}
	d.coalescer = refresh.NewCoalescer(throttle, func(ctx context.Context) {
		_, _ = d.Refresh(ctx)
	})
	return d
}

// Current returns the last good chart, or nil before the first build.
func (d *Dashboard) Current() *Chart {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// Restore seeds the current chart, e.g. from a cache, without publishing.
func (d *Dashboard) Restore(c *Chart) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.current = c
}

// Subscribe returns a channel of newly built charts. A slow subscriber
// sees only the most recent one.
func (d *Dashboard) Subscribe() (<-chan *Chart, func()) {
	id := uuid.New()
	ch := make(chan *Chart, 1)

	d.mu.Lock()
	d.subs[id] = ch
	d.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.subs, id)
			d.mu.Unlock()
		})
	}
}

// Refresh builds a chart from the current preferences. On failure the
// previous chart is kept and the user is notified.
func (d *Dashboard) Refresh(ctx context.Context) (*Chart, error) {
	var server preferences.Preferences
	if d.prefs != nil {
		server = d.prefs.Preferences()
	}
	eff := preferences.ResolveEffective(server)

	chart, err := d.builder.Build(ctx, eff)
	if err != nil {
		d.logger.Warn("chart build failed, keeping last chart", zap.Error(err))
		if !errors.Is(err, context.Canceled) {
			d.notifier.Notify(notify.New(notify.LevelError, "Dashboard", "Could not refresh the glucose chart."))
		}
		return nil, err
	}

	d.mu.Lock()
	d.current = chart
	for _, ch := range d.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- chart:
		default:
		}
	}
	d.mu.Unlock()
	return chart, nil
}

// Trigger requests a rebuild through the throttle.
func (d *Dashboard) Trigger() {
	d.coalescer.Trigger()
}

// Run serves triggers until ctx is done.
func (d *Dashboard) Run(ctx context.Context) error {
	return d.coalescer.Run(ctx)
}
