// Package app wires the services together: refresh triggers fan out to the
// status tracker and the dashboard, and results are written to the cache.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jwulff/bgldash/internal/account"
	"github.com/jwulff/bgldash/internal/activitylog"
	"github.com/jwulff/bgldash/internal/api"
	"github.com/jwulff/bgldash/internal/bloodsugar"
	"github.com/jwulff/bgldash/internal/config"
	"github.com/jwulff/bgldash/internal/dashboard"
	"github.com/jwulff/bgldash/internal/notify"
	"github.com/jwulff/bgldash/internal/preferences"
	"github.com/jwulff/bgldash/internal/refresh"
	"github.com/jwulff/bgldash/internal/status"
	"github.com/jwulff/bgldash/internal/storage"
	"github.com/jwulff/bgldash/internal/storage/sqlite"
	"github.com/jwulff/bgldash/internal/telemetry"
)

// readingRetention is how long cached readings are kept.
const readingRetention = 24 * time.Hour

// cacheTimeout bounds a single cache write.
const cacheTimeout = 5 * time.Second

// lastUserKey is the config key holding the last signed-in user id.
const lastUserKey = "last_user_id"

// Deps are the backends the application talks to.
type Deps struct {
	Readings status.ReadingSource
	Stats    dashboard.StatsSource
	Activity activitylog.Backend
	Account  account.Backend

	// Store is optional; nil disables the cache.
	Store    storage.Store
	Notifier notify.Notifier
}

type App struct {
	Config *config.Config
	Logger *zap.Logger

	Account     *account.Service
	Activity    *activitylog.Service
	Tracker     *status.Tracker
	Dashboard   *dashboard.Dashboard
	Coordinator *refresh.Coordinator

	store   storage.Store
	prefs   *preferenceSource
	closers []func(context.Context) error
}

// New wires the services over deps.
func New(cfg *config.Config, deps Deps, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notify.Log{Logger: logger}
	}

	readings := deps.Readings
	if deps.Store != nil {
		readings = &cachingReadings{source: deps.Readings, store: deps.Store, logger: logger}
	}

	accounts := account.NewService(deps.Account, notifier, logger.Named("account"))
	activity := activitylog.NewService(deps.Activity, notifier, logger.Named("activitylog"))
	builder := dashboard.NewBuilder(deps.Stats, activity, logger.Named("builder"))
	prefs := &preferenceSource{accounts: accounts}

	return &App{
		Config:      cfg,
		Logger:      logger,
		Account:     accounts,
		Activity:    activity,
		Tracker:     status.NewTracker(readings, cfg.SampleSize, cfg.Throttle, logger.Named("status")),
		Dashboard:   dashboard.New(builder, prefs, notifier, cfg.Throttle, logger.Named("dashboard")),
		Coordinator: refresh.NewCoordinator(cfg.RefreshInterval, cfg.AutoRefresh, logger.Named("refresh")),
		store:       deps.Store,
		prefs:       prefs,
	}
}

// Open connects to the configured backend, cache and tracer.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	var closers []func(context.Context) error

	shutdown, err := telemetry.InitTracer(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to init tracer: %w", err)
	}
	closers = append(closers, shutdown)

	client := api.NewClient(cfg.APIURL, api.StaticToken(cfg.APIToken))

	var store storage.Store
	if cfg.CachePath != "" {
		fileStore, err := sqlite.NewFileStore(cfg.CachePath)
		if err != nil {
			logger.Warn("cache unavailable, continuing without it", zap.String("path", cfg.CachePath), zap.Error(err))
		} else {
			store = fileStore
			closers = append(closers, func(context.Context) error { return fileStore.Close() })
		}
	}

	var notifier notify.Notifier = notify.Log{Logger: logger}
	if cfg.Notify {
		notifier = notify.Multi{notifier, notify.NewDesktop("bgldash", cfg.NotifyRepeat, logger)}
	}

	a := New(cfg, Deps{
		Readings: client,
		Stats:    client,
		Activity: client,
		Account:  client,
		Store:    store,
		Notifier: notifier,
	}, logger)
	a.closers = closers
	return a, nil
}

// Close releases the cache and flushes traces.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Preferences returns the signed-in user's preferences, or the cached ones
// before the user has loaded.
func (a *App) Preferences() preferences.Preferences {
	return a.prefs.Preferences()
}

// Restore seeds the tracker and dashboard from the cache. A missing cache
// entry is not an error. Without a cached status the tracker is seeded from
// the cached readings.
func (a *App) Restore(ctx context.Context) error {
	if a.store == nil {
		return nil
	}

	cached, err := a.store.GetStatus(ctx)
	switch {
	case err == nil:
		a.Tracker.Restore(cached.Status)
	case storage.IsNotFound(err):
		if err := a.restoreFromReadings(ctx); err != nil {
			return err
		}
	default:
		return fmt.Errorf("failed to restore status: %w", err)
	}

	chart, err := a.store.GetCachedChart(ctx)
	switch {
	case err == nil:
		a.Dashboard.Restore(chart)
	case !storage.IsNotFound(err):
		return fmt.Errorf("failed to restore chart: %w", err)
	}

	userID, err := a.store.GetConfig(ctx, lastUserKey)
	if storage.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to restore user: %w", err)
	}
	prefs, err := a.store.GetPreferences(ctx, userID)
	switch {
	case err == nil:
		a.prefs.restore(prefs)
	case !storage.IsNotFound(err):
		return fmt.Errorf("failed to restore preferences: %w", err)
	}
	return nil
}

func (a *App) restoreFromReadings(ctx context.Context) error {
	now := time.Now()
	readings, err := a.store.QueryReadings(ctx, now.Add(-readingRetention), now)
	if err != nil {
		return fmt.Errorf("failed to restore readings: %w", err)
	}

	newestFirst := make([]bloodsugar.Reading, len(readings))
	for i, r := range readings {
		newestFirst[len(readings)-1-i] = r
	}
	if s := status.ComputeStatus(newestFirst); !s.IsEmpty() {
		a.Tracker.Restore(s)
	}
	return nil
}

// LoadUser fetches the signed-in user. When the backend rejects the
// credentials the cached user and preferences are forgotten.
func (a *App) LoadUser(ctx context.Context) (*account.User, error) {
	user, err := a.Account.Load(ctx)
	if err != nil {
		var statusErr *api.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnauthorized {
			a.forgetUser(ctx)
		}
		return nil, err
	}
	return user, nil
}

func (a *App) forgetUser(ctx context.Context) {
	a.prefs.restore(preferences.Preferences{})
	if a.store == nil {
		return
	}
	ctx, cancel := a.cacheContext(ctx)
	defer cancel()
	if err := a.store.DeleteConfig(ctx, lastUserKey); err != nil {
		a.Logger.Warn("failed to forget cached user", zap.Error(err))
	}
}

// Run loads the user, starts the auto-refresh schedule and serves refresh
// triggers until ctx is cancelled. Callers seed the cache with Restore
// first. Cancelling ctx tears down every subscription and waits for
// in-flight requests to finish.
func (a *App) Run(ctx context.Context) error {
	ticks, cancelTicks := a.Coordinator.Subscribe()
	defer cancelTicks()
	events, cancelEvents := a.Account.Subscribe()
	defer cancelEvents()
	changes, cancelChanges := a.Activity.Subscribe()
	defer cancelChanges()
	statuses, cancelStatuses := a.Tracker.Subscribe()
	defer cancelStatuses()
	charts, cancelCharts := a.Dashboard.Subscribe()
	defer cancelCharts()

	runCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = a.Tracker.Run(runCtx)
	}()
	go func() {
		defer wg.Done()
		_ = a.Dashboard.Run(runCtx)
	}()
	defer wg.Wait()
	defer cancel()

	if err := a.Coordinator.Start(); err != nil {
		return err
	}
	defer a.Coordinator.Stop()

	if _, err := a.LoadUser(ctx); err != nil {
		// Without a user the dashboard still renders with default
		// preferences.
		a.Logger.Warn("user load failed", zap.Error(err))
		a.triggerAll()
	}

	for {
		select {
		case <-ctx.Done():
			a.Logger.Info("shutting down")
			return nil
		case <-ticks:
			a.triggerAll()
		case e := <-events:
			a.savePreferences(ctx, e)
			a.triggerAll()
		case c := <-changes:
			a.Logger.Debug("activity log changed", zap.String("action", string(c.Action)), zap.String("id", c.ID))
			a.Dashboard.Trigger()
		case s := <-statuses:
			a.saveStatus(ctx, s)
		case c := <-charts:
			a.saveChart(ctx, c)
		}
	}
}

func (a *App) triggerAll() {
	a.Tracker.Trigger()
	a.Dashboard.Trigger()
}

// RefreshStatus polls the status once and caches it.
func (a *App) RefreshStatus(ctx context.Context) bloodsugar.Status {
	s := a.Tracker.Poll(ctx)
	a.saveStatus(ctx, s)
	return s
}

// RefreshChart builds the chart once and caches it.
func (a *App) RefreshChart(ctx context.Context) (*dashboard.Chart, error) {
	c, err := a.Dashboard.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	a.saveChart(ctx, c)
	return c, nil
}

func (a *App) cacheContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), cacheTimeout)
}

func (a *App) saveStatus(ctx context.Context, s bloodsugar.Status) {
	if a.store == nil {
		return
	}
	ctx, cancel := a.cacheContext(ctx)
	defer cancel()
	if err := a.store.SaveStatus(ctx, storage.NewCachedStatus(s)); err != nil {
		a.Logger.Warn("failed to cache status", zap.Error(err))
	}
}

func (a *App) saveChart(ctx context.Context, c *dashboard.Chart) {
	if a.store == nil || c == nil {
		return
	}
	ctx, cancel := a.cacheContext(ctx)
	defer cancel()
	if err := a.store.CacheChart(ctx, c); err != nil {
		a.Logger.Warn("failed to cache chart", zap.Error(err))
	}
}

func (a *App) savePreferences(ctx context.Context, e account.Event) {
	if a.store == nil || e.User == nil {
		return
	}
	ctx, cancel := a.cacheContext(ctx)
	defer cancel()
	if err := a.store.SavePreferences(ctx, e.User.ID, e.Preferences); err != nil {
		a.Logger.Warn("failed to cache preferences", zap.Error(err))
		return
	}
	if err := a.store.SetConfig(ctx, lastUserKey, e.User.ID); err != nil {
		a.Logger.Warn("failed to cache user id", zap.Error(err))
	}
}

// preferenceSource serves the signed-in user's preferences, or the cached
// ones until a user has loaded.
type preferenceSource struct {
	accounts *account.Service

	mu     sync.Mutex
	cached preferences.Preferences
}

func (p *preferenceSource) restore(prefs preferences.Preferences) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cached = prefs
}

func (p *preferenceSource) Preferences() preferences.Preferences {
	if p.accounts.User() != nil {
		return p.accounts.Preferences()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cached
}

// cachingReadings stores every successful fetch and prunes old readings.
type cachingReadings struct {
	source status.ReadingSource
	store  storage.Store
	logger *zap.Logger
}

func (c *cachingReadings) LatestReadings(ctx context.Context, size int) ([]bloodsugar.Reading, error) {
	readings, err := c.source.LatestReadings(ctx, size)
	if err != nil {
		return nil, err
	}

	if err := c.store.StoreReadings(ctx, readings); err != nil {
		c.logger.Warn("failed to cache readings", zap.Error(err))
		return readings, nil
	}
	if err := c.store.DeleteOldReadings(ctx, time.Now().Add(-readingRetention)); err != nil {
		c.logger.Warn("failed to prune readings", zap.Error(err))
	}
	return readings, nil
}
