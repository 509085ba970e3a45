package refresh

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Coordinator emits a periodic refresh tick to every subscriber while
// enabled. Subscribers that have not consumed the previous tick miss the
// new one.
type Coordinator struct {
	interval time.Duration
	logger   *zap.Logger

	mu        sync.Mutex
	enabled   bool
	scheduler *cron.Cron
	subs      map[uuid.UUID]chan time.Time
}

// NewCoordinator creates a Coordinator ticking every interval.
func NewCoordinator(interval time.Duration, enabled bool, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		interval: interval,
		logger:   logger,
		enabled:  enabled,
		subs:     make(map[uuid.UUID]chan time.Time),
	}
}

// Start schedules the tick. Calling Start again is a no-op.
func (c *Coordinator) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.scheduler != nil {
		return nil
	}

	scheduler := cron.New()
	schedule := "@every " + c.interval.String()
	if _, err := scheduler.AddFunc(schedule, func() { c.tick(time.Now()) }); err != nil {
		return fmt.Errorf("failed to schedule refresh %q: %w", schedule, err)
	}
	scheduler.Start()
	c.scheduler = scheduler

	c.logger.Info("auto refresh started", zap.Duration("interval", c.interval), zap.Bool("enabled", c.enabled))
	return nil
}

// Stop halts the schedule and waits for a running tick to finish.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	scheduler := c.scheduler
	c.scheduler = nil
	c.mu.Unlock()

	if scheduler == nil {
		return
	}
	<-scheduler.Stop().Done()
	c.logger.Info("auto refresh stopped")
}

// SetEnabled turns ticking on or off without stopping the schedule.
func (c *Coordinator) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
}

// Enabled reports whether ticks are delivered.
func (c *Coordinator) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// Subscribe returns a tick channel and a function that unsubscribes.
func (c *Coordinator) Subscribe() (<-chan time.Time, func()) {
	id := uuid.New()
	ch := make(chan time.Time, 1)

	c.mu.Lock()
	c.subs[id] = ch
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

func (c *Coordinator) tick(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled {
		return
	}
	for id, ch := range c.subs {
		select {
		case ch <- now:
		default:
			c.logger.Debug("refresh tick dropped", zap.String("subscriber", id.String()))
		}
	}
}
