// Package status tracks the latest glucose reading, its delta and trend.
package status

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jwulff/bgldash/internal/bloodsugar"
	"github.com/jwulff/bgldash/internal/refresh"
)

// DefaultSampleSize is how many readings are fetched per poll.
const DefaultSampleSize = 3

// ReadingSource returns the most recent readings, newest first.
type ReadingSource interface {
	LatestReadings(ctx context.Context, size int) ([]bloodsugar.Reading, error)
}

// ComputeStatus derives the status from readings ordered newest first.
// The delta is taken against the first reading with a different timestamp
// than the newest. With no readings, or when all readings share one
// timestamp, the status is empty.
func ComputeStatus(readings []bloodsugar.Reading) bloodsugar.Status {
	if len(readings) == 0 {
		return bloodsugar.Status{}
	}

	newest := readings[0]
	for _, r := range readings[1:] {
		if r.Timestamp.Equal(newest.Timestamp) {
			continue
		}
		bgl := newest.Bgl
		delta := newest.Bgl - r.Bgl
		at := newest.Timestamp
		return bloodsugar.Status{
			Bgl:         &bgl,
			Delta:       &delta,
			Trend:       newest.Trend,
			LastReading: &at,
		}
	}
	return bloodsugar.Status{}
}

// Tracker owns the current status and publishes it after every poll.
type Tracker struct {
	source     ReadingSource
	sampleSize int
	logger     *zap.Logger
	coalescer  *refresh.Coalescer

	mu      sync.Mutex
	current bloodsugar.Status
	subs    map[uuid.UUID]chan bloodsugar.Status
}

// NewTracker creates a Tracker. Triggers within throttle of a poll are
// collapsed into one trailing poll.
func NewTracker(source ReadingSource, sampleSize int, throttle time.Duration, logger *zap.Logger) *Tracker {
	if sampleSize < 2 {
		sampleSize = DefaultSampleSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tracker{
		source:     source,
		sampleSize: sampleSize,
		logger:     logger,
		subs:       make(map[uuid.UUID]chan bloodsugar.Status),
	}
	t.coalescer = refresh.NewCoalescer(throttle, func(ctx context.Context) {
		t.Poll(ctx)
	})
	return t
}

// Restore seeds the current status, e.g. from a cache, without publishing.
func (t *Tracker) Restore(s bloodsugar.Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = s
}

// Current returns the latest known status.
func (t *Tracker) Current() bloodsugar.Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Subscribe returns a channel of published statuses. A slow subscriber
// sees only the most recent one.
func (t *Tracker) Subscribe() (<-chan bloodsugar.Status, func()) {
	id := uuid.New()
	ch := make(chan bloodsugar.Status, 1)

	t.mu.Lock()
	t.subs[id] = ch
	t.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.subs, id)
			t.mu.Unlock()
		})
	}
}

// Poll fetches readings and publishes the new status. On failure the
// previous status is published again unchanged.
func (t *Tracker) Poll(ctx context.Context) bloodsugar.Status {
	readings, err := t.source.LatestReadings(ctx, t.sampleSize)

	t.mu.Lock()
	if err != nil {
		t.logger.Warn("status poll failed, keeping last status", zap.Error(err))
	} else {
		t.current = ComputeStatus(readings)
	}
	s := t.current
	t.publishLocked(s)
	t.mu.Unlock()

	if err == nil {
		t.logger.Debug("status updated", zap.Int("readings", len(readings)), zap.Bool("empty", s.IsEmpty()))
	}
	return s
}

func (t *Tracker) publishLocked(s bloodsugar.Status) {
	for _, ch := range t.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s:
		default:
		}
	}
}

// Trigger requests a poll through the throttle.
func (t *Tracker) Trigger() {
	t.coalescer.Trigger()
}

// Run serves triggers until ctx is done.
func (t *Tracker) Run(ctx context.Context) error {
	return t.coalescer.Run(ctx)
}
