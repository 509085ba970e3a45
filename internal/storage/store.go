// Package storage provides the client-side cache used to show the last
// known dashboard state before the backend answers.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jwulff/bgldash/internal/bloodsugar"
	"github.com/jwulff/bgldash/internal/dashboard"
	"github.com/jwulff/bgldash/internal/preferences"
)

// Store is the interface for persistent storage.
type Store interface {
	// Preferences
	SavePreferences(ctx context.Context, userID string, prefs preferences.Preferences) error
	GetPreferences(ctx context.Context, userID string) (preferences.Preferences, error)

	// Status
	SaveStatus(ctx context.Context, status *CachedStatus) error
	GetStatus(ctx context.Context) (*CachedStatus, error)

	// Readings
	StoreReadings(ctx context.Context, readings []bloodsugar.Reading) error
	QueryReadings(ctx context.Context, since, until time.Time) ([]bloodsugar.Reading, error)
	DeleteOldReadings(ctx context.Context, before time.Time) error

	// Chart cache
	CacheChart(ctx context.Context, chart *dashboard.Chart) error
	GetCachedChart(ctx context.Context) (*dashboard.Chart, error)

	// Configuration
	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
	DeleteConfig(ctx context.Context, key string) error

	// Lifecycle
	Close() error
}

// CachedStatus is a status together with the time it was stored.
type CachedStatus struct {
	Status   bloodsugar.Status
	StoredAt time.Time
}

// NewCachedStatus wraps a status stamped with the current time.
func NewCachedStatus(s bloodsugar.Status) *CachedStatus {
	return &CachedStatus{Status: s, StoredAt: time.Now()}
}

// ErrNotFound is returned when a record is not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e ErrNotFound) Error() string {
	return e.Resource + " not found: " + e.ID
}

// IsNotFound checks if an error is, or wraps, a not found error.
func IsNotFound(err error) bool {
	var nf ErrNotFound
	return errors.As(err, &nf)
}
