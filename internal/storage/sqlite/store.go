// Package sqlite provides a SQLite implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jwulff/bgldash/internal/bloodsugar"
	"github.com/jwulff/bgldash/internal/dashboard"
	"github.com/jwulff/bgldash/internal/preferences"
	"github.com/jwulff/bgldash/internal/storage"

	_ "modernc.org/sqlite"
)

// Store is a SQLite implementation of storage.Store.
type Store struct {
	db *sql.DB
}

// NewMemoryStore creates an in-memory SQLite store.
func NewMemoryStore() (*Store, error) {
	return newStore(":memory:")
}

// NewFileStore creates a file-based SQLite store.
func NewFileStore(path string) (*Store, error) {
	return newStore(path)
}

func newStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Each connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Preference methods

func (s *Store) SavePreferences(ctx context.Context, userID string, prefs preferences.Preferences) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO preferences (user_id, data, updated_at)
		VALUES (?, ?, ?)
	`, userID, string(data), time.Now().UTC())
	return err
}

func (s *Store) GetPreferences(ctx context.Context, userID string) (preferences.Preferences, error) {
	var prefs preferences.Preferences
	var data string
	err := s.db.QueryRowContext(ctx, "SELECT data FROM preferences WHERE user_id = ?", userID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return prefs, storage.ErrNotFound{Resource: "preferences", ID: userID}
	}
	if err != nil {
		return prefs, err
	}
	if err := json.Unmarshal([]byte(data), &prefs); err != nil {
		return prefs, fmt.Errorf("failed to unmarshal preferences: %w", err)
	}
	return prefs, nil
}

// Status methods

func (s *Store) SaveStatus(ctx context.Context, status *storage.CachedStatus) error {
	data, err := json.Marshal(status.Status)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO status_cache (id, data, stored_at)
		VALUES (1, ?, ?)
	`, string(data), status.StoredAt.UTC())
	return err
}

func (s *Store) GetStatus(ctx context.Context) (*storage.CachedStatus, error) {
	var cached storage.CachedStatus
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT data, stored_at FROM status_cache WHERE id = 1
	`).Scan(&data, &cached.StoredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound{Resource: "status_cache", ID: "1"}
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(data), &cached.Status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status: %w", err)
	}
	return &cached, nil
}

// Reading methods

func (s *Store) StoreReadings(ctx context.Context, readings []bloodsugar.Reading) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO readings (timestamp, bgl, trend)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range readings {
		if _, err := stmt.ExecContext(ctx, r.Timestamp.UTC(), r.Bgl, string(r.Trend)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// QueryReadings returns readings in [since, until], oldest first.
func (s *Store) QueryReadings(ctx context.Context, since, until time.Time) ([]bloodsugar.Reading, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, bgl, trend FROM readings
		WHERE timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC
	`, since.UTC(), until.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []bloodsugar.Reading
	for rows.Next() {
		var r bloodsugar.Reading
		var trend string
		if err := rows.Scan(&r.Timestamp, &r.Bgl, &trend); err != nil {
			return nil, err
		}
		r.Trend = bloodsugar.Trend(trend)
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

func (s *Store) DeleteOldReadings(ctx context.Context, before time.Time) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM readings WHERE timestamp < ?", before.UTC())
	return err
}

// Chart cache methods

func (s *Store) CacheChart(ctx context.Context, chart *dashboard.Chart) error {
	data, err := json.Marshal(chart)
	if err != nil {
		return fmt.Errorf("failed to marshal chart: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO chart_cache (id, chart_data, generated_at)
		VALUES (1, ?, ?)
	`, string(data), chart.GeneratedAt.UTC())
	return err
}

func (s *Store) GetCachedChart(ctx context.Context) (*dashboard.Chart, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT chart_data FROM chart_cache WHERE id = 1
	`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound{Resource: "chart_cache", ID: "1"}
	}
	if err != nil {
		return nil, err
	}

	var chart dashboard.Chart
	if err := json.Unmarshal([]byte(data), &chart); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chart: %w", err)
	}
	return &chart, nil
}

// Config methods

func (s *Store) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", storage.ErrNotFound{Resource: "config", ID: key}
	}
	return value, err
}

func (s *Store) SetConfig(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO config (key, value, updated_at)
		VALUES (?, ?, ?)
	`, key, value, time.Now().UTC())
	return err
}

func (s *Store) DeleteConfig(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM config WHERE key = ?", key)
	return err
}

// Verify interface compliance
var _ storage.Store = (*Store)(nil)
