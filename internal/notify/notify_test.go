package notify

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type sent struct {
	title, message string
}

func newTestDesktop(repeat time.Duration, fail bool) (*Desktop, *[]sent) {
	var calls []sent
	d := NewDesktop("bgldash", repeat, nil)
	d.send = func(title, message, icon string) error {
		calls = append(calls, sent{title, message})
		if fail {
			return errors.New("no notification daemon")
		}
		return nil
	}
	return d, &calls
}

func TestDesktopSuppressesRepeats(t *testing.T) {
	d, calls := newTestDesktop(time.Minute, false)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	n := New(LevelError, "Dashboard", "Could not refresh the chart.")
	n.Time = start
	d.Notify(n)

	n.Time = start.Add(30 * time.Second)
	d.Notify(n)

	n.Time = start.Add(2 * time.Minute)
	d.Notify(n)

	require.Len(t, *calls, 2)
	assert.Equal(t, "bgldash: Dashboard", (*calls)[0].title)
}

func TestDesktopDifferentMessagesNotSuppressed(t *testing.T) {
	d, calls := newTestDesktop(time.Hour, false)

	d.Notify(New(LevelError, "Activity log", "Could not add the entry."))
	d.Notify(New(LevelError, "Activity log", "Could not delete the entry."))

	assert.Len(t, *calls, 2)
}

func TestDesktopLogsSendFailure(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	d, _ := newTestDesktop(0, true)
	d.Logger = zap.New(core)

	d.Notify(New(LevelError, "t", "m"))

	assert.Equal(t, 1, logs.FilterMessage("desktop notification failed").Len())
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := Log{Logger: zap.New(core)}

	l.Notify(New(LevelInfo, "Status", "refreshed"))
	l.Notify(New(LevelError, "Status", "failed"))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
}

type recorder struct {
	got []Notification
}

func (r *recorder) Notify(n Notification) { r.got = append(r.got, n) }

func TestMultiAndNew(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	Multi{a, b, Nop{}}.Notify(New(LevelInfo, "x", "y"))

	require.Len(t, a.got, 1)
	require.Len(t, b.got, 1)
	assert.NotEmpty(t, a.got[0].ID)
	assert.False(t, a.got[0].Time.IsZero())
}
