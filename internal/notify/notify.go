// Package notify delivers short user-facing messages such as failed
// actions or a chart refresh that could not complete.
package notify

import (
	"sync"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Level is the severity of a notification.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notification is a transient message for the user.
type Notification struct {
	ID      string
	Level   Level
	Title   string
	Message string
	Time    time.Time
}

// New returns a notification stamped with a fresh ID and the current time.
func New(level Level, title, message string) Notification {
	return Notification{
		ID:      uuid.NewString(),
		Level:   level,
		Title:   title,
		Message: message,
		Time:    time.Now(),
	}
}

// Notifier posts notifications. Delivery is best effort.
type Notifier interface {
	Notify(n Notification)
}

// Nop discards notifications.
type Nop struct{}

func (Nop) Notify(Notification) {}

// Log writes notifications to a zap logger.
type Log struct {
	Logger *zap.Logger
}

func (l Log) Notify(n Notification) {
	logger := l.Logger
	if logger == nil {
		return
	}
	fields := []zap.Field{zap.String("id", n.ID), zap.String("title", n.Title)}
	if n.Level == LevelError {
		logger.Warn(n.Message, fields...)
		return
	}
	logger.Info(n.Message, fields...)
}

// Desktop shows notifications through the operating system. Identical
// messages are suppressed for RepeatAfter.
type Desktop struct {
	AppName     string
	RepeatAfter time.Duration
	Logger      *zap.Logger

	// send is swapped out in tests.
	send func(title, message, icon string) error

	mu       sync.Mutex
	lastSent map[string]time.Time
}

// NewDesktop creates a desktop notifier.
func NewDesktop(appName string, repeatAfter time.Duration, logger *zap.Logger) *Desktop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Desktop{
		AppName:     appName,
		RepeatAfter: repeatAfter,
		Logger:      logger,
		send:        beeep.Notify,
		lastSent:    make(map[string]time.Time),
	}
}

func (d *Desktop) Notify(n Notification) {
	key := n.Title + "\x00" + n.Message

	d.mu.Lock()
	if last, ok := d.lastSent[key]; ok && n.Time.Sub(last) < d.RepeatAfter {
		d.mu.Unlock()
		return
	}
	d.lastSent[key] = n.Time
	d.mu.Unlock()

	title := n.Title
	if d.AppName != "" {
		title = d.AppName + ": " + title
	}
	if err := d.send(title, n.Message, ""); err != nil {
		d.Logger.Warn("desktop notification failed", zap.Error(err), zap.String("title", n.Title))
	}
}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(n Notification) {
	for _, notifier := range m {
		notifier.Notify(n)
	}
}
