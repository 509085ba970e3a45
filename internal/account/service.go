package account

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jwulff/bgldash/internal/notify"
	"github.com/jwulff/bgldash/internal/preferences"
	"github.com/jwulff/bgldash/internal/validation"
)

// Backend is the subset of the API client used by Service.
type Backend interface {
	GetUser(ctx context.Context) (*User, error)
	SavePreferences(ctx context.Context, prefs preferences.Preferences) error
	AddDataSource(ctx context.Context, source DataSource) (*DataSource, error)
	RemoveDataSource(ctx context.Context, id string) error
	ShareToken(ctx context.Context, dataSourceID string) (*ShareToken, error)
}

// Action is a user-initiated account change.
type Action string

const (
	ActionSavePreferences  Action = "savePreferences"
	ActionAddDataSource    Action = "addDataSource"
	ActionRemoveDataSource Action = "removeDataSource"
)

// ActionError reports a failed account change. It is not retried.
type ActionError struct {
	Action Action
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("account %s failed: %v", e.Action, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// Message is the text shown to the user.
func (e *ActionError) Message() string {
	switch e.Action {
	case ActionSavePreferences:
		return "Could not save your preferences. Please try again."
	case ActionAddDataSource:
		return "Could not add the data source. Please try again."
	case ActionRemoveDataSource:
		return "Could not remove the data source. Please try again."
	default:
		return "Your account could not be updated."
	}
}

// Event is published when the user signs in or changes preferences.
type Event struct {
	User        *User
	Preferences preferences.Preferences
}

// Service holds the signed-in user and publishes preference changes.
type Service struct {
	backend  Backend
	notifier notify.Notifier
	logger   *zap.Logger

	mu   sync.Mutex
	user *User
	subs map[uuid.UUID]chan Event
}

// NewService creates a Service.
func NewService(backend Backend, notifier notify.Notifier, logger *zap.Logger) *Service {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		backend:  backend,
		notifier: notifier,
		logger:   logger,
		subs:     make(map[uuid.UUID]chan Event),
	}
}

// Subscribe returns a channel of login and preference events. A slow
// subscriber keeps only the latest pending event.
func (s *Service) Subscribe() (<-chan Event, func()) {
	id := uuid.New()
	ch := make(chan Event, 1)

	s.mu.Lock()
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Service) publish(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- e:
		default:
		}
	}
}

// Load fetches the user and publishes a login event.
func (s *Service) Load(ctx context.Context) (*User, error) {
	user, err := s.backend.GetUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()

	s.logger.Info("user loaded", zap.String("user_id", user.ID))
	s.publish(Event{User: user, Preferences: user.Preferences})
	return user, nil
}

// User returns the last loaded user, or nil before Load.
func (s *Service) User() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Preferences returns the last known preferences of the user.
func (s *Service) Preferences() preferences.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return preferences.Preferences{}
	}
	return s.user.Preferences
}

// SavePreferences validates and stores prefs, then publishes a change.
func (s *Service) SavePreferences(ctx context.Context, prefs preferences.Preferences) error {
	if err := preferences.Validate(prefs); err != nil {
		return err
	}
	if err := s.backend.SavePreferences(ctx, prefs); err != nil {
		return s.fail(ActionSavePreferences, err)
	}

	s.mu.Lock()
	if s.user == nil {
		s.user = &User{}
	}
	s.user.Preferences = prefs
	user := s.user
	s.mu.Unlock()

	s.publish(Event{User: user, Preferences: prefs})
	return nil
}

// AddDataSource connects a new data source.
func (s *Service) AddDataSource(ctx context.Context, source DataSource) (*DataSource, error) {
	if err := validation.Struct(source); err != nil {
		return nil, err
	}
	added, err := s.backend.AddDataSource(ctx, source)
	if err != nil {
		return nil, s.fail(ActionAddDataSource, err)
	}

	s.mu.Lock()
	if s.user != nil {
		s.user.DataSources = append(s.user.DataSources, *added)
	}
	s.mu.Unlock()
	return added, nil
}

// RemoveDataSource disconnects a data source.
func (s *Service) RemoveDataSource(ctx context.Context, id string) error {
	if err := s.backend.RemoveDataSource(ctx, id); err != nil {
		return s.fail(ActionRemoveDataSource, err)
	}

	s.mu.Lock()
	if s.user != nil {
		kept := s.user.DataSources[:0]
		for _, ds := range s.user.DataSources {
			if ds.ID != id {
				kept = append(kept, ds)
			}
		}
		s.user.DataSources = kept
	}
	s.mu.Unlock()
	return nil
}

// ShareToken fetches a share token for a data source.
func (s *Service) ShareToken(ctx context.Context, dataSourceID string) (*ShareToken, error) {
	token, err := s.backend.ShareToken(ctx, dataSourceID)
	if err != nil {
		return nil, fmt.Errorf("fetching share token: %w", err)
	}
	return token, nil
}

func (s *Service) fail(action Action, err error) error {
	actionErr := &ActionError{Action: action, Err: err}
	s.logger.Warn("account action failed", zap.String("action", string(action)), zap.Error(err))
	s.notifier.Notify(notify.New(notify.LevelError, "Account", actionErr.Message()))
	return actionErr
}
