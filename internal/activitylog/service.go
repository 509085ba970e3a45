package activitylog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jwulff/bgldash/internal/notify"
	"github.com/jwulff/bgldash/internal/validation"
)

// Backend is the subset of the API client used by Service.
type Backend interface {
	SearchActivityLog(ctx context.Context, params SearchParams) (*SearchResult, error)
	GetActivityLog(ctx context.Context, id string) (*Entry, error)
	CreateActivityLog(ctx context.Context, entry Entry) (*Entry, error)
	UpdateActivityLog(ctx context.Context, id string, entry Entry) (*Entry, error)
	DeleteActivityLog(ctx context.Context, id string) error
}

// Action is a user-initiated change to the log.
type Action string

const (
	ActionAdd    Action = "add"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ActionError reports a failed add, update or delete. It is not retried.
type ActionError struct {
	Action Action
	ID     string
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("activity log %s failed: %v", e.Action, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// Message is the text shown to the user.
func (e *ActionError) Message() string {
	switch e.Action {
	case ActionAdd:
		return "Could not add the activity log entry. Please try again."
	case ActionUpdate:
		return "Could not save changes to the activity log entry. Please try again."
	case ActionDelete:
		return "Could not delete the activity log entry. Please try again."
	default:
		return "The activity log could not be updated."
	}
}

// Change is published after a successful add, update or delete.
type Change struct {
	Action Action
	Entry  *Entry
	ID     string
}

// Service wraps the backend with validation, change notification and
// user-facing error reporting.
type Service struct {
	backend  Backend
	notifier notify.Notifier
	logger   *zap.Logger

	mu   sync.Mutex
	subs map[uuid.UUID]chan Change
}

// NewService creates a Service. A nil notifier or logger disables that
// output.
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
		subs:     make(map[uuid.UUID]chan Change),
	}
}

// Subscribe returns a channel of changes and a cancel function. A slow
// subscriber keeps only the latest pending change.
func (s *Service) Subscribe() (<-chan Change, func()) {
	id := uuid.New()
	ch := make(chan Change, 1)

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

func (s *Service) publish(c Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- c:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- c:
			default:
			}
		}
	}
}

// Search queries the log, newest first unless params say otherwise.
func (s *Service) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	params = params.WithDefaults()
	if err := validation.Struct(params); err != nil {
		return nil, err
	}
	result, err := s.backend.SearchActivityLog(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("searching activity log: %w", err)
	}
	return result, nil
}

// Get fetches a single entry.
func (s *Service) Get(ctx context.Context, id string) (*Entry, error) {
	entry, err := s.backend.GetActivityLog(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting activity log entry %s: %w", id, err)
	}
	return entry, nil
}

// Create adds entry to the log.
func (s *Service) Create(ctx context.Context, entry Entry) (*Entry, error) {
	if err := Validate(entry); err != nil {
		return nil, err
	}
	created, err := s.backend.CreateActivityLog(ctx, entry)
	if err != nil {
		return nil, s.fail(ActionAdd, "", err)
	}
	s.publish(Change{Action: ActionAdd, Entry: created, ID: created.ID})
	return created, nil
}

// Update replaces the entry with the given id.
func (s *Service) Update(ctx context.Context, id string, entry Entry) (*Entry, error) {
	if err := Validate(entry); err != nil {
		return nil, err
	}
	updated, err := s.backend.UpdateActivityLog(ctx, id, entry)
	if err != nil {
		return nil, s.fail(ActionUpdate, id, err)
	}
	s.publish(Change{Action: ActionUpdate, Entry: updated, ID: id})
	return updated, nil
}

// Delete removes the entry with the given id.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.backend.DeleteActivityLog(ctx, id); err != nil {
		return s.fail(ActionDelete, id, err)
	}
	s.publish(Change{Action: ActionDelete, ID: id})
	return nil
}

func (s *Service) fail(action Action, id string, err error) error {
	actionErr := &ActionError{Action: action, ID: id, Err: err}
	s.logger.Warn("activity log action failed",
		zap.String("action", string(action)),
		zap.String("id", id),
		zap.Error(err))
	if !errors.Is(err, context.Canceled) {
		s.notifier.Notify(notify.New(notify.LevelError, "Activity log", actionErr.Message()))
	}
	return actionErr
}

// Validate checks an entry before it is sent to the backend.
func Validate(entry Entry) error {
	if entry.Created.IsZero() {
		return validation.Errors{{Field: "Created", Message: "is required"}}
	}
	if entry.Details == nil {
		return nil
	}
	return validation.Struct(entry.Details)
}
