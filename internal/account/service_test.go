package account

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwulff/bgldash/internal/bloodsugar"
	"github.com/jwulff/bgldash/internal/notify"
	"github.com/jwulff/bgldash/internal/preferences"
	"github.com/jwulff/bgldash/internal/validation"
)

type fakeBackend struct {
	user    *User
	err     error
	saved   *preferences.Preferences
	removed string
}

func (f *fakeBackend) GetUser(ctx context.Context) (*User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func (f *fakeBackend) SavePreferences(ctx context.Context, prefs preferences.Preferences) error {
	if f.err != nil {
		return f.err
	}
	f.saved = &prefs
	return nil
}

func (f *fakeBackend) AddDataSource(ctx context.Context, source DataSource) (*DataSource, error) {
	if f.err != nil {
		return nil, f.err
	}
	source.ID = "ds-2"
	return &source, nil
}

func (f *fakeBackend) RemoveDataSource(ctx context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.removed = id
	return nil
}

func (f *fakeBackend) ShareToken(ctx context.Context, dataSourceID string) (*ShareToken, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ShareToken{Token: "tok-" + dataSourceID}, nil
}

type recordingNotifier struct {
	got []notify.Notification
}

func (r *recordingNotifier) Notify(n notify.Notification) { r.got = append(r.got, n) }

func TestLoadPublishesLogin(t *testing.T) {
	backend := &fakeBackend{user: &User{ID: "u1", DataSources: []DataSource{{ID: "ds-1", Type: "dexcom"}}}}
	svc := NewService(backend, nil, nil)
	events, cancel := svc.Subscribe()
	defer cancel()

	user, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	ev := <-events
	assert.Equal(t, "u1", ev.User.ID)
	assert.Same(t, user, svc.User())
}

func TestSavePreferencesPublishesChange(t *testing.T) {
	backend := &fakeBackend{user: &User{ID: "u1"}}
	svc := NewService(backend, nil, nil)
	_, err := svc.Load(context.Background())
	require.NoError(t, err)

	events, cancel := svc.Subscribe()
	defer cancel()

	unit := bloodsugar.MmolL
	prefs := preferences.Preferences{Treatment: &preferences.Treatment{BglUnit: &unit}}
	require.NoError(t, svc.SavePreferences(context.Background(), prefs))

	require.NotNil(t, backend.saved)
	ev := <-events
	assert.Equal(t, bloodsugar.MmolL, *ev.Preferences.Treatment.BglUnit)
	assert.Equal(t, bloodsugar.MmolL, preferences.ResolveEffective(svc.Preferences()).BglUnit)
}

func TestSavePreferencesRejectsInvalid(t *testing.T) {
	backend := &fakeBackend{}
	svc := NewService(backend, nil, nil)

	bad := bloodsugar.Unit("Grains")
	err := svc.SavePreferences(context.Background(), preferences.Preferences{
		Treatment: &preferences.Treatment{BglUnit: &bad},
	})

	var verrs validation.Errors
	require.ErrorAs(t, err, &verrs)
	assert.Nil(t, backend.saved)
}

func TestDataSources(t *testing.T) {
	backend := &fakeBackend{user: &User{ID: "u1", DataSources: []DataSource{{ID: "ds-1", Type: "dexcom"}}}}
	svc := NewService(backend, nil, nil)
	_, err := svc.Load(context.Background())
	require.NoError(t, err)

	added, err := svc.AddDataSource(context.Background(), DataSource{Type: "librelink"})
	require.NoError(t, err)
	assert.Equal(t, "ds-2", added.ID)
	assert.Len(t, svc.User().DataSources, 2)

	require.NoError(t, svc.RemoveDataSource(context.Background(), "ds-1"))
	assert.Equal(t, "ds-1", backend.removed)
	require.Len(t, svc.User().DataSources, 1)
	assert.Equal(t, "ds-2", svc.User().DataSources[0].ID)

	token, err := svc.ShareToken(context.Background(), "ds-2")
	require.NoError(t, err)
	assert.Equal(t, "tok-ds-2", token.Token)

	_, err = svc.AddDataSource(context.Background(), DataSource{})
	assert.Error(t, err)
}

func TestActionFailuresNotify(t *testing.T) {
	boom := errors.New("connection refused")
	notifier := &recordingNotifier{}
	svc := NewService(&fakeBackend{err: boom}, notifier, nil)

	errs := []error{
		svc.SavePreferences(context.Background(), preferences.Preferences{}),
		svc.RemoveDataSource(context.Background(), "ds-1"),
	}
	_, addErr := svc.AddDataSource(context.Background(), DataSource{Type: "dexcom"})
	errs = append(errs, addErr)

	actions := []Action{ActionSavePreferences, ActionRemoveDataSource, ActionAddDataSource}
	for i, err := range errs {
		var actionErr *ActionError
		require.ErrorAs(t, err, &actionErr)
		assert.Equal(t, actions[i], actionErr.Action)
		assert.ErrorIs(t, err, boom)
	}
	require.Len(t, notifier.got, 3)
	assert.NotEqual(t, notifier.got[0].Message, notifier.got[1].Message)
}
