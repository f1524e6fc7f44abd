package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/maverick-lab/filebox/internal/common"
	"github.com/maverick-lab/filebox/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeUserStore struct {
	byEmail map[string]*models.User
	byID    map[string]*models.User

	createErr error
	lookupErr error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byEmail: map[string]*models.User{},
		byID:    map[string]*models.User{},
	}
}

func (f *fakeUserStore) CreateUser(ctx context.Context, user *models.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.byEmail[user.Email] = user
	f.byID[user.ID] = user
	return nil
}

func (f *fakeUserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeUserStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, common.ErrNotFound
}

type fakeSessions struct {
	values map[string]string
	ttls   map[string]time.Duration

	getErr error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeSessions) Save(ctx context.Context, token, userID string, ttl time.Duration) error {
	f.values[token] = userID
	f.ttls[token] = ttl
	return nil
}

func (f *fakeSessions) Get(ctx context.Context, token string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	if userID, ok := f.values[token]; ok {
		return userID, nil
	}
	return "", common.ErrNotFound
}

func (f *fakeSessions) Delete(ctx context.Context, token string) error {
	delete(f.values, token)
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeUserStore, *fakeSessions) {
	t.Helper()
	users := newFakeUserStore()
	sessions := newFakeSessions()
	return NewService(users, sessions, SHA1Digester{}), users, sessions
}

// --- tests ---

func TestRegisterValidation(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := s.Register(ctx, "", "pw")
	ve, ok := common.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "Missing email", ve.Message)

	_, err = s.Register(ctx, "a@x.com", "")
	ve, ok = common.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "Missing password", ve.Message)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s, users, _ := newTestService(t)
	ctx := context.Background()

	first, err := s.Register(ctx, "a@x.com", "pw1")
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	_, err = s.Register(ctx, "a@x.com", "pw2")
	ve, ok := common.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "Already exist", ve.Message)

	// No duplicate was created.
	assert.Len(t, users.byID, 1)
}

func TestRegisterStoresDigestNotPassword(t *testing.T) {
	s, users, _ := newTestService(t)

	user, err := s.Register(context.Background(), "a@x.com", "pw1")
	require.NoError(t, err)

	stored := users.byEmail["a@x.com"]
	assert.NotEqual(t, "pw1", stored.PasswordDigest)
	assert.Equal(t, user.ID, stored.ID)
}

func TestLoginIssuesSessionWithTTL(t *testing.T) {
	s, _, sessions := newTestService(t)
	ctx := context.Background()

	_, err := s.Register(ctx, "a@x.com", "pw1")
	require.NoError(t, err)

	token, err := s.Login(ctx, "a@x.com", "pw1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.Equal(t, SessionTTL, sessions.ttls[token])

	userID, err := s.ResolveSession(ctx, token)
	require.NoError(t, err)
	assert.NotEmpty(t, userID)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := s.Register(ctx, "a@x.com", "pw1")
	require.NoError(t, err)

	_, err = s.Login(ctx, "a@x.com", "wrong")
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	_, err = s.Login(ctx, "nobody@x.com", "pw1")
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	_, err = s.Login(ctx, "", "")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestLogoutSecondCallFails(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := s.Register(ctx, "a@x.com", "pw1")
	require.NoError(t, err)
	token, err := s.Login(ctx, "a@x.com", "pw1")
	require.NoError(t, err)

	require.NoError(t, s.Logout(ctx, token))

	// The session is gone: resolving and a second logout both fail.
	_, err = s.ResolveSession(ctx, token)
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	assert.ErrorIs(t, s.Logout(ctx, token), common.ErrUnauthorized)
}

func TestResolveSessionStoreErrorReadsAsUnauthorized(t *testing.T) {
	s, _, sessions := newTestService(t)
	sessions.getErr = errors.New("redis: connection refused")

	_, err := s.ResolveSession(context.Background(), "some-token")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestCurrentUser(t *testing.T) {
	s, _, sessions := newTestService(t)
	ctx := context.Background()

	user, err := s.Register(ctx, "a@x.com", "pw1")
	require.NoError(t, err)
	token, err := s.Login(ctx, "a@x.com", "pw1")
	require.NoError(t, err)

	got, err := s.CurrentUser(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "a@x.com", got.Email)

	// A session pointing at a vanished user reads as unauthenticated.
	sessions.values["stale"] = "missing-user"
	_, err = s.CurrentUser(ctx, "stale")
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	_, err = s.CurrentUser(ctx, "")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}
