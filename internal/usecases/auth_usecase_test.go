package usecases_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"project_canvass/internal/entities"
	"project_canvass/internal/testutil"
	"project_canvass/internal/usecases"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testWindow     = 48 * time.Hour
	testInactivity = 400 * time.Minute
)

func newAuth(store *testutil.FakeStore) *usecases.AuthUsecase {
	codec := usecases.NewTokenCodec("test-secret", 7*24*time.Hour)
	return usecases.NewAuthUsecase(store, store, codec, testWindow, testInactivity, zap.NewNop())
}

func adminUser(id int, username string) entities.User {
	section := 5
	return entities.User{
		ID:        id,
		Username:  username,
		Role:      entities.RoleAdmin,
		SectionNo: &section,
		Allocated: 10,
	}
}

func TestLoginIssuesWorkingToken(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddUser(adminUser(1, "alice"), "secret123")
	auth := newAuth(store)

	result, err := auth.Login(context.Background(), "alice", "secret123")
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	assert.Equal(t, 1, result.Identity.UserID)
	assert.Equal(t, 1, result.Identity.MainAdminID)

	identity, err := auth.Validate(context.Background(), result.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", identity.Username)
	assert.Equal(t, result.Identity.SessionID, identity.SessionID)
}

func TestLoginWrongPassword(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddUser(adminUser(1, "alice"), "secret123")
	auth := newAuth(store)

	_, err := auth.Login(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, entities.ErrInvalidCredentials)

	_, err = auth.Login(context.Background(), "nobody", "secret123")
	assert.ErrorIs(t, err, entities.ErrInvalidCredentials)
}

func TestSecondLoginRejectedWhileSessionLive(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddUser(adminUser(1, "alice"), "secret123")
	auth := newAuth(store)

	_, err := auth.Login(context.Background(), "alice", "secret123")
	require.NoError(t, err)

	_, err = auth.Login(context.Background(), "alice", "secret123")
	assert.ErrorIs(t, err, entities.ErrAlreadyLoggedIn)
}

func TestConcurrentLoginsSingleWinner(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddUser(adminUser(1, "alice"), "secret123")
	auth := newAuth(store)

	const attempts = 20
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = auth.Login(context.Background(), "alice", "secret123")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, entities.ErrAlreadyLoggedIn)
		}
	}
	assert.Equal(t, 1, wins)
}

func TestReloginAfterLogout(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddUser(adminUser(1, "alice"), "secret123")
	auth := newAuth(store)

	first, err := auth.Login(context.Background(), "alice", "secret123")
	require.NoError(t, err)
	require.NoError(t, auth.Logout(context.Background(), &first.Identity))

	second, err := auth.Login(context.Background(), "alice", "secret123")
	require.NoError(t, err)
	assert.NotEqual(t, first.Identity.SessionID, second.Identity.SessionID)
}

func TestNewLoginRevokesOldToken(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddUser(adminUser(1, "alice"), "secret123")
	auth := newAuth(store)

	first, err := auth.Login(context.Background(), "alice", "secret123")
	require.NoError(t, err)

	// First device goes idle past the threshold; the slot is reclaimable.
	store.SetLastActivity(1, time.Now().Add(-testInactivity-time.Minute))

	second, err := auth.Login(context.Background(), "alice", "secret123")
	require.NoError(t, err)

	// Old token now points at a superseded session.
	_, err = auth.Validate(context.Background(), first.Token)
	assert.ErrorIs(t, err, entities.ErrSessionMismatch)

	_, err = auth.Validate(context.Background(), second.Token)
	assert.NoError(t, err)
}

func TestInactivityTimeoutClearsSession(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddUser(adminUser(1, "alice"), "secret123")
	auth := newAuth(store)

	result, err := auth.Login(context.Background(), "alice", "secret123")
	require.NoError(t, err)

	store.SetLastActivity(1, time.Now().Add(-testInactivity-time.Minute))

	_, err = auth.Validate(context.Background(), result.Token)
	assert.ErrorIs(t, err, entities.ErrInactivityTimeout)
	assert.False(t, store.HasSession(1))

	// The slot is free again.
	_, err = auth.Login(context.Background(), "alice", "secret123")
	assert.NoError(t, err)
}

func TestSessionExpiry(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddUser(adminUser(1, "alice"), "secret123")
	auth := newAuth(store)

	result, err := auth.Login(context.Background(), "alice", "secret123")
	require.NoError(t, err)

	store.SetExpiry(1, time.Now().Add(-time.Minute))

	_, err = auth.Validate(context.Background(), result.Token)
	assert.ErrorIs(t, err, entities.ErrSessionExpired)
}

func TestValidateAfterLogout(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddUser(adminUser(1, "alice"), "secret123")
	auth := newAuth(store)

	result, err := auth.Login(context.Background(), "alice", "secret123")
	require.NoError(t, err)
	require.NoError(t, auth.Logout(context.Background(), &result.Identity))

	_, err = auth.Validate(context.Background(), result.Token)
	assert.ErrorIs(t, err, entities.ErrSessionTerminated)
}

func TestLogoutIdempotent(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddUser(adminUser(1, "alice"), "secret123")
	auth := newAuth(store)

	result, err := auth.Login(context.Background(), "alice", "secret123")
	require.NoError(t, err)

	require.NoError(t, auth.Logout(context.Background(), &result.Identity))
	require.NoError(t, auth.Logout(context.Background(), &result.Identity))
}

func TestRefreshExtendsExpiry(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddUser(adminUser(1, "alice"), "secret123")
	auth := newAuth(store)

	result, err := auth.Login(context.Background(), "alice", "secret123")
	require.NoError(t, err)

	// Shrink the window, then refresh to restore it.
	store.SetExpiry(1, time.Now().Add(time.Minute))

	expiresAt, err := auth.Refresh(context.Background(), &result.Identity)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(testWindow), expiresAt, time.Minute)

	session, err := store.Get(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, expiresAt.Unix(), session.ExpiresAt.Unix())
}

func TestTouchPushesInactivityForward(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddUser(adminUser(1, "alice"), "secret123")
	auth := newAuth(store)

	result, err := auth.Login(context.Background(), "alice", "secret123")
	require.NoError(t, err)

	store.SetLastActivity(1, time.Now().Add(-testInactivity+time.Minute))
	require.NoError(t, auth.Touch(context.Background(), &result.Identity))

	_, err = auth.Validate(context.Background(), result.Token)
	assert.NoError(t, err)
}

func TestStatusReportsInvalidWithoutError(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddUser(adminUser(1, "alice"), "secret123")
	auth := newAuth(store)

	result, err := auth.Login(context.Background(), "alice", "secret123")
	require.NoError(t, err)

	status, err := auth.Status(context.Background(), &result.Identity)
	require.NoError(t, err)
	assert.True(t, status.Valid)
	require.NotNil(t, status.ExpiresAt)

	require.NoError(t, auth.Logout(context.Background(), &result.Identity))

	status, err = auth.Status(context.Background(), &result.Identity)
	require.NoError(t, err)
	assert.False(t, status.Valid)
	assert.NotEmpty(t, status.Reason)
}

func TestValidateRejectsDeactivatedUser(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddUser(adminUser(1, "alice"), "secret123")
	auth := newAuth(store)

	result, err := auth.Login(context.Background(), "alice", "secret123")
	require.NoError(t, err)

	// Simulate an operator kill: session row gone, flag cleared.
	require.NoError(t, store.Clear(context.Background(), 1))

	_, err = auth.Validate(context.Background(), result.Token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, entities.ErrSessionTerminated))
}
