package usecases_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"project_canvass/internal/entities"
	"project_canvass/internal/testutil"
	"project_canvass/internal/usecases"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newAdmin(store *testutil.FakeStore) *usecases.AdminUsecase {
	return usecases.NewAdminUsecase(store, zap.NewNop())
}

func adminIdentity(id, section int) *entities.Identity {
	s := section
	return &entities.Identity{
		UserID:      id,
		Username:    "admin",
		Role:        entities.RoleAdmin,
		MainAdminID: id,
		SectionNo:   &s,
		SessionID:   "sess",
	}
}

func TestCreateSubUser(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddUser(adminUser(1, "boss"), "secret123")
	uc := newAdmin(store)

	id, err := uc.CreateSubUser(context.Background(), adminIdentity(1, 5), "worker1", "pass-123")
	require.NoError(t, err)
	assert.NotZero(t, id)

	created, err := store.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, entities.RoleSubuser, created.Role)
	require.NotNil(t, created.ParentID)
	assert.Equal(t, 1, *created.ParentID)
	require.NotNil(t, created.SectionNo)
	assert.Equal(t, 5, *created.SectionNo)

	// Stored credential is a working bcrypt hash, not the plaintext.
	assert.NotEqual(t, "pass-123", created.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("pass-123")))
}

func TestCreateSubUserRequiresAdmin(t *testing.T) {
	store := testutil.NewFakeStore()
	uc := newAdmin(store)

	identity := adminIdentity(1, 5)
	identity.Role = entities.RoleSubuser

	_, err := uc.CreateSubUser(context.Background(), identity, "worker1", "pass-123")
	assert.ErrorIs(t, err, entities.ErrForbidden)
}

func TestCreateSubUserRequiresSection(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddUser(adminUser(1, "boss"), "secret123")
	uc := newAdmin(store)

	identity := adminIdentity(1, 5)
	identity.SectionNo = nil

	_, err := uc.CreateSubUser(context.Background(), identity, "worker1", "pass-123")
	assert.ErrorIs(t, err, entities.ErrNoSectionAssigned)
}

func TestCreateSubUserDuplicateUsername(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddUser(adminUser(1, "boss"), "secret123")
	uc := newAdmin(store)

	_, err := uc.CreateSubUser(context.Background(), adminIdentity(1, 5), "worker1", "pass-123")
	require.NoError(t, err)

	_, err = uc.CreateSubUser(context.Background(), adminIdentity(1, 5), "worker1", "pass-456")
	assert.ErrorIs(t, err, entities.ErrUsernameTaken)
}

func TestCreateSubUserQuotaExceeded(t *testing.T) {
	store := testutil.NewFakeStore()
	u := adminUser(1, "boss")
	u.Allocated = 1
	store.AddUser(u, "secret123")
	uc := newAdmin(store)

	_, err := uc.CreateSubUser(context.Background(), adminIdentity(1, 5), "worker1", "pass-123")
	require.NoError(t, err)

	_, err = uc.CreateSubUser(context.Background(), adminIdentity(1, 5), "worker2", "pass-123")
	var quotaErr *entities.QuotaError
	require.ErrorAs(t, err, &quotaErr)
	assert.Equal(t, 1, quotaErr.Allocated)
	assert.Equal(t, 1, quotaErr.Current)
}

func TestConcurrentCreatesRespectQuota(t *testing.T) {
	store := testutil.NewFakeStore()
	u := adminUser(1, "boss")
	u.Allocated = 5
	store.AddUser(u, "secret123")
	uc := newAdmin(store)

	const attempts = 10
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = uc.CreateSubUser(context.Background(), adminIdentity(1, 5),
				fmt.Sprintf("worker%d", i), "pass-123")
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
		} else {
			var quotaErr *entities.QuotaError
			assert.ErrorAs(t, err, &quotaErr)
		}
	}
	assert.Equal(t, 5, created)

	status, err := uc.Status(context.Background(), adminIdentity(1, 5))
	require.NoError(t, err)
	assert.Equal(t, 5, status.Users)
	assert.Zero(t, status.Remaining)
}

func TestListSubUsers(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddUser(adminUser(1, "boss"), "secret123")
	uc := newAdmin(store)

	for i := 0; i < 3; i++ {
		_, err := uc.CreateSubUser(context.Background(), adminIdentity(1, 5),
			fmt.Sprintf("worker%d", i), "pass-123")
		require.NoError(t, err)
	}

	subs, err := uc.ListSubUsers(context.Background(), adminIdentity(1, 5))
	require.NoError(t, err)
	assert.Len(t, subs, 3)
	for _, sub := range subs {
		assert.Equal(t, entities.RoleSubuser, sub.Role)
	}
}

func TestSetAllocation(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddUser(adminUser(1, "boss"), "secret123")
	uc := newAdmin(store)

	require.NoError(t, uc.SetAllocation(context.Background(), adminIdentity(1, 5), 1, 25))

	status, err := uc.Status(context.Background(), adminIdentity(1, 5))
	require.NoError(t, err)
	assert.Equal(t, 25, status.Allocated)
	assert.Equal(t, 25, status.Remaining)
}

func TestSetAllocationAdminOnly(t *testing.T) {
	store := testutil.NewFakeStore()
	uc := newAdmin(store)

	identity := adminIdentity(1, 5)
	identity.Role = entities.RoleSubuser

	err := uc.SetAllocation(context.Background(), identity, 1, 25)
	assert.ErrorIs(t, err, entities.ErrForbidden)
}

func TestSetAllocationUnknownUser(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddUser(adminUser(1, "boss"), "secret123")
	uc := newAdmin(store)

	err := uc.SetAllocation(context.Background(), adminIdentity(1, 5), 999, 25)
	assert.ErrorIs(t, err, entities.ErrUserNotFound)
}

func TestProfileResolvesToTenantAdmin(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddUser(adminUser(1, "boss"), "secret123")
	store.AddProfile(entities.Profile{UserID: 1, FullName: "Boss Person", Symbol: "Star", SerialNo: "7"})
	uc := newAdmin(store)

	// A sub-user's profile request resolves to the parent admin's profile.
	section := 5
	sub := &entities.Identity{
		UserID:      10,
		Role:        entities.RoleSubuser,
		MainAdminID: 1,
		SectionNo:   &section,
	}

	profile, err := uc.Profile(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, "Boss Person", profile.FullName)
	assert.Equal(t, "Star", profile.Symbol)
}
