package usecases_test

import (
	"testing"
	"time"

	"project_canvass/internal/entities"
	"project_canvass/internal/usecases"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleIdentity() *entities.Identity {
	section := 7
	return &entities.Identity{
		UserID:      42,
		Username:    "alice",
		Role:        entities.RoleAdmin,
		MainAdminID: 42,
		SectionNo:   &section,
		SessionID:   "sess-123",
	}
}

func TestTokenRoundTrip(t *testing.T) {
	codec := usecases.NewTokenCodec("test-secret", time.Hour)

	token, err := codec.Issue(sampleIdentity())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, 42, got.UserID)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, entities.RoleAdmin, got.Role)
	assert.Equal(t, 42, got.MainAdminID)
	require.NotNil(t, got.SectionNo)
	assert.Equal(t, 7, *got.SectionNo)
	assert.Equal(t, "sess-123", got.SessionID)
}

func TestTokenExpired(t *testing.T) {
	codec := usecases.NewTokenCodec("test-secret", -time.Minute)

	token, err := codec.Issue(sampleIdentity())
	require.NoError(t, err)

	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, entities.ErrTokenExpired)
}

func TestTokenWrongSecret(t *testing.T) {
	codec := usecases.NewTokenCodec("test-secret", time.Hour)
	other := usecases.NewTokenCodec("other-secret", time.Hour)

	token, err := codec.Issue(sampleIdentity())
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.ErrorIs(t, err, entities.ErrInvalidToken)
}

func TestTokenGarbage(t *testing.T) {
	codec := usecases.NewTokenCodec("test-secret", time.Hour)

	_, err := codec.Verify("not-a-token")
	assert.ErrorIs(t, err, entities.ErrInvalidToken)
}
