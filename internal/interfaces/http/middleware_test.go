package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"project_canvass/internal/entities"
	"project_canvass/internal/infrastructure"
	"project_canvass/internal/testutil"
	"project_canvass/internal/usecases"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testInactivity = 400 * time.Minute

func newTestRouter(t *testing.T, store *testutil.FakeStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	codec := usecases.NewTokenCodec("test-secret", 7*24*time.Hour)
	auth := usecases.NewAuthUsecase(store, store, codec, 48*time.Hour, testInactivity, zap.NewNop())
	limiter := infrastructure.NewLoginRateLimiter(100, 100)
	middleware := NewMiddleware(auth, "*")
	authHandler := NewAuthHandler(auth, limiter, int(testInactivity/time.Minute))

	r := gin.New()
	r.POST("/login", authHandler.Login)

	api := r.Group("/")
	api.Use(middleware.AuthRequired())
	{
		api.GET("/me", authHandler.Me)
		api.POST("/logout", authHandler.Logout)
	}
	return r
}

func seedAdmin(store *testutil.FakeStore) {
	section := 5
	store.AddUser(entities.User{
		ID:        1,
		Username:  "alice",
		Role:      entities.RoleAdmin,
		SectionNo: &section,
		Allocated: 10,
	}, "secret123")
}

func doLogin(t *testing.T, r *gin.Engine, username, password string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func doGet(t *testing.T, r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLoginEndpoint(t *testing.T) {
	store := testutil.NewFakeStore()
	seedAdmin(store)
	r := newTestRouter(t, store)

	w := doLogin(t, r, "alice", "secret123")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "bearer", body["token_type"])
	assert.NotEmpty(t, body["access_token"])
	assert.EqualValues(t, 1, body["user_id"])
	assert.EqualValues(t, 1, body["main_admin_id"])
	assert.EqualValues(t, 400, body["inactivity_timeout"])
}

func TestLoginBadCredentials(t *testing.T) {
	store := testutil.NewFakeStore()
	seedAdmin(store)
	r := newTestRouter(t, store)

	w := doLogin(t, r, "alice", "nope")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSecondDeviceRejected(t *testing.T) {
	store := testutil.NewFakeStore()
	seedAdmin(store)
	r := newTestRouter(t, store)

	require.Equal(t, http.StatusOK, doLogin(t, r, "alice", "secret123").Code)

	w := doLogin(t, r, "alice", "secret123")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "already logged in")
}

func TestAuthRequired(t *testing.T) {
	store := testutil.NewFakeStore()
	seedAdmin(store)
	r := newTestRouter(t, store)

	// No header at all.
	assert.Equal(t, http.StatusUnauthorized, doGet(t, r, "/me", "").Code)

	// Garbage token.
	assert.Equal(t, http.StatusUnauthorized, doGet(t, r, "/me", "garbage").Code)

	// Real token works.
	w := doLogin(t, r, "alice", "secret123")
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	token := body["access_token"].(string)

	me := doGet(t, r, "/me", token)
	assert.Equal(t, http.StatusOK, me.Code)
	assert.Contains(t, me.Body.String(), "alice")
}

func TestStaleTokenRejectedAfterRelogin(t *testing.T) {
	store := testutil.NewFakeStore()
	seedAdmin(store)
	r := newTestRouter(t, store)

	w := doLogin(t, r, "alice", "secret123")
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	oldToken := body["access_token"].(string)

	// First device idles out; second device takes over the slot.
	store.SetLastActivity(1, time.Now().Add(-testInactivity-time.Minute))
	require.Equal(t, http.StatusOK, doLogin(t, r, "alice", "secret123").Code)

	stale := doGet(t, r, "/me", oldToken)
	assert.Equal(t, http.StatusUnauthorized, stale.Code)
	assert.Contains(t, stale.Body.String(), "another device")
}

func TestLogoutFreesSlot(t *testing.T) {
	store := testutil.NewFakeStore()
	seedAdmin(store)
	r := newTestRouter(t, store)

	w := doLogin(t, r, "alice", "secret123")
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	token := body["access_token"].(string)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	out := httptest.NewRecorder()
	r.ServeHTTP(out, req)
	require.Equal(t, http.StatusOK, out.Code)

	// Token is dead, slot is free.
	assert.Equal(t, http.StatusUnauthorized, doGet(t, r, "/me", token).Code)
	assert.Equal(t, http.StatusOK, doLogin(t, r, "alice", "secret123").Code)
}
