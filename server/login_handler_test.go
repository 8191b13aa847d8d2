package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/gradebook-hq/go-auth-bridge/auth"
	"github.com/gradebook-hq/go-auth-bridge/credentials/storefake"
	"github.com/gradebook-hq/go-auth-bridge/internal/config"
	"github.com/gradebook-hq/go-auth-bridge/internal/utils"
	"github.com/gradebook-hq/go-auth-bridge/profiles"
	"github.com/gradebook-hq/go-auth-bridge/profiles/repofake"
	"github.com/gradebook-hq/go-auth-bridge/server"
)

const (
	testUsername      = "alice"
	testPassword      = "password123"
	testLoginIdentity = "alice@test.local"
	testProfileID     = int64(7)
)

func newTestServer(t *testing.T, options ...server.Option) (*server.Server, *repofake.FakeProfileStore, *storefake.FakeCredentialStore) {
	t.Helper()

	profileStore := repofake.NewFakeProfileStore()
	credStore := storefake.NewFakeCredentialStore()

	srv, err := server.New(config.New(), auth.Stores{
		Profiles:    profileStore,
		Credentials: credStore,
	}, options...)
	require.NoError(t, err)

	return srv, profileStore, credStore
}

func seedBoundProfile(t *testing.T, profileStore *repofake.FakeProfileStore, credStore *storefake.FakeCredentialStore) string {
	t.Helper()

	require.NoError(t, profileStore.AddProfile(&profiles.Profile{
		ID:                     testProfileID,
		Username:               testUsername,
		DisplayName:            "Alice Jones",
		Role:                   profiles.RoleTeacher,
		CanonicalLoginIdentity: utils.Ptr(testLoginIdentity),
	}, testPassword))
	identityID := credStore.SetAccount(testLoginIdentity, testPassword)
	credStore.Bind(testProfileID, identityID)
	return identityID
}

func postLogin(srv *server.Server, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, server.RouteLogin, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestLoginEndpointSuccess(t *testing.T) {
	srv, profileStore, credStore := newTestServer(t)
	identityID := seedBoundProfile(t, profileStore, credStore)

	rec := postLogin(srv, `{"identifier":"alice","password":"password123"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	var resp struct {
		Profile struct {
			ID       int64  `json:"id"`
			Username string `json:"username"`
		} `json:"profile"`
		Session struct {
			IdentityID  string `json:"identity_id"`
			AccessToken string `json:"access_token"`
		} `json:"session"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, testProfileID, resp.Profile.ID)
	require.Equal(t, testUsername, resp.Profile.Username)
	require.Equal(t, identityID, resp.Session.IdentityID)
	require.NotEmpty(t, resp.Session.AccessToken)
}

func TestLoginEndpointWrongPassword(t *testing.T) {
	srv, profileStore, credStore := newTestServer(t)
	seedBoundProfile(t, profileStore, credStore)

	rec := postLogin(srv, `{"identifier":"alice","password":"wrongpass"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "invalid_credentials", resp.Error)

	// Wrong passwords never reach the credential service.
	require.Equal(t, 0, credStore.SignInCalls())
}

func TestLoginEndpointMalformedBody(t *testing.T) {
	srv, _, _ := newTestServer(t)

	require.Equal(t, http.StatusBadRequest, postLogin(srv, `{"identifier":"alice"}`).Code)
	require.Equal(t, http.StatusBadRequest, postLogin(srv, `not json`).Code)
}

func TestLoginEndpointRateLimited(t *testing.T) {
	mr := miniredis.RunT(t)
	limiter := server.NewLoginLimiter(
		redis.NewClient(&redis.Options{Addr: mr.Addr()}),
		1, time.Minute,
	)
	srv, profileStore, credStore := newTestServer(t, server.WithLoginLimiter(limiter))
	seedBoundProfile(t, profileStore, credStore)

	require.Equal(t, http.StatusUnauthorized, postLogin(srv, `{"identifier":"alice","password":"wrongpass"}`).Code)

	rec := postLogin(srv, `{"identifier":"alice","password":"wrongpass"}`)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "rate_limited", resp.Error)
}

func TestLoginEndpointLimiterOutageFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	limiter := server.NewLoginLimiter(
		redis.NewClient(&redis.Options{Addr: mr.Addr()}),
		10, time.Minute,
	)
	srv, profileStore, credStore := newTestServer(t, server.WithLoginLimiter(limiter))
	seedBoundProfile(t, profileStore, credStore)
	mr.Close()

	rec := postLogin(srv, `{"identifier":"alice","password":"password123"}`)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, server.RouteHealth, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
