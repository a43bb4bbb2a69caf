package oauth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okkyok/Fibit2Obsidian/pkg/infrastructure/oauth"
	"github.com/okkyok/Fibit2Obsidian/pkg/testing/mocks"
)

func storedPair(t *testing.T, pair oauth.TokenPair) string {
	t.Helper()
	data, err := json.Marshal(pair)
	require.NoError(t, err)
	return string(data)
}

func newTokenServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *int) {
	t.Helper()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func tokenResponse(w http.ResponseWriter, access, refresh string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"access_token":  access,
		"refresh_token": refresh,
		"expires_in":    28800,
		"token_type":    "Bearer",
	})
}

func TestTokenReturnsCachedWhenFresh(t *testing.T) {
	srv, calls := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no token endpoint call expected for a fresh token")
	})

	store := &mocks.MockSecretStore{Values: map[string]string{
		"fitbit-token": storedPair(t, oauth.TokenPair{
			AccessToken:  "cached-access",
			RefreshToken: "cached-refresh",
			Expiry:       time.Now().Add(1 * time.Hour),
		}),
	}}

	src := oauth.NewSecretsTokenSource(store, oauth.Config{
		SecretName:   "fitbit-token",
		ClientID:     "cid",
		ClientSecret: "csecret",
		TokenURL:     srv.URL,
		HTTPClient:   srv.Client(),
	})

	pair, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cached-access", pair.AccessToken)
	assert.Equal(t, 0, *calls)
}

func TestTokenRefreshesWhenExpired(t *testing.T) {
	srv, calls := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "cached-refresh", r.PostForm.Get("refresh_token"))

		// Fitbit wants the client credentials via Basic auth.
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "cid", user)
		assert.Equal(t, "csecret", pass)

		tokenResponse(w, "new-access", "new-refresh")
	})

	store := &mocks.MockSecretStore{Values: map[string]string{
		"fitbit-token": storedPair(t, oauth.TokenPair{
			AccessToken:  "stale-access",
			RefreshToken: "cached-refresh",
			Expiry:       time.Now().Add(-1 * time.Minute),
		}),
	}}

	src := oauth.NewSecretsTokenSource(store, oauth.Config{
		SecretName:   "fitbit-token",
		ClientID:     "cid",
		ClientSecret: "csecret",
		TokenURL:     srv.URL,
		HTTPClient:   srv.Client(),
	})

	pair, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new-access", pair.AccessToken)
	assert.Equal(t, "new-refresh", pair.RefreshToken)
	assert.Equal(t, 1, *calls, "exactly one refresh call")

	// The rotated pair must be persisted.
	var persisted oauth.TokenPair
	require.NoError(t, json.Unmarshal([]byte(store.Values["fitbit-token"]), &persisted))
	assert.Equal(t, "new-refresh", persisted.RefreshToken)
}

func TestRefreshPreservesRefreshTokenWhenOmitted(t *testing.T) {
	srv, _ := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		tokenResponse(w, "new-access", "")
	})

	store := &mocks.MockSecretStore{Values: map[string]string{
		"fitbit-token": storedPair(t, oauth.TokenPair{
			RefreshToken: "keep-me",
		}),
	}}

	src := oauth.NewSecretsTokenSource(store, oauth.Config{
		SecretName: "fitbit-token",
		ClientID:   "cid", ClientSecret: "csecret",
		TokenURL:   srv.URL,
		HTTPClient: srv.Client(),
	})

	pair, err := src.ForceRefresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "keep-me", pair.RefreshToken, "empty refresh_token in response must not wipe the stored one")
}

func TestRefreshFailureSurfacesStatus(t *testing.T) {
	srv, _ := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":[{"errorType":"invalid_grant"}]}`, http.StatusBadRequest)
	})

	store := &mocks.MockSecretStore{Values: map[string]string{
		"fitbit-token": storedPair(t, oauth.TokenPair{RefreshToken: "revoked"}),
	}}

	src := oauth.NewSecretsTokenSource(store, oauth.Config{
		SecretName: "fitbit-token",
		ClientID:   "cid", ClientSecret: "csecret",
		TokenURL:   srv.URL,
		HTTPClient: srv.Client(),
	})

	_, err := src.Token(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_grant")
}

func TestLegacyBareRefreshTokenSecret(t *testing.T) {
	srv, calls := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "legacy-refresh", r.PostForm.Get("refresh_token"))
		tokenResponse(w, "new-access", "new-refresh")
	})

	// Earlier deployments stored the refresh token as a bare string.
	store := &mocks.MockSecretStore{Values: map[string]string{
		"fitbit-token": "legacy-refresh\n",
	}}

	src := oauth.NewSecretsTokenSource(store, oauth.Config{
		SecretName: "fitbit-token",
		ClientID:   "cid", ClientSecret: "csecret",
		TokenURL:   srv.URL,
		HTTPClient: srv.Client(),
	})

	pair, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new-access", pair.AccessToken)
	assert.Equal(t, 1, *calls)
}

func TestAuthCodeExchangeFirstRun(t *testing.T) {
	srv, calls := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "one-time-code", r.PostForm.Get("code"))
		tokenResponse(w, "first-access", "first-refresh")
	})

	store := &mocks.MockSecretStore{}

	src := oauth.NewSecretsTokenSource(store, oauth.Config{
		SecretName: "fitbit-token",
		ClientID:   "cid", ClientSecret: "csecret",
		AuthCode:    "one-time-code",
		RedirectURI: "http://localhost",
		TokenURL:    srv.URL,
		HTTPClient:  srv.Client(),
	})

	pair, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first-access", pair.AccessToken)
	assert.Equal(t, "first-refresh", pair.RefreshToken)
	assert.Equal(t, 1, *calls, "the code exchange happens exactly once")

	var persisted oauth.TokenPair
	require.NoError(t, json.Unmarshal([]byte(store.Values["fitbit-token"]), &persisted))
	assert.Equal(t, "first-refresh", persisted.RefreshToken)
}

func TestTokenErrorsWithoutCredentials(t *testing.T) {
	store := &mocks.MockSecretStore{}

	src := oauth.NewSecretsTokenSource(store, oauth.Config{
		SecretName: "fitbit-token",
		ClientID:   "cid", ClientSecret: "csecret",
	})

	_, err := src.Token(context.Background())
	require.Error(t, err)
}
