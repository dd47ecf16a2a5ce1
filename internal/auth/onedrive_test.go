package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/pocket2drive/internal/domain"
	"github.com/MrSnakeDoc/pocket2drive/internal/kv"
	"github.com/MrSnakeDoc/pocket2drive/internal/logger"
)

type tokenEndpoint struct {
	mu       sync.Mutex
	srv      *httptest.Server
	status   int
	body     string
	requests []url.Values
}

func newTokenEndpoint(t *testing.T) *tokenEndpoint {
	t.Helper()
	te := &tokenEndpoint{status: http.StatusOK}
	te.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/token", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		te.mu.Lock()
		te.requests = append(te.requests, r.PostForm)
		status, body := te.status, te.body
		te.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(te.srv.Close)
	return te
}

func newOneDriveManager(te *tokenEndpoint, store kv.Store) *OneDriveManager {
	return NewOneDriveManager(OneDriveConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "https://fn.example/onedrive_auth_callback",
		AuthorityURL: te.srv.URL,
		HTTPClient:   te.srv.Client(),
	}, store, logger.NewNop())
}

func TestOneDriveManager_AuthorizeURL(t *testing.T) {
	m := NewOneDriveManager(OneDriveConfig{
		ClientID:    "client-id",
		RedirectURL: "https://fn.example/onedrive_auth_callback",
	}, kv.NewMemoryStore(), logger.NewNop())

	u, err := url.Parse(m.AuthorizeURL())
	require.NoError(t, err)
	assert.Equal(t, "login.microsoftonline.com", u.Host)
	assert.Equal(t, "/common/oauth2/v2.0/authorize", u.Path)

	q := u.Query()
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "files.readwrite offline_access", q.Get("scope"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "https://fn.example/onedrive_auth_callback", q.Get("redirect_uri"))
}

func TestOneDriveManager_Exchange(t *testing.T) {
	ctx := context.Background()
	te := newTokenEndpoint(t)
	te.body = `{"token_type":"bearer","expires_in":3600,"access_token":"at-1","refresh_token":"rt-1","scope":"files.readwrite"}`
	clock := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	store := kv.NewMemoryStoreWithClock(func() time.Time { return clock })
	m := newOneDriveManager(te, store)

	summary, err := m.Exchange(ctx, "auth-code")
	require.NoError(t, err)
	assert.Equal(t, "at-1", summary.AccessToken)
	assert.Equal(t, "rt-1", summary.RefreshToken)
	assert.InDelta(t, time.Hour.Seconds(), summary.ExpiresIn.Seconds(), 2)

	require.Len(t, te.requests, 1)
	form := te.requests[0]
	assert.Equal(t, "authorization_code", form.Get("grant_type"))
	assert.Equal(t, "auth-code", form.Get("code"))
	assert.Equal(t, "client-id", form.Get("client_id"))
	assert.Equal(t, "client-secret", form.Get("client_secret"))
	assert.Equal(t, "https://fn.example/onedrive_auth_callback", form.Get("redirect_uri"))

	tok, ok, err := m.AccessToken(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "at-1", tok)

	ttl, ok := store.TTL(KeyOneDriveAccessToken)
	require.True(t, ok)
	assert.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 2)

	_, ok = store.TTL(KeyOneDriveRefreshToken)
	assert.False(t, ok, "refresh token is stored without expiry")
}

func TestOneDriveManager_ExchangeMissingCode(t *testing.T) {
	te := newTokenEndpoint(t)
	m := newOneDriveManager(te, kv.NewMemoryStore())

	_, err := m.Exchange(context.Background(), "")
	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "code", vErr.Field)
	assert.Empty(t, te.requests)
}

func TestOneDriveManager_ExchangeNon200(t *testing.T) {
	te := newTokenEndpoint(t)
	te.status = http.StatusBadRequest
	te.body = `{"error":"invalid_grant","error_description":"code expired"}`
	store := kv.NewMemoryStore()
	m := newOneDriveManager(te, store)

	_, err := m.Exchange(context.Background(), "stale-code")
	var upErr *domain.UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusBadRequest, upErr.StatusCode)
	assert.Empty(t, store.Keys())
}

func TestOneDriveManager_RefreshRotatesToken(t *testing.T) {
	ctx := context.Background()
	te := newTokenEndpoint(t)
	te.body = `{"token_type":"bearer","expires_in":3600,"access_token":"at-2","refresh_token":"rt-2"}`
	clock := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	store := kv.NewMemoryStoreWithClock(func() time.Time { return clock })
	require.NoError(t, store.Set(ctx, KeyOneDriveRefreshToken, "rt-1", kv.NoTTL))
	require.NoError(t, store.Set(ctx, KeyOneDriveAccessToken, "at-1", time.Minute))
	m := newOneDriveManager(te, store)

	out, err := m.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, out.Refreshed)

	require.Len(t, te.requests, 1)
	assert.Equal(t, "refresh_token", te.requests[0].Get("grant_type"))
	assert.Equal(t, "rt-1", te.requests[0].Get("refresh_token"))

	rt, ok, err := store.Get(ctx, KeyOneDriveRefreshToken)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "rt-2", rt, "old refresh token must no longer be retrievable")

	at, _, _ := store.Get(ctx, KeyOneDriveAccessToken)
	assert.Equal(t, "at-2", at)
	ttl, ok := store.TTL(KeyOneDriveAccessToken)
	require.True(t, ok)
	assert.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 2)
}

func TestOneDriveManager_RefreshWithoutToken(t *testing.T) {
	te := newTokenEndpoint(t)
	m := newOneDriveManager(te, kv.NewMemoryStore())

	out, err := m.Refresh(context.Background())
	require.NoError(t, err)
	assert.False(t, out.Refreshed)
	assert.Equal(t, "No refresh token found.", out.Message)
	assert.Empty(t, te.requests)
}

func TestOneDriveManager_RefreshNon200KeepsState(t *testing.T) {
	ctx := context.Background()
	te := newTokenEndpoint(t)
	te.status = http.StatusUnauthorized
	te.body = `{"error":"invalid_grant"}`
	store := kv.NewMemoryStore()
	require.NoError(t, store.Set(ctx, KeyOneDriveRefreshToken, "rt-1", kv.NoTTL))
	m := newOneDriveManager(te, store)

	_, err := m.Refresh(ctx)
	var upErr *domain.UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusUnauthorized, upErr.StatusCode)

	rt, _, _ := store.Get(ctx, KeyOneDriveRefreshToken)
	assert.Equal(t, "rt-1", rt)
}
