package pocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/pocket2drive/internal/domain"
)

func TestClient_RequestToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/oauth/request", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("X-Accept"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ck", body["consumer_key"])
		assert.Equal(t, "https://cb.example/pocket?secret=s", body["redirect_uri"])

		_, _ = w.Write([]byte(`{"code":"req-123","state":null}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "ck", srv.Client())
	code, err := c.RequestToken(context.Background(), "https://cb.example/pocket?secret=s")
	require.NoError(t, err)
	assert.Equal(t, "req-123", code)
}

func TestClient_RequestTokenNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Error", "Invalid consumer key.")
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "bad", srv.Client())
	_, err := c.RequestToken(context.Background(), "https://cb")

	var upErr *domain.UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusForbidden, upErr.StatusCode)
	assert.Equal(t, domain.ProviderPocket, upErr.Provider)
	assert.Contains(t, upErr.Body, "Invalid consumer key.")
}

func TestClient_Authorize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/oauth/authorize", r.URL.Path)
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "req-123", body["code"])
		_, _ = w.Write([]byte(`{"access_token":"acc-1","username":"reader"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "ck", srv.Client())
	got, err := c.Authorize(context.Background(), "req-123")
	require.NoError(t, err)
	assert.Equal(t, domain.PocketAuthorization{Username: "reader", AccessToken: "acc-1"}, got)
}

func TestClient_SincePreservesOrder(t *testing.T) {
	since := time.Unix(1609459200, 0)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/get", r.URL.Path)
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "tok", body["access_token"])
		assert.Equal(t, "all", body["state"])
		assert.Equal(t, "newest", body["sort"])
		assert.Equal(t, "simple", body["detailType"])
		assert.Equal(t, "1609459200", body["since"])

		_, _ = w.Write([]byte(`{"status":1,"list":{
			"900":{"item_id":"900","resolved_url":"https://x","resolved_title":"X","sort_id":0,
			       "tags":{"go":{"tag":"go"},"db":{"tag":"db"}}},
			"100":{"item_id":"100","resolved_url":"https://y","given_title":"Y","sort_id":1},
			"500":{"item_id":"500","resolved_url":""}
		}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "ck", srv.Client())
	items, err := c.Since(context.Background(), "tok", since)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, []string{"https://x", "https://y", ""}, domain.ResolvedURLs(items))
	assert.Equal(t, "X", items[0].Title)
	assert.Equal(t, []string{"db", "go"}, items[0].Tags)
	assert.Equal(t, "Y", items[1].Title)
	assert.Equal(t, "500", items[2].ID)
}

func TestClient_SinceEmptyListArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":2,"complete":1,"list":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "ck", srv.Client())
	items, err := c.Since(context.Background(), "tok", time.Now())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestClient_AuthorizeURL(t *testing.T) {
	c := NewClient("", "ck", nil)
	raw := c.AuthorizeURL("req-1", "https://cb.example/pocket?secret=s")

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "getpocket.com", u.Host)
	assert.Equal(t, "/auth/authorize", u.Path)
	assert.Equal(t, "req-1", u.Query().Get("request_token"))
	assert.Equal(t, "https://cb.example/pocket?secret=s", u.Query().Get("redirect_uri"))
}
