// Package pocket talks to the Pocket v3 REST API: the consumer-key OAuth
// handshake and the retrieve endpoint.
package pocket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/MrSnakeDoc/pocket2drive/internal/domain"
	"github.com/MrSnakeDoc/pocket2drive/internal/utils"
)

// DefaultBaseURL is Pocket's public API host.
const DefaultBaseURL = "https://getpocket.com"

// Client is a thin Pocket API client.
type Client struct {
	baseURL     string
	consumerKey string
	httpClient  *http.Client
}

// NewClient builds a client. A nil httpClient gets a 30s timeout default.
func NewClient(baseURL, consumerKey string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		consumerKey: consumerKey,
		httpClient:  httpClient,
	}
}

// AuthorizeURL is the page the user is sent to in order to approve requestToken.
func (c *Client) AuthorizeURL(requestToken, redirectURI string) string {
	q := url.Values{}
	q.Set("request_token", requestToken)
	q.Set("redirect_uri", redirectURI)
	return c.baseURL + "/auth/authorize?" + q.Encode()
}

// RequestToken obtains a short-lived request token bound to redirectURI.
func (c *Client) RequestToken(ctx context.Context, redirectURI string) (string, error) {
	var out struct {
		Code string `json:"code"`
	}
	err := c.post(ctx, "/v3/oauth/request", "request token", map[string]string{
		"consumer_key": c.consumerKey,
		"redirect_uri": redirectURI,
	}, &out)
	if err != nil {
		return "", err
	}
	if out.Code == "" {
		return "", &domain.UpstreamError{Provider: domain.ProviderPocket, Op: "request token",
			Err: fmt.Errorf("response carried no code")}
	}
	return out.Code, nil
}

// Authorize converts an approved request token into an access token.
func (c *Client) Authorize(ctx context.Context, requestToken string) (domain.PocketAuthorization, error) {
	var out struct {
		AccessToken string `json:"access_token"`
		Username    string `json:"username"`
	}
	err := c.post(ctx, "/v3/oauth/authorize", "authorize", map[string]string{
		"consumer_key": c.consumerKey,
		"code":         requestToken,
	}, &out)
	if err != nil {
		return domain.PocketAuthorization{}, err
	}
	return domain.PocketAuthorization{Username: out.Username, AccessToken: out.AccessToken}, nil
}

// Since retrieves every item (any state) added or modified after since,
// newest first.
func (c *Client) Since(ctx context.Context, accessToken string, since time.Time) ([]domain.Item, error) {
	var out retrieveResponse
	err := c.post(ctx, "/v3/get", "retrieve", map[string]string{
		"consumer_key": c.consumerKey,
		"access_token": accessToken,
		"state":        "all",
		"sort":         "newest",
		"detailType":   "simple",
		"since":        strconv.FormatInt(since.Unix(), 10),
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.List.Items, nil
}

func (c *Client) post(ctx context.Context, path, op string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("X-Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.UpstreamError{Provider: domain.ProviderPocket, Op: op, Err: err}
	}
	defer utils.DrainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &domain.UpstreamError{
			Provider:   domain.ProviderPocket,
			Op:         op,
			StatusCode: resp.StatusCode,
			// Pocket puts the reason in X-Error rather than the body.
			Body: strings.TrimSpace(resp.Header.Get("X-Error") + " " + string(b)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.UpstreamError{Provider: domain.ProviderPocket, Op: op,
			Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}
