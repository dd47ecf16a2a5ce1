// Package onedrive reads and overwrites a single file through Microsoft
// Graph drive item endpoints.
package onedrive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/MrSnakeDoc/pocket2drive/internal/domain"
	"github.com/MrSnakeDoc/pocket2drive/internal/utils"
)

// DefaultGraphURL is the Microsoft Graph v1.0 root.
const DefaultGraphURL = "https://graph.microsoft.com/v1.0"

// Client is a minimal Graph drive client. It is stateless with respect to
// credentials: every call takes the bearer token to use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client. A nil httpClient gets a 30s timeout default.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultGraphURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

type driveItem struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	DownloadURL string `json:"@microsoft.graph.downloadUrl"`
}

// Download fetches the whole file at path. Graph answers the metadata call
// with a pre-authenticated download URL which is then fetched without the
// bearer token.
func (c *Client) Download(ctx context.Context, accessToken, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.itemURL(path), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive item request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.authorized(ctx, accessToken).Do(req)
	if err != nil {
		return nil, upstream("drive item", err)
	}
	defer utils.DrainAndClose(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, unexpectedStatus("drive item", resp)
	}

	var item driveItem
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return nil, upstream("drive item", fmt.Errorf("failed to decode drive item: %w", err))
	}
	if item.DownloadURL == "" {
		return nil, upstream("drive item", fmt.Errorf("no download url for %s", path))
	}

	dlReq, err := http.NewRequestWithContext(ctx, http.MethodGet, item.DownloadURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}
	dlResp, err := c.httpClient.Do(dlReq)
	if err != nil {
		return nil, upstream("download", err)
	}
	defer utils.DrainAndClose(dlResp.Body)
	if dlResp.StatusCode != http.StatusOK {
		return nil, unexpectedStatus("download", dlResp)
	}

	content, err := io.ReadAll(dlResp.Body)
	if err != nil {
		return nil, upstream("download", fmt.Errorf("failed to read file content: %w", err))
	}
	return content, nil
}

// Upload replaces the file at path with content.
func (c *Client) Upload(ctx context.Context, accessToken, path string, content []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.itemURL(path)+":/content", bytes.NewReader(content))
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.authorized(ctx, accessToken).Do(req)
	if err != nil {
		return upstream("upload", err)
	}
	defer utils.DrainAndClose(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return unexpectedStatus("upload", resp)
	}
	return nil
}

// itemURL addresses a drive item by path relative to the drive root.
func (c *Client) itemURL(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return c.baseURL + "/me/drive/root:/" + strings.Join(segments, "/")
}

func (c *Client) authorized(ctx context.Context, accessToken string) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))
}

func upstream(op string, err error) error {
	return &domain.UpstreamError{Provider: domain.ProviderOneDrive, Op: op, Err: err}
}

func unexpectedStatus(op string, resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return &domain.UpstreamError{
		Provider:   domain.ProviderOneDrive,
		Op:         op,
		StatusCode: resp.StatusCode,
		Body:       string(b),
	}
}
