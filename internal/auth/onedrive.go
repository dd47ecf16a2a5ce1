package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/MrSnakeDoc/pocket2drive/internal/domain"
	"github.com/MrSnakeDoc/pocket2drive/internal/kv"
	"github.com/MrSnakeDoc/pocket2drive/internal/logger"
)

// DefaultAuthorityURL is the Microsoft identity platform v2 endpoint for
// personal and work accounts.
const DefaultAuthorityURL = "https://login.microsoftonline.com/common/oauth2/v2.0"

// OneDriveScopes are requested on authorization. offline_access is what
// makes Microsoft issue a refresh token.
var OneDriveScopes = []string{"files.readwrite", "offline_access"}

// OneDriveConfig carries the app registration.
type OneDriveConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthorityURL string
	HTTPClient   *http.Client
}

// OneDriveManager handles the authorization code grant and the rotating
// refresh token of the OneDrive app.
type OneDriveManager struct {
	oauth      *oauth2.Config
	httpClient *http.Client
	store      kv.Store
	logger     logger.Logger
}

func NewOneDriveManager(cfg OneDriveConfig, store kv.Store, log logger.Logger) *OneDriveManager {
	authority := strings.TrimRight(cfg.AuthorityURL, "/")
	if authority == "" {
		authority = DefaultAuthorityURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &OneDriveManager{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       OneDriveScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   authority + "/authorize",
				TokenURL:  authority + "/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: httpClient,
		store:      store,
		logger:     log,
	}
}

// AuthorizeURL is the Microsoft login page that ends on onedrive_auth_callback.
func (m *OneDriveManager) AuthorizeURL() string {
	return m.oauth.AuthCodeURL("")
}

// Exchange trades an authorization code for a token pair and persists both.
func (m *OneDriveManager) Exchange(ctx context.Context, code string) (domain.TokenSummary, error) {
	if code == "" {
		return domain.TokenSummary{}, &domain.ValidationError{Field: "code", Reason: "missing `?code` param"}
	}

	m.logger.Info("exchanging onedrive authorization code", logger.Secret("code", code))

	tok, err := m.oauth.Exchange(m.clientContext(ctx), code)
	if err != nil {
		return domain.TokenSummary{}, tokenEndpointError("authorization code exchange", err)
	}

	return m.persist(ctx, tok)
}

// Refresh redeems the stored refresh token. Microsoft rotates refresh tokens
// on every use, so the new one replaces the old one.
func (m *OneDriveManager) Refresh(ctx context.Context) (domain.RefreshOutcome, error) {
	refreshToken, ok, err := m.store.Get(ctx, KeyOneDriveRefreshToken)
	if err != nil {
		return domain.RefreshOutcome{}, fmt.Errorf("failed to load onedrive refresh token: %w", err)
	}
	if !ok || refreshToken == "" {
		m.logger.Warn("no onedrive refresh token found, skipping refresh")
		return domain.RefreshOutcome{Message: "No refresh token found."}, nil
	}

	src := m.oauth.TokenSource(m.clientContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return domain.RefreshOutcome{}, tokenEndpointError("refresh", err)
	}

	summary, err := m.persist(ctx, tok)
	if err != nil {
		return domain.RefreshOutcome{}, err
	}

	m.logger.Info("onedrive token refreshed",
		logger.Secret("previous_refresh_token", refreshToken),
		logger.Bool("refresh_token_rotated", summary.RefreshToken != refreshToken))

	return domain.RefreshOutcome{
		Refreshed: true,
		ExpiresIn: summary.ExpiresIn,
		Message:   "OneDrive token refreshed.",
	}, nil
}

// AccessToken returns the stored OneDrive access token, ok=false if absent or expired.
func (m *OneDriveManager) AccessToken(ctx context.Context) (string, bool, error) {
	return m.store.Get(ctx, KeyOneDriveAccessToken)
}

func (m *OneDriveManager) persist(ctx context.Context, tok *oauth2.Token) (domain.TokenSummary, error) {
	ttl := expiresIn(tok)
	if err := m.store.Set(ctx, KeyOneDriveAccessToken, tok.AccessToken, ttl); err != nil {
		return domain.TokenSummary{}, fmt.Errorf("failed to persist onedrive access token: %w", err)
	}
	if tok.RefreshToken != "" {
		if err := m.store.Set(ctx, KeyOneDriveRefreshToken, tok.RefreshToken, kv.NoTTL); err != nil {
			return domain.TokenSummary{}, fmt.Errorf("failed to persist onedrive refresh token: %w", err)
		}
	}

	m.logger.Info("onedrive tokens stored",
		logger.Duration("access_token_ttl", ttl),
		logger.Secret("access_token", tok.AccessToken),
		logger.Secret("refresh_token", tok.RefreshToken))

	return domain.TokenSummary{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    ttl,
	}, nil
}

func (m *OneDriveManager) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
}

// expiresIn prefers the wire expires_in value and falls back to the computed
// expiry. Zero means the token carries no lifetime.
func expiresIn(tok *oauth2.Token) time.Duration {
	if tok.ExpiresIn > 0 {
		return time.Duration(tok.ExpiresIn) * time.Second
	}
	if !tok.Expiry.IsZero() {
		if d := time.Until(tok.Expiry).Round(time.Second); d > 0 {
			return d
		}
	}
	return kv.NoTTL
}

func tokenEndpointError(op string, err error) error {
	upErr := &domain.UpstreamError{Provider: domain.ProviderOneDrive, Op: op, Err: err}
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		if re.Response != nil {
			upErr.StatusCode = re.Response.StatusCode
		}
		upErr.Body = string(re.Body)
	}
	return upErr
}
