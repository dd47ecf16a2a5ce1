package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/url"

	"github.com/MrSnakeDoc/pocket2drive/internal/domain"
	"github.com/MrSnakeDoc/pocket2drive/internal/kv"
	"github.com/MrSnakeDoc/pocket2drive/internal/logger"
)

// PocketAPI is the subset of the Pocket client the manager needs.
type PocketAPI interface {
	RequestToken(ctx context.Context, redirectURI string) (string, error)
	Authorize(ctx context.Context, requestToken string) (domain.PocketAuthorization, error)
	AuthorizeURL(requestToken, redirectURI string) string
}

// PocketConfig carries the settings of the Pocket handshake.
type PocketConfig struct {
	// CallbackURL is where Pocket sends the user back (pocket_auth_callback).
	CallbackURL string
	// LoginURL is this service's own pocket_login endpoint, used in prompts.
	LoginURL string
	// Secret protects both endpoints.
	Secret string
}

// PocketManager runs Pocket's consumer-key handshake. Pocket access tokens do
// not expire, so there is no refresh path.
type PocketManager struct {
	api    PocketAPI
	store  kv.Store
	cfg    PocketConfig
	logger logger.Logger
}

func NewPocketManager(api PocketAPI, store kv.Store, cfg PocketConfig, log logger.Logger) *PocketManager {
	return &PocketManager{
		api:    api,
		store:  store,
		cfg:    cfg,
		logger: log,
	}
}

// CheckSecret rejects callers that do not present the shared secret.
func (m *PocketManager) CheckSecret(secret string) error {
	if secret == "" {
		return &domain.AuthorizationError{Reason: "missing secret"}
	}
	if subtle.ConstantTimeCompare([]byte(secret), []byte(m.cfg.Secret)) != 1 {
		return &domain.AuthorizationError{Reason: "secret incorrect"}
	}
	return nil
}

// Login obtains a request token and returns the Pocket page the user must
// visit to approve it.
func (m *PocketManager) Login(ctx context.Context, secret string) (string, error) {
	if err := m.CheckSecret(secret); err != nil {
		return "", err
	}

	redirectURI := m.callbackURI()
	requestToken, err := m.api.RequestToken(ctx, redirectURI)
	if err != nil {
		return "", err
	}

	if err := m.store.Set(ctx, KeyPocketRequestToken, requestToken, PocketRequestTokenTTL); err != nil {
		return "", fmt.Errorf("failed to persist pocket request token: %w", err)
	}

	m.logger.Info("pocket request token issued",
		logger.Secret("request_token", requestToken),
		logger.Duration("ttl", PocketRequestTokenTTL))

	return m.api.AuthorizeURL(requestToken, redirectURI), nil
}

// Callback exchanges the approved request token for an access token and
// stores it without expiry. Any previous access token is cleared first.
func (m *PocketManager) Callback(ctx context.Context, secret string) (domain.PocketAuthorization, error) {
	if err := m.CheckSecret(secret); err != nil {
		return domain.PocketAuthorization{}, err
	}

	requestToken, ok, err := m.store.Get(ctx, KeyPocketRequestToken)
	if err != nil {
		return domain.PocketAuthorization{}, fmt.Errorf("failed to load pocket request token: %w", err)
	}
	if !ok {
		return domain.PocketAuthorization{}, &domain.MissingCredentialError{
			Provider: domain.ProviderPocket,
			Key:      KeyPocketRequestToken,
		}
	}

	if err := m.store.Clear(ctx, KeyPocketAccessToken); err != nil {
		return domain.PocketAuthorization{}, fmt.Errorf("failed to clear pocket access token: %w", err)
	}

	authz, err := m.api.Authorize(ctx, requestToken)
	if err != nil {
		return domain.PocketAuthorization{}, err
	}

	if err := m.store.Set(ctx, KeyPocketAccessToken, authz.AccessToken, kv.NoTTL); err != nil {
		return domain.PocketAuthorization{}, fmt.Errorf("failed to persist pocket access token: %w", err)
	}

	m.logger.Info("pocket access token stored",
		logger.String("username", authz.Username),
		logger.Secret("access_token", authz.AccessToken))

	return authz, nil
}

// AccessToken returns the stored Pocket access token, ok=false if none.
func (m *PocketManager) AccessToken(ctx context.Context) (string, bool, error) {
	return m.store.Get(ctx, KeyPocketAccessToken)
}

// LoginPromptURL is the link sent to the operator when Pocket needs a new login.
func (m *PocketManager) LoginPromptURL() string {
	return withSecret(m.cfg.LoginURL, m.cfg.Secret)
}

func (m *PocketManager) callbackURI() string {
	return withSecret(m.cfg.CallbackURL, m.cfg.Secret)
}

func withSecret(raw, secret string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw + "?secret=" + url.QueryEscape(secret)
	}
	q := u.Query()
	q.Set("secret", secret)
	u.RawQuery = q.Encode()
	return u.String()
}
