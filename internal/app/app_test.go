package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/pocket2drive/internal/config"
	"github.com/MrSnakeDoc/pocket2drive/internal/domain"
	"github.com/MrSnakeDoc/pocket2drive/internal/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		Secret:               "s3cret",
		PocketConsumerKey:    "12345-abcdef",
		PocketCallbackURL:    "https://p2d.example.com/pocket_auth_callback",
		PocketLoginURL:       "https://p2d.example.com/pocket_login",
		OneDriveClientID:     "client-id",
		OneDriveClientSecret: "client-secret",
		OneDriveCallbackURL:  "https://p2d.example.com/onedrive_auth_callback",
		OneDriveFilePath:     "/Notes/Pocket.md",
		HTTPTimeout:          time.Second,
		SyncInterval:         time.Hour,
		Lookback:             24 * time.Hour,
		NotifyBackend:        config.NotifyBackendLog,
		KVBackend:            config.KVBackendMemory,
	}
}

func TestSyncOnce_WithoutTokensAsksForPocketLogin(t *testing.T) {
	a, err := New(context.Background(), testConfig(), logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	res, err := a.SyncOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.StatusNeedsReauthorization, res.Status)
	assert.Equal(t, domain.ProviderPocket, res.Provider)
	assert.Equal(t, "https://p2d.example.com/pocket_login?secret=s3cret", res.LoginURL)
}

func TestRefreshOneDrive_WithoutRefreshToken(t *testing.T) {
	a, err := New(context.Background(), testConfig(), logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	out, err := a.RefreshOneDrive(context.Background())
	require.NoError(t, err)
	assert.False(t, out.Refreshed)
	assert.Equal(t, "No refresh token found.", out.Message)
}

func TestNew_SQLiteBackendEnablesPurger(t *testing.T) {
	cfg := testConfig()
	cfg.KVBackend = config.KVBackendSQLite
	cfg.SQLitePath = t.TempDir() + "/p2d.db"

	a, err := New(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.NotNil(t, a.purger)
	require.NoError(t, a.store.Ping(context.Background()))
}

func TestNew_RejectsUnknownBackend(t *testing.T) {
	cfg := testConfig()
	cfg.KVBackend = "etcd"

	_, err := New(context.Background(), cfg, logger.NewNop())
	require.Error(t, err)
}
