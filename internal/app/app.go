package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/pocket2drive/internal/auth"
	"github.com/MrSnakeDoc/pocket2drive/internal/config"
	"github.com/MrSnakeDoc/pocket2drive/internal/domain"
	"github.com/MrSnakeDoc/pocket2drive/internal/httpserver"
	"github.com/MrSnakeDoc/pocket2drive/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pocket2drive/internal/kv"
	"github.com/MrSnakeDoc/pocket2drive/internal/ledger"
	"github.com/MrSnakeDoc/pocket2drive/internal/logger"
	"github.com/MrSnakeDoc/pocket2drive/internal/notify"
	"github.com/MrSnakeDoc/pocket2drive/internal/onedrive"
	"github.com/MrSnakeDoc/pocket2drive/internal/pocket"
	"github.com/MrSnakeDoc/pocket2drive/internal/scheduler"
	redisstore "github.com/MrSnakeDoc/pocket2drive/internal/store/redis"
	"github.com/MrSnakeDoc/pocket2drive/internal/store/sqlite"
	"github.com/MrSnakeDoc/pocket2drive/internal/syncer"
	"github.com/MrSnakeDoc/pocket2drive/internal/version"
)

// App owns every long-lived component. The CLI builds one per invocation.
type App struct {
	cfg      *config.Config
	logger   logger.Logger
	store    kv.Store
	purger   scheduler.Purger // nil unless the backend needs explicit purging
	pocket   *auth.PocketManager
	onedrive *auth.OneDriveManager
	runner   *scheduler.SyncRunner
	trigger  chan struct{}
}

// New connects the store and wires clients, token managers, the ledger and
// the orchestrator. It fails fast when the store is unreachable.
func New(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) (*App, error) {
	store, purger, err := openStore(ctx, cfg, loggerClient)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	pocketClient := pocket.NewClient(cfg.PocketBaseURL, cfg.PocketConsumerKey, httpClient)
	pocketManager := auth.NewPocketManager(pocketClient, store, auth.PocketConfig{
		CallbackURL: cfg.PocketCallbackURL,
		LoginURL:    cfg.PocketLoginURL,
		Secret:      cfg.Secret,
	}, loggerClient.With(logger.String("component", "pocket_auth")))

	oneDriveManager := auth.NewOneDriveManager(auth.OneDriveConfig{
		ClientID:     cfg.OneDriveClientID,
		ClientSecret: cfg.OneDriveClientSecret,
		RedirectURL:  cfg.OneDriveCallbackURL,
		AuthorityURL: cfg.MSAuthorityURL,
		HTTPClient:   httpClient,
	}, store, loggerClient.With(logger.String("component", "onedrive_auth")))

	orchestrator := syncer.New(syncer.Options{
		Pocket:   pocketManager,
		OneDrive: oneDriveManager,
		Items:    pocketClient,
		Files:    onedrive.NewClient(cfg.GraphBaseURL, httpClient),
		Ledger:   ledger.New(store, time.Now, loggerClient.With(logger.String("component", "ledger"))),
		FilePath: cfg.OneDriveFilePath,
		Lookback: cfg.Lookback,
		Logger:   loggerClient.With(logger.String("component", "sync")),
	})

	notifier, err := newNotifier(cfg, loggerClient)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	trigger := make(chan struct{}, 1)
	runner := scheduler.NewSyncRunner(orchestrator, notifier, loggerClient, cfg.SyncInterval, trigger)

	return &App{
		cfg:      cfg,
		logger:   loggerClient,
		store:    store,
		purger:   purger,
		pocket:   pocketManager,
		onedrive: oneDriveManager,
		runner:   runner,
		trigger:  trigger,
	}, nil
}

func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (kv.Store, scheduler.Purger, error) {
	switch cfg.KVBackend {
	case config.KVBackendRedis:
		s, err := redisstore.Dial(ctx, redisstore.DialOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			Prefix:         cfg.KVPrefix,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return s, nil, nil

	case config.KVBackendSQLite:
		log.Info("opening sqlite store", logger.String("path", cfg.SQLitePath))
		s, err := sqlite.Open(ctx, cfg.SQLitePath, cfg.KVPrefix)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return s, s, nil

	case config.KVBackendMemory:
		log.Warn("using in-memory store, tokens are lost on exit")
		return kv.NewMemoryStore(), nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown kv backend %q", cfg.KVBackend)
	}
}

func newNotifier(cfg *config.Config, log logger.Logger) (notify.Notifier, error) {
	if cfg.NotifyBackend != config.NotifyBackendTwilio {
		return notify.NewLogNotifier(log), nil
	}
	n, err := notify.NewSMSNotifier(notify.TwilioConfig{
		AccountSID: cfg.TwilioAccountSID,
		AuthToken:  cfg.TwilioAuthToken,
		From:       cfg.TwilioFrom,
		To:         cfg.NotifyPhone,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to build sms notifier: %w", err)
	}
	return n, nil
}

// SyncOnce runs a single cycle and sends the login prompt if needed.
func (a *App) SyncOnce(ctx context.Context) (domain.SyncResult, error) {
	return a.runner.RunOnce(ctx)
}

// RefreshOneDrive redeems the stored OneDrive refresh token once.
func (a *App) RefreshOneDrive(ctx context.Context) (domain.RefreshOutcome, error) {
	return a.onedrive.Refresh(ctx)
}

// Serve hosts the HTTP endpoints and runs the sync, refresh and purge loops
// until SIGINT or SIGTERM.
func (a *App) Serve(ctx context.Context) error {
	a.logger.Infof("🚀 Starting pocket2drive %s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("pocket2drive %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := deps.Deps{
		Logger:         a.logger,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		TimeNow:        time.Now,
		RequestTimeout: a.cfg.HTTPTimeout + 5*time.Second,
		AllowedHosts:   a.cfg.AllowedHosts,
		AllowedCIDRS:   a.cfg.AllowedCIDRS,
		TrustProxy:     a.cfg.TrustProxy,
		AuthRateBurst:  a.cfg.AuthRateBurst,
		AuthRatePerMin: a.cfg.AuthRatePerMin,
		KVBackend:      a.cfg.KVBackend,
		Store:          a.store,
		Pocket:         a.pocket,
		OneDrive:       a.onedrive,
		SyncTrigger:    a.trigger,
	}
	server := httpserver.New(a.cfg, a.logger, d)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	refresher := scheduler.NewTokenRefresher(a.onedrive, a.logger, a.cfg.RefreshInterval)
	if err := refresher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start token refresher: %w", err)
	}
	a.logger.Info("token refresher started",
		logger.Duration("interval", a.cfg.RefreshInterval))

	var gc *scheduler.GarbageCollector
	if a.purger != nil {
		gc = scheduler.NewGarbageCollector(a.purger, a.logger, a.cfg.PurgeInterval)
		if err := gc.Start(ctx); err != nil {
			return fmt.Errorf("failed to start garbage collector: %w", err)
		}
		a.logger.Info("garbage collector started",
			logger.Duration("interval", a.cfg.PurgeInterval))
	}

	if err := a.runner.Start(ctx); err != nil {
		return fmt.Errorf("failed to start sync runner: %w", err)
	}
	a.logger.Info("sync runner started",
		logger.Duration("interval", a.cfg.SyncInterval))

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	a.runner.Stop()
	refresher.Stop()
	if gc != nil {
		gc.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	if runErr == nil {
		a.logger.Info("✅ pocket2drive stopped cleanly")
	}
	return runErr
}

// Close releases the store.
func (a *App) Close() error {
	if err := a.store.Close(); err != nil {
		a.logger.Warnf("failed to close store: %v", err)
		return err
	}
	a.logger.Debug("store closed", logger.String("backend", a.cfg.KVBackend))
	return nil
}
