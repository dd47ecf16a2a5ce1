package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/pocket2drive/internal/domain"
	"github.com/MrSnakeDoc/pocket2drive/internal/logger"
)

// DefaultRefreshInterval keeps the OneDrive access token (about one hour of
// lifetime) continuously valid.
const DefaultRefreshInterval = time.Hour

// Refresher redeems a refresh token.
type Refresher interface {
	Refresh(ctx context.Context) (domain.RefreshOutcome, error)
}

// TokenRefresher refreshes the OneDrive token on a fixed interval.
type TokenRefresher struct {
	refresher Refresher
	logger    logger.Logger
	interval  time.Duration
	stopCh    chan struct{}
	done      sync.WaitGroup
}

func NewTokenRefresher(r Refresher, log logger.Logger, interval time.Duration) *TokenRefresher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &TokenRefresher{
		refresher: r,
		logger:    log,
		interval:  interval,
		stopCh:    make(chan struct{}),
	}
}

// Start refreshes once right away, then every interval. A failed refresh is
// logged and retried on the next tick only.
func (tr *TokenRefresher) Start(ctx context.Context) error {
	tr.refreshLogged(ctx)

	ticker := time.NewTicker(tr.interval)
	tr.done.Add(1)
	go func() {
		defer tr.done.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				tr.refreshLogged(ctx)
			case <-tr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop ends the loop.
func (tr *TokenRefresher) Stop() {
	close(tr.stopCh)
	tr.done.Wait()
}

func (tr *TokenRefresher) refreshLogged(ctx context.Context) {
	out, err := tr.refresher.Refresh(ctx)
	if err != nil {
		tr.logger.Error("onedrive token refresh failed", logger.Error(err))
		return
	}
	if !out.Refreshed {
		tr.logger.Warn("onedrive token refresh skipped", logger.String("reason", out.Message))
		return
	}
	tr.logger.Info("onedrive token refresh done", logger.Duration("expires_in", out.ExpiresIn))
}
