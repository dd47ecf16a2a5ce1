package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/pocket2drive/internal/domain"
	"github.com/MrSnakeDoc/pocket2drive/internal/logger"
	"github.com/MrSnakeDoc/pocket2drive/internal/notify"
)

// Cycle is one sync pass.
type Cycle interface {
	Run(ctx context.Context) (domain.SyncResult, error)
}

// SyncRunner runs sync cycles on an interval and on demand. Cycles never
// overlap: ticks and manual triggers are served by a single goroutine.
type SyncRunner struct {
	cycle         Cycle
	notifier      notify.Notifier
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	done          sync.WaitGroup
	manualTrigger chan struct{}
}

// NewSyncRunner creates a runner. manualTrigger may be nil.
func NewSyncRunner(
	cycle Cycle,
	notifier notify.Notifier,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *SyncRunner {
	return &SyncRunner{
		cycle:         cycle,
		notifier:      notifier,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start runs a first cycle immediately, then one per interval.
func (sr *SyncRunner) Start(ctx context.Context) error {
	sr.runLogged(ctx)

	ticker := time.NewTicker(sr.interval)
	sr.done.Add(1)
	go func() {
		defer sr.done.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sr.runLogged(ctx)
			case <-sr.manualTrigger:
				sr.logger.Info("manual sync triggered")
				sr.runLogged(ctx)
			case <-sr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop ends the loop and waits for an in-flight cycle to finish.
func (sr *SyncRunner) Stop() {
	close(sr.stopCh)
	sr.done.Wait()
}

// RunOnce executes a single cycle and sends the login prompt when a token
// is missing.
func (sr *SyncRunner) RunOnce(ctx context.Context) (domain.SyncResult, error) {
	res, err := sr.cycle.Run(ctx)
	if err != nil {
		return res, err
	}

	sent, err := notify.Prompt(ctx, sr.notifier, res)
	if err != nil {
		return res, err
	}
	if sent {
		sr.logger.Warn("login prompt sent",
			logger.String("provider", string(res.Provider)))
	}
	return res, nil
}

func (sr *SyncRunner) runLogged(ctx context.Context) {
	start := time.Now()
	res, err := sr.RunOnce(ctx)
	if err != nil {
		sr.logger.Error("sync cycle failed",
			logger.Duration("elapsed", time.Since(start)),
			logger.Error(err))
		return
	}
	sr.logger.Info("sync cycle finished",
		logger.String("status", res.Status.String()),
		logger.Int("appended", len(res.NewURLs)),
		logger.Duration("elapsed", time.Since(start)))
}
