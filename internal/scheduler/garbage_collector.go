package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/pocket2drive/internal/logger"
)

// DefaultPurgeInterval is how often expired rows are dropped from backends
// that only expire lazily.
const DefaultPurgeInterval = 6 * time.Hour

// Purger deletes expired keys and reports how many went away.
type Purger interface {
	Purge(ctx context.Context) (int64, error)
}

// GarbageCollector periodically purges expired keys. Redis expires keys by
// itself; the SQLite backend needs this to keep old day buckets from piling up.
type GarbageCollector struct {
	purger   Purger
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
	done     sync.WaitGroup
}

func NewGarbageCollector(p Purger, log logger.Logger, interval time.Duration) *GarbageCollector {
	if interval <= 0 {
		interval = DefaultPurgeInterval
	}
	return &GarbageCollector{
		purger:   p,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start purges immediately, then every interval.
func (gc *GarbageCollector) Start(ctx context.Context) error {
	if err := gc.Collect(ctx); err != nil {
		gc.logger.Warn("initial garbage collection failed", logger.Error(err))
	}

	ticker := time.NewTicker(gc.interval)
	gc.done.Add(1)
	go func() {
		defer gc.done.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := gc.Collect(ctx); err != nil {
					gc.logger.Error("garbage collection failed", logger.Error(err))
				}
			case <-gc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop ends the loop.
func (gc *GarbageCollector) Stop() {
	close(gc.stopCh)
	gc.done.Wait()
}

// Collect runs one purge.
func (gc *GarbageCollector) Collect(ctx context.Context) error {
	n, err := gc.purger.Purge(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		gc.logger.Info("expired keys purged", logger.Int64("count", n))
	} else {
		gc.logger.Debug("no expired keys to purge")
	}
	return nil
}
