// Package syncer runs one Pocket to OneDrive cycle: load tokens, fetch recent
// items, drop the ones already seen, append the rest to the target file.
package syncer

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/pocket2drive/internal/domain"
	"github.com/MrSnakeDoc/pocket2drive/internal/logger"
)

// DefaultLookback is how far back each cycle asks Pocket for items.
const DefaultLookback = 24 * time.Hour

type PocketTokens interface {
	AccessToken(ctx context.Context) (string, bool, error)
	LoginPromptURL() string
}

type OneDriveTokens interface {
	AccessToken(ctx context.Context) (string, bool, error)
	AuthorizeURL() string
}

type ItemSource interface {
	Since(ctx context.Context, accessToken string, since time.Time) ([]domain.Item, error)
}

type FileStore interface {
	Download(ctx context.Context, accessToken, path string) ([]byte, error)
	Upload(ctx context.Context, accessToken, path string, content []byte) error
}

type SeenLedger interface {
	Filter(ctx context.Context, items []domain.Item) ([]string, error)
	Record(ctx context.Context, urls []string) error
}

// Options wires an Orchestrator.
type Options struct {
	Pocket   PocketTokens
	OneDrive OneDriveTokens
	Items    ItemSource
	Files    FileStore
	Ledger   SeenLedger
	FilePath string
	Lookback time.Duration
	Now      func() time.Time
	Logger   logger.Logger
}

// Orchestrator executes sync cycles. It holds no state between cycles.
type Orchestrator struct {
	opts Options
}

func New(opts Options) *Orchestrator {
	if opts.Lookback <= 0 {
		opts.Lookback = DefaultLookback
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{opts: opts}
}

// Run executes one cycle. Missing tokens are not errors: they come back as a
// NeedsReauthorization result for the caller to act on. Any upstream failure
// aborts the cycle before the ledger is touched.
func (o *Orchestrator) Run(ctx context.Context) (domain.SyncResult, error) {
	log := o.opts.Logger.With(logger.String("run_id", uuid.NewString()))

	pocketToken, ok, err := o.opts.Pocket.AccessToken(ctx)
	if err != nil {
		return domain.SyncResult{}, fmt.Errorf("failed to load pocket access token: %w", err)
	}
	if !ok {
		log.Warn("pocket access token missing, login required")
		return domain.NeedsReauthorization(domain.ProviderPocket, o.opts.Pocket.LoginPromptURL()), nil
	}

	driveToken, ok, err := o.opts.OneDrive.AccessToken(ctx)
	if err != nil {
		return domain.SyncResult{}, fmt.Errorf("failed to load onedrive access token: %w", err)
	}
	if !ok {
		log.Warn("onedrive access token missing, login required")
		return domain.NeedsReauthorization(domain.ProviderOneDrive, o.opts.OneDrive.AuthorizeURL()), nil
	}

	log.Debug("using stored tokens",
		logger.Secret("pocket_access_token", pocketToken),
		logger.Secret("onedrive_access_token", driveToken))

	since := o.opts.Now().Add(-o.opts.Lookback)
	items, err := o.opts.Items.Since(ctx, pocketToken, since)
	if err != nil {
		return domain.SyncResult{}, err
	}

	newURLs, err := o.opts.Ledger.Filter(ctx, items)
	if err != nil {
		return domain.SyncResult{}, err
	}

	log.Info("pocket items checked",
		logger.Int("fetched", len(items)),
		logger.Int("new", len(newURLs)),
		logger.Strings("new_urls", newURLs))

	if len(newURLs) == 0 {
		return domain.Synced(nil), nil
	}

	content, err := o.opts.Files.Download(ctx, driveToken, o.opts.FilePath)
	if err != nil {
		return domain.SyncResult{}, err
	}

	updated := AppendChecklist(content, newURLs)
	if err := o.opts.Files.Upload(ctx, driveToken, o.opts.FilePath, updated); err != nil {
		return domain.SyncResult{}, err
	}

	if err := o.opts.Ledger.Record(ctx, newURLs); err != nil {
		return domain.SyncResult{}, fmt.Errorf("file updated but ledger write failed: %w", err)
	}

	log.Info("target file updated",
		logger.String("path", o.opts.FilePath),
		logger.Int("appended", len(newURLs)),
		logger.Int("bytes", len(updated)))

	return domain.Synced(newURLs), nil
}

// AppendChecklist appends one "- [ ] <url>" line per url. A missing trailing
// newline on content is added first so the first new item starts on its own line.
func AppendChecklist(content []byte, urls []string) []byte {
	var buf bytes.Buffer
	buf.Grow(len(content) + len(urls)*64)
	buf.Write(content)
	if len(content) > 0 && content[len(content)-1] != '\n' {
		buf.WriteByte('\n')
	}
	for _, u := range urls {
		buf.WriteString("- [ ] ")
		buf.WriteString(u)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}
