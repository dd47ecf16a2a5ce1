// Package ledger remembers which article URLs were already appended, using
// one bucket per UTC day. Buckets expire on their own after BucketTTL, and a
// URL counts as seen if today's or yesterday's bucket holds it.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/pocket2drive/internal/domain"
	"github.com/MrSnakeDoc/pocket2drive/internal/kv"
	"github.com/MrSnakeDoc/pocket2drive/internal/logger"
)

const (
	// BucketTTL is applied on every write of a bucket.
	BucketTTL = 48 * time.Hour

	bucketKeyPrefix = "pocket-urls-"
	emptyBucket     = "[]"
)

// BucketKey returns the KV key of the bucket for date (YYYY-MM-DD).
func BucketKey(date string) string {
	return bucketKeyPrefix + date
}

// FormatDateISOUTC returns the calendar date t falls on in UTC.
func FormatDateISOUTC(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

// Ledger filters out URLs seen in the last two UTC days.
type Ledger struct {
	store  kv.Store
	now    func() time.Time
	logger logger.Logger
}

func New(store kv.Store, now func() time.Time, log logger.Logger) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{store: store, now: now, logger: log}
}

// Filter returns the resolved URLs of items that appear in neither today's
// nor yesterday's bucket. Empty URLs and repeats within items are dropped;
// the order of items is kept. Filter does not write.
func (l *Ledger) Filter(ctx context.Context, items []domain.Item) ([]string, error) {
	today, yesterday := l.dates()

	seenYesterday, err := l.load(ctx, yesterday)
	if err != nil {
		return nil, err
	}
	seenToday, err := l.load(ctx, today)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(seenYesterday)+len(seenToday))
	for _, u := range seenYesterday {
		seen[u] = struct{}{}
	}
	for _, u := range seenToday {
		seen[u] = struct{}{}
	}

	var fresh []string
	for _, it := range items {
		u := it.ResolvedURL
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		fresh = append(fresh, u)
	}

	l.logger.Debug("ledger filtered items",
		logger.String("today", today),
		logger.String("yesterday", yesterday),
		logger.Int("candidates", len(items)),
		logger.Int("new", len(fresh)))

	return fresh, nil
}

// Record appends urls to today's bucket and rewrites it with a fresh BucketTTL.
func (l *Ledger) Record(ctx context.Context, urls []string) error {
	today, _ := l.dates()

	current, err := l.load(ctx, today)
	if err != nil {
		return err
	}

	merged := make([]string, 0, len(current)+len(urls))
	merged = append(merged, current...)
	merged = append(merged, urls...)

	data, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("failed to marshal bucket %s: %w", today, err)
	}
	if err := l.store.Set(ctx, BucketKey(today), string(data), BucketTTL); err != nil {
		return fmt.Errorf("failed to write bucket %s: %w", today, err)
	}
	return nil
}

func (l *Ledger) dates() (today, yesterday string) {
	now := l.now()
	return FormatDateISOUTC(now), FormatDateISOUTC(now.AddDate(0, 0, -1))
}

func (l *Ledger) load(ctx context.Context, date string) ([]string, error) {
	raw, err := kv.GetOrDefault(ctx, l.store, BucketKey(date), emptyBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to read bucket %s: %w", date, err)
	}
	var urls []string
	if err := json.Unmarshal([]byte(raw), &urls); err != nil {
		return nil, fmt.Errorf("failed to decode bucket %s: %w", date, err)
	}
	return urls, nil
}
