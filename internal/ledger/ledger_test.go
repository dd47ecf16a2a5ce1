package ledger

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/pocket2drive/internal/domain"
	"github.com/MrSnakeDoc/pocket2drive/internal/kv"
	"github.com/MrSnakeDoc/pocket2drive/internal/logger"
)

func TestFormatDateISOUTC(t *testing.T) {
	est := time.FixedZone("UTC-05:00", -5*60*60)
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{name: "midday local", in: time.Date(2021, 1, 1, 12, 24, 48, 0, est), want: "2021-01-01"},
		{name: "late evening crosses into next UTC day", in: time.Date(2020, 12, 31, 21, 24, 48, 0, est), want: "2021-01-01"},
		{name: "already utc", in: time.Date(2021, 3, 14, 23, 59, 59, 0, time.UTC), want: "2021-03-14"},
		{name: "east of utc rolls back", in: time.Date(2021, 3, 15, 1, 0, 0, 0, time.FixedZone("UTC+09:00", 9*60*60)), want: "2021-03-14"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDateISOUTC(tt.in))
		})
	}
}

func items(urls ...string) []domain.Item {
	out := make([]domain.Item, 0, len(urls))
	for _, u := range urls {
		out = append(out, domain.Item{ResolvedURL: u})
	}
	return out
}

func setBucket(t *testing.T, s kv.Store, date string, urls ...string) {
	t.Helper()
	b, err := json.Marshal(urls)
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), BucketKey(date), string(b), BucketTTL))
}

func TestLedger_FilterAgainstBothBuckets(t *testing.T) {
	now := time.Date(2021, 1, 2, 10, 0, 0, 0, time.UTC)
	store := kv.NewMemoryStoreWithClock(func() time.Time { return now })
	setBucket(t, store, "2021-01-01", "a", "b")
	setBucket(t, store, "2021-01-02", "c")
	l := New(store, func() time.Time { return now }, logger.NewNop())

	got, err := l.Filter(context.Background(), items("a", "c", "d"))
	require.NoError(t, err)
	assert.Equal(t, []string{"d"}, got)
}

func TestLedger_FilterIgnoresOlderBuckets(t *testing.T) {
	now := time.Date(2021, 1, 3, 10, 0, 0, 0, time.UTC)
	store := kv.NewMemoryStore()
	setBucket(t, store, "2021-01-01", "old")
	setBucket(t, store, "2021-01-04", "tomorrow")
	l := New(store, func() time.Time { return now }, logger.NewNop())

	got, err := l.Filter(context.Background(), items("old", "tomorrow"))
	require.NoError(t, err)
	assert.Equal(t, []string{"old", "tomorrow"}, got)
}

func TestLedger_FilterDropsEmptyAndDuplicateURLs(t *testing.T) {
	l := New(kv.NewMemoryStore(), nil, logger.NewNop())

	got, err := l.Filter(context.Background(), items("https://x", "", "https://y", "https://x"))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://x", "https://y"}, got)
}

func TestLedger_FilterDoesNotWrite(t *testing.T) {
	store := kv.NewMemoryStore()
	l := New(store, nil, logger.NewNop())

	_, err := l.Filter(context.Background(), items("https://x"))
	require.NoError(t, err)
	assert.Empty(t, store.Keys())
}

func TestLedger_RecordAppendsAndRefreshesTTL(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2021, 1, 2, 10, 0, 0, 0, time.UTC)
	store := kv.NewMemoryStoreWithClock(func() time.Time { return clock })
	l := New(store, func() time.Time { return clock }, logger.NewNop())

	require.NoError(t, l.Record(ctx, []string{"a"}))

	clock = clock.Add(6 * time.Hour)
	require.NoError(t, l.Record(ctx, []string{"b", "c"}))

	raw, ok, err := store.Get(ctx, BucketKey("2021-01-02"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `["a","b","c"]`, raw)

	ttl, ok := store.TTL(BucketKey("2021-01-02"))
	require.True(t, ok)
	assert.Equal(t, BucketTTL, ttl, "TTL restarts on every write")

	got, err := l.Filter(ctx, items("a", "b", "c", "d"))
	require.NoError(t, err)
	assert.Equal(t, []string{"d"}, got)
}

func TestLedger_CorruptBucket(t *testing.T) {
	store := kv.NewMemoryStore()
	now := time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Set(context.Background(), BucketKey("2021-01-02"), "not json", BucketTTL))
	l := New(store, func() time.Time { return now }, logger.NewNop())

	_, err := l.Filter(context.Background(), items("x"))
	assert.Error(t, err)
}
