package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gauthierbraillon/tweetfeed/internal/aggregator"
	"github.com/gauthierbraillon/tweetfeed/internal/bridge"
	"github.com/gauthierbraillon/tweetfeed/internal/query"
)

type memoryStore struct {
	values map[string][]byte
	ttls   map[string]time.Duration
	err    error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.values[key] = value
	m.ttls[key] = ttl
	return nil
}

type countingCollector struct {
	calls int
	err   error
}

func (c *countingCollector) Collect(_ context.Context, opts bridge.Options) (*bridge.Feed, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return &bridge.Feed{
		Title: "Twitter @" + opts.Value,
		URI:   "https://twitter.com/",
		Items: []aggregator.FeedItem{{
			ID:          "1",
			Title:       "hello",
			PublishedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		}},
	}, nil
}

func newCached(next Collector, store Store) (*CachedCollector, *logtest.Hook) {
	logger, hook := logtest.NewNullLogger()
	return New(next, store, time.Minute, WithLogger(logrus.NewEntry(logger))), hook
}

var jackOpts = bridge.Options{Mode: query.ModeUsername, Value: "jack"}

func TestCollect_SecondRequestIsServedFromStore(t *testing.T) {
	next := &countingCollector{}
	store := newMemoryStore()
	c, _ := newCached(next, store)

	first, err := c.Collect(context.Background(), jackOpts)
	require.NoError(t, err)
	second, err := c.Collect(context.Background(), jackOpts)
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, first.Title, second.Title)
	require.Len(t, second.Items, 1)
	assert.True(t, first.Items[0].PublishedAt.Equal(second.Items[0].PublishedAt))

	key, err := Key(jackOpts)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, store.ttls[key])
}

func TestCollect_DifferentOptionsMiss(t *testing.T) {
	next := &countingCollector{}
	c, _ := newCached(next, newMemoryStore())

	_, err := c.Collect(context.Background(), jackOpts)
	require.NoError(t, err)
	withFilter := jackOpts
	withFilter.Filter = "golang"
	_, err = c.Collect(context.Background(), withFilter)
	require.NoError(t, err)

	assert.Equal(t, 2, next.calls)
}

func TestCollect_ErrorsAreNotCached(t *testing.T) {
	next := &countingCollector{err: &bridge.NotFoundError{Mode: query.ModeUsername, Message: "Requested username cannot be found."}}
	store := newMemoryStore()
	c, _ := newCached(next, store)

	_, err := c.Collect(context.Background(), jackOpts)

	assert.True(t, errors.Is(err, bridge.ErrNotFound))
	assert.Empty(t, store.values)
}

func TestCollect_FailingStoreDegradesToUncached(t *testing.T) {
	next := &countingCollector{}
	store := newMemoryStore()
	store.err = errors.New("connection refused")
	c, hook := newCached(next, store)

	feed, err := c.Collect(context.Background(), jackOpts)

	require.NoError(t, err)
	assert.Equal(t, "Twitter @jack", feed.Title)
	assert.Len(t, hook.AllEntries(), 2, "both the failed read and the failed write are logged")
}

func TestCollect_DiscardsUndecodableEntries(t *testing.T) {
	next := &countingCollector{}
	store := newMemoryStore()
	key, err := Key(jackOpts)
	require.NoError(t, err)
	store.values[key] = []byte("{not json")
	c, _ := newCached(next, store)

	feed, err := c.Collect(context.Background(), jackOpts)

	require.NoError(t, err)
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, "Twitter @jack", feed.Title)
}

func TestKey_IsStableAndPrefixed(t *testing.T) {
	a, err := Key(jackOpts)
	require.NoError(t, err)
	b, err := Key(bridge.Options{Mode: query.ModeUsername, Value: "jack"})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Regexp(t, `^tweetfeed:feed:[0-9a-f]{64}$`, a)
}

// TestRedisStore_RoundTrip needs a live server; set TWEETFEED_TEST_REDIS_ADDR
// to run it.
func TestRedisStore_RoundTrip(t *testing.T) {
	addr := os.Getenv("TWEETFEED_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TWEETFEED_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()

	store, err := NewRedisStore(ctx, addr, "")
	require.NoError(t, err)
	defer store.Close()

	key := keyPrefix + "test-" + time.Now().Format(time.RFC3339Nano)
	_, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, key, []byte("value"), time.Minute))
	got, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("value"), got)
}
