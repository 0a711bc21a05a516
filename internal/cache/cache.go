// Package cache keeps collected feeds for a while so repeated requests for
// the same feed do not spend API quota.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/gauthierbraillon/tweetfeed/internal/bridge"
	applog "github.com/gauthierbraillon/tweetfeed/internal/log"
)

const keyPrefix = "tweetfeed:feed:"

// Store is a byte-oriented key/value store with expiry.
type Store interface {
	// Get returns ok == false on a miss.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisStore is a Store backed by Redis.
type RedisStore struct {
	inner *redis.Client
}

// NewRedisStore connects to addr and checks the connection with a PING.
func NewRedisStore(ctx context.Context, addr, password string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0, // use default DB
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "failed to reach redis at %s", addr)
	}
	return &RedisStore{inner: client}, nil
}

// Get reads key, treating a missing key as a miss rather than an error.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.inner.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Set stores value under key for ttl.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.inner.Set(ctx, key, value, ttl).Err()
}

// Close releases the connection pool.
func (s *RedisStore) Close() error {
	return s.inner.Close()
}

// Collector is the interface shared with bridge.Bridge.
type Collector interface {
	Collect(ctx context.Context, opts bridge.Options) (*bridge.Feed, error)
}

// Option configures a CachedCollector.
type Option func(*CachedCollector)

// WithLogger sets the entry cache failures are logged through.
func WithLogger(entry *logrus.Entry) Option {
	return func(c *CachedCollector) {
		c.log = entry
	}
}

// CachedCollector serves feeds from a Store and collects through next on a
// miss. Only successful collections are stored. A failing store degrades to
// uncached collection.
type CachedCollector struct {
	next  Collector
	store Store
	ttl   time.Duration
	log   *logrus.Entry
}

// New wraps next with a cache keeping feeds for ttl.
func New(next Collector, store Store, ttl time.Duration, opts ...Option) *CachedCollector {
	c := &CachedCollector{
		next:  next,
		store: store,
		ttl:   ttl,
		log:   applog.Log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect returns the stored feed for opts, or collects and stores it.
func (c *CachedCollector) Collect(ctx context.Context, opts bridge.Options) (*bridge.Feed, error) {
	key, err := Key(opts)
	if err != nil {
		return nil, err
	}
	log := c.log.WithField("cache_key", key)

	if data, ok, err := c.store.Get(ctx, key); err != nil {
		log.WithError(err).Warn("cache read failed")
	} else if ok {
		var feed bridge.Feed
		if err := json.Unmarshal(data, &feed); err == nil {
			log.Debug("cache hit")
			return &feed, nil
		}
		log.Warn("discarding undecodable cache entry")
	}

	feed, err := c.next.Collect(ctx, opts)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(feed)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode feed")
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		log.WithError(err).Warn("cache write failed")
	}
	return feed, nil
}

// Key derives the cache key of a request. Requests differing in any option
// get distinct keys.
func Key(opts bridge.Options) (string, error) {
	data, err := json.Marshal(opts)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode options")
	}
	sum := sha256.Sum256(data)
	return keyPrefix + hex.EncodeToString(sum[:]), nil
}
