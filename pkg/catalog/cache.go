package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/platinummonkey/tenantgate/pkg/language"
	"github.com/platinummonkey/tenantgate/pkg/observability"
)

const (
	// DefaultCacheKey is the global key of the persisted record
	DefaultCacheKey = "tenantgate:permissions"

	// DefaultCacheDuration bounds the age of a usable record
	DefaultCacheDuration = 24 * time.Hour
)

// Clock supplies the current time; tests substitute a fixed clock
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock
var SystemClock Clock = systemClock{}

// LanguageSource reports the active display language
type LanguageSource interface {
	Current() string
}

// CacheConfig holds the cache tunables
type CacheConfig struct {
	Key      string
	Duration time.Duration

	// L1Size is the number of languages kept decoded in process; 0 disables L1
	L1Size int
	// L1TTL bounds how long a process may serve a record without re-reading the store
	L1TTL time.Duration
}

// DefaultCacheConfig returns the default key and duration with a small L1
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Key:      DefaultCacheKey,
		Duration: DefaultCacheDuration,
		L1Size:   8,
		L1TTL:    time.Minute,
	}
}

// Cache is the fetch-or-load entry point for the permission catalog.
// All callers go through GetPermissions rather than reading the store themselves.
type Cache struct {
	cfg     CacheConfig
	store   KVStore
	fetcher Fetcher
	lang    LanguageSource
	clock   Clock
	logger  *observability.Logger
	metrics *observability.Metrics
	l1      *lru.LRU[string, *CachedCatalog]
}

// CacheOption configures optional collaborators
type CacheOption func(*Cache)

// WithClock overrides the wall clock
func WithClock(clock Clock) CacheOption {
	return func(c *Cache) { c.clock = clock }
}

// WithLogger sets the logger
func WithLogger(logger *observability.Logger) CacheOption {
	return func(c *Cache) { c.logger = logger }
}

// WithMetrics sets the metrics sink
func WithMetrics(m *observability.Metrics) CacheOption {
	return func(c *Cache) { c.metrics = m }
}

// NewCache creates a catalog cache over a store and a fetcher
func NewCache(cfg CacheConfig, store KVStore, fetcher Fetcher, lang LanguageSource, opts ...CacheOption) *Cache {
	if cfg.Key == "" {
		cfg.Key = DefaultCacheKey
	}
	if cfg.Duration <= 0 {
		cfg.Duration = DefaultCacheDuration
	}

	c := &Cache{
		cfg:     cfg,
		store:   store,
		fetcher: fetcher,
		lang:    lang,
		clock:   SystemClock,
		logger:  observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if cfg.L1Size > 0 && cfg.L1TTL > 0 {
		c.l1 = lru.NewLRU[string, *CachedCatalog](cfg.L1Size, nil, cfg.L1TTL)
	}

	c.logger = c.logger.WithField("component", "catalog_cache")
	return c
}

// Load reads the persisted record. Missing, corrupt and expired records are
// reported as absent; corrupt and expired ones are purged.
func (c *Cache) Load(ctx context.Context) (*CachedCatalog, bool) {
	raw, found, err := c.store.Get(ctx, c.cfg.Key)
	if err != nil {
		c.logger.WithError(err).Warn("failed to read permission cache")
		c.metrics.RecordCacheMiss("store_error")
		return nil, false
	}
	if !found {
		c.metrics.RecordCacheMiss("absent")
		return nil, false
	}

	record, err := decodeRecord(raw)
	if err != nil {
		c.logger.WithError(err).Warn("purging corrupt permission cache record")
		c.metrics.RecordCacheMiss("corrupt")
		c.purge(ctx)
		return nil, false
	}

	if !c.fresh(record) {
		c.logger.WithField("lang", record.Lang).Debug("purging expired permission cache record")
		c.metrics.RecordCacheMiss("expired")
		c.purge(ctx)
		return nil, false
	}

	return record, true
}

// Store persists catalog tagged with the active language, replacing any prior record
func (c *Cache) Store(ctx context.Context, catalog Catalog) error {
	return c.storeFor(ctx, catalog, c.lang.Current())
}

// storeFor persists catalog tagged with lang, the language it was fetched in
func (c *Cache) storeFor(ctx context.Context, catalog Catalog, lang string) error {
	record := &CachedCatalog{
		Data:      catalog,
		Timestamp: c.clock.Now().UnixMilli(),
		Lang:      lang,
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal permission cache: %w", err)
	}
	if err := c.store.Set(ctx, c.cfg.Key, string(data)); err != nil {
		return fmt.Errorf("failed to write permission cache: %w", err)
	}

	if c.l1 != nil {
		c.l1.Add(record.Lang, record)
	}
	return nil
}

// Clear removes the persisted record and the in-process copies unconditionally
func (c *Cache) Clear(ctx context.Context) error {
	if c.l1 != nil {
		c.l1.Purge()
	}
	c.metrics.RecordCacheClear()

	if err := c.store.Delete(ctx, c.cfg.Key); err != nil {
		return fmt.Errorf("failed to clear permission cache: %w", err)
	}
	c.logger.Debug("permission cache cleared")
	return nil
}

// GetPermissions returns the catalog for the active language, fetching it
// with token on a miss. Fetch failures are returned wrapping ErrFetchFailed;
// there is no fallback to an older record.
func (c *Cache) GetPermissions(ctx context.Context, token string) (Catalog, error) {
	lang := c.lang.Current()

	if c.l1 != nil {
		if record, ok := c.l1.Get(lang); ok && c.fresh(record) {
			c.metrics.RecordCacheHit("l1")
			return record.Data, nil
		}
	}

	if record, ok := c.Load(ctx); ok {
		if record.Lang == lang {
			c.metrics.RecordCacheHit("store")
			if c.l1 != nil {
				c.l1.Add(lang, record)
			}
			return record.Data, nil
		}
		c.metrics.RecordCacheMiss("language")
		c.logger.WithFields(map[string]interface{}{
			"cached_lang": record.Lang,
			"lang":        lang,
		}).Debug("permission cache language mismatch")
	}

	start := c.clock.Now()
	catalog, err := c.fetcher.Fetch(ctx, token, lang)
	c.metrics.RecordFetch(err == nil, c.clock.Now().Sub(start))
	if err != nil {
		c.logger.WithError(err).Warn("permission catalog fetch failed")
		return nil, err
	}

	// The language moved on mid-fetch; writing would replace a newer record.
	if current := c.lang.Current(); current != lang {
		c.logger.WithFields(map[string]interface{}{
			"fetched_lang": lang,
			"lang":         current,
		}).Debug("skipping permission cache write after language change")
		return catalog, nil
	}

	if err := c.storeFor(ctx, catalog, lang); err != nil {
		c.logger.WithError(err).Warn("fetched permission catalog could not be cached")
	}
	return catalog, nil
}

// WatchLanguage clears the cache whenever the active language changes, since
// localized names differ per language. It returns the unsubscribe function.
func (c *Cache) WatchLanguage(signal *language.Signal) func() {
	return signal.Subscribe(func(previous, current string) {
		c.logger.WithFields(map[string]interface{}{
			"from": previous,
			"to":   current,
		}).Info("display language changed, clearing permission cache")
		if err := c.Clear(context.Background()); err != nil {
			c.logger.WithError(err).Warn("failed to clear permission cache after language change")
		}
	})
}

// Ping checks the backing store
func (c *Cache) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}

func (c *Cache) fresh(record *CachedCatalog) bool {
	age := c.clock.Now().UnixMilli() - record.Timestamp
	return age <= c.cfg.Duration.Milliseconds()
}

func (c *Cache) purge(ctx context.Context) {
	if err := c.store.Delete(ctx, c.cfg.Key); err != nil {
		c.logger.WithError(err).Warn("failed to purge permission cache record")
	}
}

func decodeRecord(raw string) (*CachedCatalog, error) {
	var record CachedCatalog
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCacheCorrupt, err)
	}
	if record.Data == nil || record.Timestamp <= 0 {
		return nil, fmt.Errorf("%w: missing data or timestamp", ErrCacheCorrupt)
	}
	return &record, nil
}
