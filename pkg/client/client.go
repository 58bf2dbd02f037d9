// Package client implements the fetch orchestrator for market price lookups:
// request building, batch aggregation, in-flight request deduplication,
// rate limiting, fixed-backoff retry, response validation, and a validated
// TTL cache in front of the network.
package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/xivdye/market-client/pkg/cache"
	"github.com/xivdye/market-client/pkg/prices"
	"github.com/xivdye/market-client/pkg/storage"
)

// Prometheus metrics for fetch operations.
var (
	marketRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "market_requests_total",
		Help: "Total upstream price requests by scope and status",
	}, []string{"scope", "status"})

	marketRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "market_request_duration_seconds",
		Help:    "Upstream price request duration in seconds by scope",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"scope"})

	marketErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "market_errors_total",
		Help: "Total fetch errors by class",
	}, []string{"class"})

	marketCoalescedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "market_inflight_coalesced_total",
		Help: "Total lookups served by joining an already in-flight request",
	})

	marketBatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "market_batch_size",
		Help:    "Number of item IDs per batched upstream request",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
	})
)

// Client is the fetch orchestrator for the upstream aggregated price API.
type Client struct {
	httpClient *http.Client
	store      storage.Store
	limiter    *rate.Limiter
	flight     singleflight.Group
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration. All values come from the embedding
// application; DefaultConfig supplies the standard constants.
type Config struct {
	// Store is the cache backend for validated price entries.
	Store storage.Store

	// BaseURL of the upstream aggregated price API.
	BaseURL string

	// UserAgent identifies this client to the upstream service.
	UserAgent string

	// RequestTimeout bounds any single network call.
	RequestTimeout time.Duration

	// MaxAttempts is the total number of tries per network call (first
	// attempt included).
	MaxAttempts int

	// RetryDelay is the fixed wait between attempts.
	RetryDelay time.Duration

	// CacheTTL is how long fetched prices stay fresh.
	CacheTTL time.Duration

	// MinRequestSpacing is the minimum gap between the start times of
	// successive upstream calls, shared across all callers.
	MinRequestSpacing time.Duration

	// MaxResponseBytes caps the accepted response body size.
	MaxResponseBytes int64

	// SchemaVersion stamps cache entries; bumping it invalidates entries
	// written by older code.
	SchemaVersion string
}

// DefaultConfig returns the standard configuration on top of a store.
func DefaultConfig(store storage.Store) Config {
	return Config{
		Store:             store,
		BaseURL:           "https://universalis.app/api/v2",
		UserAgent:         "xivdye-market-client/1.0",
		RequestTimeout:    10 * time.Second,
		MaxAttempts:       3,
		RetryDelay:        2 * time.Second,
		CacheTTL:          5 * time.Minute,
		MinRequestSpacing: 500 * time.Millisecond,
		MaxResponseBytes:  1 << 20,
		SchemaVersion:     "1",
	}
}

// New creates a fetch orchestrator.
func New(cfg Config) (*Client, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("cache store is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.MaxAttempts < 1 {
		return nil, fmt.Errorf("max attempts must be >= 1 (got %d)", cfg.MaxAttempts)
	}
	if cfg.MaxResponseBytes <= 0 {
		return nil, fmt.Errorf("max response bytes must be > 0 (got %d)", cfg.MaxResponseBytes)
	}
	if cfg.MinRequestSpacing < 0 {
		return nil, fmt.Errorf("min request spacing must be >= 0 (got %s)", cfg.MinRequestSpacing)
	}

	logger := log.With().Str("component", "market-client").Logger()

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.MinRequestSpacing > 0 {
		// Burst 1 turns the limiter into a pure spacing gate: successive
		// Wait calls are at least MinRequestSpacing apart.
		limiter = rate.NewLimiter(rate.Every(cfg.MinRequestSpacing), 1)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		store:   cfg.Store,
		limiter: limiter,
		config:  cfg,
		logger:  logger,
	}, nil
}

// GetPrice returns the best-known price for one item in one market scope,
// or nil if no price is available.
//
// A valid cache entry is served without a network call. Concurrent lookups
// for the same (item, scope) pair share one in-flight network call. All
// fetch failures are absorbed here: they are logged and reported as absence,
// never returned to the caller.
func (c *Client) GetPrice(ctx context.Context, itemID int64, scope string) *prices.Record {
	key := cache.Key{ItemID: itemID, Scope: scope}

	if record, ok := c.cachedRecord(ctx, key); ok {
		return record
	}

	value, err, shared := c.flight.Do(key.String(), func() (any, error) {
		parsed, err := c.fetchAggregated(ctx, scope, []int64{itemID})
		if err != nil {
			return nil, err
		}
		records := c.storeResults(ctx, parsed, scope)
		if record, ok := records[itemID]; ok {
			return &record, nil
		}
		return (*prices.Record)(nil), nil
	})
	if shared {
		marketCoalescedTotal.Inc()
	}
	if err != nil {
		c.logger.Warn().
			Err(err).
			Int64("item_id", itemID).
			Str("scope", scope).
			Msg("Price fetch failed")
		return nil
	}

	record, _ := value.(*prices.Record)
	return record
}

// GetPricesForScope returns prices for many items in one market scope.
//
// Already-cached items are served without network access; the remainder goes
// out as exactly one batched request. Each fetched record is cached
// individually so later single-item lookups hit the cache. Items with no
// resolvable price are simply absent from the map.
//
// The returned error reports a batch-level fetch failure that survived
// retries (the map then still carries the cache hits); it is never used for
// "no price available".
func (c *Client) GetPricesForScope(ctx context.Context, itemIDs []int64, scope string) (map[int64]prices.Record, error) {
	results := make(map[int64]prices.Record, len(itemIDs))
	var missing []int64

	seen := make(map[int64]struct{}, len(itemIDs))
	for _, itemID := range itemIDs {
		if _, dup := seen[itemID]; dup {
			continue
		}
		seen[itemID] = struct{}{}

		if record, ok := c.cachedRecord(ctx, cache.Key{ItemID: itemID, Scope: scope}); ok && record != nil {
			results[itemID] = *record
			continue
		}
		missing = append(missing, itemID)
	}

	if len(missing) == 0 {
		return results, nil
	}

	marketBatchSize.Observe(float64(len(missing)))

	parsed, err := c.fetchAggregated(ctx, scope, missing)
	if err != nil {
		// A malformed batch degrades to "no items resolved", never to
		// partial corruption.
		c.logger.Warn().
			Err(err).
			Int("requested", len(missing)).
			Str("scope", scope).
			Msg("Batch price fetch failed")
		return results, err
	}

	for itemID, record := range c.storeResults(ctx, parsed, scope) {
		results[itemID] = record
	}

	return results, nil
}

// cachedRecord reads one validated record from the cache. Cache backend
// errors degrade to a miss.
func (c *Client) cachedRecord(ctx context.Context, key cache.Key) (*prices.Record, bool) {
	entry, ok, err := cache.Read(ctx, c.store, key, c.config.SchemaVersion, time.Now())
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key.String()).Msg("Cache read error")
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var record prices.Record
	if err := entry.Decode(&record); err != nil {
		c.logger.Warn().Err(err).Str("key", key.String()).Msg("Cache decode error")
		return nil, false
	}
	return &record, true
}

// fetchAggregated performs one rate-limited, retried call to the aggregated
// endpoint for the given scope and item IDs.
func (c *Client) fetchAggregated(ctx context.Context, scope string, itemIDs []int64) (*aggregatedResponse, error) {
	url := c.batchURL(scope, itemIDs)

	start := time.Now()
	defer func() {
		marketRequestDuration.WithLabelValues(scope).Observe(time.Since(start).Seconds())
	}()

	var parsed *aggregatedResponse
	err := retryFixed(ctx, c.config.MaxAttempts, c.config.RetryDelay, c.logger, func() error {
		// The spacing gate applies to every attempt: retries contend for
		// the same polite request budget as first tries.
		if err := c.limiter.Wait(ctx); err != nil {
			return &FetchError{Class: ErrorClassNetwork, Message: "rate limit wait", Err: err}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return &FetchError{Class: ErrorClassNetwork, Message: "build request", Err: err}
		}
		req.Header.Set("User-Agent", c.config.UserAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			marketErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			marketRequestsTotal.WithLabelValues(scope, "network_error").Inc()
			return &FetchError{Class: ErrorClassNetwork, Message: "execute request", Err: err}
		}

		marketRequestsTotal.WithLabelValues(scope, strconv.Itoa(resp.StatusCode)).Inc()

		parsed, err = decodeResponse(resp, c.config.MaxResponseBytes)
		if err != nil {
			marketErrorsTotal.WithLabelValues(string(classOf(err))).Inc()
			c.logger.Warn().
				Err(err).
				Str("scope", scope).
				Str("error_class", string(classOf(err))).
				Msg("Upstream response rejected")
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return parsed, nil
}

// batchURL builds the aggregated endpoint URL with all item IDs joined into
// a single path segment.
func (c *Client) batchURL(scope string, itemIDs []int64) string {
	ids := make([]string, len(itemIDs))
	for i, id := range itemIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}
	return fmt.Sprintf("%s/aggregated/%s/%s",
		strings.TrimSuffix(c.config.BaseURL, "/"), scope, strings.Join(ids, ","))
}

// storeResults extracts records from a parsed response and caches each one
// individually. Results are matched by their itemId field, not position.
func (c *Client) storeResults(ctx context.Context, parsed *aggregatedResponse, scope string) map[int64]prices.Record {
	now := time.Now()
	records := make(map[int64]prices.Record, len(parsed.Results))

	for _, result := range parsed.Results {
		price, ok := resolvePrice(result)
		if !ok {
			c.logger.Debug().
				Int64("item_id", result.ItemID).
				Str("scope", scope).
				Msg("No price data for item")
			continue
		}

		record := prices.Record{
			ItemID:          result.ItemID,
			CurrentAverage:  price,
			CurrentMinPrice: price,
			CurrentMaxPrice: price,
			LastUpdate:      now,
			Scope:           scope,
		}
		records[result.ItemID] = record

		key := cache.Key{ItemID: result.ItemID, Scope: scope}
		entry, err := cache.NewEntry(record, c.config.CacheTTL, c.config.SchemaVersion, now)
		if err != nil {
			c.logger.Warn().Err(err).Str("key", key.String()).Msg("Failed to create cache entry")
			continue
		}
		if err := cache.Write(ctx, c.store, key, entry); err != nil {
			c.logger.Warn().Err(err).Str("key", key.String()).Msg("Failed to cache price")
			continue
		}
		c.logger.Debug().
			Str("key", key.String()).
			Dur("ttl", c.config.CacheTTL).
			Msg("Cached price")
	}

	return records
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}
