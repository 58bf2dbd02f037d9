// Package coordinator implements the shared price cache that UI consumers
// read from: a scope-lifetime cache keyed by item, a monotonic request epoch
// that discards stale in-flight responses, category-based fetch filtering,
// and a synchronous event broadcast.
package coordinator

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/xivdye/market-client/pkg/prices"
	"github.com/xivdye/market-client/pkg/storage"
)

var staleResultsDiscarded = promauto.NewCounter(prometheus.CounterOpts{
	Name: "market_stale_results_discarded_total",
	Help: "Total fetch results discarded because the market scope changed mid-flight",
})

// Fetcher is the batch price lookup the coordinator delegates to. The error
// reports a batch-level failure that survived retries; the map then still
// carries any cache hits.
type Fetcher interface {
	GetPricesForScope(ctx context.Context, itemIDs []int64, scope string) (map[int64]prices.Record, error)
}

// ProgressFunc reports fetch progress as (fetched, requested).
type ProgressFunc func(fetched, requested int)

// Coordinator is the process-wide shared price cache. Construct exactly one
// per application and pass it by reference to consumers; there is no hidden
// package-level instance.
type Coordinator struct {
	fetcher Fetcher
	store   storage.Store
	events  *emitter
	logger  zerolog.Logger

	mu       sync.Mutex
	scope    string
	epoch    uint64
	cache    map[int64]prices.Record
	settings Settings
}

// Config holds the coordinator dependencies.
type Config struct {
	// Fetcher performs the actual network access.
	Fetcher Fetcher

	// Store persists the coordinator settings across sessions.
	Store storage.Store

	// Scope is the initial market-region scope.
	Scope string
}

// New creates a coordinator, loading persisted settings from the store.
func New(ctx context.Context, cfg Config) (*Coordinator, error) {
	if cfg.Fetcher == nil {
		return nil, errNilFetcher
	}
	if cfg.Store == nil {
		return nil, errNilStore
	}

	logger := log.With().Str("component", "price-coordinator").Logger()

	return &Coordinator{
		fetcher:  cfg.Fetcher,
		store:    cfg.Store,
		events:   newEmitter(logger),
		logger:   logger,
		scope:    cfg.Scope,
		cache:    make(map[int64]prices.Record),
		settings: loadSettings(ctx, cfg.Store, logger),
	}, nil
}

// Subscribe registers handler for event; the returned func unsubscribes.
// Delivery is synchronous and in subscription order.
func (c *Coordinator) Subscribe(event Event, handler Handler) func() {
	return c.events.subscribe(event, handler)
}

// Scope returns the current market-region scope.
func (c *Coordinator) Scope() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scope
}

// SetScope switches the market-region scope. Cached prices are scope-specific,
// so a change advances the request epoch (invalidating in-flight fetches) and
// clears the shared cache before scope-changed is emitted.
func (c *Coordinator) SetScope(scope string) {
	c.mu.Lock()
	if scope == c.scope {
		c.mu.Unlock()
		return
	}
	previous := c.scope
	c.scope = scope
	c.epoch++
	c.cache = make(map[int64]prices.Record)
	c.mu.Unlock()

	c.logger.Info().
		Str("scope", scope).
		Str("previous_scope", previous).
		Msg("Market scope changed")
	c.events.emit(EventScopeChanged, ScopeChanged{Scope: scope, PreviousScope: previous})
}

// SetPricesEnabled toggles whether fetching happens at all.
func (c *Coordinator) SetPricesEnabled(ctx context.Context, enabled bool) {
	c.mu.Lock()
	if c.settings.Enabled == enabled {
		c.mu.Unlock()
		return
	}
	c.settings.Enabled = enabled
	settings := c.settings
	c.mu.Unlock()

	saveSettings(ctx, c.store, settings, c.logger)
	c.events.emit(EventSettingsChanged, SettingsChanged{
		Enabled:    settings.Enabled,
		Categories: settings.Categories,
	})
}

// SetCategoryFilters merges a partial filter update into the persisted
// settings. settings-changed fires only if the effective settings differ.
func (c *Coordinator) SetCategoryFilters(ctx context.Context, patch CategoryFilterPatch) {
	c.mu.Lock()
	merged := patch.apply(c.settings.Categories)
	if merged == c.settings.Categories {
		c.mu.Unlock()
		return
	}
	c.settings.Categories = merged
	settings := c.settings
	c.mu.Unlock()

	saveSettings(ctx, c.store, settings, c.logger)
	c.events.emit(EventSettingsChanged, SettingsChanged{
		Enabled:    settings.Enabled,
		Categories: settings.Categories,
	})
}

// ShouldFetchPrice is the pure category membership test against the current
// filter settings. It does not consult the enabled flag or the cache.
func (c *Coordinator) ShouldFetchPrice(item prices.Item) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings.Categories.Allows(item.Category)
}

// GetCachedPrice reads one record from the shared scope-lifetime cache.
func (c *Coordinator) GetCachedPrice(itemID int64) (prices.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	record, ok := c.cache[itemID]
	return record, ok
}

// AllCachedPrices returns a snapshot of the shared cache.
func (c *Coordinator) AllCachedPrices() map[int64]prices.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[int64]prices.Record, len(c.cache))
	for itemID, record := range c.cache {
		out[itemID] = record
	}
	return out
}

// FetchPrices looks up prices for items in the current scope and merges the
// results into the shared cache.
//
// The call captures the request epoch before fetching. If the scope changes
// while the fetch is in flight, the result is discarded entirely: no cache
// merge, no events. The epoch comparison and the merge happen inside one
// critical section, so a stale result can never overwrite current-scope
// state.
func (c *Coordinator) FetchPrices(ctx context.Context, items []prices.Item, onProgress ProgressFunc) map[int64]prices.Record {
	c.mu.Lock()
	epoch := c.epoch
	scope := c.scope
	enabled := c.settings.Enabled
	var itemIDs []int64
	if enabled {
		for _, item := range items {
			if c.settings.Categories.Allows(item.Category) {
				itemIDs = append(itemIDs, item.ID)
			}
		}
	}
	c.mu.Unlock()

	if len(itemIDs) == 0 {
		if onProgress != nil {
			onProgress(0, 0)
		}
		return map[int64]prices.Record{}
	}

	c.events.emit(EventFetchStarted, FetchStarted{Count: len(itemIDs)})

	fetched, fetchErr := c.fetcher.GetPricesForScope(ctx, itemIDs, scope)

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		// The UI no longer represents the scope this result was fetched
		// for. Failures for abandoned scopes are dropped the same way.
		staleResultsDiscarded.Inc()
		c.logger.Debug().
			Str("scope", scope).
			Int("results", len(fetched)).
			Msg("Discarding fetch result for abandoned scope")
		return map[int64]prices.Record{}
	}
	for itemID, record := range fetched {
		c.cache[itemID] = record
	}
	snapshot := make(map[int64]prices.Record, len(c.cache))
	for itemID, record := range c.cache {
		snapshot[itemID] = record
	}
	c.mu.Unlock()

	if onProgress != nil {
		onProgress(len(fetched), len(itemIDs))
	}

	if fetchErr != nil {
		c.events.emit(EventFetchError, FetchError{
			Reason: fetchErr.Error(),
			Count:  len(itemIDs),
		})
		return fetched
	}

	c.events.emit(EventPricesUpdated, PricesUpdated{
		Prices:       snapshot,
		FetchedCount: len(fetched),
	})
	c.events.emit(EventFetchCompleted, FetchCompleted{Count: len(fetched)})

	return fetched
}
