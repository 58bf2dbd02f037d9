package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/xivdye/market-client/pkg/storage"
)

// Read loads and validates the entry for key from store.
//
// Any entry that fails to decode or fails schema/TTL/integrity validation is
// evicted immediately and reported as a miss; absence is never an error.
func Read(ctx context.Context, store storage.Store, key Key, schemaVersion string, now time.Time) (*Entry, bool, error) {
	raw, ok, err := store.Get(ctx, key.String())
	if err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, false, fmt.Errorf("store get: %w", err)
	}
	if !ok {
		CacheMisses.Inc()
		return nil, false, nil
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		// Undecodable bytes are corruption, same treatment as a bad checksum.
		CacheEvictions.WithLabelValues(string(ReasonChecksumMismatch)).Inc()
		CacheMisses.Inc()
		_ = store.Delete(ctx, key.String())
		return nil, false, nil
	}

	if reason, valid := entry.Validate(schemaVersion, now); !valid {
		CacheEvictions.WithLabelValues(string(reason)).Inc()
		CacheMisses.Inc()
		_ = store.Delete(ctx, key.String())
		return nil, false, nil
	}

	CacheHits.Inc()
	return &entry, true, nil
}

// Write stores entry under key.
func Write(ctx context.Context, store storage.Store, key Key, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := store.Set(ctx, key.String(), raw); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("store set: %w", err)
	}

	CacheSize.Add(float64(len(raw)))
	return nil
}
