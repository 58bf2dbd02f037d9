// Package cache implements the validated cache envelope for market price data.
//
// Entries pair a JSON payload with three read-validity conditions:
//
// - TTL freshness relative to when the payload was fetched
// - a schema version string, so a code upgrade invalidates old entries
// - an xxhash integrity tag over the payload, so corruption reads as a miss
//
// Any violated condition evicts the entry eagerly on read. Entries live in a
// pluggable storage.Store (in-memory, bbolt, or Redis); the envelope and its
// validation are identical across backends.
//
// # Basic Usage
//
//	store := storage.NewMemoryStore()
//	key := cache.Key{ItemID: 5729, Scope: "Crystal"}
//
//	entry, err := cache.NewEntry(record, 5*time.Minute, "1", time.Now())
//	if err != nil {
//		return err
//	}
//	if err := cache.Write(ctx, store, key, entry); err != nil {
//		return err
//	}
//
//	entry, ok, err := cache.Read(ctx, store, key, "1", time.Now())
//	if ok {
//		var record prices.Record
//		err = entry.Decode(&record)
//	}
package cache
