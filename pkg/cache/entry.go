// Package cache provides the validated envelope stored around cached price
// data: TTL freshness, schema versioning, and an integrity checksum.
package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Entry wraps a cached payload with the metadata needed to decide whether it
// may still be served.
type Entry struct {
	// Data is the JSON-encoded payload.
	Data json.RawMessage

	// FetchedAt is when the payload was fetched from the upstream API.
	FetchedAt time.Time

	// TTL is how long after FetchedAt the entry stays fresh.
	TTL time.Duration

	// SchemaVersion invalidates entries written by an older code version.
	SchemaVersion string

	// IntegrityTag is a checksum of Data, used to detect corruption.
	IntegrityTag string
}

// NewEntry marshals payload and wraps it in a fresh Entry.
func NewEntry(payload any, ttl time.Duration, schemaVersion string, now time.Time) (*Entry, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal cache payload: %w", err)
	}

	return &Entry{
		Data:          data,
		FetchedAt:     now,
		TTL:           ttl,
		SchemaVersion: schemaVersion,
		IntegrityTag:  Checksum(data),
	}, nil
}

// Checksum computes the integrity tag for a payload.
func Checksum(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

// IsExpired returns true if the entry is older than its TTL at now.
func (e *Entry) IsExpired(now time.Time) bool {
	return now.Sub(e.FetchedAt) >= e.TTL
}

// InvalidReason explains why an entry may not be served. Reasons double as
// eviction metric labels.
type InvalidReason string

const (
	ReasonSchemaMismatch   InvalidReason = "schema_mismatch"
	ReasonExpired          InvalidReason = "expired"
	ReasonChecksumMismatch InvalidReason = "checksum_mismatch"
)

// Validate checks schema version, freshness, and integrity. It returns the
// first violated condition, or ok=true if the entry may be served.
func (e *Entry) Validate(schemaVersion string, now time.Time) (InvalidReason, bool) {
	if e.SchemaVersion != schemaVersion {
		return ReasonSchemaMismatch, false
	}
	if e.IsExpired(now) {
		return ReasonExpired, false
	}
	if Checksum(e.Data) != e.IntegrityTag {
		return ReasonChecksumMismatch, false
	}
	return "", true
}

// Decode unmarshals the payload into v.
func (e *Entry) Decode(v any) error {
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode cache payload: %w", err)
	}
	return nil
}

// entryWire is the persisted cache shape: TTL stored as integer milliseconds
// so persistent backends stay readable by other store implementations.
type entryWire struct {
	Data          json.RawMessage `json:"data"`
	FetchedAt     time.Time       `json:"fetched_at"`
	TTLMillis     int64           `json:"ttl_millis"`
	SchemaVersion string          `json:"schema_version"`
	IntegrityTag  string          `json:"integrity_tag"`
}

// MarshalJSON implements json.Marshaler.
func (e *Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(entryWire{
		Data:          e.Data,
		FetchedAt:     e.FetchedAt,
		TTLMillis:     e.TTL.Milliseconds(),
		SchemaVersion: e.SchemaVersion,
		IntegrityTag:  e.IntegrityTag,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var w entryWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	e.Data = w.Data
	e.FetchedAt = w.FetchedAt
	e.TTL = time.Duration(w.TTLMillis) * time.Millisecond
	e.SchemaVersion = w.SchemaVersion
	e.IntegrityTag = w.IntegrityTag
	return nil
}
