package cache

import "fmt"

// Key identifies one cached price lookup: an item within a market scope.
type Key struct {
	// ItemID is the stable external identifier of the tradeable item.
	ItemID int64

	// Scope is the market region (data center or equivalent) the price was
	// fetched under. Prices from different scopes never share a key.
	Scope string
}

// String generates a deterministic cache key string.
//
// Example:
//
//	market:Crystal:5729
func (k Key) String() string {
	return fmt.Sprintf("market:%s:%d", k.Scope, k.ItemID)
}
