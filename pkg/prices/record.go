// Package prices defines the market price domain model shared by the fetch
// client and the coordinator, plus pure display helpers for UI consumers.
package prices

import "time"

// Record is the best-known market price for one tradeable item.
//
// The upstream aggregated API exposes a single representative listing price
// per query, so average, min, and max currently all carry that one resolved
// figure. A Record is only meaningful for the Scope it was fetched under.
type Record struct {
	ItemID          int64     `json:"item_id"`
	CurrentAverage  int64     `json:"current_average"`
	CurrentMinPrice int64     `json:"current_min_price"`
	CurrentMaxPrice int64     `json:"current_max_price"`
	LastUpdate      time.Time `json:"last_update"`

	// Scope is the market region the price came from, empty if unknown.
	Scope string `json:"scope,omitempty"`
}

// Category classifies tradeable items for fetch filtering.
type Category string

const (
	// CategoryBaseDye covers the standard vendor-obtainable dyes.
	CategoryBaseDye Category = "base_dye"

	// CategoryCraftDye covers craftable dyes.
	CategoryCraftDye Category = "craft_dye"

	// CategorySpecial covers event and cash-shop items.
	CategorySpecial Category = "special"
)

// Item is a tradeable in-game object eligible for price lookup.
type Item struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
}

// CategoryFilters holds the per-category fetch toggles persisted in user
// settings.
type CategoryFilters struct {
	BaseDyes     bool `json:"base_dyes"`
	CraftDyes    bool `json:"craft_dyes"`
	SpecialItems bool `json:"special_items"`
}

// DefaultCategoryFilters enables the dye categories and leaves special items
// off, matching the default settings of the embedding application.
func DefaultCategoryFilters() CategoryFilters {
	return CategoryFilters{
		BaseDyes:     true,
		CraftDyes:    true,
		SpecialItems: false,
	}
}

// Allows reports whether items of category c may be fetched.
// Unknown categories are never fetched.
func (f CategoryFilters) Allows(c Category) bool {
	switch c {
	case CategoryBaseDye:
		return f.BaseDyes
	case CategoryCraftDye:
		return f.CraftDyes
	case CategorySpecial:
		return f.SpecialItems
	default:
		return false
	}
}
