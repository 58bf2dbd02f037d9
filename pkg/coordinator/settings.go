package coordinator

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/xivdye/market-client/pkg/prices"
	"github.com/xivdye/market-client/pkg/storage"
)

// settingsKey is where coordinator settings live in the injected store.
const settingsKey = "market:settings"

// Settings is the persisted coordinator configuration.
type Settings struct {
	Enabled    bool                   `json:"enabled"`
	Categories prices.CategoryFilters `json:"categories"`
}

// DefaultSettings enables fetching with the default category filters.
func DefaultSettings() Settings {
	return Settings{
		Enabled:    true,
		Categories: prices.DefaultCategoryFilters(),
	}
}

// CategoryFilterPatch is a partial update to the category filters; nil
// fields leave the current value untouched.
type CategoryFilterPatch struct {
	BaseDyes     *bool
	CraftDyes    *bool
	SpecialItems *bool
}

// apply merges the patch into filters.
func (p CategoryFilterPatch) apply(filters prices.CategoryFilters) prices.CategoryFilters {
	if p.BaseDyes != nil {
		filters.BaseDyes = *p.BaseDyes
	}
	if p.CraftDyes != nil {
		filters.CraftDyes = *p.CraftDyes
	}
	if p.SpecialItems != nil {
		filters.SpecialItems = *p.SpecialItems
	}
	return filters
}

// loadSettings reads persisted settings, falling back to defaults when the
// store has none or the stored value no longer decodes.
func loadSettings(ctx context.Context, store storage.Store, logger zerolog.Logger) Settings {
	raw, ok, err := store.Get(ctx, settingsKey)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to load settings, using defaults")
		return DefaultSettings()
	}
	if !ok {
		return DefaultSettings()
	}

	var s Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		logger.Warn().Err(err).Msg("Stored settings undecodable, using defaults")
		return DefaultSettings()
	}
	return s
}

// saveSettings persists settings; failures are logged, not fatal.
func saveSettings(ctx context.Context, store storage.Store, s Settings, logger zerolog.Logger) {
	raw, err := json.Marshal(s)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to encode settings")
		return
	}
	if err := store.Set(ctx, settingsKey, raw); err != nil {
		logger.Warn().Err(err).Msg("Failed to persist settings")
	}
}
