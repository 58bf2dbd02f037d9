package prices

import (
	"testing"
	"time"
)

func TestFormatGil(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		want   string
	}{
		{name: "zero", amount: 0, want: "0 gil"},
		{name: "small", amount: 420, want: "420 gil"},
		{name: "thousands", amount: 5729, want: "5,729 gil"},
		{name: "millions", amount: 1234567, want: "1,234,567 gil"},
		{name: "exact group", amount: 1000, want: "1,000 gil"},
		{name: "negative", amount: -1500, want: "-1,500 gil"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatGil(tt.amount); got != tt.want {
				t.Errorf("FormatGil(%d) = %q, want %q", tt.amount, got, tt.want)
			}
		})
	}
}

func TestAge(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name   string
		update time.Time
		want   string
	}{
		{name: "fresh", update: now.Add(-10 * time.Second), want: "just now"},
		{name: "minutes", update: now.Add(-5 * time.Minute), want: "5m ago"},
		{name: "hours", update: now.Add(-3 * time.Hour), want: "3h ago"},
		{name: "days", update: now.Add(-49 * time.Hour), want: "2d ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := Record{LastUpdate: tt.update}
			if got := Age(record, now); got != tt.want {
				t.Errorf("Age() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCard(t *testing.T) {
	now := time.Now()
	item := Item{ID: 5729, Name: "Ruby Red Dye", Category: CategoryCraftDye}

	t.Run("with record", func(t *testing.T) {
		record := &Record{
			ItemID:          5729,
			CurrentMinPrice: 12000,
			LastUpdate:      now.Add(-2 * time.Minute),
			Scope:           "Crystal",
		}
		card := Card(item, record, now)
		if !card.Available {
			t.Error("Available = false, want true")
		}
		if card.Price != "12,000 gil" {
			t.Errorf("Price = %q, want %q", card.Price, "12,000 gil")
		}
		if card.Scope != "Crystal" || card.Age != "2m ago" {
			t.Errorf("Scope/Age = %q/%q, want Crystal/2m ago", card.Scope, card.Age)
		}
	})

	t.Run("without record", func(t *testing.T) {
		card := Card(item, nil, now)
		if card.Available {
			t.Error("Available = true, want false")
		}
		if card.Price != "no listings" {
			t.Errorf("Price = %q, want %q", card.Price, "no listings")
		}
	})
}

func TestCategoryFilters_Allows(t *testing.T) {
	filters := CategoryFilters{BaseDyes: true, CraftDyes: false, SpecialItems: true}

	tests := []struct {
		category Category
		want     bool
	}{
		{CategoryBaseDye, true},
		{CategoryCraftDye, false},
		{CategorySpecial, true},
		{Category("unknown"), false},
	}

	for _, tt := range tests {
		if got := filters.Allows(tt.category); got != tt.want {
			t.Errorf("Allows(%q) = %v, want %v", tt.category, got, tt.want)
		}
	}
}
