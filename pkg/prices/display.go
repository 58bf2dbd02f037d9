package prices

import (
	"fmt"
	"strconv"
	"time"
)

// CardData is a display-ready price summary for a UI card. All fields are
// preformatted strings; the struct carries no behavior.
type CardData struct {
	ItemID    int64
	ItemName  string
	Price     string
	Scope     string
	Age       string
	Available bool
}

// FormatGil renders an integer price with thousands separators and the
// currency suffix, e.g. 1234567 -> "1,234,567 gil".
func FormatGil(amount int64) string {
	digits := strconv.FormatInt(amount, 10)
	negative := false
	if digits[0] == '-' {
		negative = true
		digits = digits[1:]
	}

	var out []byte
	for i, d := range []byte(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, d)
	}

	if negative {
		return "-" + string(out) + " gil"
	}
	return string(out) + " gil"
}

// Age renders how stale a record is relative to now, in the coarsest useful
// unit.
func Age(record Record, now time.Time) string {
	age := now.Sub(record.LastUpdate)
	switch {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(age.Hours()/24))
	}
}

// Card assembles the display structure for one item. A nil record produces
// an unavailable card with placeholder text.
func Card(item Item, record *Record, now time.Time) CardData {
	if record == nil {
		return CardData{
			ItemID:    item.ID,
			ItemName:  item.Name,
			Price:     "no listings",
			Available: false,
		}
	}

	return CardData{
		ItemID:    item.ID,
		ItemName:  item.Name,
		Price:     FormatGil(record.CurrentMinPrice),
		Scope:     record.Scope,
		Age:       Age(*record, now),
		Available: true,
	}
}
