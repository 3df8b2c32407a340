package billing

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Category classifies a billing line item.
type Category string

const (
	CategoryMedicine  Category = "medicine"
	CategoryTest      Category = "test"
	CategoryProcedure Category = "procedure"
	CategoryRoom      Category = "room"
	CategoryOther     Category = "other"
)

// Categories lists every known category in display order.
var Categories = []Category{CategoryMedicine, CategoryTest, CategoryProcedure, CategoryRoom, CategoryOther}

// IsValid reports whether c is a known category.
func (c Category) IsValid() bool {
	switch c {
	case CategoryMedicine, CategoryTest, CategoryProcedure, CategoryRoom, CategoryOther:
		return true
	default:
		return false
	}
}

// ParseCategory normalizes a category string.
func ParseCategory(value string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(value)))
	if !c.IsValid() {
		return "", ErrInvalidCategory
	}
	return c, nil
}

// Item is a single immutable charge on an admission.
type Item struct {
	ID          string          `json:"id"`
	AdmissionID string          `json:"admission_id"`
	Description string          `json:"description"`
	Category    Category        `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Timestamp   time.Time       `json:"timestamp"`
}

// Validate checks item invariants.
func (i Item) Validate() error {
	if i.AdmissionID == "" {
		return ErrEmptyAdmissionID
	}
	if strings.TrimSpace(i.Description) == "" {
		return ErrEmptyDescription
	}
	if !i.Category.IsValid() {
		return ErrInvalidCategory
	}
	if i.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

// SortItems orders items by timestamp, then id, so listings are stable.
func SortItems(items []Item) {
	sort.SliceStable(items, func(a, b int) bool {
		if !items[a].Timestamp.Equal(items[b].Timestamp) {
			return items[a].Timestamp.Before(items[b].Timestamp)
		}
		return items[a].ID < items[b].ID
	})
}

// Summary is the running total of an admission.
type Summary struct {
	Count    int             `json:"count"`
	Total    decimal.Decimal `json:"total"`
	Currency string          `json:"currency"`
	// MixedCurrency is set when items disagree on currency. Total is then
	// not meaningful.
	MixedCurrency bool `json:"mixed_currency,omitempty"`
}

// Summarize totals items. The currency is taken from the first item.
func Summarize(items []Item) Summary {
	summary := Summary{Total: decimal.Zero}
	for _, item := range items {
		if summary.Currency == "" {
			summary.Currency = item.Currency
		} else if item.Currency != "" && !strings.EqualFold(item.Currency, summary.Currency) {
			summary.MixedCurrency = true
		}
		summary.Total = summary.Total.Add(item.Amount)
		summary.Count++
	}
	return summary
}
