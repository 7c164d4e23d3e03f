// Package ledger folds stock movement records into current stock levels and
// derives the read-side views (stock status, valuation, period sales). All
// functions are pure; addition is commutative, so none of them depend on
// movement ordering.
package ledger

import (
	"time"

	"apparel-pos/internal/domain"

	"github.com/google/uuid"
)

// LowStockThreshold is inclusive: an on-hand quantity of exactly 5 counts
// as low stock.
const LowStockThreshold = 5

// StockStatus classifies an on-hand quantity.
type StockStatus string

const (
	OutOfStock StockStatus = "Out of Stock"
	LowStock   StockStatus = "Low Stock"
	InStock    StockStatus = "In Stock"
)

// Aggregate sums the signed entry quantities of every movement, grouped by
// product id. Movements referencing a deleted product are still included
// under their raw id; collapsing those to "Unknown Product" is a display
// concern, not an aggregation one.
func Aggregate(movements []domain.StockMovement) map[uuid.UUID]int {
	totals := make(map[uuid.UUID]int)
	for _, m := range movements {
		for _, e := range m.Entries {
			totals[m.ProductID] += e.Quantity
		}
	}
	return totals
}

// AggregateBySize groups by (product, size), preserving per-size on-hand
// quantities. Results may be negative; no floor is enforced here.
func AggregateBySize(movements []domain.StockMovement) map[uuid.UUID]map[string]int {
	totals := make(map[uuid.UUID]map[string]int)
	for _, m := range movements {
		sizes, ok := totals[m.ProductID]
		if !ok {
			sizes = make(map[string]int)
			totals[m.ProductID] = sizes
		}
		for _, e := range m.Entries {
			sizes[e.Size] += e.Quantity
		}
	}
	return totals
}

// OnHand returns the aggregated quantity for a single (product, size) pair.
func OnHand(movements []domain.StockMovement, productID uuid.UUID, size string) int {
	total := 0
	for _, m := range movements {
		if m.ProductID != productID {
			continue
		}
		for _, e := range m.Entries {
			if e.Size == size {
				total += e.Quantity
			}
		}
	}
	return total
}

// Status classifies a quantity for display. Negative on-hand is a valid
// stored state (oversold ledger) and is reported as out of stock.
func Status(quantity int) StockStatus {
	switch {
	case quantity <= 0:
		return OutOfStock
	case quantity <= LowStockThreshold:
		return LowStock
	default:
		return InStock
	}
}

// StockValue sums quantity*mrp across variants that are actually on hand.
// Negative cached quantities contribute nothing to value on hand.
func StockValue(variants []domain.Variant) float64 {
	var value float64
	for _, v := range variants {
		if v.Quantity > 0 {
			value += float64(v.Quantity) * v.MRP
		}
	}
	return value
}

// PeriodSales totals the sold units and revenue across negative-quantity
// entries recorded within [from, to] inclusive.
func PeriodSales(movements []domain.StockMovement, from, to time.Time) (revenue float64, units int) {
	for _, m := range movements {
		if m.RecordedAt.Before(from) || m.RecordedAt.After(to) {
			continue
		}
		for _, e := range m.Entries {
			if e.Quantity < 0 {
				units += -e.Quantity
				revenue += float64(-e.Quantity) * e.MRP
			}
		}
	}
	return revenue, units
}

// MonthWindow returns the first and last instants of now's calendar month
// in now's location. This is the canonical dashboard sales period.
func MonthWindow(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end
}
