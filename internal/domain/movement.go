package domain

import (
	"time"

	"github.com/google/uuid"
)

// Movement status tags, preserved verbatim on the wire.
const (
	StatusStockIn  = "stock in"
	StatusStockOut = "stock out"
)

// StockMovement is an immutable, append-only ledger entry recording a signed
// quantity change for one or more variants of a product. Movements are never
// mutated; they are only deleted through the clear and delete stock paths.
type StockMovement struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	ProductID  uuid.UUID       `json:"product_id" db:"product_id"`
	Entries    []MovementEntry `json:"entries"`
	Status     string          `json:"status" db:"status"`
	Notes      string          `json:"notes,omitempty" db:"notes"`
	RecordedAt time.Time       `json:"recorded_at" db:"recorded_at"`

	// Product is the embedded summary of the owning product for history
	// views. Nil when the product has been deleted out from under the
	// movement; display layers label that case "Unknown Product".
	Product *ProductSummary `json:"product,omitempty"`
}

// MovementEntry carries the signed quantity change for a single size.
// Positive quantity means stock received, negative means stock sold.
type MovementEntry struct {
	ID       uuid.UUID `json:"id" db:"id"`
	Size     string    `json:"size" db:"size"`
	Quantity int       `json:"quantity" db:"quantity"`
	MRP      float64   `json:"mrp" db:"mrp"`
}

// ProductSummary is the trimmed product shape embedded in movement listings.
type ProductSummary struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Category string    `json:"category"`
}
