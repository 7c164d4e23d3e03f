package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product represents an item in the catalog together with its size variants.
type Product struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Category  string    `json:"category" db:"category"`
	SKU       string    `json:"sku,omitempty" db:"sku"`
	Variants  []Variant `json:"variants"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Variant is one size configuration of a product. Quantity is a cached
// mirror of the movement ledger sum for (product, size) and is updated in
// the same transaction as every ledger write.
type Variant struct {
	ID       uuid.UUID `json:"id" db:"id"`
	Size     string    `json:"size" db:"size"`
	MRP      float64   `json:"mrp" db:"mrp"`
	Quantity int       `json:"quantity" db:"quantity"`
}

// VariantBySize returns the variant with the given size label, if present.
func (p *Product) VariantBySize(size string) (*Variant, bool) {
	for i := range p.Variants {
		if p.Variants[i].Size == size {
			return &p.Variants[i], true
		}
	}
	return nil, false
}
