package domain

// Known product categories.
const (
	CategoryBras      = "Bras"
	CategoryPanties   = "Panties"
	CategoryNightwear = "Nightwear"
	CategoryShapewear = "Shapewear"
	CategoryOther     = "Other"
)

// sizeCatalog maps a category to its canonical ordered size labels. New
// products get one zero-quantity variant per size, and UIs use the same
// lists to render size columns regardless of what a product stocks.
var sizeCatalog = map[string][]string{
	CategoryBras:      {"28", "30", "32", "34", "36", "38", "40", "42", "44"},
	CategoryPanties:   {"S", "M", "L", "XL", "XXL", "3XL", "4XL"},
	CategoryNightwear: {"Free Size"},
	CategoryShapewear: {"S", "M", "L", "XL"},
	CategoryOther:     {"Free Size"},
}

// categoryOrder keeps Categories deterministic.
var categoryOrder = []string{
	CategoryBras,
	CategoryPanties,
	CategoryNightwear,
	CategoryShapewear,
	CategoryOther,
}

// SizesFor returns the canonical ordered size list for a category. Unknown
// categories yield an empty list, never an error.
func SizesFor(category string) []string {
	sizes, ok := sizeCatalog[category]
	if !ok {
		return []string{}
	}
	out := make([]string, len(sizes))
	copy(out, sizes)
	return out
}

// Categories returns all known category names in display order.
func Categories() []string {
	out := make([]string, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// DefaultVariants builds one zero-quantity variant per catalog size for the
// category. The returned slice is empty for unknown categories.
func DefaultVariants(category string) []Variant {
	sizes := SizesFor(category)
	variants := make([]Variant, 0, len(sizes))
	for _, size := range sizes {
		variants = append(variants, Variant{Size: size, MRP: 0, Quantity: 0})
	}
	return variants
}
