package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"apparel-pos/internal/domain"
	"apparel-pos/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrDuplicateSize  = errors.New("variant sizes must be unique within a product")
	ErrInvalidVariant = errors.New("each variant must have a size and a non-negative mrp")
)

// Category filter sentinels treated as "no filter".
const (
	filterAll           = "All"
	filterAllCategories = "All Categories"
)

// ProductService defines the business logic over the product registry.
type ProductService interface {
	Create(ctx context.Context, name, category, sku string, variants []domain.Variant) (*domain.Product, error)
	Update(ctx context.Context, id uuid.UUID, name, category, sku string, variants []domain.Variant) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteVariant(ctx context.Context, id uuid.UUID, size string, mrp float64) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, category string) ([]*domain.Product, error)
}

type productService struct {
	products  repository.ProductRepository
	movements repository.MovementRepository
}

// NewProductService creates a new instance of ProductService
func NewProductService(products repository.ProductRepository, movements repository.MovementRepository) ProductService {
	return &productService{products: products, movements: movements}
}

// Create registers a product. When no variants are supplied, one
// zero-quantity variant per catalog size of the category is generated, so a
// new "Bras" product starts with slots 28 through 44.
func (s *productService) Create(ctx context.Context, name, category, sku string, variants []domain.Variant) (*domain.Product, error) {
	if len(variants) == 0 {
		variants = domain.DefaultVariants(category)
	}
	if err := validateVariants(variants); err != nil {
		return nil, err
	}

	now := time.Now()
	product := &domain.Product{
		ID:        uuid.New(),
		Name:      name,
		Category:  category,
		SKU:       sku,
		Variants:  variants,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	// Re-read so variant ids assigned by the repository are present.
	return s.products.FindByID(ctx, product.ID)
}

// Update replaces the product's fields and its variant list wholesale. The
// caller must resend every variant it wants to keep.
func (s *productService) Update(ctx context.Context, id uuid.UUID, name, category, sku string, variants []domain.Variant) (*domain.Product, error) {
	if err := validateVariants(variants); err != nil {
		return nil, err
	}

	existing, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	existing.Name = name
	existing.Category = category
	existing.SKU = sku
	existing.Variants = variants
	existing.UpdatedAt = time.Now()

	if err := s.products.Update(ctx, existing); err != nil {
		return nil, err
	}

	return s.products.FindByID(ctx, id)
}

// Delete removes the product permanently together with its movement
// history. The history is deleted first so a failure midway leaves a
// product without movements, never movements without a reachable product.
func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.products.FindByID(ctx, id); err != nil {
		return err
	}
	if _, err := s.movements.DeleteByProduct(ctx, id); err != nil {
		return err
	}
	return s.products.Delete(ctx, id)
}

// DeleteVariant removes one variant matched by its (size, mrp) signature
// along with the movement entries recorded against that signature.
func (s *productService) DeleteVariant(ctx context.Context, id uuid.UUID, size string, mrp float64) error {
	if _, err := s.products.FindByID(ctx, id); err != nil {
		return err
	}
	return s.products.DeleteVariant(ctx, id, size, mrp)
}

// Get retrieves one product by id.
func (s *productService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.products.FindByID(ctx, id)
}

// List returns all products, optionally filtered by category. The "All" and
// "All Categories" sentinels used by clients mean no filter.
func (s *productService) List(ctx context.Context, category string) ([]*domain.Product, error) {
	if category == filterAll || category == filterAllCategories {
		category = ""
	}
	return s.products.List(ctx, category)
}

func validateVariants(variants []domain.Variant) error {
	seen := make(map[string]bool, len(variants))
	for _, v := range variants {
		if v.Size == "" || v.MRP < 0 {
			return ErrInvalidVariant
		}
		if seen[v.Size] {
			return ErrDuplicateSize
		}
		seen[v.Size] = true
	}
	return nil
}
