package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"apparel-pos/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrVariantNotFound = errors.New("variant not found")
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteVariant(ctx context.Context, productID uuid.UUID, size string, mrp float64) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, category string) ([]*domain.Product, error)
	ZeroVariantQuantities(ctx context.Context, productID uuid.UUID) error
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create inserts a product and its variant rows in one transaction.
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO products (id, name, category, sku, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = tx.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Category,
		product.SKU,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	if err := insertVariants(ctx, tx, product.ID, product.Variants); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit product create: %w", err)
	}
	return nil
}

// Update overwrites name, category and sku and replaces the variant list
// wholesale. Callers must resend the complete variant list; partial lists
// drop the missing variants.
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE products
		SET name = $2, category = $3, sku = $4, updated_at = $5
		WHERE id = $1
	`
	result, err := tx.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Category,
		product.SKU,
		product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM product_variants WHERE product_id = $1`, product.ID); err != nil {
		return fmt.Errorf("failed to clear variants: %w", err)
	}
	if err := insertVariants(ctx, tx, product.ID, product.Variants); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit product update: %w", err)
	}
	return nil
}

// Delete removes a product. Variant rows cascade at the schema level;
// movement cleanup is the caller's concern.
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// DeleteVariant removes a single variant matched by (size, mrp) and the
// movement entries carrying the same signature. Movements left without any
// entries are removed as well so history never shows empty records.
func (r *productRepository) DeleteVariant(ctx context.Context, productID uuid.UUID, size string, mrp float64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(
		ctx,
		`DELETE FROM product_variants WHERE product_id = $1 AND size = $2 AND mrp = $3`,
		productID, size, mrp,
	)
	if err != nil {
		return fmt.Errorf("failed to delete variant: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrVariantNotFound
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM stock_movement_entries e
		USING stock_movements m
		WHERE e.movement_id = m.id AND m.product_id = $1 AND e.size = $2 AND e.mrp = $3
	`, productID, size, mrp)
	if err != nil {
		return fmt.Errorf("failed to delete variant movement entries: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM stock_movements m
		WHERE m.product_id = $1
		  AND NOT EXISTS (SELECT 1 FROM stock_movement_entries e WHERE e.movement_id = m.id)
	`, productID)
	if err != nil {
		return fmt.Errorf("failed to prune empty movements: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit variant delete: %w", err)
	}
	return nil
}

// FindByID retrieves a product with its variants in catalog order.
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `
		SELECT id, name, category, sku, created_at, updated_at
		FROM products
		WHERE id = $1
	`

	product := &domain.Product{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&product.ID,
		&product.Name,
		&product.Category,
		&product.SKU,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	variants, err := r.variantsFor(ctx, id)
	if err != nil {
		return nil, err
	}
	product.Variants = variants

	return product, nil
}

// List retrieves all products, optionally filtered by exact category match.
// An empty category means no filter.
func (r *productRepository) List(ctx context.Context, category string) ([]*domain.Product, error) {
	query := `
		SELECT id, name, category, sku, created_at, updated_at
		FROM products
	`
	args := []interface{}{}
	if category != "" {
		query += ` WHERE category = $1`
		args = append(args, category)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product := &domain.Product{}
		err := rows.Scan(
			&product.ID,
			&product.Name,
			&product.Category,
			&product.SKU,
			&product.CreatedAt,
			&product.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	for _, product := range products {
		variants, err := r.variantsFor(ctx, product.ID)
		if err != nil {
			return nil, err
		}
		product.Variants = variants
	}

	return products, nil
}

// ZeroVariantQuantities resets every cached variant quantity for a product
// to zero. Used by the clear-stock path together with movement deletion.
func (r *productRepository) ZeroVariantQuantities(ctx context.Context, productID uuid.UUID) error {
	_, err := r.db.ExecContext(
		ctx,
		`UPDATE product_variants SET quantity = 0 WHERE product_id = $1`,
		productID,
	)
	if err != nil {
		return fmt.Errorf("failed to zero variant quantities: %w", err)
	}
	return nil
}

func (r *productRepository) variantsFor(ctx context.Context, productID uuid.UUID) ([]domain.Variant, error) {
	query := `
		SELECT id, size, mrp, quantity
		FROM product_variants
		WHERE product_id = $1
		ORDER BY position ASC
	`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list variants: %w", err)
	}
	defer rows.Close()

	variants := []domain.Variant{}
	for rows.Next() {
		variant := domain.Variant{}
		if err := rows.Scan(&variant.ID, &variant.Size, &variant.MRP, &variant.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan variant: %w", err)
		}
		variants = append(variants, variant)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating variants: %w", err)
	}

	return variants, nil
}

func insertVariants(ctx context.Context, tx *sql.Tx, productID uuid.UUID, variants []domain.Variant) error {
	query := `
		INSERT INTO product_variants (id, product_id, size, mrp, quantity, position)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for i, variant := range variants {
		id := variant.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		if _, err := tx.ExecContext(ctx, query, id, productID, variant.Size, variant.MRP, variant.Quantity, i); err != nil {
			return fmt.Errorf("failed to insert variant %q: %w", variant.Size, err)
		}
	}
	return nil
}
