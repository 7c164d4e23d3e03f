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
	ErrInsufficientStock = errors.New("not enough stock")
)

// MovementRepository defines the interface for the stock movement ledger.
// Every write path keeps the cached product_variants.quantity column in the
// same transaction as the movement insert, so the cache can never drift from
// the ledger within a committed state.
type MovementRepository interface {
	// AddStock appends a "stock in" movement and increments the cached
	// variant quantity atomically.
	AddStock(ctx context.Context, movement *domain.StockMovement) error

	// RecordSale appends a "stock out" movement for a single size using a
	// conditional decrement: the cached quantity is only reduced when it is
	// at least the requested quantity, otherwise ErrInsufficientStock is
	// returned and nothing is written. The variant's MRP is captured on the
	// movement entry for later revenue calculations.
	RecordSale(ctx context.Context, productID uuid.UUID, size string, quantity int) (*domain.StockMovement, error)

	List(ctx context.Context) ([]domain.StockMovement, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]domain.StockMovement, error)
	DeleteByProduct(ctx context.Context, productID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type movementRepository struct {
	db *sql.DB
}

// NewMovementRepository creates a new instance of MovementRepository
func NewMovementRepository(db *sql.DB) MovementRepository {
	return &movementRepository{db: db}
}

// AddStock inserts the movement, its entries, and applies each entry's
// signed quantity to the cached variant counter in one transaction.
func (r *movementRepository) AddStock(ctx context.Context, movement *domain.StockMovement) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertMovement(ctx, tx, movement); err != nil {
		return err
	}

	for _, entry := range movement.Entries {
		result, err := tx.ExecContext(ctx, `
			UPDATE product_variants
			SET quantity = quantity + $3
			WHERE product_id = $1 AND size = $2
		`, movement.ProductID, entry.Size, entry.Quantity)
		if err != nil {
			return fmt.Errorf("failed to apply stock entry: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return ErrVariantNotFound
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit stock entry: %w", err)
	}
	return nil
}

// RecordSale performs the decrement-if-sufficient write. The WHERE guard on
// the cached quantity is what closes the concurrent check-then-act race: two
// competing sales serialize on the row lock and the loser sees the reduced
// quantity.
func (r *movementRepository) RecordSale(ctx context.Context, productID uuid.UUID, size string, quantity int) (*domain.StockMovement, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var mrp float64
	err = tx.QueryRowContext(ctx, `
		UPDATE product_variants
		SET quantity = quantity - $3
		WHERE product_id = $1 AND size = $2 AND quantity >= $3
		RETURNING mrp
	`, productID, size, quantity).Scan(&mrp)
	if err != nil {
		if err == sql.ErrNoRows {
			// Distinguish "variant missing" from "not enough stock".
			var exists bool
			checkErr := tx.QueryRowContext(ctx, `
				SELECT EXISTS (SELECT 1 FROM product_variants WHERE product_id = $1 AND size = $2)
			`, productID, size).Scan(&exists)
			if checkErr != nil {
				return nil, fmt.Errorf("failed to check variant: %w", checkErr)
			}
			if !exists {
				return nil, ErrVariantNotFound
			}
			return nil, ErrInsufficientStock
		}
		return nil, fmt.Errorf("failed to decrement stock: %w", err)
	}

	movement := &domain.StockMovement{
		ID:        uuid.New(),
		ProductID: productID,
		Status:    domain.StatusStockOut,
		Entries: []domain.MovementEntry{
			{ID: uuid.New(), Size: size, Quantity: -quantity, MRP: mrp},
		},
	}
	if err := insertMovement(ctx, tx, movement); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit sale: %w", err)
	}
	return movement, nil
}

// List returns every movement in reverse-chronological order with its
// entries and an embedded product summary. Movements whose product has been
// deleted keep their raw product id and a nil summary.
func (r *movementRepository) List(ctx context.Context) ([]domain.StockMovement, error) {
	return r.list(ctx, uuid.Nil)
}

// ListByProduct returns the movements of a single product, newest first.
func (r *movementRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]domain.StockMovement, error) {
	return r.list(ctx, productID)
}

func (r *movementRepository) list(ctx context.Context, productID uuid.UUID) ([]domain.StockMovement, error) {
	query := `
		SELECT m.id, m.product_id, m.status, m.notes, m.recorded_at,
		       e.id, e.size, e.quantity, e.mrp,
		       p.id, p.name, p.category
		FROM stock_movements m
		JOIN stock_movement_entries e ON e.movement_id = m.id
		LEFT JOIN products p ON p.id = m.product_id
	`
	args := []interface{}{}
	if productID != uuid.Nil {
		query += ` WHERE m.product_id = $1`
		args = append(args, productID)
	}
	query += ` ORDER BY m.recorded_at DESC, m.id, e.id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}
	defer rows.Close()

	movements := []domain.StockMovement{}
	index := map[uuid.UUID]int{}

	for rows.Next() {
		var (
			m     domain.StockMovement
			e     domain.MovementEntry
			notes sql.NullString
			pID   uuid.NullUUID
			pName sql.NullString
			pCat  sql.NullString
		)
		err := rows.Scan(
			&m.ID, &m.ProductID, &m.Status, &notes, &m.RecordedAt,
			&e.ID, &e.Size, &e.Quantity, &e.MRP,
			&pID, &pName, &pCat,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan movement: %w", err)
		}
		m.Notes = notes.String

		pos, seen := index[m.ID]
		if !seen {
			if pID.Valid {
				m.Product = &domain.ProductSummary{
					ID:       pID.UUID,
					Name:     pName.String,
					Category: pCat.String,
				}
			}
			m.Entries = []domain.MovementEntry{e}
			index[m.ID] = len(movements)
			movements = append(movements, m)
			continue
		}
		movements[pos].Entries = append(movements[pos].Entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating movements: %w", err)
	}

	return movements, nil
}

// DeleteByProduct removes every movement of a product and returns the count.
func (r *movementRepository) DeleteByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM stock_movements WHERE product_id = $1`, productID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete movements: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// Delete removes a single movement by id.
func (r *movementRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM stock_movements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete movement: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return errors.New("movement not found")
	}
	return nil
}

func insertMovement(ctx context.Context, tx *sql.Tx, movement *domain.StockMovement) error {
	query := `
		INSERT INTO stock_movements (id, product_id, status, notes, recorded_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()))
		RETURNING recorded_at
	`
	var recordedAt interface{}
	if !movement.RecordedAt.IsZero() {
		recordedAt = movement.RecordedAt
	}
	err := tx.QueryRowContext(
		ctx,
		query,
		movement.ID,
		movement.ProductID,
		movement.Status,
		movement.Notes,
		recordedAt,
	).Scan(&movement.RecordedAt)
	if err != nil {
		return fmt.Errorf("failed to insert movement: %w", err)
	}

	entryQuery := `
		INSERT INTO stock_movement_entries (id, movement_id, size, quantity, mrp)
		VALUES ($1, $2, $3, $4, $5)
	`
	for i := range movement.Entries {
		entry := &movement.Entries[i]
		if entry.ID == uuid.Nil {
			entry.ID = uuid.New()
		}
		if _, err := tx.ExecContext(ctx, entryQuery, entry.ID, movement.ID, entry.Size, entry.Quantity, entry.MRP); err != nil {
			return fmt.Errorf("failed to insert movement entry: %w", err)
		}
	}
	return nil
}
