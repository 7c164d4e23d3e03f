package repository

import (
	"context"
	"errors"
	"testing"

	"apparel-pos/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func addStock(t *testing.T, repo MovementRepository, productID uuid.UUID, size string, quantity int, mrp float64) {
	t.Helper()
	err := repo.AddStock(context.Background(), &domain.StockMovement{
		ID:        uuid.New(),
		ProductID: productID,
		Status:    domain.StatusStockIn,
		Entries: []domain.MovementEntry{
			{Size: size, Quantity: quantity, MRP: mrp},
		},
	})
	if err != nil {
		t.Fatalf("add stock failed: %v", err)
	}
}

func cachedQuantity(t *testing.T, productID uuid.UUID, size string) int {
	t.Helper()
	var quantity int
	err := testDB.QueryRow(
		`SELECT quantity FROM product_variants WHERE product_id = $1 AND size = $2`,
		productID, size,
	).Scan(&quantity)
	if err != nil {
		t.Fatalf("failed to read cached quantity: %v", err)
	}
	return quantity
}

func TestRecordSaleDecrementsExactlyToZero(t *testing.T) {
	products := NewProductRepository(testDB)
	movements := NewMovementRepository(testDB)
	ctx := context.Background()

	product := newStoredProduct(t, products, domain.CategoryBras, []domain.Variant{{Size: "34", MRP: 499}})
	defer products.Delete(ctx, product.ID)
	defer movements.DeleteByProduct(ctx, product.ID)

	addStock(t, movements, product.ID, "34", 7, 499)

	movement, err := movements.RecordSale(ctx, product.ID, "34", 7)
	if err != nil {
		t.Fatalf("sale of exact on-hand quantity must succeed: %v", err)
	}
	if movement.Status != domain.StatusStockOut {
		t.Errorf("expected stock out status, got %q", movement.Status)
	}
	if len(movement.Entries) != 1 || movement.Entries[0].Quantity != -7 {
		t.Errorf("expected one entry of -7, got %v", movement.Entries)
	}
	if movement.Entries[0].MRP != 499 {
		t.Errorf("expected variant mrp captured on the entry, got %v", movement.Entries[0].MRP)
	}

	if q := cachedQuantity(t, product.ID, "34"); q != 0 {
		t.Errorf("expected cached quantity 0 after exact sale, got %d", q)
	}
}

func TestRecordSaleInsufficientStockWritesNothing(t *testing.T) {
	products := NewProductRepository(testDB)
	movements := NewMovementRepository(testDB)
	ctx := context.Background()

	product := newStoredProduct(t, products, domain.CategoryBras, []domain.Variant{{Size: "34", MRP: 499}})
	defer products.Delete(ctx, product.ID)
	defer movements.DeleteByProduct(ctx, product.ID)

	addStock(t, movements, product.ID, "34", 3, 499)

	_, err := movements.RecordSale(ctx, product.ID, "34", 4)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	if q := cachedQuantity(t, product.ID, "34"); q != 3 {
		t.Errorf("rejected sale must not change cached quantity, got %d", q)
	}

	history, err := movements.ListByProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("rejected sale must not append to the ledger, got %d movements", len(history))
	}
}

func TestRecordSaleUnknownVariant(t *testing.T) {
	products := NewProductRepository(testDB)
	movements := NewMovementRepository(testDB)
	ctx := context.Background()

	product := newStoredProduct(t, products, domain.CategoryBras, []domain.Variant{{Size: "34", MRP: 499}})
	defer products.Delete(ctx, product.ID)

	_, err := movements.RecordSale(ctx, product.ID, "99", 1)
	if !errors.Is(err, ErrVariantNotFound) {
		t.Fatalf("expected ErrVariantNotFound, got %v", err)
	}
}

func TestAddStockUnknownVariantRollsBack(t *testing.T) {
	products := NewProductRepository(testDB)
	movements := NewMovementRepository(testDB)
	ctx := context.Background()

	product := newStoredProduct(t, products, domain.CategoryBras, []domain.Variant{{Size: "34", MRP: 499}})
	defer products.Delete(ctx, product.ID)

	err := movements.AddStock(ctx, &domain.StockMovement{
		ID:        uuid.New(),
		ProductID: product.ID,
		Status:    domain.StatusStockIn,
		Entries: []domain.MovementEntry{
			{Size: "34", Quantity: 5, MRP: 499},
			{Size: "99", Quantity: 5, MRP: 499},
		},
	})
	if !errors.Is(err, ErrVariantNotFound) {
		t.Fatalf("expected ErrVariantNotFound, got %v", err)
	}

	// The whole movement rolls back, including the valid first entry.
	if q := cachedQuantity(t, product.ID, "34"); q != 0 {
		t.Errorf("expected quantity unchanged after rollback, got %d", q)
	}
	history, err := movements.ListByProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("expected no ledger rows after rollback, got %d", len(history))
	}
}

func TestListKeepsDanglingMovements(t *testing.T) {
	products := NewProductRepository(testDB)
	movements := NewMovementRepository(testDB)
	ctx := context.Background()

	product := newStoredProduct(t, products, domain.CategoryBras, []domain.Variant{{Size: "34", MRP: 499}})
	defer movements.DeleteByProduct(ctx, product.ID)

	addStock(t, movements, product.ID, "34", 5, 499)

	if err := products.Delete(ctx, product.ID); err != nil {
		t.Fatalf("delete product failed: %v", err)
	}

	history, err := movements.ListByProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected the movement to survive product deletion, got %d", len(history))
	}
	if history[0].Product != nil {
		t.Error("expected nil product summary for a deleted product")
	}
	if history[0].ProductID != product.ID {
		t.Error("expected the raw product id to be preserved")
	}
}

func TestListEmbedsProductSummary(t *testing.T) {
	products := NewProductRepository(testDB)
	movements := NewMovementRepository(testDB)
	ctx := context.Background()

	product := newStoredProduct(t, products, domain.CategoryPanties, []domain.Variant{{Size: "M", MRP: 199}})
	defer products.Delete(ctx, product.ID)
	defer movements.DeleteByProduct(ctx, product.ID)

	addStock(t, movements, product.ID, "M", 10, 199)

	history, err := movements.ListByProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 movement, got %d", len(history))
	}
	summary := history[0].Product
	if summary == nil || summary.Name != product.Name || summary.Category != domain.CategoryPanties {
		t.Errorf("unexpected product summary %+v", summary)
	}
}

func TestDeleteByProductReturnsCount(t *testing.T) {
	products := NewProductRepository(testDB)
	movements := NewMovementRepository(testDB)
	ctx := context.Background()

	product := newStoredProduct(t, products, domain.CategoryBras, []domain.Variant{{Size: "34", MRP: 499}})
	defer products.Delete(ctx, product.ID)

	addStock(t, movements, product.ID, "34", 5, 499)
	addStock(t, movements, product.ID, "34", 3, 499)

	deleted, err := movements.DeleteByProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("delete by product failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 deleted movements, got %d", deleted)
	}
}

func TestProperty_CachedQuantityTracksLedgerSum(t *testing.T) {
	products := NewProductRepository(testDB)
	movements := NewMovementRepository(testDB)
	ctx := context.Background()

	properties := gopter.NewProperties(nil)

	properties.Property("after any mix of stock-ins and sales, cache equals ledger sum", prop.ForAll(
		func(stockIns []int, saleQuantities []int) bool {
			product := &domain.Product{
				ID:       uuid.New(),
				Name:     "Ledger Bra",
				Category: domain.CategoryBras,
				Variants: []domain.Variant{{Size: "34", MRP: 499}},
			}
			if err := products.Create(ctx, product); err != nil {
				t.Logf("create failed: %v", err)
				return false
			}
			defer products.Delete(ctx, product.ID)
			defer movements.DeleteByProduct(ctx, product.ID)

			expected := 0
			for _, q := range stockIns {
				err := movements.AddStock(ctx, &domain.StockMovement{
					ID:        uuid.New(),
					ProductID: product.ID,
					Status:    domain.StatusStockIn,
					Entries:   []domain.MovementEntry{{Size: "34", Quantity: q, MRP: 499}},
				})
				if err != nil {
					t.Logf("add stock failed: %v", err)
					return false
				}
				expected += q
			}

			for _, q := range saleQuantities {
				_, err := movements.RecordSale(ctx, product.ID, "34", q)
				switch {
				case err == nil:
					expected -= q
				case errors.Is(err, ErrInsufficientStock):
					// Rejected sales leave both cache and ledger untouched.
				default:
					t.Logf("sale failed: %v", err)
					return false
				}
			}

			if cached := cachedQuantity(t, product.ID, "34"); cached != expected {
				t.Logf("cache %d diverged from expected %d", cached, expected)
				return false
			}

			history, err := movements.ListByProduct(ctx, product.ID)
			if err != nil {
				t.Logf("list failed: %v", err)
				return false
			}
			ledgerSum := 0
			for _, m := range history {
				for _, e := range m.Entries {
					ledgerSum += e.Quantity
				}
			}
			return ledgerSum == expected
		},
		gen.SliceOfN(3, gen.IntRange(1, 20)),
		gen.SliceOfN(3, gen.IntRange(1, 25)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
