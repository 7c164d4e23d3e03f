package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"apparel-pos/internal/cache"
	"apparel-pos/internal/domain"
	"apparel-pos/internal/ledger"
	"apparel-pos/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInsufficientStock = errors.New("not enough stock")
	ErrEmptyEntries      = errors.New("at least one stock entry is required")
	ErrInvalidQuantity   = errors.New("quantity must be a positive integer")
)

const (
	dashboardCacheKey = "dashboard:stats"
	dashboardCacheTTL = time.Minute
)

// StockEntryInput is one inbound stock line for a size.
type StockEntryInput struct {
	Size     string
	Quantity int
	MRP      *float64
}

// SaleInput is one sold line for a size.
type SaleInput struct {
	Size     string
	Quantity int
}

// DashboardStats is the aggregate view served to the dashboard.
type DashboardStats struct {
	TotalStock      int     `json:"totalStock"`
	TotalStockValue float64 `json:"totalStockValue"`
	LowStockCount   int     `json:"lowStockCount"`
	TotalSalesValue float64 `json:"totalSalesValue"`
}

// MonthlySales is the current-calendar-month sales summary.
type MonthlySales struct {
	TotalSales float64 `json:"totalSales"`
	TotalItems int     `json:"totalItems"`
}

// StockService defines the business logic over the stock movement ledger.
type StockService interface {
	RecordStockIn(ctx context.Context, productID uuid.UUID, entries []StockEntryInput, notes string) error
	RecordSale(ctx context.Context, productID uuid.UUID, sale []SaleInput) error
	ListMovements(ctx context.Context) ([]domain.StockMovement, error)
	ClearStock(ctx context.Context, productID uuid.UUID) error
	DeleteProductStock(ctx context.Context, productID uuid.UUID) error
	Dashboard(ctx context.Context) (*DashboardStats, error)
	MonthlySales(ctx context.Context) (*MonthlySales, error)
}

type stockService struct {
	products  repository.ProductRepository
	movements repository.MovementRepository
	cache     cache.Client
	logger    *zap.Logger
	now       func() time.Time
}

// NewStockService creates a new instance of StockService. The cache client
// may be nil, in which case every dashboard read recomputes from the ledger.
func NewStockService(
	products repository.ProductRepository,
	movements repository.MovementRepository,
	cacheClient cache.Client,
	logger *zap.Logger,
) StockService {
	return &stockService{
		products:  products,
		movements: movements,
		cache:     cacheClient,
		logger:    logger,
		now:       time.Now,
	}
}

// RecordStockIn appends one "stock in" movement per entry and bumps the
// cached variant quantities in the same transaction. The entry MRP defaults
// to the variant's registered MRP when not supplied.
func (s *stockService) RecordStockIn(ctx context.Context, productID uuid.UUID, entries []StockEntryInput, notes string) error {
	if len(entries) == 0 {
		return ErrEmptyEntries
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.Quantity <= 0 {
			return ErrInvalidQuantity
		}
		variant, ok := product.VariantBySize(entry.Size)
		if !ok {
			return repository.ErrVariantNotFound
		}

		mrp := variant.MRP
		if entry.MRP != nil {
			mrp = *entry.MRP
		}

		movement := &domain.StockMovement{
			ID:        uuid.New(),
			ProductID: productID,
			Status:    domain.StatusStockIn,
			Notes:     notes,
			Entries: []domain.MovementEntry{
				{Size: entry.Size, Quantity: entry.Quantity, MRP: mrp},
			},
		}
		if err := s.movements.AddStock(ctx, movement); err != nil {
			return err
		}
	}

	s.invalidateDashboard(ctx)
	return nil
}

// RecordSale records each sold line through the repository's conditional
// decrement. A line that exceeds on-hand fails with ErrInsufficientStock and
// writes nothing for that line; earlier lines of the same request remain
// recorded, matching the per-entry behavior of the write path it replaces.
func (s *stockService) RecordSale(ctx context.Context, productID uuid.UUID, sale []SaleInput) error {
	if len(sale) == 0 {
		return ErrEmptyEntries
	}

	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return err
	}

	for _, line := range sale {
		if line.Quantity <= 0 {
			return ErrInvalidQuantity
		}
		_, err := s.movements.RecordSale(ctx, productID, line.Size, line.Quantity)
		if err != nil {
			if errors.Is(err, repository.ErrInsufficientStock) {
				return ErrInsufficientStock
			}
			return err
		}
	}

	s.invalidateDashboard(ctx)
	return nil
}

// ListMovements returns the full movement history, newest first, with the
// owning product embedded where it still exists.
func (s *stockService) ListMovements(ctx context.Context) ([]domain.StockMovement, error) {
	return s.movements.List(ctx)
}

// ClearStock deletes the product's movement history and zeroes its cached
// variant quantities.
func (s *stockService) ClearStock(ctx context.Context, productID uuid.UUID) error {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return err
	}

	deleted, err := s.movements.DeleteByProduct(ctx, productID)
	if err != nil {
		return err
	}
	if err := s.products.ZeroVariantQuantities(ctx, productID); err != nil {
		return err
	}

	s.logger.Info("Cleared stock for product",
		zap.String("product_id", productID.String()),
		zap.Int64("movements_deleted", deleted),
	)
	s.invalidateDashboard(ctx)
	return nil
}

// DeleteProductStock permanently deletes the product together with all its
// movements.
func (s *stockService) DeleteProductStock(ctx context.Context, productID uuid.UUID) error {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return err
	}

	if _, err := s.movements.DeleteByProduct(ctx, productID); err != nil {
		return err
	}
	if err := s.products.Delete(ctx, productID); err != nil {
		return err
	}

	s.invalidateDashboard(ctx)
	return nil
}

// Dashboard computes the aggregate stock view from the ledger, read-through
// cached for a minute. The ledger, not the cached variant counters, is the
// source of truth here.
func (s *stockService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, dashboardCacheKey); err == nil {
			stats := &DashboardStats{}
			if err := json.Unmarshal([]byte(raw), stats); err == nil {
				return stats, nil
			}
			// Unreadable payload: fall through and recompute.
		}
	}

	stats, err := s.computeDashboard(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(stats); err == nil {
			if err := s.cache.Set(ctx, dashboardCacheKey, string(raw), dashboardCacheTTL); err != nil {
				s.logger.Warn("Failed to cache dashboard stats", zap.Error(err))
			}
		}
	}
	return stats, nil
}

func (s *stockService) computeDashboard(ctx context.Context) (*DashboardStats, error) {
	products, err := s.products.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	movements, err := s.movements.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load movements: %w", err)
	}

	onHand := ledger.AggregateBySize(movements)

	stats := &DashboardStats{}
	for _, product := range products {
		sizes := onHand[product.ID]
		for _, variant := range product.Variants {
			quantity := sizes[variant.Size]
			if quantity > 0 {
				stats.TotalStock += quantity
				stats.TotalStockValue += float64(quantity) * variant.MRP
			}
			if quantity <= ledger.LowStockThreshold {
				stats.LowStockCount++
			}
		}
	}

	from, to := ledger.MonthWindow(s.now())
	revenue, _ := ledger.PeriodSales(movements, from, to)
	stats.TotalSalesValue = revenue

	return stats, nil
}

// MonthlySales totals revenue and unit count of sales recorded in the
// current calendar month, local time.
func (s *stockService) MonthlySales(ctx context.Context) (*MonthlySales, error) {
	movements, err := s.movements.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load movements: %w", err)
	}

	from, to := ledger.MonthWindow(s.now())
	revenue, units := ledger.PeriodSales(movements, from, to)

	return &MonthlySales{TotalSales: revenue, TotalItems: units}, nil
}

func (s *stockService) invalidateDashboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, dashboardCacheKey); err != nil {
		s.logger.Warn("Failed to invalidate dashboard cache", zap.Error(err))
	}
}
