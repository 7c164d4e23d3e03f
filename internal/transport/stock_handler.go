package transport

import (
	"errors"
	"net/http"

	"apparel-pos/internal/middleware"
	"apparel-pos/internal/repository"
	"apparel-pos/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StockEntryPayload is one inbound stock line.
type StockEntryPayload struct {
	Size     string   `json:"size" validate:"required"`
	Quantity int      `json:"quantity" validate:"required,gt=0"`
	MRP      *float64 `json:"mrp,omitempty" validate:"omitempty,gte=0"`
}

// SalePayload is one sold line.
type SalePayload struct {
	Size     string `json:"size" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

// StockEntryRequest records stock in when stockEntries is set, or a sale
// when sale is set. Exactly one of the two must be present.
type StockEntryRequest struct {
	ProductID    string              `json:"productId" validate:"required,uuid"`
	StockEntries []StockEntryPayload `json:"stockEntries,omitempty" validate:"omitempty,dive"`
	Sale         []SalePayload       `json:"sale,omitempty" validate:"omitempty,dive"`
	Notes        string              `json:"notes,omitempty"`
}

// ProductIDRequest carries just a product reference, used by the clear and
// delete endpoints.
type ProductIDRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
}

// StockHandler handles HTTP requests for the stock ledger and its views.
type StockHandler struct {
	stockService service.StockService
	logger       *zap.Logger
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(stockService service.StockService, logger *zap.Logger) *StockHandler {
	return &StockHandler{
		stockService: stockService,
		logger:       logger,
	}
}

// RegisterRoutes registers the stock ledger and dashboard routes
func (h *StockHandler) RegisterRoutes(r chi.Router) {
	r.Route("/stock-entries", func(r chi.Router) {
		r.Get("/", h.ListMovements)
		r.Post("/", h.Record)
		r.Put("/", h.ClearStock)
		r.Delete("/", h.DeleteProductStock)
	})
	r.Get("/dashboard", h.Dashboard)
	r.Get("/sales", h.MonthlySales)
}

// ListMovements returns the full movement history, newest first.
func (h *StockHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	movements, err := h.stockService.ListMovements(r.Context())
	if err != nil {
		h.logger.Error("Failed to list stock movements", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list stock entries")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, movements)
}

// Record handles both stock-in and sale submissions on POST /stock-entries.
func (h *StockHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req StockEntryRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Stock entry validation failed", zap.Error(err))
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if len(req.Sale) > 0 {
		h.recordSale(w, r, productID, req.Sale)
		return
	}

	if len(req.StockEntries) == 0 {
		middleware.RespondWithError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	entries := make([]service.StockEntryInput, 0, len(req.StockEntries))
	for _, e := range req.StockEntries {
		entries = append(entries, service.StockEntryInput{Size: e.Size, Quantity: e.Quantity, MRP: e.MRP})
	}

	if err := h.stockService.RecordStockIn(r.Context(), productID, entries, req.Notes); err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		case errors.Is(err, repository.ErrVariantNotFound):
			middleware.RespondWithError(w, http.StatusBadRequest, "unknown variant size for product")
		case errors.Is(err, service.ErrInvalidQuantity), errors.Is(err, service.ErrEmptyEntries):
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("Failed to record stock entry", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to record stock entry")
		}
		return
	}

	h.logger.Info("Stock recorded",
		zap.String("product_id", productID.String()),
		zap.Int("entries", len(entries)),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, map[string]string{"message": "Success"})
}

func (h *StockHandler) recordSale(w http.ResponseWriter, r *http.Request, productID uuid.UUID, payload []SalePayload) {
	sale := make([]service.SaleInput, 0, len(payload))
	for _, s := range payload {
		sale = append(sale, service.SaleInput{Size: s.Size, Quantity: s.Quantity})
	}

	if err := h.stockService.RecordSale(r.Context(), productID, sale); err != nil {
		switch {
		case errors.Is(err, service.ErrInsufficientStock):
			middleware.RespondWithError(w, http.StatusBadRequest, "Not enough stock!")
		case errors.Is(err, repository.ErrProductNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		case errors.Is(err, repository.ErrVariantNotFound):
			middleware.RespondWithError(w, http.StatusBadRequest, "unknown variant size for product")
		case errors.Is(err, service.ErrInvalidQuantity), errors.Is(err, service.ErrEmptyEntries):
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("Failed to record sale", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to record sale")
		}
		return
	}

	h.logger.Info("Sale recorded",
		zap.String("product_id", productID.String()),
		zap.Int("lines", len(sale)),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, map[string]string{"message": "Sale recorded successfully"})
}

// ClearStock zeroes every variant quantity of a product and wipes its
// movement history.
func (h *StockHandler) ClearStock(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.decodeProductID(w, r)
	if !ok {
		return
	}

	if err := h.stockService.ClearStock(r.Context(), productID); err != nil {
		h.respondStockError(w, err, "failed to clear stock")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message":   "All stock cleared successfully",
		"productId": productID.String(),
	})
}

// DeleteProductStock permanently deletes the product and all its movements.
func (h *StockHandler) DeleteProductStock(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.decodeProductID(w, r)
	if !ok {
		return
	}

	if err := h.stockService.DeleteProductStock(r.Context(), productID); err != nil {
		h.respondStockError(w, err, "failed to delete stock")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Stock entry deleted successfully"})
}

// Dashboard serves the aggregate stock view.
func (h *StockHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stockService.Dashboard(r.Context())
	if err != nil {
		h.logger.Error("Failed to compute dashboard", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to compute dashboard")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, stats)
}

// MonthlySales serves the current-calendar-month sales summary.
func (h *StockHandler) MonthlySales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.stockService.MonthlySales(r.Context())
	if err != nil {
		h.logger.Error("Failed to compute monthly sales", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to compute sales")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, sales)
}

func (h *StockHandler) decodeProductID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	var req ProductIDRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return uuid.Nil, false
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "Product ID is required")
		return uuid.Nil, false
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return uuid.Nil, false
	}
	return productID, true
}

func (h *StockHandler) respondStockError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "Product not found")
	default:
		h.logger.Error(fallback, zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}
