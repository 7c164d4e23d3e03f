package transport

import (
	"errors"
	"net/http"

	"apparel-pos/internal/domain"
	"apparel-pos/internal/middleware"
	"apparel-pos/internal/repository"
	"apparel-pos/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// VariantPayload is the wire shape of one size variant.
type VariantPayload struct {
	Size     string  `json:"size" validate:"required"`
	MRP      float64 `json:"mrp" validate:"gte=0"`
	Quantity int     `json:"quantity"`
}

// CreateProductRequest registers a new product. Variants are optional; when
// omitted the size catalog for the category fills them in at quantity zero.
type CreateProductRequest struct {
	Name     string           `json:"name" validate:"required"`
	Category string           `json:"category" validate:"required"`
	SKU      string           `json:"sku"`
	Variants []VariantPayload `json:"variants" validate:"omitempty,dive"`
}

// UpdateProductRequest replaces a product's fields and full variant list.
type UpdateProductRequest struct {
	ID       string           `json:"id" validate:"required,uuid"`
	Name     string           `json:"name" validate:"required"`
	Category string           `json:"category" validate:"required"`
	SKU      string           `json:"sku"`
	Variants []VariantPayload `json:"variants" validate:"required,min=1,dive"`
}

// RemoveVariantPayload identifies a single variant by its (size, mrp)
// signature.
type RemoveVariantPayload struct {
	Size string  `json:"size" validate:"required"`
	MRP  float64 `json:"mrp"`
}

// DeleteProductRequest deletes a whole product, or just one variant when
// removeVariant is present.
type DeleteProductRequest struct {
	ID            string                `json:"id" validate:"required,uuid"`
	RemoveVariant *RemoveVariantPayload `json:"removeVariant,omitempty"`
}

// ProductListResponse wraps the product listing.
type ProductListResponse struct {
	Products []*domain.Product `json:"products"`
}

// ProductHandler handles HTTP requests for the product registry.
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Patch("/", h.Update)
		r.Delete("/", h.Delete)
	})
	r.Get("/categories", h.Categories)
}

// List returns all products, optionally filtered by ?category=.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	products, err := h.productService.List(r.Context(), category)
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ProductListResponse{Products: products})
}

// Create registers a new product.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product create validation failed", zap.Error(err))
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.productService.Create(r.Context(), req.Name, req.Category, req.SKU, toVariants(req.Variants))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidVariant), errors.Is(err, service.ErrDuplicateSize):
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("Failed to create product", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create product")
		}
		return
	}

	h.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("category", product.Category),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// Update replaces a product's fields and variant list.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product update validation failed", zap.Error(err))
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := uuid.Parse(req.ID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.productService.Update(r.Context(), id, req.Name, req.Category, req.SKU, toVariants(req.Variants))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		case errors.Is(err, service.ErrInvalidVariant), errors.Is(err, service.ErrDuplicateSize):
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("Failed to update product", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update product")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Delete removes a whole product, or a single variant in removeVariant mode.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req DeleteProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product delete validation failed", zap.Error(err))
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := uuid.Parse(req.ID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if req.RemoveVariant != nil {
		err = h.productService.DeleteVariant(r.Context(), id, req.RemoveVariant.Size, req.RemoveVariant.MRP)
	} else {
		err = h.productService.Delete(r.Context(), id)
	}
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		case errors.Is(err, repository.ErrVariantNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "variant not found")
		default:
			h.logger.Error("Failed to delete product", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete product")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Product deleted permanently"})
}

// Categories serves the category catalog with its size lists, used by
// clients to render category pickers and size columns.
func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories := domain.Categories()
	sizes := make(map[string][]string, len(categories))
	for _, c := range categories {
		sizes[c] = domain.SizesFor(c)
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
		"sizes":      sizes,
	})
}

func toVariants(payloads []VariantPayload) []domain.Variant {
	variants := make([]domain.Variant, 0, len(payloads))
	for _, p := range payloads {
		variants = append(variants, domain.Variant{Size: p.Size, MRP: p.MRP, Quantity: p.Quantity})
	}
	return variants
}
