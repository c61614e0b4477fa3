package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/shop-api/internal/api/shared"
	"github.com/phrazzld/shop-api/internal/domain"
	"github.com/phrazzld/shop-api/internal/platform/logger"
	"github.com/phrazzld/shop-api/internal/service/sale"
)

// ProductHandler handles the administrative /api/products routes.
type ProductHandler struct {
	saleService sale.Service
	logger      *slog.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(saleService sale.Service, logger *slog.Logger) *ProductHandler {
	if saleService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("saleService cannot be nil for ProductHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ProductHandler{
		saleService: saleService,
		logger:      logger.With(slog.String("component", "product_handler")),
	}
}

// CreateProduct handles POST /api/products requests.
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	p, ok := requirePrincipal(w, r, log)
	if !ok {
		return
	}

	var req CreateProductRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	product, err := h.saleService.CreateProduct(r.Context(), p, sale.CreateProductRequest{
		Name:        req.Name,
		Category:    domain.ProductCategory(req.Category),
		UnitPrice:   req.Price,
		Description: req.Description,
		Stock:       req.StockCount,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create product")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, productToResponse(product))
}

// RestockProduct handles POST /api/products/{id}/restock requests.
func (h *ProductHandler) RestockProduct(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	p, productID, ok := handlePrincipalAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req RestockRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	product, err := h.saleService.RestockProduct(r.Context(), p, productID, req.Quantity)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to restock product")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, productToResponse(product))
}
