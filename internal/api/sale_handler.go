package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/shop-api/internal/api/shared"
	"github.com/phrazzld/shop-api/internal/platform/logger"
	"github.com/phrazzld/shop-api/internal/service/sale"
)

// SaleHandler handles the /sales routes.
type SaleHandler struct {
	saleService sale.Service
	logger      *slog.Logger
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(saleService sale.Service, logger *slog.Logger) *SaleHandler {
	if saleService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("saleService cannot be nil for SaleHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &SaleHandler{
		saleService: saleService,
		logger:      logger.With(slog.String("component", "sale_handler")),
	}
}

// Purchase handles POST /sales/purchase requests.
func (h *SaleHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	p, ok := requirePrincipal(w, r, log)
	if !ok {
		return
	}

	var req PurchaseRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	created, err := h.saleService.ProcessSale(r.Context(), p, sale.PurchaseRequest{
		CustomerID: req.CustomerID,
		ProductID:  req.ProductID,
		Quantity:   req.Quantity,
		TotalPrice: req.TotalPrice,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to process sale")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, saleToResponse(created))
}

// ListProducts handles GET /sales/products requests.
func (h *SaleHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	p, ok := requirePrincipal(w, r, log)
	if !ok {
		return
	}

	products, err := h.saleService.ListProducts(r.Context(), p)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list products")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, productsToSummary(products))
}

// GetProduct handles GET /sales/products/{id} requests.
func (h *SaleHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	p, productID, ok := handlePrincipalAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	product, err := h.saleService.GetProduct(r.Context(), p, productID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get product")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, productToResponse(product))
}

// History handles GET /sales/history/{customer_id} requests.
func (h *SaleHandler) History(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	p, customerID, ok := handlePrincipalAndPathUUID(w, r, "customer_id", log)
	if !ok {
		return
	}

	sales, err := h.saleService.History(r.Context(), p, customerID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get sales history")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, salesToResponse(sales))
}

// GetSale handles GET /sales/{id} requests.
func (h *SaleHandler) GetSale(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	p, saleID, ok := handlePrincipalAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	found, err := h.saleService.GetSale(r.Context(), p, saleID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get sale")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, saleToResponse(found))
}
