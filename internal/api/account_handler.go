package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/shop-api/internal/api/shared"
	"github.com/phrazzld/shop-api/internal/platform/logger"
	"github.com/phrazzld/shop-api/internal/service/sale"
)

// AccountHandler handles the /api/accounts routes.
type AccountHandler struct {
	saleService sale.Service
	logger      *slog.Logger
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(saleService sale.Service, logger *slog.Logger) *AccountHandler {
	if saleService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("saleService cannot be nil for AccountHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &AccountHandler{
		saleService: saleService,
		logger:      logger.With(slog.String("component", "account_handler")),
	}
}

// CreateAccount handles POST /api/accounts requests.
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	p, ok := requirePrincipal(w, r, log)
	if !ok {
		return
	}

	var req CreateAccountRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	account, err := h.saleService.CreateAccount(r.Context(), p, sale.CreateAccountRequest{
		ID:             req.ID,
		OpeningBalance: req.OpeningBalance,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create account")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, accountToResponse(account))
}

// GetAccount handles GET /api/accounts/{id} requests.
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	p, accountID, ok := handlePrincipalAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	account, err := h.saleService.GetAccount(r.Context(), p, accountID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get account")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, accountToResponse(account))
}

// CreditAccount handles POST /api/accounts/{id}/credit requests.
func (h *AccountHandler) CreditAccount(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	p, accountID, ok := handlePrincipalAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req CreditRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	account, err := h.saleService.CreditAccount(r.Context(), p, accountID, req.Amount)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to credit account")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, accountToResponse(account))
}
