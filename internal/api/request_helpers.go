package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/shop-api/internal/api/shared"
	"github.com/phrazzld/shop-api/internal/domain"
	"github.com/phrazzld/shop-api/internal/platform/logger"
)

// getPathUUID extracts a UUID from the URL path parameters.
// A missing or malformed value returns a *domain.ValidationError.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, domain.NewValidationError(paramName, "is required", domain.ErrValidation)
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(paramName, "has invalid format", domain.ErrInvalidID)
	}

	return id, nil
}

// requirePrincipal returns the authenticated principal, writing a 401 and
// returning false when the auth middleware did not run or stored nothing.
func requirePrincipal(w http.ResponseWriter, r *http.Request, log *slog.Logger) (domain.Principal, bool) {
	p, ok := shared.GetPrincipal(r.Context())
	if !ok {
		log.Warn("principal not found or invalid in request context")
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return domain.Principal{}, false
	}
	return p, true
}

// handlePrincipalAndPathUUID extracts both the principal from context and a
// UUID from the path. It writes an error response if either extraction fails.
func handlePrincipalAndPathUUID(
	w http.ResponseWriter,
	r *http.Request,
	paramName string,
	log *slog.Logger,
) (domain.Principal, uuid.UUID, bool) {
	if log == nil {
		log = logger.FromContextOrDefault(r.Context(), slog.Default())
	}

	p, ok := requirePrincipal(w, r, log)
	if !ok {
		return domain.Principal{}, uuid.Nil, false
	}

	pathID, err := getPathUUID(r, paramName)
	if err != nil {
		log.Warn("invalid "+paramName,
			slog.String("param_name", paramName),
			slog.String("value", chi.URLParam(r, paramName)))
		HandleAPIError(w, r, err, "")
		return domain.Principal{}, uuid.Nil, false
	}

	return p, pathID, true
}

// decodeAndValidate decodes the JSON body into v and validates it, writing
// a 400 on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}, log *slog.Logger) bool {
	if err := shared.DecodeJSON(r, v); err != nil {
		log.Debug("invalid request body", slog.String("error", err.Error()))
		HandleAPIError(w, r, err, "")
		return false
	}
	if err := shared.ValidateRequest(v); err != nil {
		log.Debug("request validation failed", slog.String("error", err.Error()))
		HandleAPIError(w, r, err, "")
		return false
	}
	return true
}
