package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/shop-api/internal/api/shared"
	"github.com/phrazzld/shop-api/internal/domain"
	"github.com/phrazzld/shop-api/internal/service/auth"
	"github.com/phrazzld/shop-api/internal/service/sale"
	"github.com/phrazzld/shop-api/internal/store"
)

// Machine-readable error codes returned in ErrorResponse.Code.
const (
	CodeValidation          = "validation_error"
	CodeNotFound            = "not_found"
	CodeInsufficientFunds   = "insufficient_funds"
	CodeInsufficientStock   = "insufficient_stock"
	CodeForbidden           = "forbidden"
	CodeUnauthorized        = "unauthorized"
	CodeTransactionConflict = "transaction_conflict"
	CodeAlreadyExists       = "already_exists"
	CodeInternal            = "internal_error"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch ErrorCode(err) {
	case CodeValidation, CodeInsufficientFunds, CodeInsufficientStock:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeTransactionConflict, CodeAlreadyExists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ErrorCode returns the machine-readable code for err.
func ErrorCode(err error) string {
	var verrs validator.ValidationErrors

	switch {
	case err == nil:
		return CodeInternal

	// Business rejections come first: they are the most specific.
	case errors.Is(err, domain.ErrInsufficientFunds):
		return CodeInsufficientFunds
	case errors.Is(err, domain.ErrInsufficientStock):
		return CodeInsufficientStock

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, store.ErrInvalidEntity),
		errors.As(err, &verrs):
		return CodeValidation

	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidClaims):
		return CodeUnauthorized

	case errors.Is(err, domain.ErrForbidden):
		return CodeForbidden

	case errors.Is(err, sale.ErrCustomerNotFound),
		errors.Is(err, sale.ErrProductNotFound),
		errors.Is(err, sale.ErrSaleNotFound),
		errors.Is(err, store.ErrNotFound):
		return CodeNotFound

	case errors.Is(err, sale.ErrTransactionConflict),
		errors.Is(err, store.ErrConflict):
		return CodeTransactionConflict

	case errors.Is(err, store.ErrDuplicate):
		return CodeAlreadyExists

	default:
		return CodeInternal
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var verr *domain.ValidationError
	var verrs validator.ValidationErrors

	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "Insufficient funds"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "Insufficient stock"

	case errors.As(err, &verr):
		return fmt.Sprintf("Invalid %s: %s", verr.Field, safeValidationMessage(verr))
	case errors.As(err, &verrs):
		return SanitizeValidationError(err)
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"

	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case ErrorCode(err) == CodeUnauthorized:
		return "Authentication required"

	case errors.Is(err, domain.ErrForbidden):
		return "Operation not permitted"

	case errors.Is(err, sale.ErrCustomerNotFound),
		errors.Is(err, store.ErrAccountNotFound):
		return "Customer not found"
	case errors.Is(err, sale.ErrProductNotFound),
		errors.Is(err, store.ErrProductNotFound):
		return "Product not found"
	case errors.Is(err, sale.ErrSaleNotFound),
		errors.Is(err, store.ErrSaleNotFound):
		return "Sale not found"
	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, sale.ErrTransactionConflict),
		errors.Is(err, store.ErrConflict):
		return "The request conflicted with a concurrent update, please retry"

	case errors.Is(err, store.ErrAccountExists):
		return "Account already exists"
	case errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"

	default:
		return "An unexpected error occurred"
	}
}

// safeValidationMessage hides decoder internals behind a fixed message.
func safeValidationMessage(verr *domain.ValidationError) string {
	if verr.Field == "body" && strings.HasPrefix(verr.Message, "is not valid JSON") {
		return "is not valid JSON"
	}
	return verr.Message
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
	}
	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "uuid", "uuid4":
		return "must be a UUID"
	case "gt", "gte":
		return "too small"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

// HandleAPIError maps err to a status and code and writes the error
// response. A non-empty fallback replaces the message for 500s.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		message = fallback
	}
	shared.RespondWithErrorAndLog(w, r, status, ErrorCode(err), message, err)
}
