package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/phrazzld/shop-api/internal/api/shared"
	"github.com/phrazzld/shop-api/internal/platform/logger"
	"github.com/phrazzld/shop-api/internal/redact"
	"github.com/phrazzld/shop-api/internal/service/auth"
)

// CodeUnauthorized is the error code sent for authentication failures.
const CodeUnauthorized = "unauthorized"

// AuthMiddleware provides JWT authentication for routes.
type AuthMiddleware struct {
	jwtService auth.JWTService
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(jwtService auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
	}
}

// bearerToken pulls the token out of "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, string) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", "Authorization header required"
	}
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" || strings.Contains(token, " ") {
		return "", "Invalid authorization format"
	}
	return token, ""
}

// Authenticate resolves the bearer token into a domain.Principal. Handlers
// behind it read the caller with shared.GetPrincipal; the request logger is
// tagged with the caller's user and role.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, problem := bearerToken(r)
		if problem != "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, CodeUnauthorized, problem)
			return
		}

		claims, err := m.jwtService.ValidateToken(r.Context(), token)
		switch {
		case err == nil:
		case errors.Is(err, auth.ErrExpiredToken):
			shared.RespondWithError(w, r, http.StatusUnauthorized, CodeUnauthorized, "Token expired")
			return
		case errors.Is(err, auth.ErrInvalidToken),
			errors.Is(err, auth.ErrTokenNotYetValid),
			errors.Is(err, auth.ErrMissingToken),
			errors.Is(err, auth.ErrInvalidClaims):
			shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, CodeUnauthorized,
				"Invalid token", err, shared.WithElevatedLogLevel())
			return
		default:
			logger.FromContext(r.Context()).Error("failed to validate token", "error", redact.Error(err))
			shared.RespondWithError(w, r, http.StatusInternalServerError, "internal_error", "Authentication error")
			return
		}

		principal := claims.Principal()
		ctx := shared.WithPrincipal(r.Context(), principal)
		ctx = logger.WithLogger(ctx, logger.FromContext(r.Context()).With(
			"user_id", principal.UserID.String(),
			"role", string(principal.Role)))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
