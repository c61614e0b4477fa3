package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/shop-api/internal/config"
	"github.com/phrazzld/shop-api/internal/domain"
	"github.com/stretchr/testify/require"
)

// TestJWTSecret is the signing secret used by DefaultJWTConfig.
const TestJWTSecret = "test-jwt-secret-that-is-32-chars-long"

// DefaultJWTConfig returns a standard configuration for JWT authentication suitable for testing.
func DefaultJWTConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:            TestJWTSecret,
		TokenLifetimeMinutes: 60,
	}
}

// RequireTestJWTService creates a JWT service with the default test
// configuration, failing the test on error.
func RequireTestJWTService(t *testing.T) JWTService {
	t.Helper()
	svc, err := NewJWTService(DefaultJWTConfig())
	require.NoError(t, err, "Failed to create test JWT service")
	return svc
}

// RequireAuthHeader mints a token for the principal with svc and returns
// the Authorization header value.
func RequireAuthHeader(t *testing.T, svc JWTService, p domain.Principal) string {
	t.Helper()
	token, err := svc.GenerateToken(context.Background(), p.UserID, p.Role, p.CustomerID)
	require.NoError(t, err, "Failed to generate test token")
	return "Bearer " + token
}

// NewTestAdmin returns an admin principal with a fresh user id.
func NewTestAdmin() domain.Principal {
	return domain.Principal{UserID: uuid.New(), Role: domain.RoleAdmin}
}

// NewTestCustomer returns a customer principal owning customerID.
func NewTestCustomer(customerID uuid.UUID) domain.Principal {
	return domain.Principal{UserID: uuid.New(), Role: domain.RoleCustomer, CustomerID: customerID}
}
