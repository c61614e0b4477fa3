package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/shop-api/internal/domain"
)

// JWTService defines operations for managing JWT authentication tokens.
type JWTService interface {
	// GenerateToken creates a signed JWT access token for the given user,
	// role and (for customers) owned account.
	GenerateToken(ctx context.Context, userID uuid.UUID, role domain.Role, customerID uuid.UUID) (string, error)

	// ValidateToken validates the provided access token string and extracts the claims.
	// Returns ErrExpiredToken, ErrTokenNotYetValid, ErrInvalidToken or
	// ErrInvalidClaims when validation fails.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims represents the custom claims structure for the JWT tokens.
// It extends standard JWT registered claims with application-specific fields.
type Claims struct {
	// UserID is the unique identifier of the user the token was issued for.
	UserID uuid.UUID `json:"uid,omitempty"`

	// Role is the caller's capability level.
	Role domain.Role `json:"role,omitempty"`

	// CustomerID is the account a customer token may spend from.
	CustomerID uuid.UUID `json:"cid,omitempty"`

	// Standard registered JWT claims
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}

// Principal converts validated claims into the explicit caller identity
// passed to services.
func (c *Claims) Principal() domain.Principal {
	return domain.Principal{
		UserID:     c.UserID,
		Role:       c.Role,
		CustomerID: c.CustomerID,
	}
}
