package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/shop-api/internal/config"
	"github.com/phrazzld/shop-api/internal/domain"
	"github.com/phrazzld/shop-api/internal/platform/logger"
)

// tokenIssuer is written to and required in the iss claim, so tokens minted
// by another service sharing the secret are refused.
const tokenIssuer = "shop-api"

// hmacJWTService signs and verifies HS256 tokens with a shared secret.
type hmacJWTService struct {
	signingKey    []byte
	tokenLifetime time.Duration
	timeFunc      func() time.Time
	clockSkew     time.Duration
}

// jwtCustomClaims is the on-the-wire claim set.
type jwtCustomClaims struct {
	UserID     uuid.UUID   `json:"uid"`
	Role       domain.Role `json:"role"`
	CustomerID uuid.UUID   `json:"cid,omitempty"`
	jwt.RegisteredClaims
}

var _ JWTService = (*hmacJWTService)(nil)

// NewJWTService returns an HS256 JWTService keyed by cfg.JWTSecret.
func NewJWTService(cfg config.AuthConfig) (JWTService, error) {
	return newJWTService(cfg, time.Now)
}

func newJWTService(cfg config.AuthConfig, now func() time.Time) (*hmacJWTService, error) {
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 characters")
	}
	if cfg.TokenLifetimeMinutes <= 0 {
		return nil, fmt.Errorf("token lifetime must be positive, got %d minutes", cfg.TokenLifetimeMinutes)
	}

	return &hmacJWTService{
		signingKey:    []byte(cfg.JWTSecret),
		tokenLifetime: time.Duration(cfg.TokenLifetimeMinutes) * time.Minute,
		timeFunc:      now,
		clockSkew:     2 * time.Minute,
	}, nil
}

// GenerateToken mints a token for the principal described by its arguments.
func (s *hmacJWTService) GenerateToken(
	ctx context.Context,
	userID uuid.UUID,
	role domain.Role,
	customerID uuid.UUID,
) (string, error) {
	log := logger.FromContext(ctx)

	if err := checkClaims(userID, role, customerID); err != nil {
		return "", err
	}

	now := s.timeFunc()
	claims := jwtCustomClaims{
		UserID:     userID,
		Role:       role,
		CustomerID: customerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenLifetime)),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(s.signingKey)
	if err != nil {
		log.Error("failed to sign JWT access token",
			"error", err,
			"user_id", userID,
			"role", role,
			"signing_method", jwt.SigningMethodHS256.Name)
		return "", fmt.Errorf("failed to sign access token with HMAC-SHA256: %w", err)
	}

	return signedToken, nil
}

// ValidateToken verifies signature, issuer and lifetime, then checks that the
// claims describe a principal the handlers can authorize.
func (s *hmacJWTService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	log := logger.FromContext(ctx)

	if tokenString == "" {
		return nil, ErrMissingToken
	}

	now := s.timeFunc()
	token, err := jwt.ParseWithClaims(
		tokenString,
		&jwtCustomClaims{},
		func(*jwt.Token) (interface{}, error) { return s.signingKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(s.clockSkew),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return nil, classifyParseError(log, err)
	}

	claims, ok := token.Claims.(*jwtCustomClaims)
	if !ok || !token.Valid {
		log.Debug("token validation failed: invalid claims")
		return nil, ErrInvalidToken
	}

	if err := checkClaims(claims.UserID, claims.Role, claims.CustomerID); err != nil {
		log.Debug("token validation failed: unusable claims",
			"error", err,
			"role", claims.Role)
		return nil, err
	}

	result := &Claims{
		UserID:     claims.UserID,
		Role:       claims.Role,
		CustomerID: claims.CustomerID,
		Subject:    claims.Subject,
		ID:         claims.ID,
	}
	if claims.IssuedAt != nil {
		result.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		result.ExpiresAt = claims.ExpiresAt.Time
	}

	log.Debug("access token validated successfully",
		"user_id", claims.UserID,
		"role", claims.Role,
		"token_id", claims.ID)

	return result, nil
}

// classifyParseError folds jwt parser failures into the package's errors.
// Only expiry and not-before are reported separately.
func classifyParseError(log *slog.Logger, err error) error {
	var reason string
	result := ErrInvalidToken
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		reason, result = "expired", ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		reason, result = "not yet valid", ErrTokenNotYetValid
	case errors.Is(err, jwt.ErrTokenMalformed):
		reason = "malformed"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		reason = "bad signature"
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		reason = "foreign issuer"
	default:
		reason = fmt.Sprintf("rejected (%T)", err)
	}
	log.Debug("access token "+reason, "error", err)
	return result
}

// checkClaims rejects identities no handler could authorize: an unknown role,
// a missing user, or a customer token not bound to an account.
func checkClaims(userID uuid.UUID, role domain.Role, customerID uuid.UUID) error {
	if userID == uuid.Nil {
		return fmt.Errorf("%w: user id is required", ErrInvalidClaims)
	}
	if !role.IsValid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidClaims, role)
	}
	if role == domain.RoleCustomer && customerID == uuid.Nil {
		return fmt.Errorf("%w: customer tokens must carry a customer id", ErrInvalidClaims)
	}
	return nil
}
