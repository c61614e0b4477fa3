package domain

import "github.com/google/uuid"

// Role is the capability level of an authenticated caller.
type Role string

// Supported roles.
const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleCustomer
}

// Principal is the authenticated caller, built from token claims and passed
// explicitly into every service call.
type Principal struct {
	UserID     uuid.UUID
	Role       Role
	CustomerID uuid.UUID // account the principal owns; zero for admins without one
}

// IsAdmin reports whether the principal has administrative capability.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanActFor reports whether the principal may read or spend from the given
// customer account.
func (p Principal) CanActFor(customerID uuid.UUID) bool {
	if p.IsAdmin() {
		return true
	}
	return p.Role == RoleCustomer && p.CustomerID != uuid.Nil && p.CustomerID == customerID
}

// Authenticate returns ErrUnauthorized unless the principal carries a user
// and a known role.
func (p Principal) Authenticate() error {
	if p.UserID == uuid.Nil || !p.Role.IsValid() {
		return ErrUnauthorized
	}
	return nil
}

// Authorize returns ErrUnauthorized for an empty principal, ErrForbidden if
// the principal may not act for customerID, and nil otherwise.
func (p Principal) Authorize(customerID uuid.UUID) error {
	if err := p.Authenticate(); err != nil {
		return err
	}
	if !p.CanActFor(customerID) {
		return ErrForbidden
	}
	return nil
}

// RequireAdmin returns ErrUnauthorized for an empty principal and
// ErrForbidden for non-admins.
func (p Principal) RequireAdmin() error {
	if err := p.Authenticate(); err != nil {
		return err
	}
	if !p.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
