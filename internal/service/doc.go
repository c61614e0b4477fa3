// Package service groups the application use cases of the shop API.
//
// Each subpackage owns one area:
//
//   - auth issues and validates the bearer tokens that carry a
//     domain.Principal.
//   - sale processes purchases against the account and stock ledgers and
//     serves the catalogue, history and admin operations around them.
//
// Services receive their dependencies through constructors and take the
// caller's principal explicitly on every call. They depend on the store
// interfaces, never on a concrete backend.
package service
