// Package domain contains the core business entities of the shop: customer
// accounts, products and the append-only sale ledger, together with the
// principal (claims) object that every service call receives explicitly.
// It has no knowledge of storage or transport.
package domain
