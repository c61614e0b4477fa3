package sale

import "errors"

// Sale service errors. The API layer maps them to HTTP status codes.
var (
	// ErrCustomerNotFound indicates the customer account does not exist.
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrProductNotFound indicates the product does not exist.
	ErrProductNotFound = errors.New("product not found")

	// ErrSaleNotFound indicates the sale does not exist.
	ErrSaleNotFound = errors.New("sale not found")

	// ErrTransactionConflict indicates the sale kept colliding with
	// concurrent writes and retries were exhausted. The caller may retry.
	ErrTransactionConflict = errors.New("transaction conflict, retry the request")
)
