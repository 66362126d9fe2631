package clients

import "errors"

var (
	// ErrNotFound is returned when a product identifier cannot be parsed
	// from a marketplace URL.
	ErrNotFound = errors.New("product identifier not found")

	// ErrUnreachable wraps transport failures and non-2xx responses.
	ErrUnreachable = errors.New("source unreachable")
)
