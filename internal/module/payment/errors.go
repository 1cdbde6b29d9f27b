package payment

import "errors"

var (
	// ErrProviderNotFound is returned when no provider is registered
	// under the requested name.
	ErrProviderNotFound = errors.New("payment provider not found")
)
