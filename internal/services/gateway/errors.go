package gateway

import "errors"

// Service errors
var (
	// ErrGatewayUnavailable is what a real integration returns when the
	// provider cannot be reached. Distinct from a decline so callers may
	// retry with a fresh order.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	ErrOrderAlreadyPaid = errors.New("order has already been paid")
)
