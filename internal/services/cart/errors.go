package cart

import "errors"

// Service errors
var (
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
)
