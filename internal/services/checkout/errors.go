package checkout

import (
	"errors"
	"fmt"
)

// Code identifies the category of a checkout failure so the presentation
// layer can decide how to render it and whether a retry makes sense.
type Code string

const (
	CodeEmptyCart            Code = "empty_cart"
	CodeMissingMethodDetails Code = "missing_method_details"
	CodeOutOfRange           Code = "amount_out_of_range"
	CodeInsufficientFunds    Code = "insufficient_funds"
	CodePaymentDeclined      Code = "payment_declined"
	CodeGatewayUnavailable   Code = "gateway_unavailable"
	CodeVerificationFailed   Code = "verification_failed"
)

// Error is a typed checkout failure with a human-readable message.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// CodeOf extracts the failure code, or "" for untyped errors.
func CodeOf(err error) Code {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

func newError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func wrapError(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// ErrNoLastOrder is returned when no order has ever been completed.
var ErrNoLastOrder = errors.New("no completed order")
