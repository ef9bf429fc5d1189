package handlers

import (
	"errors"

	"tiffin/internal/services/checkout"
	"tiffin/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type CheckoutHandler struct{}

func NewCheckoutHandler() *CheckoutHandler {
	return &CheckoutHandler{}
}

// Checkout runs one settlement attempt. Only one attempt per session may be
// in flight; a concurrent request gets 409 instead of a second charge.
func (h *CheckoutHandler) Checkout(c *fiber.Ctx) error {
	sess, ok := currentSession(c)
	if !ok {
		return response.Unauthorized(c)
	}

	var req checkout.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}

	if !sess.BeginAttempt() {
		return response.Conflict(c, "A payment attempt is already in progress")
	}
	defer sess.EndAttempt()

	confirmation, err := sess.Checkout.Checkout(c.Context(), req)
	if err != nil {
		return checkoutError(c, err)
	}

	return response.Success(c, "Order placed", confirmation)
}

// TopUp adds money to the wallet through the payment pipeline.
func (h *CheckoutHandler) TopUp(c *fiber.Ctx) error {
	sess, ok := currentSession(c)
	if !ok {
		return response.Unauthorized(c)
	}

	var req checkout.TopUpRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}

	if !sess.BeginAttempt() {
		return response.Conflict(c, "A payment attempt is already in progress")
	}
	defer sess.EndAttempt()

	confirmation, err := sess.Checkout.TopUp(c.Context(), req)
	if err != nil {
		return checkoutError(c, err)
	}

	return response.Success(c, "Wallet topped up", confirmation)
}

// Recover finishes an attempt interrupted between pay and commit.
func (h *CheckoutHandler) Recover(c *fiber.Ctx) error {
	sess, ok := currentSession(c)
	if !ok {
		return response.Unauthorized(c)
	}

	if !sess.BeginAttempt() {
		return response.Conflict(c, "A payment attempt is already in progress")
	}
	defer sess.EndAttempt()

	result, err := sess.Checkout.Recover(c.Context())
	if err != nil {
		return checkoutError(c, err)
	}

	return response.Success(c, "Recovery complete", result)
}

// LastOrder returns the most recent completed order.
func (h *CheckoutHandler) LastOrder(c *fiber.Ctx) error {
	sess, ok := currentSession(c)
	if !ok {
		return response.Unauthorized(c)
	}

	record, err := sess.Checkout.LastOrder(c.Context())
	if errors.Is(err, checkout.ErrNoLastOrder) {
		return response.NotFound(c, "No completed order yet")
	}
	if err != nil {
		return response.ServerError(c, "Failed to load last order")
	}

	return response.Success(c, "Last order", record)
}

// checkoutError maps typed checkout failures to HTTP statuses: validation
// problems 400, business declines 402, gateway transport trouble 503, and a
// verification mismatch 502.
func checkoutError(c *fiber.Ctx, err error) error {
	var ce *checkout.Error
	if !errors.As(err, &ce) {
		return response.ServerError(c, "Payment failed. Please try again.")
	}

	switch ce.Code {
	case checkout.CodeEmptyCart, checkout.CodeMissingMethodDetails, checkout.CodeOutOfRange:
		return response.BadRequest(c, ce.Message)
	case checkout.CodeInsufficientFunds, checkout.CodePaymentDeclined:
		return response.PaymentRequired(c, ce.Message)
	case checkout.CodeGatewayUnavailable:
		return response.ServiceUnavailable(c, ce.Message)
	case checkout.CodeVerificationFailed:
		return response.BadGateway(c, ce.Message)
	default:
		return response.ServerError(c, ce.Message)
	}
}
