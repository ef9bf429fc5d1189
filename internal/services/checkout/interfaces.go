package checkout

import (
	"context"

	"tiffin/internal/models"
)

// Service coordinates cart, wallet and gateway for one checkout or top-up
// attempt. Expected business failures come back as *Error values, never
// panics.
type Service interface {
	Checkout(ctx context.Context, req CheckoutRequest) (*OrderConfirmation, error)
	TopUp(ctx context.Context, req TopUpRequest) (*TopUpConfirmation, error)
	Recover(ctx context.Context) (*RecoveryResult, error)
	LastOrder(ctx context.Context) (*models.OrderRecord, error)
}

// Dependencies required by the orchestrator.

type CartService interface {
	Items() []models.CartLine
	Total() models.Money
	Clear(ctx context.Context) error
}

type WalletService interface {
	Balance() models.Money
	History() []models.Transaction
	Credit(ctx context.Context, amount models.Money, description, gatewayTxnID, orderID string) (*models.Transaction, error)
	Debit(ctx context.Context, amount models.Money, description, orderID string) (*models.Transaction, error)
}

type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount models.Money, currency string, metadata map[string]string) (*models.Order, error)
	Pay(ctx context.Context, order *models.Order, method string, details models.MethodDetails) (*models.PaymentResult, error)
	Verify(ctx context.Context, transactionID string) (*models.VerificationResult, error)
}
