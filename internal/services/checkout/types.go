package checkout

import (
	"time"

	"tiffin/internal/models"
)

// Config holds orchestrator limits.
type Config struct {
	MinTopUp models.Money
	MaxTopUp models.Money
}

// Top-up bounds applied when config leaves them unset.
const (
	DefaultMinTopUp models.Money = 10
	DefaultMaxTopUp models.Money = 10000
)

// CheckoutRequest is one checkout attempt.
type CheckoutRequest struct {
	Method   string                 `json:"method"`
	Details  models.MethodDetails   `json:"details"`
	Customer models.CustomerDetails `json:"customer"`
}

// TopUpRequest is one wallet top-up attempt.
type TopUpRequest struct {
	Amount  models.Money         `json:"amount"`
	Method  string               `json:"method"`
	Details models.MethodDetails `json:"details"`
}

// OrderConfirmation is returned once a checkout has been committed.
type OrderConfirmation struct {
	OrderID       string       `json:"order_id"`
	TransactionID string       `json:"transaction_id"`
	Subtotal      models.Money `json:"subtotal"`
	Tax           models.Money `json:"tax"`
	DeliveryFee   models.Money `json:"delivery_fee"`
	GrandTotal    models.Money `json:"grand_total"`
	PaymentMethod string       `json:"payment_method"`
	PlacedAt      time.Time    `json:"placed_at"`
}

// TopUpConfirmation is returned once a top-up has been committed. Total is
// what was charged through the gateway; only Amount reaches the wallet.
type TopUpConfirmation struct {
	OrderID       string       `json:"order_id"`
	TransactionID string       `json:"transaction_id"`
	Amount        models.Money `json:"amount"`
	Fee           models.Money `json:"fee"`
	Total         models.Money `json:"total"`
	NewBalance    models.Money `json:"new_balance"`
	Method        string       `json:"method"`
}

// RecoveryResult reports what Recover found and did.
type RecoveryResult struct {
	Pending       bool   `json:"pending"`
	Committed     bool   `json:"committed"`
	OrderID       string `json:"order_id,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
}

// Attempt kinds for the pending record.
const (
	attemptKindCheckout = "checkout"
	attemptKindTopUp    = "topup"
)

// pendingAttempt is persisted between a successful Pay and the commit, so a
// crash in between is re-verified with the stored transaction id instead of
// re-charged. An attempt moves idle → order created → paid → verified →
// committed, or ends at failed / verification failed; only the window after
// a successful pay needs a durable record, so that is the only state ever
// written.
type pendingAttempt struct {
	Kind          string            `json:"kind"`
	OrderID       string            `json:"order_id"`
	TransactionID string            `json:"transaction_id"`
	Method        string            `json:"method"`
	Amount        models.Money      `json:"amount"`
	CreditAmount  models.Money      `json:"credit_amount,omitempty"`
	Lines         []models.CartLine `json:"lines,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// methodDisplayName matches the labels shown to the user for each method.
func methodDisplayName(method string) string {
	switch method {
	case models.PaymentMethodUPI:
		return "UPI Payment"
	case models.PaymentMethodCard:
		return "Credit/Debit Card"
	case models.PaymentMethodNetBanking:
		return "Net Banking"
	case models.PaymentMethodWallet:
		return "Digital Wallet"
	default:
		return method
	}
}
