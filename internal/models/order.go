package models

import "time"

// Order statuses
const (
	OrderStatusCreated = "created"
	OrderStatusPaid    = "paid"
	OrderStatusFailed  = "failed"
)

// Order is allocated by the payment gateway before any charge is attempted.
// Amount is fixed at creation; only Status changes afterwards.
type Order struct {
	OrderID   string            `json:"order_id"`
	Amount    Money             `json:"amount"`
	Currency  string            `json:"currency"`
	Lines     []CartLine        `json:"lines,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Status    string            `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}

// PaymentResult is produced exactly once per order. Success false is a
// terminal business outcome (declined), not a transport fault.
type PaymentResult struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id,omitempty"`
	Message       string `json:"message"`
}

// VerificationResult is the gateway's second confirmation of a payment,
// required before any side effect is committed.
type VerificationResult struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Verified      bool   `json:"verified"`
}

// OrderRecord is the persisted "last completed order" slot.
type OrderRecord struct {
	OrderID       string     `json:"order_id"`
	Lines         []CartLine `json:"lines"`
	Total         Money      `json:"total"`
	PaymentMethod string     `json:"payment_method"`
	TransactionID string     `json:"transaction_id"`
	OrderDate     time.Time  `json:"order_date"`
	Status        string     `json:"status"`
}
