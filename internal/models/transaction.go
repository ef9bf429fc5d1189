package models

import "time"

// Transaction kinds
const (
	TransactionKindCredit = "credit"
	TransactionKindDebit  = "debit"
)

// DefaultHistoryLimit is how many of the most recent wallet transactions are
// retained when no explicit limit is configured.
const DefaultHistoryLimit = 10

// Transaction is one committed wallet movement. Records are immutable once
// appended; history is kept most-recent-first and trimmed to the retention
// window.
type Transaction struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	Amount       Money     `json:"amount"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
	GatewayTxnID string    `json:"gateway_txn_id,omitempty"`
	OrderID      string    `json:"order_id,omitempty"`
}
