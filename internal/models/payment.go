package models

import "strings"

// Payment methods accepted at checkout and top-up.
const (
	PaymentMethodWallet     = "wallet"
	PaymentMethodCard       = "card"
	PaymentMethodUPI        = "upi"
	PaymentMethodNetBanking = "netbanking"
)

// CardDetails holds card input from the caller. The full number never leaves
// the process unmasked and is never persisted.
type CardDetails struct {
	Number string `json:"number"`
	Expiry string `json:"expiry"`
	CVV    string `json:"cvv"`
	Holder string `json:"holder"`
}

// MethodDetails carries the per-method payment input. Only the field for the
// selected method is consulted.
type MethodDetails struct {
	Card  *CardDetails `json:"card,omitempty"`
	UPIID string       `json:"upi_id,omitempty"`
	Bank  string       `json:"bank,omitempty"`
}

// CustomerDetails identifies the person placing a checkout order.
type CustomerDetails struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// MaskCardNumber reduces a card number to "**** **** **** 1234".
func MaskCardNumber(number string) string {
	cleaned := strings.ReplaceAll(number, " ", "")
	if len(cleaned) < 4 {
		return ""
	}
	return "**** **** **** " + cleaned[len(cleaned)-4:]
}

// Masked returns a copy of the details safe to hand to the gateway or store
// in transaction descriptions.
func (d MethodDetails) Masked() MethodDetails {
	out := d
	if d.Card != nil {
		out.Card = &CardDetails{
			Number: MaskCardNumber(d.Card.Number),
			Expiry: d.Card.Expiry,
			Holder: d.Card.Holder,
		}
	}
	return out
}
