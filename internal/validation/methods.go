package validation

import "tiffin/internal/models"

// MethodDetails checks the per-method payment input required to proceed.
// The wallet method needs no extra details; its balance precondition is
// checked by the orchestrator.
func MethodDetails(method string, details models.MethodDetails) *Validator {
	v := New()

	switch method {
	case models.PaymentMethodWallet:
		// Nothing to validate here.
	case models.PaymentMethodCard:
		if details.Card == nil {
			v.AddError("card", "must be provided")
			break
		}
		v.Required("card number", details.Card.Number)
		v.Required("card expiry", details.Card.Expiry)
		v.Required("card cvv", details.Card.CVV)
		v.Required("card holder", details.Card.Holder)
	case models.PaymentMethodUPI:
		v.Required("upi id", details.UPIID)
	case models.PaymentMethodNetBanking:
		v.Required("bank", details.Bank)
	default:
		v.AddError("method", "must be one of wallet, card, upi, netbanking")
	}
	return v
}

// Customer checks the details required to place a checkout order.
func Customer(customer models.CustomerDetails) *Validator {
	v := New()
	v.Required("name", customer.Name)
	v.Required("phone", customer.Phone)
	v.Required("address", customer.Address)
	return v
}
