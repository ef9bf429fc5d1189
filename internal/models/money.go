package models

// Money is an amount in whole rupees. All arithmetic stays in integers so
// totals always balance exactly.
type Money int64

// Currency is the only currency the system deals in.
const Currency = "INR"

// DeliveryFee is the flat fee added to every checkout order.
const DeliveryFee Money = 50

// TaxRatePercent is applied to the cart subtotal at checkout.
const TaxRatePercent = 5

// Tax returns the checkout tax for a subtotal, rounded half-up.
func Tax(subtotal Money) Money {
	return (subtotal*TaxRatePercent + 50) / 100
}

// ProcessingFee returns the wallet top-up fee: 1% of the amount rounded
// half-up, with a floor of 2. The fee is charged through the gateway but is
// never credited to the wallet.
func ProcessingFee(amount Money) Money {
	fee := (amount + 50) / 100
	if fee < 2 {
		fee = 2
	}
	return fee
}
