package domain

import "github.com/shopspring/decimal"

// FeeModel computes the fee a venue charges for buying one $1-payout
// contract of the given side at the given price. It is injected as
// configuration so venue fee schedules can change without touching the
// matching or calculation logic.
type FeeModel interface {
	Fee(venue Venue, side Side, price decimal.Decimal) decimal.Decimal
}

// FeeModelFunc adapts a plain function to the FeeModel interface.
type FeeModelFunc func(venue Venue, side Side, price decimal.Decimal) decimal.Decimal

// Fee implements FeeModel.
func (f FeeModelFunc) Fee(venue Venue, side Side, price decimal.Decimal) decimal.Decimal {
	return f(venue, side, price)
}
