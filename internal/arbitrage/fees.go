package arbitrage

import (
	"github.com/shopspring/decimal"

	"github.com/tradewatch/arbscan/internal/domain"
)

var bpsDivisor = decimal.NewFromInt(10000)

// NewBpsFeeModel builds a fee model that charges a flat per-venue fraction
// of notional, expressed in basis points. Venues missing from the map are
// treated as fee-free.
func NewBpsFeeModel(bps map[domain.Venue]int64) domain.FeeModel {
	rates := make(map[domain.Venue]decimal.Decimal, len(bps))
	for venue, b := range bps {
		rates[venue] = decimal.NewFromInt(b).Div(bpsDivisor)
	}
	return domain.FeeModelFunc(func(venue domain.Venue, _ domain.Side, price decimal.Decimal) decimal.Decimal {
		rate, ok := rates[venue]
		if !ok {
			return decimal.Zero
		}
		return price.Mul(rate)
	})
}

// NoFees is the fee model used when no fee schedule is configured.
var NoFees = domain.FeeModelFunc(func(domain.Venue, domain.Side, decimal.Decimal) decimal.Decimal {
	return decimal.Zero
})
