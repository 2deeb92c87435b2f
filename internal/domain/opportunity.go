package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Leg is one side of an arbitrage position: buy the given side on the given
// venue at the given price.
type Leg struct {
	Venue Venue           `json:"venue"`
	Side  Side            `json:"side"`
	Price decimal.Decimal `json:"price"`
}

// Opportunity is the result of evaluating a MatchedPair: a pair of positions
// that can be bought simultaneously across the two venues for less than the
// guaranteed $1 payout.
type Opportunity struct {
	ID              string          `json:"id"`
	Key             MatchKey        `json:"key"`
	Pair            MatchedPair     `json:"pair"`
	Strategy        string          `json:"strategy"` // e.g. "buy_yes_polymarket_no_kalshi"
	Legs            [2]Leg          `json:"legs"`
	GrossEdge       decimal.Decimal `json:"gross_edge"`
	TotalFees       decimal.Decimal `json:"total_fees"`
	NetEdge         decimal.Decimal `json:"net_edge"`
	DetectedAt      time.Time       `json:"detected_at"`
	LastConfirmedAt time.Time       `json:"last_confirmed_at"`
}

// StrategyName renders the canonical strategy label for a pair of legs.
func StrategyName(yes, no Leg) string {
	return fmt.Sprintf("buy_%s_%s_%s_%s", yes.Side, yes.Venue, no.Side, no.Venue)
}

// FreshestObservation returns the more recent of the two underlying quote
// observation times, used by the registry sweep.
func (o Opportunity) FreshestObservation() time.Time {
	a, b := o.Pair.A.ObservedAt, o.Pair.B.ObservedAt
	if a.After(b) {
		return a
	}
	return b
}
