// Package arbitrage turns matched cross-venue pairs into priced
// opportunities and maintains the registry of currently live ones.
package arbitrage

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradewatch/arbscan/internal/domain"
)

var one = decimal.NewFromInt(1)

// CalculatorConfig configures opportunity evaluation.
type CalculatorConfig struct {
	// MinEdge is the floor a net edge must clear before the pair counts as
	// an opportunity. Guards against noise around exactly-efficient prices.
	MinEdge decimal.Decimal
	// Fees prices the per-leg venue fees. Nil means fee-free.
	Fees domain.FeeModel
}

// Calculator evaluates both cross-venue strategies for a matched pair. All
// arithmetic is exact decimal; no floats touch a price.
type Calculator struct {
	minEdge decimal.Decimal
	fees    domain.FeeModel
	logger  *slog.Logger
}

func NewCalculator(cfg CalculatorConfig, logger *slog.Logger) *Calculator {
	fees := cfg.Fees
	if fees == nil {
		fees = NoFees
	}
	return &Calculator{
		minEdge: cfg.MinEdge,
		fees:    fees,
		logger:  logger.With(slog.String("component", "calculator")),
	}
}

// Evaluate prices both opposing-side strategies for the pair and returns
// the one with the larger gross edge. The second return is false when that
// strategy's net edge does not clear the minimum. Quotes with prices
// outside (0,1) fail with ErrComputation.
func (c *Calculator) Evaluate(pair domain.MatchedPair, now time.Time) (domain.Opportunity, bool, error) {
	for _, q := range [2]domain.Quote{pair.A, pair.B} {
		if !priceValid(q.YesPrice) || !priceValid(q.NoPrice) {
			return domain.Opportunity{}, false, fmt.Errorf(
				"arbitrage: %s %s: price out of range: %w",
				q.Venue, q.ExternalID, domain.ErrComputation)
		}
	}

	first := c.price(pair,
		domain.Leg{Venue: pair.A.Venue, Side: domain.SideYes, Price: pair.A.YesPrice},
		domain.Leg{Venue: pair.B.Venue, Side: domain.SideNo, Price: pair.B.NoPrice})
	second := c.price(pair,
		domain.Leg{Venue: pair.B.Venue, Side: domain.SideYes, Price: pair.B.YesPrice},
		domain.Leg{Venue: pair.A.Venue, Side: domain.SideNo, Price: pair.A.NoPrice})

	// The larger gross spread picks the strategy; fees then decide whether
	// that strategy clears. A cheaper-fee alternative with a smaller spread
	// is never substituted.
	best := first
	if second.GrossEdge.GreaterThan(best.GrossEdge) {
		best = second
	}
	if !best.NetEdge.GreaterThan(c.minEdge) {
		return domain.Opportunity{}, false, nil
	}

	best.ID = uuid.NewString()
	best.DetectedAt = now
	best.LastConfirmedAt = now

	c.logger.Debug("opportunity priced",
		slog.String("key", string(best.Key)),
		slog.String("strategy", best.Strategy),
		slog.String("net_edge", best.NetEdge.String()))

	return best, true, nil
}

// EvaluateAll prices every pair and returns the clearing opportunities.
// Computation failures are logged and skipped so one malformed pair does not
// suppress the rest of the cycle.
func (c *Calculator) EvaluateAll(pairs []domain.MatchedPair, now time.Time) []domain.Opportunity {
	opps := make([]domain.Opportunity, 0, len(pairs))
	for _, pair := range pairs {
		opp, ok, err := c.Evaluate(pair, now)
		if err != nil {
			c.logger.Warn("pair evaluation failed",
				slog.String("key", string(pair.Key())),
				slog.String("error", err.Error()))
			continue
		}
		if ok {
			opps = append(opps, opp)
		}
	}
	return opps
}

// price costs out one strategy: buy yesLeg on its venue and noLeg on the
// other. Exactly one leg pays out $1, so the gross edge is 1 minus the
// combined cost.
func (c *Calculator) price(pair domain.MatchedPair, yesLeg, noLeg domain.Leg) domain.Opportunity {
	gross := one.Sub(yesLeg.Price).Sub(noLeg.Price)
	fees := c.fees.Fee(yesLeg.Venue, yesLeg.Side, yesLeg.Price).
		Add(c.fees.Fee(noLeg.Venue, noLeg.Side, noLeg.Price))

	return domain.Opportunity{
		Key:       pair.Key(),
		Pair:      pair,
		Strategy:  domain.StrategyName(yesLeg, noLeg),
		Legs:      [2]domain.Leg{yesLeg, noLeg},
		GrossEdge: gross,
		TotalFees: fees,
		NetEdge:   gross.Sub(fees),
	}
}

func priceValid(p decimal.Decimal) bool {
	return p.GreaterThan(decimal.Zero) && p.LessThan(one)
}
