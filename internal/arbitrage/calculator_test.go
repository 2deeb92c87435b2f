package arbitrage

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradewatch/arbscan/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func pairWithPrices(polyYes, polyNo, kalshiYes, kalshiNo string) domain.MatchedPair {
	now := time.Now()
	return domain.MatchedPair{
		A: domain.Quote{
			Venue:      domain.VenuePolymarket,
			ExternalID: "0xlakers",
			EventTitle: "Lakers win?",
			YesPrice:   dec(polyYes),
			NoPrice:    dec(polyNo),
			ObservedAt: now,
		},
		B: domain.Quote{
			Venue:      domain.VenueKalshi,
			ExternalID: "LAKERS-26",
			EventTitle: "Lakers to win game",
			YesPrice:   dec(kalshiYes),
			NoPrice:    dec(kalshiNo),
			ObservedAt: now,
		},
		Confidence: 0.91,
	}
}

func TestEvaluateFindsYesNoEdge(t *testing.T) {
	c := NewCalculator(CalculatorConfig{MinEdge: dec("0.001")}, testLogger())

	// Polymarket yes 0.55 + Kalshi no 0.40 = 0.95, edge 0.05.
	pair := pairWithPrices("0.55", "0.47", "0.62", "0.40")
	now := time.Now()

	opp, ok, err := c.Evaluate(pair, now)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "buy_yes_polymarket_no_kalshi", opp.Strategy)
	assert.True(t, opp.GrossEdge.Equal(dec("0.05")), "gross edge %s", opp.GrossEdge)
	assert.True(t, opp.NetEdge.Equal(dec("0.05")), "net edge %s", opp.NetEdge)
	assert.True(t, opp.TotalFees.IsZero())
	assert.Equal(t, domain.SideYes, opp.Legs[0].Side)
	assert.Equal(t, domain.VenuePolymarket, opp.Legs[0].Venue)
	assert.Equal(t, domain.SideNo, opp.Legs[1].Side)
	assert.Equal(t, domain.VenueKalshi, opp.Legs[1].Venue)
	assert.Equal(t, now, opp.DetectedAt)
	assert.Equal(t, now, opp.LastConfirmedAt)
	assert.NotEmpty(t, opp.ID)
	assert.Equal(t, pair.Key(), opp.Key)
}

func TestEvaluatePicksBetterStrategy(t *testing.T) {
	c := NewCalculator(CalculatorConfig{MinEdge: dec("0.001")}, testLogger())

	// First strategy: 1 - (0.55 + 0.48) = -0.03. Second: 1 - (0.30 + 0.52) = 0.18.
	pair := pairWithPrices("0.55", "0.30", "0.52", "0.48")

	opp, ok, err := c.Evaluate(pair, time.Now())
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "buy_yes_kalshi_no_polymarket", opp.Strategy)
	assert.True(t, opp.NetEdge.Equal(dec("0.18")), "net edge %s", opp.NetEdge)
}

func TestEvaluateGrossEdgePicksStrategyBeforeFees(t *testing.T) {
	fees := NewBpsFeeModel(map[domain.Venue]int64{
		domain.VenuePolymarket: 1000, // 10% of notional
		domain.VenueKalshi:     0,
	})
	c := NewCalculator(CalculatorConfig{MinEdge: dec("0.001"), Fees: fees}, testLogger())

	// Strategy 1: 1 - (0.55 + 0.40) = 0.05 gross, 0.055 poly fee, net -0.005.
	// Strategy 2: 1 - (0.501 + 0.45) = 0.049 gross, 0.045 poly fee, net 0.004.
	// The larger gross spread wins the selection even though only the
	// smaller one would clear after fees, so nothing is emitted.
	pair := pairWithPrices("0.55", "0.45", "0.501", "0.40")

	_, ok, err := c.Evaluate(pair, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluateNoEdgeOnEfficientPrices(t *testing.T) {
	c := NewCalculator(CalculatorConfig{MinEdge: dec("0.001")}, testLogger())

	// Both side sums are >= 1; no strategy clears.
	pair := pairWithPrices("0.55", "0.47", "0.56", "0.46")

	_, ok, err := c.Evaluate(pair, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluateMinEdgeSuppressesNoise(t *testing.T) {
	c := NewCalculator(CalculatorConfig{MinEdge: dec("0.001")}, testLogger())

	// Edge is exactly 0.001, not strictly greater than the floor.
	pair := pairWithPrices("0.550", "0.600", "0.500", "0.449")

	_, ok, err := c.Evaluate(pair, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluateFeesReduceEdge(t *testing.T) {
	fees := NewBpsFeeModel(map[domain.Venue]int64{
		domain.VenueKalshi:     100, // 1% of notional
		domain.VenuePolymarket: 0,
	})
	c := NewCalculator(CalculatorConfig{MinEdge: dec("0.001"), Fees: fees}, testLogger())

	pair := pairWithPrices("0.55", "0.47", "0.62", "0.40")

	opp, ok, err := c.Evaluate(pair, time.Now())
	require.NoError(t, err)
	require.True(t, ok)

	// Kalshi leg fee: 0.40 * 1% = 0.004.
	assert.True(t, opp.TotalFees.Equal(dec("0.004")), "fees %s", opp.TotalFees)
	assert.True(t, opp.GrossEdge.Equal(dec("0.05")))
	assert.True(t, opp.NetEdge.Equal(dec("0.046")), "net edge %s", opp.NetEdge)
}

func TestEvaluateFeesCanKillEdge(t *testing.T) {
	fees := NewBpsFeeModel(map[domain.Venue]int64{
		domain.VenueKalshi:     700,
		domain.VenuePolymarket: 700,
	})
	c := NewCalculator(CalculatorConfig{MinEdge: dec("0.001"), Fees: fees}, testLogger())

	// Gross edge 0.05, fees 7% * (0.55 + 0.40) = 0.0665.
	pair := pairWithPrices("0.55", "0.47", "0.62", "0.40")

	_, ok, err := c.Evaluate(pair, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluateRejectsOutOfRangePrices(t *testing.T) {
	c := NewCalculator(CalculatorConfig{MinEdge: dec("0.001")}, testLogger())

	pair := pairWithPrices("0.55", "0.47", "0.62", "0.40")
	pair.B.NoPrice = dec("1.00")

	_, ok, err := c.Evaluate(pair, time.Now())
	assert.False(t, ok)
	assert.ErrorIs(t, err, domain.ErrComputation)
}

func TestEvaluateAllSkipsFailures(t *testing.T) {
	c := NewCalculator(CalculatorConfig{MinEdge: dec("0.001")}, testLogger())

	good := pairWithPrices("0.55", "0.47", "0.62", "0.40")
	bad := pairWithPrices("0.55", "0.47", "0.62", "0.40")
	bad.A.YesPrice = decimal.Zero

	opps := c.EvaluateAll([]domain.MatchedPair{bad, good}, time.Now())
	require.Len(t, opps, 1)
	assert.Equal(t, good.Key(), opps[0].Key)
}
