package normalize

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradewatch/arbscan/internal/domain"
	"github.com/tradewatch/arbscan/internal/platform/kalshi"
	"github.com/tradewatch/arbscan/internal/platform/polymarket"
)

func testNormalizer(maxAge time.Duration) *Normalizer {
	return New(maxAge, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestKalshiMarket(t *testing.T) {
	n := testNormalizer(0)
	now := time.Now().UTC()

	m := kalshi.Market{
		Ticker:    "KXNBA-26-LAL",
		Title:     "Will the Lakers win the game?",
		Subtitle:  "Lakers",
		YesAsk:    55,
		YesBid:    53,
		NoAsk:     46,
		LastPrice: 54,
		CloseTime: "2026-03-01T02:00:00Z",
	}

	q, err := n.KalshiMarket(m, now)
	require.NoError(t, err)

	assert.Equal(t, domain.VenueKalshi, q.Venue)
	assert.Equal(t, "KXNBA-26-LAL", q.ExternalID)
	assert.Equal(t, "Will the Lakers win the game?", q.EventTitle)
	assert.Equal(t, "Lakers", q.OutcomeLabel)
	assert.True(t, q.YesPrice.Equal(decimal.RequireFromString("0.55")), "ask wins over bid and last")
	assert.True(t, q.NoPrice.Equal(decimal.RequireFromString("0.46")))
	assert.Equal(t, 2026, q.EventDate.Year())
	assert.Equal(t, "https://kalshi.com/markets/KXNBA-26-LAL", q.URL)
	assert.Equal(t, now, q.ObservedAt)
}

func TestKalshiMarketPriceFallbacks(t *testing.T) {
	n := testNormalizer(0)
	now := time.Now().UTC()

	t.Run("bid when no ask", func(t *testing.T) {
		q, err := n.KalshiMarket(kalshi.Market{
			Ticker: "T1", Title: "Something happens", YesBid: 40, LastPrice: 45, NoAsk: 61,
		}, now)
		require.NoError(t, err)
		assert.True(t, q.YesPrice.Equal(decimal.RequireFromString("0.40")))
	})

	t.Run("last trade when no quotes", func(t *testing.T) {
		q, err := n.KalshiMarket(kalshi.Market{
			Ticker: "T2", Title: "Something happens", LastPrice: 45, NoAsk: 56,
		}, now)
		require.NoError(t, err)
		assert.True(t, q.YesPrice.Equal(decimal.RequireFromString("0.45")))
	})

	t.Run("no price complements yes when unquoted", func(t *testing.T) {
		q, err := n.KalshiMarket(kalshi.Market{
			Ticker: "T3", Title: "Something happens", YesAsk: 30,
		}, now)
		require.NoError(t, err)
		assert.True(t, q.NoPrice.Equal(decimal.RequireFromString("0.70")))
	})

	t.Run("fully unquoted market rejected", func(t *testing.T) {
		_, err := n.KalshiMarket(kalshi.Market{Ticker: "T4", Title: "Something happens"}, now)
		require.ErrorIs(t, err, domain.ErrMalformedQuote)
	})
}

func TestPolymarketMarket(t *testing.T) {
	n := testNormalizer(0)
	now := time.Now().UTC()

	m := polymarket.APIMarket{
		ID:            "0xabc123",
		Question:      "Will the Lakers win?",
		Slug:          "will-the-lakers-win",
		Outcomes:      `["Yes","No"]`,
		OutcomePrices: `["0.55","0.45"]`,
		EndDateISO:    "2026-03-01",
	}

	q, err := n.PolymarketMarket(m, now)
	require.NoError(t, err)

	assert.Equal(t, domain.VenuePolymarket, q.Venue)
	assert.Equal(t, "0xabc123", q.ExternalID)
	assert.Equal(t, "Will the Lakers win?", q.EventTitle)
	assert.Equal(t, "Yes", q.OutcomeLabel)
	assert.True(t, q.YesPrice.Equal(decimal.RequireFromString("0.55")))
	assert.True(t, q.NoPrice.Equal(decimal.RequireFromString("0.45")))
	assert.Equal(t, 2026, q.EventDate.Year())
	assert.Equal(t, "https://polymarket.com/event/will-the-lakers-win", q.URL)
}

func TestPolymarketMarketPrefersGameStartDate(t *testing.T) {
	n := testNormalizer(0)

	q, err := n.PolymarketMarket(polymarket.APIMarket{
		ID:            "1",
		Question:      "Will the game finish in overtime?",
		OutcomePrices: `["0.10","0.90"]`,
		GameStartTime: "2026-02-15T00:30:00Z",
		EndDateISO:    "2026-02-20",
	}, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 15, q.EventDate.Day())
}

func TestPolymarketMarketMalformed(t *testing.T) {
	n := testNormalizer(0)
	now := time.Now().UTC()

	tests := []struct {
		name string
		m    polymarket.APIMarket
	}{
		{"missing question", polymarket.APIMarket{ID: "1", OutcomePrices: `["0.5","0.5"]`}},
		{"missing prices", polymarket.APIMarket{ID: "2", Question: "Q?"}},
		{"unparseable price", polymarket.APIMarket{ID: "3", Question: "Q?", OutcomePrices: `["abc","0.5"]`}},
		{"resolved market at bound", polymarket.APIMarket{ID: "4", Question: "Q?", OutcomePrices: `["1","0"]`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := n.PolymarketMarket(tt.m, now)
			require.ErrorIs(t, err, domain.ErrMalformedQuote)
		})
	}
}

func TestStaleObservationRejected(t *testing.T) {
	n := testNormalizer(time.Minute)

	m := kalshi.Market{Ticker: "T", Title: "Something happens", YesAsk: 50, NoAsk: 51}

	_, err := n.KalshiMarket(m, time.Now().UTC().Add(-2*time.Minute))
	require.ErrorIs(t, err, domain.ErrMalformedQuote)

	_, err = n.KalshiMarket(m, time.Now().UTC())
	require.NoError(t, err)
}

func TestBatchSkipsBadRecords(t *testing.T) {
	n := testNormalizer(0)
	now := time.Now().UTC()

	quotes := n.Kalshi([]kalshi.Market{
		{Ticker: "GOOD", Title: "Something happens", YesAsk: 40, NoAsk: 61},
		{Ticker: "BAD"}, // no title, no price
		{Ticker: "ALSO-GOOD", Title: "Something else happens", YesAsk: 20, NoAsk: 81},
	}, now)

	require.Len(t, quotes, 2)
	assert.Equal(t, "GOOD", quotes[0].ExternalID)
	assert.Equal(t, "ALSO-GOOD", quotes[1].ExternalID)
}
