package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradewatch/arbscan/internal/arbitrage"
	"github.com/tradewatch/arbscan/internal/domain"
	"github.com/tradewatch/arbscan/internal/matcher"
)

type fakeSource struct {
	venue  domain.Venue
	quotes []domain.Quote
	err    error
	calls  int
}

func (f *fakeSource) Venue() domain.Venue { return f.venue }

func (f *fakeSource) FetchQuotes(context.Context) ([]domain.Quote, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.quotes, nil
}

type fakeAlerter struct {
	got []domain.Opportunity
}

func (f *fakeAlerter) OpportunityFound(_ context.Context, opp domain.Opportunity) error {
	f.got = append(f.got, opp)
	return nil
}

func mustDec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func arbQuotes(now time.Time) (poly, kalshi []domain.Quote) {
	poly = []domain.Quote{{
		Venue:      domain.VenuePolymarket,
		ExternalID: "0xlakers",
		EventTitle: "Lakers win?",
		YesPrice:   mustDec("0.55"),
		NoPrice:    mustDec("0.47"),
		ObservedAt: now,
	}}
	kalshi = []domain.Quote{{
		Venue:      domain.VenueKalshi,
		ExternalID: "LAKERS-26",
		EventTitle: "Lakers to win game",
		YesPrice:   mustDec("0.62"),
		NoPrice:    mustDec("0.40"),
		ObservedAt: now,
	}}
	return poly, kalshi
}

func newOrchestrator(t *testing.T, poly, kalshi VenueSource, alerter Alerter) (*Orchestrator, *arbitrage.Registry) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := arbitrage.NewRegistry(logger)

	o := NewOrchestrator(Deps{
		Polymarket: poly,
		Kalshi:     kalshi,
		Matcher:    matcher.New(matcher.Config{Threshold: 0.80}, logger),
		Calculator: arbitrage.NewCalculator(arbitrage.CalculatorConfig{MinEdge: mustDec("0.001")}, logger),
		Registry:   registry,
		Alerter:    alerter,
		Logger:     logger,
	}, Config{
		PollInterval:    10 * time.Millisecond,
		FetchTimeout:    time.Second,
		StalenessWindow: time.Minute,
	})
	return o, registry
}

func TestRunCycleDetectsOpportunity(t *testing.T) {
	now := time.Now()
	polyQuotes, kalshiQuotes := arbQuotes(now)
	alerter := &fakeAlerter{}
	o, registry := newOrchestrator(t,
		&fakeSource{venue: domain.VenuePolymarket, quotes: polyQuotes},
		&fakeSource{venue: domain.VenueKalshi, quotes: kalshiQuotes},
		alerter)

	res, err := o.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.PolymarketQuotes)
	assert.Equal(t, 1, res.KalshiQuotes)
	assert.Equal(t, 1, res.Pairs)
	assert.Equal(t, 1, res.New)
	assert.Equal(t, 1, res.Live)

	list := registry.List()
	require.Len(t, list, 1)
	assert.Equal(t, "buy_yes_polymarket_no_kalshi", list[0].Strategy)
	assert.True(t, list[0].NetEdge.Equal(mustDec("0.05")), "net edge %s", list[0].NetEdge)

	require.Len(t, alerter.got, 1)
	assert.Equal(t, list[0].ID, alerter.got[0].ID)
}

func TestRunCycleRepeatDoesNotReAlert(t *testing.T) {
	now := time.Now()
	polyQuotes, kalshiQuotes := arbQuotes(now)
	alerter := &fakeAlerter{}
	o, registry := newOrchestrator(t,
		&fakeSource{venue: domain.VenuePolymarket, quotes: polyQuotes},
		&fakeSource{venue: domain.VenueKalshi, quotes: kalshiQuotes},
		alerter)

	_, err := o.RunCycle(context.Background())
	require.NoError(t, err)
	res, err := o.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, res.New, "re-confirmation is not a new opportunity")
	assert.Equal(t, 1, res.Live)
	assert.Len(t, alerter.got, 1)
	assert.Len(t, registry.List(), 1)
}

func TestRunCycleSingleVenueOutageDegrades(t *testing.T) {
	now := time.Now()
	polyQuotes, kalshiQuotes := arbQuotes(now)
	o, registry := newOrchestrator(t,
		&fakeSource{venue: domain.VenuePolymarket, quotes: polyQuotes},
		&fakeSource{venue: domain.VenueKalshi, quotes: kalshiQuotes},
		nil)

	_, err := o.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, registry.List(), 1)

	// Kalshi goes down. The cycle must not error and must not wipe the
	// registry; expiry stays up to the sweep.
	broken := &fakeSource{venue: domain.VenueKalshi, err: errors.New("status 503")}
	o2 := NewOrchestrator(Deps{
		Polymarket: &fakeSource{venue: domain.VenuePolymarket, quotes: polyQuotes},
		Kalshi:     broken,
		Matcher:    matcher.New(matcher.Config{Threshold: 0.80}, slog.New(slog.NewTextHandler(io.Discard, nil))),
		Calculator: arbitrage.NewCalculator(arbitrage.CalculatorConfig{MinEdge: mustDec("0.001")}, slog.New(slog.NewTextHandler(io.Discard, nil))),
		Registry:   registry,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, Config{PollInterval: time.Second, FetchTimeout: time.Second, StalenessWindow: time.Minute})

	res, err := o2.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Pairs)
	assert.Equal(t, 1, res.Live, "live opportunities survive a single-venue outage")
}

func TestRunCycleBothVenuesDownFails(t *testing.T) {
	o, _ := newOrchestrator(t,
		&fakeSource{venue: domain.VenuePolymarket, err: errors.New("status 503")},
		&fakeSource{venue: domain.VenueKalshi, err: errors.New("timeout")},
		nil)

	_, err := o.RunCycle(context.Background())
	assert.ErrorIs(t, err, domain.ErrFetchFailed)
}

func TestRunCycleBothVenuesDownStillSweeps(t *testing.T) {
	now := time.Now()
	polyQuotes, kalshiQuotes := arbQuotes(now)
	o, registry := newOrchestrator(t,
		&fakeSource{venue: domain.VenuePolymarket, err: errors.New("status 503")},
		&fakeSource{venue: domain.VenueKalshi, err: errors.New("timeout")},
		nil)

	// Seed an opportunity last confirmed well past the 1m staleness window.
	registry.Upsert([]domain.Opportunity{{
		ID:  "seeded",
		Key: domain.PairKey(polyQuotes[0], kalshiQuotes[0]),
		Pair: domain.MatchedPair{
			A: polyQuotes[0], B: kalshiQuotes[0], Confidence: 0.9,
		},
		Strategy:        "buy_yes_polymarket_no_kalshi",
		NetEdge:         mustDec("0.05"),
		DetectedAt:      now.Add(-10 * time.Minute),
		LastConfirmedAt: now.Add(-5 * time.Minute),
	}})
	require.Len(t, registry.List(), 1)

	res, err := o.RunCycle(context.Background())
	require.ErrorIs(t, err, domain.ErrFetchFailed)

	assert.Equal(t, 1, res.Expired, "dual-outage cycle still expires stale entries")
	assert.Empty(t, registry.List())
}

func TestRunCycleSweepsStaleEntries(t *testing.T) {
	now := time.Now()
	polyQuotes, kalshiQuotes := arbQuotes(now)
	o, registry := newOrchestrator(t,
		&fakeSource{venue: domain.VenuePolymarket, quotes: polyQuotes},
		&fakeSource{venue: domain.VenueKalshi, quotes: kalshiQuotes},
		nil)

	_, err := o.RunCycle(context.Background())
	require.NoError(t, err)

	// Prices converge: the pair still matches but no longer clears, so the
	// entry ages out once the staleness window passes.
	efficient := polyQuotes
	efficient[0].YesPrice = mustDec("0.58")
	efficient[0].NoPrice = mustDec("0.44")

	removed := registry.Sweep(now.Add(2*time.Minute), time.Minute)
	assert.Len(t, removed, 1)
	assert.Empty(t, registry.List())
}

func TestRunLoopStopsOnCancel(t *testing.T) {
	now := time.Now()
	polyQuotes, kalshiQuotes := arbQuotes(now)
	polySrc := &fakeSource{venue: domain.VenuePolymarket, quotes: polyQuotes}
	o, _ := newOrchestrator(t, polySrc,
		&fakeSource{venue: domain.VenueKalshi, quotes: kalshiQuotes}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("orchestrator did not stop on cancel")
	}
	assert.GreaterOrEqual(t, polySrc.calls, 2, "loop ran the immediate cycle plus ticks")
}
