// Package pipeline drives the detection cycle: fetch quotes from both
// venues, match them, price the matches, and commit the results to the
// registry and downstream consumers.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tradewatch/arbscan/internal/arbitrage"
	"github.com/tradewatch/arbscan/internal/domain"
	"github.com/tradewatch/arbscan/internal/matcher"
)

// Bus channel names for cycle output.
const (
	ChannelOpportunities = "opportunities"
	ChannelCycles        = "cycles"
)

// Alerter receives newly detected opportunities. Implemented by the notify
// package; nil disables alerting.
type Alerter interface {
	OpportunityFound(ctx context.Context, opp domain.Opportunity) error
}

// Config holds the orchestrator timing knobs.
type Config struct {
	// PollInterval is the spacing between detection cycles.
	PollInterval time.Duration
	// FetchTimeout bounds each venue fetch within a cycle.
	FetchTimeout time.Duration
	// StalenessWindow is how long an opportunity survives without being
	// re-confirmed before the sweep drops it.
	StalenessWindow time.Duration
}

// Deps are the orchestrator's collaborators. Cache, Bus, Store, and Alerter
// are optional; the cycle runs fully in-memory without them.
type Deps struct {
	Polymarket VenueSource
	Kalshi     VenueSource
	Matcher    *matcher.Matcher
	Calculator *arbitrage.Calculator
	Registry   *arbitrage.Registry
	Cache      domain.QuoteCache
	Bus        domain.SignalBus
	Store      domain.OpportunityStore
	Alerter    Alerter
	Logger     *slog.Logger
}

// Orchestrator owns the detection loop. It is the registry's single writer.
type Orchestrator struct {
	deps       Deps
	cfg        Config
	cycleMu    sync.Mutex
	lastResult atomic.Pointer[CycleResult]
	logger     *slog.Logger
}

func NewOrchestrator(deps Deps, cfg Config) *Orchestrator {
	return &Orchestrator{
		deps:   deps,
		cfg:    cfg,
		logger: deps.Logger.With(slog.String("component", "orchestrator")),
	}
}

// CycleResult summarizes one detection cycle.
type CycleResult struct {
	PolymarketQuotes int           `json:"polymarket_quotes"`
	KalshiQuotes     int           `json:"kalshi_quotes"`
	Pairs            int           `json:"pairs"`
	New              int           `json:"new"`
	Expired          int           `json:"expired"`
	Live             int           `json:"live"`
	Duration         time.Duration `json:"duration_ns"`
	StartedAt        time.Time     `json:"started_at"`
}

// Run executes detection cycles on the poll interval until ctx is
// cancelled. The first cycle starts immediately. A cycle that outlasts the
// interval causes the next tick to be skipped rather than queued.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("orchestrator started",
		slog.Duration("poll_interval", o.cfg.PollInterval),
		slog.Duration("staleness_window", o.cfg.StalenessWindow))
	defer o.logger.Info("orchestrator stopped")

	o.tick(ctx)

	ticker := time.NewTicker(o.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			o.tick(ctx)
		}
	}
}

func (o *Orchestrator) tick(ctx context.Context) {
	if !o.cycleMu.TryLock() {
		o.logger.Warn("previous cycle still running, skipping tick")
		return
	}
	defer o.cycleMu.Unlock()

	res, err := o.runCycle(ctx)
	if err != nil {
		if ctx.Err() == nil {
			o.logger.Error("cycle failed", slog.String("error", err.Error()))
		}
		return
	}
	o.logger.Info("cycle complete",
		slog.Int("polymarket_quotes", res.PolymarketQuotes),
		slog.Int("kalshi_quotes", res.KalshiQuotes),
		slog.Int("pairs", res.Pairs),
		slog.Int("new", res.New),
		slog.Int("expired", res.Expired),
		slog.Int("live", res.Live),
		slog.Duration("duration", res.Duration))
}

// RunCycle executes a single detection cycle. Used by the one-shot scan
// mode; Run calls the same path on each tick.
func (o *Orchestrator) RunCycle(ctx context.Context) (CycleResult, error) {
	o.cycleMu.Lock()
	defer o.cycleMu.Unlock()
	return o.runCycle(ctx)
}

func (o *Orchestrator) runCycle(ctx context.Context) (CycleResult, error) {
	start := time.Now()
	res := CycleResult{StartedAt: start.UTC()}

	poly, kalshi, fetchErrs := o.fetch(ctx)
	res.PolymarketQuotes = len(poly)
	res.KalshiQuotes = len(kalshi)

	if len(fetchErrs) == 2 {
		// Dual outage: the cycle is sweep-only. No new matches, but
		// entries past the staleness window still expire so a prolonged
		// outage cannot serve stale opportunities forever.
		expired := o.deps.Registry.Sweep(start, o.cfg.StalenessWindow)
		res.Expired = len(expired)
		res.Live = o.deps.Registry.Len()
		res.Duration = time.Since(start)
		return res, fmt.Errorf("pipeline: all venue fetches failed: %w: %v",
			domain.ErrFetchFailed, fetchErrs)
	}
	for _, err := range fetchErrs {
		// One venue down: skip matching this cycle, still sweep so dead
		// opportunities expire on schedule.
		o.logger.Warn("venue fetch failed, degrading cycle",
			slog.String("error", err.Error()))
	}

	var opps []domain.Opportunity
	if len(fetchErrs) == 0 {
		pairs := o.deps.Matcher.Match(poly, kalshi)
		res.Pairs = len(pairs)
		opps = o.deps.Calculator.EvaluateAll(pairs, start)
	}

	appeared := o.deps.Registry.Upsert(opps)
	expired := o.deps.Registry.Sweep(start, o.cfg.StalenessWindow)

	res.New = len(appeared)
	res.Expired = len(expired)
	res.Live = o.deps.Registry.Len()
	res.Duration = time.Since(start)
	o.lastResult.Store(&res)

	o.fanOut(ctx, appeared, res)
	return res, nil
}

// LastResult returns the most recent cycle summary, or false before the
// first cycle completes.
func (o *Orchestrator) LastResult() (CycleResult, bool) {
	res := o.lastResult.Load()
	if res == nil {
		return CycleResult{}, false
	}
	return *res, true
}

// fetch pulls both venues concurrently under per-venue timeouts. A failure
// on one venue does not abort the other.
func (o *Orchestrator) fetch(ctx context.Context) (poly, kalshi []domain.Quote, errs []error) {
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	fetchOne := func(src VenueSource, out *[]domain.Quote) func() error {
		return func() error {
			fctx, cancel := context.WithTimeout(ctx, o.cfg.FetchTimeout)
			defer cancel()

			quotes, err := src.FetchQuotes(fctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", src.Venue(), err))
				return nil
			}
			*out = quotes
			if o.deps.Cache != nil {
				if cerr := o.deps.Cache.SetQuotes(ctx, src.Venue(), quotes); cerr != nil {
					o.logger.Warn("quote cache write failed",
						slog.String("venue", string(src.Venue())),
						slog.String("error", cerr.Error()))
				}
			}
			return nil
		}
	}

	g.Go(fetchOne(o.deps.Polymarket, &poly))
	g.Go(fetchOne(o.deps.Kalshi, &kalshi))
	_ = g.Wait()
	return poly, kalshi, errs
}

// fanOut delivers cycle output to the optional collaborators. Delivery
// failures are logged, never propagated; the registry already holds the
// truth.
func (o *Orchestrator) fanOut(ctx context.Context, appeared []domain.Opportunity, res CycleResult) {
	for _, opp := range appeared {
		if o.deps.Store != nil {
			if err := o.deps.Store.Insert(ctx, opp); err != nil {
				o.logger.Warn("opportunity store insert failed",
					slog.String("opp_id", opp.ID),
					slog.String("error", err.Error()))
			}
		}
		if o.deps.Alerter != nil {
			if err := o.deps.Alerter.OpportunityFound(ctx, opp); err != nil {
				o.logger.Warn("alert delivery failed",
					slog.String("opp_id", opp.ID),
					slog.String("error", err.Error()))
			}
		}
		if o.deps.Bus != nil {
			if payload, err := json.Marshal(opp); err == nil {
				if err := o.deps.Bus.Publish(ctx, ChannelOpportunities, payload); err != nil {
					o.logger.Warn("bus publish failed",
						slog.String("channel", ChannelOpportunities),
						slog.String("error", err.Error()))
				}
			}
		}
	}

	if o.deps.Bus != nil {
		if payload, err := json.Marshal(res); err == nil {
			if err := o.deps.Bus.Publish(ctx, ChannelCycles, payload); err != nil {
				o.logger.Warn("bus publish failed",
					slog.String("channel", ChannelCycles),
					slog.String("error", err.Error()))
			}
		}
	}
}
