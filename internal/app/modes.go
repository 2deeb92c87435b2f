package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/tradewatch/arbscan/internal/domain"
	"github.com/tradewatch/arbscan/internal/server"
	"github.com/tradewatch/arbscan/internal/server/handler"
	"github.com/tradewatch/arbscan/internal/server/ws"
)

// MonitorMode runs the detection loop continuously alongside the HTTP and
// WebSocket API, plus the history retention cron when persistence is wired.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting monitor mode")

	startedAt := time.Now().UTC()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return deps.Orchestrator.Run(ctx)
	})

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps, startedAt)
	}

	if deps.Store != nil && a.cfg.Pipeline.RetentionDays > 0 {
		a.startRetentionCron(ctx, g, deps.Store)
	}

	return g.Wait()
}

// ScanMode runs a single detection cycle and prints the resulting
// opportunities as a table on stdout.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting scan mode")

	res, err := deps.Orchestrator.RunCycle(ctx)
	if err != nil {
		return fmt.Errorf("scan mode: %w", err)
	}

	opps := deps.Registry.List()
	fmt.Printf("scanned %d polymarket / %d kalshi quotes, %d matched pairs, %d opportunities (%.1fs)\n",
		res.PolymarketQuotes, res.KalshiQuotes, res.Pairs, len(opps), res.Duration.Seconds())

	if len(opps) == 0 {
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("#", "Strategy", "Polymarket", "Kalshi", "Gross", "Fees", "Net", "Conf")

	for i, opp := range opps {
		polyQ, _ := opp.Pair.QuoteFor(domain.VenuePolymarket)
		kalshiQ, _ := opp.Pair.QuoteFor(domain.VenueKalshi)

		conf := fmt.Sprintf("%.2f", opp.Pair.Confidence)
		if opp.Pair.Manual {
			conf = "manual"
		}

		table.Append(
			fmt.Sprintf("%d", i+1),
			opp.Strategy,
			truncate(polyQ.EventTitle, 40),
			truncate(kalshiQ.EventTitle, 40),
			opp.GrossEdge.StringFixed(4),
			opp.TotalFees.StringFixed(4),
			opp.NetEdge.StringFixed(4),
			conf,
		)
	}

	table.Render()
	return nil
}

// startHTTPServer registers the API handlers and runs the server, plus the
// WebSocket hub when a signal bus is available, under the given errgroup.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, startedAt time.Time) {
	var hub *ws.Hub
	if deps.Bus != nil {
		hub = ws.NewHub(deps.Bus, a.logger, ws.Config{
			Mode:      a.cfg.Mode,
			StartedAt: startedAt,
		})
		g.Go(func() error {
			return hub.Run(ctx)
		})
	}

	srv := server.NewServer(server.Config{
		Port:           a.cfg.Server.Port,
		CORSOrigins:    a.cfg.Server.CORSOrigins,
		APIKey:         a.cfg.Server.APIKey,
		RateLimitRPS:   a.cfg.Server.RateLimitRPS,
		RateLimitBurst: a.cfg.Server.RateLimitBurst,
	}, server.Handlers{
		Health:        handler.NewHealthHandler(a.logger),
		Opportunities: handler.NewOpportunityHandler(deps.Registry, deps.Store, a.logger),
		Quotes:        handler.NewQuoteHandler(deps.Cache, a.logger),
		Status:        handler.NewStatusHandler(deps.Registry, deps.Orchestrator, a.cfg.Mode, startedAt, a.logger),
	}, hub, a.logger)

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}

// startRetentionCron schedules the daily prune of persisted opportunity
// history older than the configured retention window.
func (a *App) startRetentionCron(ctx context.Context, g *errgroup.Group, store domain.OpportunityStore) {
	retention := a.cfg.Pipeline.RetentionDays
	c := cron.New()

	_, err := c.AddFunc(a.cfg.Pipeline.RetentionCron, func() {
		cutoff := time.Now().UTC().AddDate(0, 0, -retention)
		deleted, err := store.DeleteBefore(ctx, cutoff)
		if err != nil {
			a.logger.Error("retention prune failed", slog.String("error", err.Error()))
			return
		}
		a.logger.Info("retention prune complete",
			slog.Int64("deleted", deleted),
			slog.Time("cutoff", cutoff),
		)
	})
	if err != nil {
		a.logger.Warn("invalid retention cron spec, pruning disabled",
			slog.String("spec", a.cfg.Pipeline.RetentionCron),
			slog.String("error", err.Error()),
		)
		return
	}

	c.Start()
	g.Go(func() error {
		<-ctx.Done()
		<-c.Stop().Done()
		return ctx.Err()
	})
}

// truncate shortens s to at most n runes, never splitting a multibyte
// character.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
