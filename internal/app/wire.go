package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/tradewatch/arbscan/internal/arbitrage"
	"github.com/tradewatch/arbscan/internal/cache/redis"
	"github.com/tradewatch/arbscan/internal/config"
	"github.com/tradewatch/arbscan/internal/domain"
	"github.com/tradewatch/arbscan/internal/matcher"
	"github.com/tradewatch/arbscan/internal/normalize"
	"github.com/tradewatch/arbscan/internal/notify"
	"github.com/tradewatch/arbscan/internal/pipeline"
	"github.com/tradewatch/arbscan/internal/platform/kalshi"
	"github.com/tradewatch/arbscan/internal/platform/polymarket"
	"github.com/tradewatch/arbscan/internal/store/postgres"
)

// Dependencies bundles everything the application modes need to operate. It
// is constructed by Wire and torn down by the returned cleanup function.
// Cache, Bus, and Store are nil when the corresponding backend is disabled
// in the configuration; the pipeline degrades to fully in-memory operation.
type Dependencies struct {
	Registry     *arbitrage.Registry
	Orchestrator *pipeline.Orchestrator

	Cache domain.QuoteCache
	Bus   domain.SignalBus
	Store domain.OpportunityStore

	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Redis (quote cache + signal bus) ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.Cache = redis.NewQuoteCache(redisClient, cfg.Redis.QuoteTTL.Duration)
		deps.Bus = redis.NewSignalBus(redisClient)
	}

	// --- PostgreSQL (opportunity history) ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		deps.Store = postgres.NewOpportunityStore(pgClient.Pool())
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	var alerter pipeline.Alerter
	if len(senders) > 0 {
		alerter = notify.NewOpportunityAlerter(deps.Notifier)
	}

	// --- Detection pipeline ---
	norm := normalize.New(cfg.Pipeline.QuoteMaxAge.Duration, logger)

	polySource := pipeline.NewPolymarketSource(
		polymarket.NewGammaClient(cfg.Polymarket.GammaHost), norm)
	kalshiSource := pipeline.NewKalshiSource(
		kalshi.NewClient(cfg.Kalshi.BaseURL), norm)

	m := matcher.New(matcher.Config{
		Threshold:      cfg.Matching.ConfidenceThreshold,
		ManualMappings: cfg.Matching.ManualMappings,
	}, logger)

	fees := make(map[domain.Venue]int64, len(cfg.Arbitrage.PerVenueFeeBps))
	for name, bps := range cfg.Arbitrage.PerVenueFeeBps {
		v := domain.Venue(name)
		if !v.Valid() {
			cleanup()
			return nil, nil, fmt.Errorf("wire: unknown fee venue %q", name)
		}
		fees[v] = bps
	}
	calc := arbitrage.NewCalculator(arbitrage.CalculatorConfig{
		MinEdge: decimal.NewFromFloat(cfg.Arbitrage.MinEdge),
		Fees:    arbitrage.NewBpsFeeModel(fees),
	}, logger)

	deps.Registry = arbitrage.NewRegistry(logger)

	deps.Orchestrator = pipeline.NewOrchestrator(pipeline.Deps{
		Polymarket: polySource,
		Kalshi:     kalshiSource,
		Matcher:    m,
		Calculator: calc,
		Registry:   deps.Registry,
		Cache:      deps.Cache,
		Bus:        deps.Bus,
		Store:      deps.Store,
		Alerter:    alerter,
		Logger:     logger,
	}, pipeline.Config{
		PollInterval:    cfg.Pipeline.PollInterval.Duration,
		FetchTimeout:    cfg.Pipeline.FetchTimeout.Duration,
		StalenessWindow: cfg.Pipeline.StalenessWindow.Duration,
	})

	return deps, cleanup, nil
}
