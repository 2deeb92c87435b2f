// Package config defines the top-level configuration for arbscan and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by ARBSCAN_* environment
// variables.
type Config struct {
	Polymarket PolymarketConfig `toml:"polymarket"`
	Kalshi     KalshiConfig     `toml:"kalshi"`
	Matching   MatchingConfig   `toml:"matching"`
	Arbitrage  ArbitrageConfig  `toml:"arbitrage"`
	Pipeline   PipelineConfig   `toml:"pipeline"`
	Redis      RedisConfig      `toml:"redis"`
	Postgres   PostgresConfig   `toml:"postgres"`
	Server     ServerConfig     `toml:"server"`
	Notify     NotifyConfig     `toml:"notify"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// PolymarketConfig holds the Polymarket Gamma API endpoint.
type PolymarketConfig struct {
	GammaHost string `toml:"gamma_host"`
}

// KalshiConfig holds the Kalshi trade API endpoint. Market data is public;
// no credentials are needed.
type KalshiConfig struct {
	BaseURL string `toml:"base_url"`
}

// MatchingConfig holds event-matching parameters.
type MatchingConfig struct {
	// ConfidenceThreshold is the minimum similarity score for an automatic
	// cross-venue pairing.
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
	// ManualMappings maps Polymarket market IDs to Kalshi tickers for
	// events the text matcher cannot pair on its own.
	ManualMappings map[string]string `toml:"manual_mappings"`
}

// ArbitrageConfig holds opportunity evaluation parameters.
type ArbitrageConfig struct {
	// MinEdge is the minimum net edge (in probability units, e.g. 0.001)
	// an opportunity must clear.
	MinEdge float64 `toml:"min_edge"`
	// PerVenueFeeBps is the flat fee in basis points charged per leg,
	// keyed by venue name.
	PerVenueFeeBps map[string]int64 `toml:"per_venue_fee_bps"`
}

// PipelineConfig holds detection-cycle timing parameters.
type PipelineConfig struct {
	PollInterval    duration `toml:"poll_interval"`
	FetchTimeout    duration `toml:"fetch_timeout"`
	QuoteMaxAge     duration `toml:"quote_max_age"`
	StalenessWindow duration `toml:"staleness_window"`
	// RetentionDays bounds the persisted opportunity history; rows older
	// than this are pruned on the retention cron. Zero disables pruning.
	RetentionDays int    `toml:"retention_days"`
	RetentionCron string `toml:"retention_cron"`
}

// RedisConfig holds Redis connection parameters for the quote cache and
// signal bus.
type RedisConfig struct {
	Enabled    bool     `toml:"enabled"`
	Addr       string   `toml:"addr"`
	Password   string   `toml:"password"`
	DB         int      `toml:"db"`
	PoolSize   int      `toml:"pool_size"`
	MaxRetries int      `toml:"max_retries"`
	TLSEnabled bool     `toml:"tls_enabled"`
	QuoteTTL   duration `toml:"quote_ttl"`
}

// PostgresConfig holds connection parameters for opportunity history
// persistence.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled        bool     `toml:"enabled"`
	Port           int      `toml:"port"`
	CORSOrigins    []string `toml:"cors_origins"`
	APIKey         string   `toml:"api_key"`
	RateLimitRPS   float64  `toml:"rate_limit_rps"`
	RateLimitBurst int      `toml:"rate_limit_burst"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Polymarket: PolymarketConfig{
			GammaHost: "https://gamma-api.polymarket.com",
		},
		Kalshi: KalshiConfig{
			BaseURL: "https://api.elections.kalshi.com/trade-api/v2",
		},
		Matching: MatchingConfig{
			ConfidenceThreshold: 0.80,
			ManualMappings:      map[string]string{},
		},
		Arbitrage: ArbitrageConfig{
			MinEdge: 0.001,
			PerVenueFeeBps: map[string]int64{
				"polymarket": 0,
				"kalshi":     7,
			},
		},
		Pipeline: PipelineConfig{
			PollInterval:    duration{30 * time.Second},
			FetchTimeout:    duration{20 * time.Second},
			QuoteMaxAge:     duration{2 * time.Minute},
			StalenessWindow: duration{3 * time.Minute},
			RetentionDays:   30,
			RetentionCron:   "0 4 * * *",
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			QuoteTTL:   duration{5 * time.Minute},
		},
		Postgres: PostgresConfig{
			Enabled:       false,
			Host:          "localhost",
			Port:          5432,
			Database:      "arbscan",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Server: ServerConfig{
			Enabled:        true,
			Port:           8000,
			CORSOrigins:    []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimitRPS:   0,
			RateLimitBurst: 0,
		},
		Notify: NotifyConfig{
			Events: []string{"opportunity"},
		},
		Mode:     "monitor",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"monitor": true,
	"scan":    true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and
// returns a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: monitor, scan)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Polymarket.GammaHost == "" {
		errs = append(errs, "polymarket: gamma_host must not be empty")
	}
	if c.Kalshi.BaseURL == "" {
		errs = append(errs, "kalshi: base_url must not be empty")
	}

	if c.Matching.ConfidenceThreshold <= 0 || c.Matching.ConfidenceThreshold > 1 {
		errs = append(errs, fmt.Sprintf("matching: confidence_threshold must be in (0,1], got %g", c.Matching.ConfidenceThreshold))
	}

	if c.Arbitrage.MinEdge < 0 {
		errs = append(errs, "arbitrage: min_edge must be >= 0")
	}
	for venue, bps := range c.Arbitrage.PerVenueFeeBps {
		if venue != "polymarket" && venue != "kalshi" {
			errs = append(errs, fmt.Sprintf("arbitrage: unknown venue %q in per_venue_fee_bps", venue))
		}
		if bps < 0 {
			errs = append(errs, fmt.Sprintf("arbitrage: per_venue_fee_bps[%s] must be >= 0", venue))
		}
	}

	if c.Pipeline.PollInterval.Duration <= 0 {
		errs = append(errs, "pipeline: poll_interval must be > 0")
	}
	if c.Pipeline.FetchTimeout.Duration <= 0 {
		errs = append(errs, "pipeline: fetch_timeout must be > 0")
	}
	if c.Pipeline.QuoteMaxAge.Duration <= 0 {
		errs = append(errs, "pipeline: quote_max_age must be > 0")
	}
	if c.Pipeline.StalenessWindow.Duration < c.Pipeline.PollInterval.Duration {
		errs = append(errs, "pipeline: staleness_window must be >= poll_interval or live entries expire between cycles")
	}
	if c.Pipeline.RetentionDays < 0 {
		errs = append(errs, "pipeline: retention_days must be >= 0")
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimitRPS < 0 {
			errs = append(errs, "server: rate_limit_rps must be >= 0")
		}
	}

	// Telegram credentials come in pairs.
	tt := c.Notify.TelegramToken != ""
	tc := c.Notify.TelegramChatID != ""
	if tt != tc {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
