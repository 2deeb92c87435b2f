// Package normalize converts venue-native market payloads into canonical
// domain.Quote records. Malformed records are reported and dropped from the
// cycle; they are never fatal.
package normalize

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradewatch/arbscan/internal/domain"
	"github.com/tradewatch/arbscan/internal/platform/kalshi"
	"github.com/tradewatch/arbscan/internal/platform/polymarket"
)

var (
	one        = decimal.NewFromInt(1)
	oneHundred = decimal.NewFromInt(100)
)

// Normalizer validates and converts raw venue markets into domain.Quote.
type Normalizer struct {
	maxAge time.Duration
	logger *slog.Logger
}

// New creates a Normalizer. maxAge is the oldest observation accepted into a
// cycle; older quotes are rejected as stale.
func New(maxAge time.Duration, logger *slog.Logger) *Normalizer {
	return &Normalizer{
		maxAge: maxAge,
		logger: logger.With(slog.String("component", "normalizer")),
	}
}

// Kalshi converts a batch of Kalshi markets fetched at observedAt. Records
// that fail validation are logged at debug level and skipped.
func (n *Normalizer) Kalshi(markets []kalshi.Market, observedAt time.Time) []domain.Quote {
	quotes := make([]domain.Quote, 0, len(markets))
	for i := range markets {
		q, err := n.KalshiMarket(markets[i], observedAt)
		if err != nil {
			n.logger.Debug("dropping kalshi market",
				slog.String("ticker", markets[i].Ticker),
				slog.String("error", err.Error()),
			)
			continue
		}
		quotes = append(quotes, q)
	}
	return quotes
}

// KalshiMarket converts a single Kalshi market. Kalshi prices are cents
// (1-99); the cost of a position is the ask, falling back to the bid and
// then the last traded price when one side is unquoted.
func (n *Normalizer) KalshiMarket(m kalshi.Market, observedAt time.Time) (domain.Quote, error) {
	if m.Title == "" {
		return domain.Quote{}, fmt.Errorf("%w: missing title", domain.ErrMalformedQuote)
	}

	yesCents := pickKalshiCents(m.YesAsk, m.YesBid, m.LastPrice)
	if yesCents == 0 {
		return domain.Quote{}, fmt.Errorf("%w: no yes price", domain.ErrMalformedQuote)
	}
	yes := decimal.NewFromInt(yesCents).Div(oneHundred)

	var no decimal.Decimal
	if m.NoAsk > 0 {
		no = decimal.NewFromInt(m.NoAsk).Div(oneHundred)
	} else {
		no = one.Sub(yes)
	}

	outcome := m.Subtitle
	if outcome == "" {
		outcome = "Yes"
	}

	q := domain.Quote{
		Venue:        domain.VenueKalshi,
		ExternalID:   m.Ticker,
		EventTitle:   m.Title,
		OutcomeLabel: outcome,
		YesPrice:     yes,
		NoPrice:      no,
		EventDate:    parseEventDate(m.CloseTime),
		URL:          kalshiURL(m),
		ObservedAt:   observedAt,
	}
	if err := n.validate(q); err != nil {
		return domain.Quote{}, err
	}
	return q, nil
}

// Polymarket converts a batch of Gamma API markets fetched at observedAt.
func (n *Normalizer) Polymarket(markets []polymarket.APIMarket, observedAt time.Time) []domain.Quote {
	quotes := make([]domain.Quote, 0, len(markets))
	for i := range markets {
		q, err := n.PolymarketMarket(markets[i], observedAt)
		if err != nil {
			n.logger.Debug("dropping polymarket market",
				slog.String("id", markets[i].ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		quotes = append(quotes, q)
	}
	return quotes
}

// PolymarketMarket converts a single Gamma market. OutcomePrices carries
// decimal strings ordered as [yes, no].
func (n *Normalizer) PolymarketMarket(m polymarket.APIMarket, observedAt time.Time) (domain.Quote, error) {
	if m.Question == "" {
		return domain.Quote{}, fmt.Errorf("%w: missing question", domain.ErrMalformedQuote)
	}

	prices := m.ParsedOutcomePrices()
	if len(prices) < 2 {
		return domain.Quote{}, fmt.Errorf("%w: missing outcome prices", domain.ErrMalformedQuote)
	}
	yes, err := decimal.NewFromString(prices[0])
	if err != nil {
		return domain.Quote{}, fmt.Errorf("%w: yes price %q: %v", domain.ErrMalformedQuote, prices[0], err)
	}
	no, err := decimal.NewFromString(prices[1])
	if err != nil {
		return domain.Quote{}, fmt.Errorf("%w: no price %q: %v", domain.ErrMalformedQuote, prices[1], err)
	}

	outcome := "Yes"
	if outcomes := m.ParsedOutcomes(); len(outcomes) > 0 {
		outcome = outcomes[0]
	}

	eventDate := parseEventDate(m.GameStartTime)
	if eventDate.IsZero() {
		eventDate = parseEventDate(m.EndDateISO)
	}

	q := domain.Quote{
		Venue:        domain.VenuePolymarket,
		ExternalID:   m.ID,
		EventTitle:   m.Question,
		OutcomeLabel: outcome,
		YesPrice:     yes,
		NoPrice:      no,
		EventDate:    eventDate,
		URL:          "https://polymarket.com/event/" + m.Slug,
		ObservedAt:   observedAt,
	}
	if err := n.validate(q); err != nil {
		return domain.Quote{}, err
	}
	return q, nil
}

// validate enforces the canonical Quote invariants: both prices strictly
// inside (0,1), an outcome label present, and an observation no older than
// the configured max age.
func (n *Normalizer) validate(q domain.Quote) error {
	if q.OutcomeLabel == "" {
		return fmt.Errorf("%w: missing outcome label", domain.ErrMalformedQuote)
	}
	for _, p := range []decimal.Decimal{q.YesPrice, q.NoPrice} {
		if p.LessThanOrEqual(decimal.Zero) || p.GreaterThanOrEqual(one) {
			return fmt.Errorf("%w: price %s outside (0,1)", domain.ErrMalformedQuote, p)
		}
	}
	if n.maxAge > 0 && time.Since(q.ObservedAt) > n.maxAge {
		return fmt.Errorf("%w: observation %s older than %s",
			domain.ErrMalformedQuote, q.ObservedAt.Format(time.RFC3339), n.maxAge)
	}
	return nil
}

// pickKalshiCents selects the yes cost in cents: ask first, then bid, then
// last trade.
func pickKalshiCents(ask, bid, last int64) int64 {
	switch {
	case ask > 0:
		return ask
	case bid > 0:
		return bid
	case last > 0:
		return last
	}
	return 0
}

func parseEventDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05Z", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func kalshiURL(m kalshi.Market) string {
	return "https://kalshi.com/markets/" + m.Ticker
}
