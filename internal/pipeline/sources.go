package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/tradewatch/arbscan/internal/domain"
	"github.com/tradewatch/arbscan/internal/normalize"
	"github.com/tradewatch/arbscan/internal/platform/kalshi"
	"github.com/tradewatch/arbscan/internal/platform/polymarket"
)

// VenueSource produces the current canonical quotes for one venue. The
// orchestrator treats sources as opaque, so tests and new venues plug in
// without touching the cycle logic.
type VenueSource interface {
	Venue() domain.Venue
	FetchQuotes(ctx context.Context) ([]domain.Quote, error)
}

// KalshiSource adapts the Kalshi REST client into a VenueSource.
type KalshiSource struct {
	client *kalshi.Client
	norm   *normalize.Normalizer
}

func NewKalshiSource(client *kalshi.Client, norm *normalize.Normalizer) *KalshiSource {
	return &KalshiSource{client: client, norm: norm}
}

func (s *KalshiSource) Venue() domain.Venue { return domain.VenueKalshi }

func (s *KalshiSource) FetchQuotes(ctx context.Context) ([]domain.Quote, error) {
	markets, err := s.client.GetOpenMarkets(ctx)
	if err != nil {
		return nil, fmt.Errorf("pipeline: kalshi source: %w", err)
	}
	return s.norm.Kalshi(markets, time.Now().UTC()), nil
}

// PolymarketSource adapts the Gamma REST client into a VenueSource.
type PolymarketSource struct {
	client *polymarket.GammaClient
	norm   *normalize.Normalizer
}

func NewPolymarketSource(client *polymarket.GammaClient, norm *normalize.Normalizer) *PolymarketSource {
	return &PolymarketSource{client: client, norm: norm}
}

func (s *PolymarketSource) Venue() domain.Venue { return domain.VenuePolymarket }

func (s *PolymarketSource) FetchQuotes(ctx context.Context) ([]domain.Quote, error) {
	markets, err := s.client.GetActiveMarkets(ctx)
	if err != nil {
		return nil, fmt.Errorf("pipeline: polymarket source: %w", err)
	}
	return s.norm.Polymarket(markets, time.Now().UTC()), nil
}
