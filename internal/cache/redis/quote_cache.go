package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tradewatch/arbscan/internal/domain"
)

// QuoteCache implements domain.QuoteCache using Redis strings. Each venue's
// latest quote set is stored as one JSON array at "quotes:{venue}" with a
// TTL, so a stalled pipeline leaves no stale quotes behind for the API.
type QuoteCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewQuoteCache creates a QuoteCache backed by the given Client. Entries
// expire after ttl.
func NewQuoteCache(c *Client, ttl time.Duration) *QuoteCache {
	return &QuoteCache{rdb: c.Underlying(), ttl: ttl}
}

func quotesKey(venue domain.Venue) string {
	return "quotes:" + string(venue)
}

// SetQuotes replaces the cached quote set for a venue.
func (qc *QuoteCache) SetQuotes(ctx context.Context, venue domain.Venue, quotes []domain.Quote) error {
	payload, err := json.Marshal(quotes)
	if err != nil {
		return fmt.Errorf("redis: marshal quotes %s: %w", venue, err)
	}
	if err := qc.rdb.Set(ctx, quotesKey(venue), payload, qc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set quotes %s: %w", venue, err)
	}
	return nil
}

// GetQuotes returns the cached quote set for a venue. It returns
// domain.ErrNotFound when the venue has no cached quotes or they expired.
func (qc *QuoteCache) GetQuotes(ctx context.Context, venue domain.Venue) ([]domain.Quote, error) {
	payload, err := qc.rdb.Get(ctx, quotesKey(venue)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get quotes %s: %w", venue, err)
	}

	var quotes []domain.Quote
	if err := json.Unmarshal(payload, &quotes); err != nil {
		return nil, fmt.Errorf("redis: unmarshal quotes %s: %w", venue, err)
	}
	return quotes, nil
}

// Compile-time interface check.
var _ domain.QuoteCache = (*QuoteCache)(nil)
