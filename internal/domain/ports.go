package domain

import (
	"context"
	"time"
)

// QuoteCache stores the latest canonical quotes per venue so the API layer
// can serve them without touching the venue clients.
type QuoteCache interface {
	SetQuotes(ctx context.Context, venue Venue, quotes []Quote) error
	GetQuotes(ctx context.Context, venue Venue) ([]Quote, error)
}

// SignalBus is a pub/sub channel carrying cycle results to external
// consumers (the WebSocket hub, dashboards, alerting).
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// OpportunityStore persists opportunity history. The live registry is
// in-memory; this store is an optional collaborator for later analysis.
type OpportunityStore interface {
	Insert(ctx context.Context, opp Opportunity) error
	ListRecent(ctx context.Context, limit int) ([]Opportunity, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
