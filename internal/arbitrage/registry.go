package arbitrage

import (
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tradewatch/arbscan/internal/domain"
)

// Registry is the in-memory set of live opportunities, keyed by match key.
// A single writer (the orchestrator) mutates it; readers get a lock-free
// immutable snapshot published after every mutation.
type Registry struct {
	mu       sync.Mutex
	byKey    map[domain.MatchKey]domain.Opportunity
	snapshot atomic.Pointer[[]domain.Opportunity]
	logger   *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	r := &Registry{
		byKey:  make(map[domain.MatchKey]domain.Opportunity),
		logger: logger.With(slog.String("component", "registry")),
	}
	r.snapshot.Store(&[]domain.Opportunity{})
	return r
}

// Upsert merges a cycle's opportunities into the registry and returns the
// ones that were not present before, in input order. An existing entry
// keeps its ID and DetectedAt; its prices, edges, and LastConfirmedAt are
// replaced by the incoming evaluation.
func (r *Registry) Upsert(opps []domain.Opportunity) []domain.Opportunity {
	r.mu.Lock()
	defer r.mu.Unlock()

	var appeared []domain.Opportunity
	for _, opp := range opps {
		prev, exists := r.byKey[opp.Key]
		if exists {
			opp.ID = prev.ID
			opp.DetectedAt = prev.DetectedAt
		} else {
			appeared = append(appeared, opp)
		}
		r.byKey[opp.Key] = opp
	}
	r.publishLocked()

	if len(appeared) > 0 {
		r.logger.Info("new opportunities",
			slog.Int("count", len(appeared)),
			slog.Int("live", len(r.byKey)))
	}
	return appeared
}

// Sweep removes entries that have not been confirmed within the staleness
// window and returns them. An opportunity re-confirmed every cycle is never
// swept regardless of its age.
func (r *Registry) Sweep(now time.Time, window time.Duration) []domain.Opportunity {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := now.Add(-window)
	var removed []domain.Opportunity
	for key, opp := range r.byKey {
		if opp.LastConfirmedAt.Before(cutoff) {
			removed = append(removed, opp)
			delete(r.byKey, key)
		}
	}
	if len(removed) > 0 {
		r.publishLocked()
		r.logger.Info("opportunities expired",
			slog.Int("count", len(removed)),
			slog.Int("live", len(r.byKey)))
	}
	return removed
}

// List returns the current opportunities sorted by net edge descending.
// It never blocks on the writer.
func (r *Registry) List() []domain.Opportunity {
	return *r.snapshot.Load()
}

// Get returns the live opportunity for a match key.
func (r *Registry) Get(key domain.MatchKey) (domain.Opportunity, bool) {
	for _, opp := range r.List() {
		if opp.Key == key {
			return opp, true
		}
	}
	return domain.Opportunity{}, false
}

// Len returns the number of live opportunities.
func (r *Registry) Len() int {
	return len(r.List())
}

func (r *Registry) publishLocked() {
	snap := make([]domain.Opportunity, 0, len(r.byKey))
	for _, opp := range r.byKey {
		snap = append(snap, opp)
	}
	sort.Slice(snap, func(i, j int) bool {
		if !snap[i].NetEdge.Equal(snap[j].NetEdge) {
			return snap[i].NetEdge.GreaterThan(snap[j].NetEdge)
		}
		return snap[i].Key < snap[j].Key
	})
	r.snapshot.Store(&snap)
}
