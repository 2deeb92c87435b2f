package arbitrage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradewatch/arbscan/internal/domain"
)

func opp(key string, netEdge string, confirmedAt time.Time) domain.Opportunity {
	return domain.Opportunity{
		ID:              "id-" + key,
		Key:             domain.MatchKey(key),
		Strategy:        "buy_yes_polymarket_no_kalshi",
		NetEdge:         dec(netEdge),
		DetectedAt:      confirmedAt,
		LastConfirmedAt: confirmedAt,
	}
}

func TestRegistryUpsertReportsNewKeys(t *testing.T) {
	r := NewRegistry(testLogger())
	now := time.Now()

	appeared := r.Upsert([]domain.Opportunity{opp("a", "0.05", now), opp("b", "0.02", now)})
	assert.Len(t, appeared, 2)

	appeared = r.Upsert([]domain.Opportunity{opp("a", "0.04", now), opp("c", "0.01", now)})
	require.Len(t, appeared, 1)
	assert.Equal(t, domain.MatchKey("c"), appeared[0].Key)
	assert.Equal(t, 3, r.Len())
}

func TestRegistryUpsertPreservesDetectedAt(t *testing.T) {
	r := NewRegistry(testLogger())
	first := time.Now()
	second := first.Add(30 * time.Second)

	r.Upsert([]domain.Opportunity{opp("a", "0.05", first)})

	update := opp("a", "0.03", second)
	update.ID = "fresh-uuid"
	r.Upsert([]domain.Opportunity{update})

	got, ok := r.Get(domain.MatchKey("a"))
	require.True(t, ok)
	assert.Equal(t, "id-a", got.ID, "identity survives re-confirmation")
	assert.Equal(t, first, got.DetectedAt)
	assert.Equal(t, second, got.LastConfirmedAt)
	assert.True(t, got.NetEdge.Equal(dec("0.03")), "prices are refreshed")
}

func TestRegistrySweepRemovesOnlyUnconfirmed(t *testing.T) {
	r := NewRegistry(testLogger())
	now := time.Now()
	window := time.Minute

	r.Upsert([]domain.Opportunity{
		opp("stale", "0.05", now.Add(-2*time.Minute)),
		opp("fresh", "0.02", now.Add(-10*time.Second)),
	})

	removed := r.Sweep(now, window)
	require.Len(t, removed, 1)
	assert.Equal(t, domain.MatchKey("stale"), removed[0].Key)

	_, ok := r.Get(domain.MatchKey("stale"))
	assert.False(t, ok)
	_, ok = r.Get(domain.MatchKey("fresh"))
	assert.True(t, ok)
}

func TestRegistrySweepSparesContinuouslyConfirmed(t *testing.T) {
	r := NewRegistry(testLogger())
	start := time.Now()
	window := time.Minute

	// Confirmed every cycle for ten minutes; age alone never expires it.
	for i := 0; i < 20; i++ {
		cycle := start.Add(time.Duration(i) * 30 * time.Second)
		r.Upsert([]domain.Opportunity{opp("a", "0.05", cycle)})
		assert.Empty(t, r.Sweep(cycle, window))
	}

	got, ok := r.Get(domain.MatchKey("a"))
	require.True(t, ok)
	assert.Equal(t, start, got.DetectedAt)
}

func TestRegistryListSortedByNetEdge(t *testing.T) {
	r := NewRegistry(testLogger())
	now := time.Now()

	r.Upsert([]domain.Opportunity{
		opp("small", "0.01", now),
		opp("big", "0.09", now),
		opp("mid", "0.04", now),
	})

	list := r.List()
	require.Len(t, list, 3)
	assert.Equal(t, domain.MatchKey("big"), list[0].Key)
	assert.Equal(t, domain.MatchKey("mid"), list[1].Key)
	assert.Equal(t, domain.MatchKey("small"), list[2].Key)
}

func TestRegistrySnapshotIsImmutable(t *testing.T) {
	r := NewRegistry(testLogger())
	now := time.Now()
	r.Upsert([]domain.Opportunity{opp("a", "0.05", now)})

	before := r.List()
	r.Upsert([]domain.Opportunity{opp("b", "0.09", now)})

	assert.Len(t, before, 1, "earlier snapshot is unaffected by later writes")
	assert.Len(t, r.List(), 2)
}

func TestRegistryEmpty(t *testing.T) {
	r := NewRegistry(testLogger())

	assert.Empty(t, r.List())
	assert.Empty(t, r.Sweep(time.Now(), time.Minute))
	assert.Zero(t, r.Len())
}
