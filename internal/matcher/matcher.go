// Package matcher pairs quotes from different venues that refer to the
// same underlying event, using fuzzy text similarity with date bucketing
// and operator-supplied manual ID mappings.
package matcher

import (
	"log/slog"
	"sort"
	"time"

	"github.com/tradewatch/arbscan/internal/domain"
)

// Config controls pairing behavior.
type Config struct {
	// Threshold is the minimum blended similarity score for an automatic
	// pairing. Manual mappings bypass it.
	Threshold float64
	// ManualMappings maps a Polymarket market ID to a Kalshi ticker for
	// events the text matcher cannot pair on its own.
	ManualMappings map[string]string
}

// Matcher performs one-to-one matching between Polymarket and Kalshi quotes.
type Matcher struct {
	threshold float64
	manual    map[string]string
	logger    *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Matcher {
	return &Matcher{
		threshold: cfg.Threshold,
		manual:    cfg.ManualMappings,
		logger:    logger.With(slog.String("component", "matcher")),
	}
}

// candidate is a scored potential pairing between one quote from each venue.
type candidate struct {
	poly   int
	kalshi int
	score  float64
}

// Match pairs Polymarket quotes against Kalshi quotes. Manual mappings are
// applied first at confidence 1.0, then remaining quotes are matched
// greedily by descending similarity. Each quote appears in at most one
// pair, and the result is deterministic for a given input.
func (m *Matcher) Match(poly, kalshi []domain.Quote) []domain.MatchedPair {
	var pairs []domain.MatchedPair

	polyUsed := make([]bool, len(poly))
	kalshiUsed := make([]bool, len(kalshi))

	kalshiByID := make(map[string]int, len(kalshi))
	for i, q := range kalshi {
		kalshiByID[q.ExternalID] = i
	}

	for i, q := range poly {
		ticker, ok := m.manual[q.ExternalID]
		if !ok {
			continue
		}
		j, ok := kalshiByID[ticker]
		if !ok || kalshiUsed[j] {
			continue
		}
		polyUsed[i] = true
		kalshiUsed[j] = true
		pairs = append(pairs, domain.MatchedPair{
			A:          q,
			B:          kalshi[j],
			Confidence: 1.0,
			Manual:     true,
		})
	}

	cands := m.score(poly, kalshi, polyUsed, kalshiUsed)

	sort.Slice(cands, func(a, b int) bool {
		ca, cb := cands[a], cands[b]
		if ca.score != cb.score {
			return ca.score > cb.score
		}
		// Prefer the pairing whose stalest quote is freshest.
		fa := pairAge(poly[ca.poly], kalshi[ca.kalshi])
		fb := pairAge(poly[cb.poly], kalshi[cb.kalshi])
		if !fa.Equal(fb) {
			return fa.After(fb)
		}
		// Stable order for fully tied candidates.
		ka := domain.PairKey(poly[ca.poly], kalshi[ca.kalshi])
		kb := domain.PairKey(poly[cb.poly], kalshi[cb.kalshi])
		return ka < kb
	})

	for _, c := range cands {
		if polyUsed[c.poly] || kalshiUsed[c.kalshi] {
			continue
		}
		polyUsed[c.poly] = true
		kalshiUsed[c.kalshi] = true
		pairs = append(pairs, domain.MatchedPair{
			A:          poly[c.poly],
			B:          kalshi[c.kalshi],
			Confidence: c.score,
		})
	}

	m.logger.Debug("matching complete",
		slog.Int("polymarket_quotes", len(poly)),
		slog.Int("kalshi_quotes", len(kalshi)),
		slog.Int("pairs", len(pairs)))

	return pairs
}

// score builds the candidate list. Kalshi quotes are bucketed by event day
// and keyword so each Polymarket quote is only compared against plausible
// counterparts instead of the full cross product.
func (m *Matcher) score(poly, kalshi []domain.Quote, polyUsed, kalshiUsed []bool) []candidate {
	type bucketKey struct {
		day  string
		word string
	}
	buckets := make(map[bucketKey][]int)
	for j, q := range kalshi {
		if kalshiUsed[j] {
			continue
		}
		day := q.DayBucket()
		for w := range Keywords(q.Text()) {
			k := bucketKey{day: day, word: w}
			buckets[k] = append(buckets[k], j)
		}
	}

	var cands []candidate
	for i, pq := range poly {
		if polyUsed[i] {
			continue
		}
		day := pq.DayBucket()
		seen := make(map[int]struct{})
		for w := range Keywords(pq.Text()) {
			for _, j := range buckets[bucketKey{day: day, word: w}] {
				if _, dup := seen[j]; dup {
					continue
				}
				seen[j] = struct{}{}

				kq := kalshi[j]
				s := Similarity(pq.EventTitle, kq.EventTitle)
				if full := Similarity(pq.Text(), kq.Text()); full > s {
					s = full
				}
				if s < m.threshold {
					continue
				}
				cands = append(cands, candidate{poly: i, kalshi: j, score: s})
			}
		}
	}
	return cands
}

// pairAge returns the ObservedAt of the stalest quote in the pair.
func pairAge(a, b domain.Quote) time.Time {
	if a.ObservedAt.Before(b.ObservedAt) {
		return a.ObservedAt
	}
	return b.ObservedAt
}
