package domain

import (
	"fmt"
	"sort"
)

// MatchKey is the stable cross-venue identity of a matched outcome. It is
// built from the two venue-native identifiers, order-independent, so the
// same real-world outcome produces the same key on every cycle regardless
// of which venue's quote arrived first or how either venue edits titles.
type MatchKey string

// PairKey derives the MatchKey for two quotes from opposite venues.
func PairKey(a, b Quote) MatchKey {
	parts := []string{
		fmt.Sprintf("%s:%s", a.Venue, a.ExternalID),
		fmt.Sprintf("%s:%s", b.Venue, b.ExternalID),
	}
	sort.Strings(parts)
	return MatchKey(parts[0] + "|" + parts[1])
}

// MatchedPair is one quote from each venue judged to refer to the same
// real-world outcome. Confidence is the matcher's similarity score in
// [0,1]; pairs below the acceptance threshold never reach the calculator.
type MatchedPair struct {
	A          Quote   `json:"a"` // always VenuePolymarket
	B          Quote   `json:"b"` // always VenueKalshi
	Confidence float64 `json:"confidence"`
	Manual     bool    `json:"manual"` // paired via a configured ID mapping
}

// Key returns the pair's stable registry identity.
func (p MatchedPair) Key() MatchKey {
	return PairKey(p.A, p.B)
}

// QuoteFor returns the pair's quote for the given venue.
func (p MatchedPair) QuoteFor(v Venue) (Quote, bool) {
	switch v {
	case p.A.Venue:
		return p.A, true
	case p.B.Venue:
		return p.B, true
	}
	return Quote{}, false
}
