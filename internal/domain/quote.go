// Package domain contains the core types shared by every arbscan component:
// canonical quotes, matched pairs, opportunities, fee models, and the
// interfaces implemented by the cache and store adapters.
package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Venue identifies one of the supported prediction-market platforms.
type Venue string

const (
	VenuePolymarket Venue = "polymarket"
	VenueKalshi     Venue = "kalshi"
)

// Venues returns the supported venues in canonical order.
func Venues() [2]Venue {
	return [2]Venue{VenuePolymarket, VenueKalshi}
}

// Valid reports whether v is a known venue.
func (v Venue) Valid() bool {
	return v == VenuePolymarket || v == VenueKalshi
}

// Other returns the opposite venue of a two-venue deployment.
func (v Venue) Other() Venue {
	if v == VenuePolymarket {
		return VenueKalshi
	}
	return VenuePolymarket
}

// Side is one leg of a binary contract.
type Side string

const (
	SideYes Side = "yes"
	SideNo  Side = "no"
)

// Quote is the canonical snapshot of one tradable outcome on one venue.
// Prices are probabilities in (0,1): the cost of acquiring a $1-payout
// position on that side. YesPrice+NoPrice need not sum to 1 (vig).
type Quote struct {
	Venue        Venue           `json:"venue"`
	ExternalID   string          `json:"external_id"`
	EventTitle   string          `json:"event_title"`
	OutcomeLabel string          `json:"outcome_label"`
	YesPrice     decimal.Decimal `json:"yes_price"`
	NoPrice      decimal.Decimal `json:"no_price"`
	EventDate    time.Time       `json:"event_date"` // scheduled date of the underlying event
	URL          string          `json:"url,omitempty"`
	ObservedAt   time.Time       `json:"observed_at"`
}

// Text returns the free text the matcher compares across venues.
func (q Quote) Text() string {
	if q.OutcomeLabel == "" {
		return q.EventTitle
	}
	return strings.TrimSpace(q.EventTitle + " " + q.OutcomeLabel)
}

// Price returns the cost of the given side.
func (q Quote) Price(side Side) decimal.Decimal {
	if side == SideYes {
		return q.YesPrice
	}
	return q.NoPrice
}

// DayBucket returns the coarse temporal bucket used to disambiguate
// recurring fixtures. Quotes without a known event date fall into the
// empty bucket and are only matched against each other.
func (q Quote) DayBucket() string {
	if q.EventDate.IsZero() {
		return ""
	}
	return q.EventDate.UTC().Format("2006-01-02")
}
