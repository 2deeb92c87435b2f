package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/tradewatch/arbscan/internal/domain"
)

// Event types emitted by the detection pipeline. Operators can restrict
// delivery to a subset via config.
const (
	EventOpportunity = "opportunity"
	EventExpired     = "expired"
)

// OpportunityAlerter formats newly detected opportunities and dispatches
// them through a Notifier. It satisfies the pipeline's Alerter interface.
type OpportunityAlerter struct {
	notifier *Notifier
}

func NewOpportunityAlerter(n *Notifier) *OpportunityAlerter {
	return &OpportunityAlerter{notifier: n}
}

// OpportunityFound alerts on a newly detected opportunity.
func (a *OpportunityAlerter) OpportunityFound(ctx context.Context, opp domain.Opportunity) error {
	title := fmt.Sprintf("Arbitrage: %s net edge %s",
		opp.Pair.A.EventTitle, opp.NetEdge.StringFixed(4))

	var b strings.Builder
	fmt.Fprintf(&b, "Strategy: %s\n", opp.Strategy)
	for _, leg := range opp.Legs {
		q, _ := opp.Pair.QuoteFor(leg.Venue)
		fmt.Fprintf(&b, "Buy %s on %s at %s (%s)\n",
			strings.ToUpper(string(leg.Side)), leg.Venue, leg.Price.StringFixed(4), q.EventTitle)
	}
	fmt.Fprintf(&b, "Gross %s, fees %s, net %s\n",
		opp.GrossEdge.StringFixed(4), opp.TotalFees.StringFixed(4), opp.NetEdge.StringFixed(4))
	fmt.Fprintf(&b, "Match confidence %.2f", opp.Pair.Confidence)
	if opp.Pair.Manual {
		b.WriteString(" (manual mapping)")
	}

	return a.notifier.Notify(ctx, EventOpportunity, title, b.String())
}
