package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradewatch/arbscan/internal/domain"
)

// OpportunityStore implements domain.OpportunityStore using PostgreSQL.
// Every row is one detection; re-confirmations of a live opportunity do not
// produce new rows.
type OpportunityStore struct {
	pool *pgxpool.Pool
}

// NewOpportunityStore creates an OpportunityStore backed by the given pool.
func NewOpportunityStore(pool *pgxpool.Pool) *OpportunityStore {
	return &OpportunityStore{pool: pool}
}

// Insert stores a newly detected opportunity.
func (s *OpportunityStore) Insert(ctx context.Context, opp domain.Opportunity) error {
	const query = `
		INSERT INTO opportunity_history (
			id, match_key, strategy, confidence, manual_match, pair,
			leg1_venue, leg1_side, leg1_price,
			leg2_venue, leg2_side, leg2_price,
			gross_edge, total_fees, net_edge,
			detected_at, last_confirmed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9,
			$10, $11, $12,
			$13, $14, $15,
			$16, $17
		)`

	pair, err := json.Marshal(opp.Pair)
	if err != nil {
		return fmt.Errorf("postgres: marshal pair %s: %w", opp.ID, err)
	}

	_, err = s.pool.Exec(ctx, query,
		opp.ID, string(opp.Key), opp.Strategy, opp.Pair.Confidence, opp.Pair.Manual, pair,
		string(opp.Legs[0].Venue), string(opp.Legs[0].Side), opp.Legs[0].Price,
		string(opp.Legs[1].Venue), string(opp.Legs[1].Side), opp.Legs[1].Price,
		opp.GrossEdge, opp.TotalFees, opp.NetEdge,
		opp.DetectedAt, opp.LastConfirmedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert opportunity %s: %w", opp.ID, err)
	}
	return nil
}

// ListRecent returns the most recently detected opportunities, newest first.
func (s *OpportunityStore) ListRecent(ctx context.Context, limit int) ([]domain.Opportunity, error) {
	const query = `
		SELECT id, match_key, strategy, pair,
			leg1_venue, leg1_side, leg1_price,
			leg2_venue, leg2_side, leg2_price,
			gross_edge, total_fees, net_edge,
			detected_at, last_confirmed_at
		FROM opportunity_history
		ORDER BY detected_at DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent opportunities: %w", err)
	}
	defer rows.Close()

	var out []domain.Opportunity
	for rows.Next() {
		var (
			opp     domain.Opportunity
			key     string
			pairRaw []byte
			venues  [2]string
			sides   [2]string
		)
		err := rows.Scan(
			&opp.ID, &key, &opp.Strategy, &pairRaw,
			&venues[0], &sides[0], &opp.Legs[0].Price,
			&venues[1], &sides[1], &opp.Legs[1].Price,
			&opp.GrossEdge, &opp.TotalFees, &opp.NetEdge,
			&opp.DetectedAt, &opp.LastConfirmedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan opportunity: %w", err)
		}
		opp.Key = domain.MatchKey(key)
		if err := json.Unmarshal(pairRaw, &opp.Pair); err != nil {
			return nil, fmt.Errorf("postgres: unmarshal pair %s: %w", opp.ID, err)
		}
		for i := range opp.Legs {
			opp.Legs[i].Venue = domain.Venue(venues[i])
			opp.Legs[i].Side = domain.Side(sides[i])
		}
		out = append(out, opp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate opportunities: %w", err)
	}
	return out, nil
}

// DeleteBefore removes history rows detected before the cutoff and returns
// the number deleted. Used by the retention job.
func (s *OpportunityStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM opportunity_history WHERE detected_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete opportunities before %s: %w", cutoff, err)
	}
	return tag.RowsAffected(), nil
}

// Compile-time interface check.
var _ domain.OpportunityStore = (*OpportunityStore)(nil)
