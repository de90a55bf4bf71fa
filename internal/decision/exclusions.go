// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package decision

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pdiddy/match-engine/pkg/types"
)

// AddExclusion blocks a sell/buy pair from future candidate generation.
// Re-adding an existing pair refreshes its reason and scope.
func (s *Store) AddExclusion(ctx context.Context, excl types.NonMatchExclusion) error {
	if excl.SellID == "" || excl.BuyID == "" {
		return fmt.Errorf("decision: exclusion must carry sell and buy ids")
	}
	if excl.Origin == "" {
		excl.Origin = types.OriginUser
	}
	if excl.CreatedAt.IsZero() {
		excl.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsertExclusion(ctx, tx, excl); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing exclusion: %w", err)
	}
	return nil
}

// upsertExclusion writes an exclusion inside an existing transaction;
// Record uses it to exclude rejected pairs atomically with the rejection.
func upsertExclusion(ctx context.Context, tx *sql.Tx, excl types.NonMatchExclusion) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO non_match_exclusions (
			sell_id, buy_id, reason, origin, score_at_exclusion, permanent, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(sell_id, buy_id) DO UPDATE SET
			reason=excluded.reason, origin=excluded.origin,
			score_at_exclusion=excluded.score_at_exclusion,
			permanent=excluded.permanent`,
		excl.SellID, excl.BuyID, excl.Reason, string(excl.Origin),
		excl.ScoreAtExclusion, excl.Permanent, excl.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("writing exclusion: %w", err)
	}
	return nil
}

// RemoveExclusion unblocks a pair. Returns ErrNotFound when the pair is
// not excluded.
func (s *Store) RemoveExclusion(ctx context.Context, sellID, buyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM non_match_exclusions WHERE sell_id = ? AND buy_id = ?`,
		sellID, buyID)
	if err != nil {
		return fmt.Errorf("removing exclusion: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("exclusion %s/%s: %w", sellID, buyID, ErrNotFound)
	}
	return nil
}

// Exclusions returns all exclusions, oldest first.
func (s *Store) Exclusions(ctx context.Context) ([]types.NonMatchExclusion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sell_id, buy_id, reason, origin, score_at_exclusion, permanent, created_at
		 FROM non_match_exclusions ORDER BY created_at, sell_id, buy_id`)
	if err != nil {
		return nil, fmt.Errorf("querying exclusions: %w", err)
	}
	defer rows.Close()

	var out []types.NonMatchExclusion
	for rows.Next() {
		var (
			e      types.NonMatchExclusion
			reason sql.NullString
			origin string
			score  sql.NullFloat64
		)
		if err := rows.Scan(&e.SellID, &e.BuyID, &reason, &origin, &score,
			&e.Permanent, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning exclusion: %w", err)
		}
		e.Reason = reason.String
		e.Origin = types.ExclusionOrigin(origin)
		e.ScoreAtExclusion = score.Float64
		out = append(out, e)
	}
	return out, rows.Err()
}

// ExclusionSet returns the pairs to prune from candidate generation.
// Only permanent exclusions are returned; session-scoped rows stay in
// the table for listing and audit but do not prune later runs.
func (s *Store) ExclusionSet(ctx context.Context) (map[types.PairKey]struct{}, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sell_id, buy_id FROM non_match_exclusions WHERE permanent = 1`)
	if err != nil {
		return nil, fmt.Errorf("querying exclusion set: %w", err)
	}
	defer rows.Close()

	set := make(map[types.PairKey]struct{})
	for rows.Next() {
		var key types.PairKey
		if err := rows.Scan(&key.SellID, &key.BuyID); err != nil {
			return nil, fmt.Errorf("scanning exclusion pair: %w", err)
		}
		set[key] = struct{}{}
	}
	return set, rows.Err()
}
