// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package decision

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pdiddy/match-engine/pkg/types"
)

// ResolutionAction selects how a conflict is resolved.
type ResolutionAction string

const (
	// KeepExisting leaves the prior decision in place, closes the
	// conflict, and excludes the attempted pair so later runs do not
	// re-raise it.
	KeepExisting ResolutionAction = "keep_existing"

	// ReplaceExisting transitions the prior decision to replaced, records
	// the attempted pair as accepted, and closes the conflict.
	ReplaceExisting ResolutionAction = "replace_existing"
)

// ResolveConflict applies action to an unresolved conflict. It returns
// ErrNotFound when the conflict does not exist or was already resolved.
// The whole resolution is one transaction: other callers observe either
// the old state or the fully resolved one.
func (s *Store) ResolveConflict(ctx context.Context, conflictID int64, action ResolutionAction, notes string) error {
	if action != KeepExisting && action != ReplaceExisting {
		return fmt.Errorf("decision: unknown resolution action %q", action)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		existingID sql.NullInt64
		sellID     string
		buyID      string
		score      float64
	)
	err = tx.QueryRowContext(ctx,
		`SELECT existing_decision_id, attempted_sell_id, attempted_buy_id, attempted_score
		 FROM matching_conflicts WHERE id = ? AND resolution_status = 'unresolved'`,
		conflictID,
	).Scan(&existingID, &sellID, &buyID, &score)
	if err == sql.ErrNoRows {
		return fmt.Errorf("conflict %d: %w", conflictID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("loading conflict %d: %w", conflictID, err)
	}

	now := time.Now().UTC()

	if action == KeepExisting {
		// The verdict is final for this pair; without the exclusion every
		// later run would re-attempt the auto-accept and mint a fresh
		// conflict row.
		if err := upsertExclusion(ctx, tx, types.NonMatchExclusion{
			SellID:           sellID,
			BuyID:            buyID,
			Reason:           fmt.Sprintf("conflict %d resolved keeping existing decision", conflictID),
			Origin:           types.OriginSystem,
			ScoreAtExclusion: score,
			Permanent:        true,
			CreatedAt:        now,
		}); err != nil {
			return err
		}
	}

	if action == ReplaceExisting {
		if existingID.Valid {
			if _, err := tx.ExecContext(ctx,
				`UPDATE match_decisions SET status = ?, updated_at = ? WHERE id = ?`,
				string(types.StatusReplaced), now, existingID.Int64,
			); err != nil {
				return fmt.Errorf("replacing decision %d: %w", existingID.Int64, err)
			}
		}

		// The refused attempt never wrote a decision row (or left only a
		// conflict_blocked marker); the upsert covers both.
		attempted := types.CandidateMatch{SellID: sellID, BuyID: buyID, Score: score}
		if _, err := s.upsertDecision(ctx, tx, attempted, types.StatusAccepted, 0, notes, now); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE matching_conflicts SET resolution_status = 'resolved',
			resolution_action = ?, resolved_at = ? WHERE id = ?`,
		string(action), now, conflictID,
	); err != nil {
		return fmt.Errorf("resolving conflict %d: %w", conflictID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing resolution: %w", err)
	}
	return nil
}

// ListConflicts returns conflicts, newest first, optionally filtered by
// resolution status. An empty filter returns everything.
func (s *Store) ListConflicts(ctx context.Context, filter types.ResolutionStatus) ([]types.MatchingConflict, error) {
	query := `SELECT id, conflict_type, existing_decision_id, attempted_sell_id,
			attempted_buy_id, attempted_score, message, resolution_status,
			resolution_action, resolved_at, created_at
		FROM matching_conflicts`
	var args []any
	if filter != "" {
		query += ` WHERE resolution_status = ?`
		args = append(args, string(filter))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying conflicts: %w", err)
	}
	defer rows.Close()

	var out []types.MatchingConflict
	for rows.Next() {
		var (
			c          types.MatchingConflict
			ctype      string
			existingID sql.NullInt64
			message    sql.NullString
			resStatus  string
			resAction  sql.NullString
			resolvedAt sql.NullTime
		)
		if err := rows.Scan(&c.ID, &ctype, &existingID, &c.AttemptedSellID,
			&c.AttemptedBuyID, &c.AttemptedScore, &message, &resStatus,
			&resAction, &resolvedAt, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning conflict: %w", err)
		}
		c.Type = types.ConflictType(ctype)
		c.ExistingDecisionID = existingID.Int64
		c.Message = message.String
		c.ResolutionStatus = types.ResolutionStatus(resStatus)
		c.ResolutionAction = resAction.String
		if resolvedAt.Valid {
			t := resolvedAt.Time
			c.ResolvedAt = &t
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UnresolvedConflictPairs returns the attempted pairs of all unresolved
// conflicts, keyed to the conflict id. The orchestrator uses this to
// avoid re-raising the same conflict on every re-run while it awaits
// resolution.
func (s *Store) UnresolvedConflictPairs(ctx context.Context) (map[types.PairKey]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, attempted_sell_id, attempted_buy_id FROM matching_conflicts
		 WHERE resolution_status = 'unresolved'`)
	if err != nil {
		return nil, fmt.Errorf("querying unresolved conflicts: %w", err)
	}
	defer rows.Close()

	pairs := make(map[types.PairKey]int64)
	for rows.Next() {
		var (
			id  int64
			key types.PairKey
		)
		if err := rows.Scan(&id, &key.SellID, &key.BuyID); err != nil {
			return nil, fmt.Errorf("scanning unresolved conflict: %w", err)
		}
		pairs[key] = id
	}
	return pairs, rows.Err()
}

// ConflictSummary counts conflicts grouped by type and resolution status.
func (s *Store) ConflictSummary(ctx context.Context) (map[types.ConflictType]map[types.ResolutionStatus]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT conflict_type, resolution_status, COUNT(*)
		 FROM matching_conflicts GROUP BY conflict_type, resolution_status`)
	if err != nil {
		return nil, fmt.Errorf("querying conflict summary: %w", err)
	}
	defer rows.Close()

	summary := make(map[types.ConflictType]map[types.ResolutionStatus]int)
	for rows.Next() {
		var (
			ctype  string
			status string
			count  int
		)
		if err := rows.Scan(&ctype, &status, &count); err != nil {
			return nil, fmt.Errorf("scanning conflict summary: %w", err)
		}
		ct := types.ConflictType(ctype)
		if summary[ct] == nil {
			summary[ct] = make(map[types.ResolutionStatus]int)
		}
		summary[ct][types.ResolutionStatus(status)] = count
	}
	return summary, rows.Err()
}
