// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package decision

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pdiddy/match-engine/pkg/types"
)

// SaveSession appends the record of one completed matching run. Sessions
// are never updated afterwards.
func (s *Store) SaveSession(ctx context.Context, session types.MatchSession) error {
	if session.ID == "" {
		return fmt.Errorf("decision: session must carry an id")
	}

	configJSON, err := json.Marshal(session.Config)
	if err != nil {
		return fmt.Errorf("encoding session config: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO match_sessions (
			id, sell_count, buy_count, candidate_count, auto_accepted,
			auto_rejected, conflicts_blocked, pending_review, skipped_decided,
			exclusions_applied, config, started_at, duration_ms
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.SellCount, session.BuyCount, session.CandidateCount,
		session.AutoAccepted, session.AutoRejected, session.ConflictsBlocked,
		session.PendingReview, session.SkippedDecided, session.ExclusionsApplied,
		string(configJSON), session.StartedAt.UTC(), session.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// ListSessions returns the most recent sessions, newest first. A limit of
// zero returns everything.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]types.MatchSession, error) {
	query := `SELECT id, sell_count, buy_count, candidate_count, auto_accepted,
			auto_rejected, conflicts_blocked, pending_review, skipped_decided,
			exclusions_applied, config, started_at, duration_ms
		FROM match_sessions ORDER BY started_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var out []types.MatchSession
	for rows.Next() {
		var (
			sess       types.MatchSession
			configJSON sql.NullString
			durationMS int64
		)
		if err := rows.Scan(&sess.ID, &sess.SellCount, &sess.BuyCount,
			&sess.CandidateCount, &sess.AutoAccepted, &sess.AutoRejected,
			&sess.ConflictsBlocked, &sess.PendingReview, &sess.SkippedDecided,
			&sess.ExclusionsApplied, &configJSON, &sess.StartedAt, &durationMS); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sess.Duration = time.Duration(durationMS) * time.Millisecond
		if configJSON.Valid && configJSON.String != "" {
			if err := json.Unmarshal([]byte(configJSON.String), &sess.Config); err != nil {
				return nil, fmt.Errorf("decoding session config: %w", err)
			}
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// Stats summarizes the decision ledger for reporting.
type Stats struct {
	ByStatus   map[types.DecisionStatus]int `json:"by_status" yaml:"by_status"`
	Total      int                          `json:"total" yaml:"total"`
	MinScore   float64                      `json:"min_score" yaml:"min_score"`
	MaxScore   float64                      `json:"max_score" yaml:"max_score"`
	MeanScore  float64                      `json:"mean_score" yaml:"mean_score"`
	Exclusions int                          `json:"exclusions" yaml:"exclusions"`
	Unresolved int                          `json:"unresolved_conflicts" yaml:"unresolved_conflicts"`
}

// Stats reports decision counts by status, score aggregates, and open
// conflict and exclusion counts.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{ByStatus: make(map[types.DecisionStatus]int)}

	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM match_decisions GROUP BY status`)
	if err != nil {
		return Stats{}, fmt.Errorf("querying status counts: %w", err)
	}
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return Stats{}, fmt.Errorf("scanning status count: %w", err)
		}
		stats.ByStatus[types.DecisionStatus(status)] = count
		stats.Total += count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}

	if stats.Total > 0 {
		err = s.db.QueryRowContext(ctx,
			`SELECT MIN(score), MAX(score), AVG(score) FROM match_decisions`,
		).Scan(&stats.MinScore, &stats.MaxScore, &stats.MeanScore)
		if err != nil {
			return Stats{}, fmt.Errorf("querying score aggregates: %w", err)
		}
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM non_match_exclusions`).Scan(&stats.Exclusions)
	if err != nil {
		return Stats{}, fmt.Errorf("counting exclusions: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM matching_conflicts WHERE resolution_status = 'unresolved'`,
	).Scan(&stats.Unresolved)
	if err != nil {
		return Stats{}, fmt.Errorf("counting unresolved conflicts: %w", err)
	}

	return stats, nil
}
