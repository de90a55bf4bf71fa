// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package decision is the authoritative, persisted ledger of match
// decisions, conflicts, and non-match exclusions.
//
// The store owns one invariant: at any time, no two active (accepted or
// auto_accepted) decisions share a sell id, and none share a buy id.
// Every write that could violate it runs its check and its mutation inside
// a single transaction, serialized by the store mutex, so a caller that
// loses a race observes a ConflictError and never a silently overwritten
// row. Conflicting attempts are themselves recorded, as MatchingConflict
// rows, in the same transaction that refuses them.
package decision

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/match-engine/pkg/types"
)

// Store manages the match-engine SQLite database.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// Open opens or creates the decision database at cfg.Path, creating the
// schema if it does not exist.
func Open(cfg types.StoreConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = types.DefaultEngineConfig().Store.Path
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS match_decisions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sell_id TEXT NOT NULL,
			buy_id TEXT NOT NULL,
			sell_name TEXT,
			sell_set TEXT,
			buy_name TEXT,
			buy_edition TEXT,
			score REAL NOT NULL,
			status TEXT NOT NULL,
			threshold_used REAL,
			notes TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			UNIQUE(sell_id, buy_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_decisions_sell_id ON match_decisions(sell_id)`,
		`CREATE INDEX IF NOT EXISTS idx_decisions_buy_id ON match_decisions(buy_id)`,
		`CREATE INDEX IF NOT EXISTS idx_decisions_status ON match_decisions(status)`,
		// Partial unique indexes back the invariant at the engine level as
		// well; the transactional check remains the source of ConflictError.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_decisions_active_sell
			ON match_decisions(sell_id) WHERE status IN ('accepted','auto_accepted')`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_decisions_active_buy
			ON match_decisions(buy_id) WHERE status IN ('accepted','auto_accepted')`,
		`CREATE TABLE IF NOT EXISTS matching_conflicts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			conflict_type TEXT NOT NULL,
			existing_decision_id INTEGER REFERENCES match_decisions(id),
			attempted_sell_id TEXT NOT NULL,
			attempted_buy_id TEXT NOT NULL,
			attempted_score REAL NOT NULL,
			message TEXT,
			resolution_status TEXT NOT NULL DEFAULT 'unresolved',
			resolution_action TEXT,
			resolved_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conflicts_resolution ON matching_conflicts(resolution_status)`,
		`CREATE TABLE IF NOT EXISTS non_match_exclusions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sell_id TEXT NOT NULL,
			buy_id TEXT NOT NULL,
			reason TEXT,
			origin TEXT NOT NULL DEFAULT 'user',
			score_at_exclusion REAL,
			permanent INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP NOT NULL,
			UNIQUE(sell_id, buy_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_exclusions_sell_id ON non_match_exclusions(sell_id)`,
		`CREATE TABLE IF NOT EXISTS match_sessions (
			id TEXT PRIMARY KEY,
			sell_count INTEGER,
			buy_count INTEGER,
			candidate_count INTEGER,
			auto_accepted INTEGER,
			auto_rejected INTEGER,
			conflicts_blocked INTEGER,
			pending_review INTEGER,
			skipped_decided INTEGER,
			exclusions_applied INTEGER,
			config TEXT,
			started_at TIMESTAMP NOT NULL,
			duration_ms INTEGER
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// activeDecision is one side's current binding, loaded inside the Record
// transaction.
type activeDecision struct {
	id     int64
	sellID string
	buyID  string
}

// Record writes one decision for the candidate pair, enforcing the
// one-to-one invariant for active statuses.
//
// If the sell or buy id is already actively bound to a different
// counterpart, or the exact pair sits in a rejected state, no decision
// row is written; a MatchingConflict row is created in the same
// transaction and the call returns a *ConflictError carrying its id.
// Re-recording the exact pair updates the existing row in place, which
// keeps repeated runs idempotent.
//
// A rejected or auto_rejected decision additionally upserts a permanent
// NonMatchExclusion for the pair (origin user for manual rejections,
// system for automatic ones) so no future run re-surfaces it.
func (s *Store) Record(ctx context.Context, c types.CandidateMatch, status types.DecisionStatus, threshold float64, notes string) (int64, error) {
	if !status.Valid() {
		return 0, fmt.Errorf("decision: unknown status %q", status)
	}
	if c.SellID == "" || c.BuyID == "" {
		return 0, fmt.Errorf("decision: candidate must carry sell and buy ids")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	var cerr *ConflictError
	if status.IsActive() {
		cerr, err = s.checkInvariant(ctx, tx, c, now)
	} else {
		cerr, err = s.checkTerminalPair(ctx, tx, c, now)
	}
	if err != nil {
		return 0, err
	}
	if cerr != nil {
		if err := tx.Commit(); err != nil {
			return 0, fmt.Errorf("committing conflict record: %w", err)
		}
		return 0, cerr
	}

	id, err := s.upsertDecision(ctx, tx, c, status, threshold, notes, now)
	if err != nil {
		return 0, err
	}

	if status == types.StatusRejected || status == types.StatusAutoRejected {
		origin := types.OriginUser
		reason := notes
		if status == types.StatusAutoRejected {
			origin = types.OriginSystem
			if reason == "" {
				reason = "sibling candidate auto-accepted"
			}
		}
		if reason == "" {
			reason = "rejected during review"
		}
		if err := upsertExclusion(ctx, tx, types.NonMatchExclusion{
			SellID:           c.SellID,
			BuyID:            c.BuyID,
			Reason:           reason,
			Origin:           origin,
			ScoreAtExclusion: c.Score,
			Permanent:        true,
			CreatedAt:        now,
		}); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing decision: %w", err)
	}
	return id, nil
}

// checkInvariant looks for active decisions that would collide with an
// active write for c. On collision it inserts the conflict row and
// returns the ConflictError for the caller to surface; the caller commits
// so the conflict record survives the refused write.
func (s *Store) checkInvariant(ctx context.Context, tx *sql.Tx, c types.CandidateMatch, now time.Time) (*ConflictError, error) {
	// Exact-pair rows are handled first: an active same-pair row is an
	// idempotent re-record (no conflict); a rejected same-pair row refuses
	// re-activation.
	var pairID int64
	var pairStatus types.DecisionStatus
	err := tx.QueryRowContext(ctx,
		`SELECT id, status FROM match_decisions WHERE sell_id = ? AND buy_id = ?`,
		c.SellID, c.BuyID,
	).Scan(&pairID, &pairStatus)
	switch {
	case err == sql.ErrNoRows:
		// No same-pair row; fall through to the side checks.
	case err != nil:
		return nil, fmt.Errorf("checking existing pair: %w", err)
	case pairStatus.IsActive():
		return nil, nil
	case pairStatus == types.StatusRejected || pairStatus == types.StatusAutoRejected:
		msg := fmt.Sprintf("pair %s/%s was previously rejected", c.SellID, c.BuyID)
		return s.insertConflict(ctx, tx, types.ConflictDuplicatePair, pairID, c, msg, now)
	}

	var existing activeDecision
	err = tx.QueryRowContext(ctx,
		`SELECT id, sell_id, buy_id FROM match_decisions
		 WHERE sell_id = ? AND buy_id <> ? AND status IN ('accepted','auto_accepted')`,
		c.SellID, c.BuyID,
	).Scan(&existing.id, &existing.sellID, &existing.buyID)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("checking sell-side invariant: %w", err)
	}
	if err == nil {
		msg := fmt.Sprintf("sell %s is already matched to buy %s", c.SellID, existing.buyID)
		return s.insertConflict(ctx, tx, types.ConflictSellSide, existing.id, c, msg, now)
	}

	err = tx.QueryRowContext(ctx,
		`SELECT id, sell_id, buy_id FROM match_decisions
		 WHERE buy_id = ? AND sell_id <> ? AND status IN ('accepted','auto_accepted')`,
		c.BuyID, c.SellID,
	).Scan(&existing.id, &existing.sellID, &existing.buyID)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("checking buy-side invariant: %w", err)
	}
	if err == nil {
		msg := fmt.Sprintf("buy %s is already matched to sell %s", c.BuyID, existing.sellID)
		return s.insertConflict(ctx, tx, types.ConflictBuySide, existing.id, c, msg, now)
	}

	return nil, nil
}

// checkTerminalPair refuses a non-active write that would overwrite an
// active same-pair decision. Active decisions only leave the active state
// through conflict resolution (replaced), never through a later rejection
// sliding in over them.
func (s *Store) checkTerminalPair(ctx context.Context, tx *sql.Tx, c types.CandidateMatch, now time.Time) (*ConflictError, error) {
	var (
		pairID     int64
		pairStatus types.DecisionStatus
	)
	err := tx.QueryRowContext(ctx,
		`SELECT id, status FROM match_decisions WHERE sell_id = ? AND buy_id = ?`,
		c.SellID, c.BuyID,
	).Scan(&pairID, &pairStatus)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("checking existing pair: %w", err)
	}
	if pairStatus.IsActive() {
		msg := fmt.Sprintf("pair %s/%s already has an active decision", c.SellID, c.BuyID)
		return s.insertConflict(ctx, tx, types.ConflictDuplicatePair, pairID, c, msg, now)
	}
	return nil, nil
}

func (s *Store) insertConflict(ctx context.Context, tx *sql.Tx, ctype types.ConflictType, existingID int64, c types.CandidateMatch, msg string, now time.Time) (*ConflictError, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO matching_conflicts (
			conflict_type, existing_decision_id, attempted_sell_id,
			attempted_buy_id, attempted_score, message, resolution_status, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, 'unresolved', ?)`,
		string(ctype), existingID, c.SellID, c.BuyID, c.Score, msg, now,
	)
	if err != nil {
		return nil, fmt.Errorf("recording conflict: %w", err)
	}
	conflictID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading conflict id: %w", err)
	}
	return &ConflictError{
		ConflictID:         conflictID,
		Type:               ctype,
		ExistingDecisionID: existingID,
		SellID:             c.SellID,
		BuyID:              c.BuyID,
		Message:            msg,
	}, nil
}

// upsertDecision writes or refreshes the decision row for the pair.
func (s *Store) upsertDecision(ctx context.Context, tx *sql.Tx, c types.CandidateMatch, status types.DecisionStatus, threshold float64, notes string, now time.Time) (int64, error) {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO match_decisions (
			sell_id, buy_id, sell_name, sell_set, buy_name, buy_edition,
			score, status, threshold_used, notes, created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(sell_id, buy_id) DO UPDATE SET
			score=excluded.score, status=excluded.status,
			threshold_used=excluded.threshold_used, notes=excluded.notes,
			updated_at=excluded.updated_at`,
		c.SellID, c.BuyID, c.SellName, c.SellSet, c.BuyName, c.BuyEdition,
		c.Score, string(status), threshold, notes, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("writing decision: %w", err)
	}

	// LastInsertId is unreliable for the update arm of an upsert; read the
	// row id back by its natural key.
	var id int64
	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM match_decisions WHERE sell_id = ? AND buy_id = ?`,
		c.SellID, c.BuyID,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("reading decision id: %w", err)
	}
	return id, nil
}

// ActiveDecision is the buy-side binding of one actively decided sell id.
type ActiveDecision struct {
	DecisionID int64
	BuyID      string
	Status     types.DecisionStatus
}

// ActiveDecisions returns the current active pairings keyed by sell id.
// The orchestrator uses this to skip already-decided sell records.
func (s *Store) ActiveDecisions(ctx context.Context) (map[string]ActiveDecision, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, sell_id, buy_id, status FROM match_decisions
		 WHERE status IN ('accepted','auto_accepted')`)
	if err != nil {
		return nil, fmt.Errorf("querying active decisions: %w", err)
	}
	defer rows.Close()

	active := make(map[string]ActiveDecision)
	for rows.Next() {
		var (
			d      ActiveDecision
			sellID string
			status string
		)
		if err := rows.Scan(&d.DecisionID, &sellID, &d.BuyID, &status); err != nil {
			return nil, fmt.Errorf("scanning active decision: %w", err)
		}
		d.Status = types.DecisionStatus(status)
		active[sellID] = d
	}
	return active, rows.Err()
}

// Decisions returns decisions filtered by status; with no statuses given
// it returns everything, newest first.
func (s *Store) Decisions(ctx context.Context, statuses ...types.DecisionStatus) ([]types.MatchDecision, error) {
	query := `SELECT id, sell_id, buy_id, sell_name, sell_set, buy_name, buy_edition,
			score, status, threshold_used, notes, created_at, updated_at
		FROM match_decisions`
	var args []any
	if len(statuses) > 0 {
		query += ` WHERE status IN (?` + repeat(",?", len(statuses)-1) + `)`
		for _, st := range statuses {
			args = append(args, string(st))
		}
	}
	query += ` ORDER BY updated_at DESC, sell_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying decisions: %w", err)
	}
	defer rows.Close()

	var out []types.MatchDecision
	for rows.Next() {
		var (
			d         types.MatchDecision
			status    string
			threshold sql.NullFloat64
			notes     sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.SellID, &d.BuyID, &d.SellName, &d.SellSet,
			&d.BuyName, &d.BuyEdition, &d.Score, &status, &threshold, &notes,
			&d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning decision: %w", err)
		}
		d.Status = types.DecisionStatus(status)
		d.ThresholdUsed = threshold.Float64
		d.Notes = notes.String
		out = append(out, d)
	}
	return out, rows.Err()
}

func repeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}

// ClearSummary reports what an administrative reset deleted.
type ClearSummary struct {
	Decisions  int64 `json:"decisions" yaml:"decisions"`
	Conflicts  int64 `json:"conflicts" yaml:"conflicts"`
	Exclusions int64 `json:"exclusions" yaml:"exclusions"`
	Sessions   int64 `json:"sessions" yaml:"sessions"`
}

// ClearAll deletes every decision, conflict, exclusion, and session.
// This is the only path that deletes decisions; it exists for explicit
// administrative resets and is never invoked by the matching pipeline.
func (s *Store) ClearAll(ctx context.Context) (ClearSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ClearSummary{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var summary ClearSummary
	for _, target := range []struct {
		table string
		count *int64
	}{
		{"matching_conflicts", &summary.Conflicts},
		{"match_decisions", &summary.Decisions},
		{"non_match_exclusions", &summary.Exclusions},
		{"match_sessions", &summary.Sessions},
	} {
		res, err := tx.ExecContext(ctx, `DELETE FROM `+target.table)
		if err != nil {
			return ClearSummary{}, fmt.Errorf("clearing %s: %w", target.table, err)
		}
		*target.count, _ = res.RowsAffected()
	}

	if err := tx.Commit(); err != nil {
		return ClearSummary{}, fmt.Errorf("committing clear: %w", err)
	}
	return summary, nil
}
