// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// DecisionStatus is the lifecycle state of a match decision. The set is
// closed: consumers switch exhaustively over these values, and the store
// rejects anything else.
type DecisionStatus string

const (
	// StatusPending marks a candidate surfaced for manual review.
	StatusPending DecisionStatus = "pending"

	// StatusAccepted marks a manually confirmed pairing.
	StatusAccepted DecisionStatus = "accepted"

	// StatusRejected marks a manually refused pairing. Rejection also
	// excludes the pair from future candidate generation.
	StatusRejected DecisionStatus = "rejected"

	// StatusAutoAccepted marks a pairing accepted by the classifier
	// because its score cleared the auto-accept threshold.
	StatusAutoAccepted DecisionStatus = "auto_accepted"

	// StatusAutoRejected marks a lower-ranked candidate discarded when a
	// sibling candidate for the same sell record was auto-accepted.
	StatusAutoRejected DecisionStatus = "auto_rejected"

	// StatusConflictBlocked marks an auto-accept proposal that lost an
	// invariant check against an existing active decision.
	StatusConflictBlocked DecisionStatus = "conflict_blocked"

	// StatusReplaced marks a previously active decision displaced by
	// conflict resolution. Replaced rows stay in the ledger for audit.
	StatusReplaced DecisionStatus = "replaced"
)

// IsActive reports whether the status binds its sell and buy ids for the
// one-to-one invariant.
func (s DecisionStatus) IsActive() bool {
	return s == StatusAccepted || s == StatusAutoAccepted
}

// IsTerminal reports whether the status is final for its specific pair.
// Every status except pending is terminal; a new decision for the same id
// requires the old active decision to transition to replaced first.
func (s DecisionStatus) IsTerminal() bool {
	return s != StatusPending
}

// Valid reports whether s is one of the known statuses.
func (s DecisionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusAutoAccepted,
		StatusAutoRejected, StatusConflictBlocked, StatusReplaced:
		return true
	}
	return false
}

// MatchDecision is the unit of truth: one persisted pairing decision.
// Decisions are created and updated only through the decision store and
// deleted only by the administrative clear operation.
type MatchDecision struct {
	ID     int64  `json:"id" yaml:"id"`
	SellID string `json:"sell_id" yaml:"sell_id"`
	BuyID  string `json:"buy_id" yaml:"buy_id"`

	// Display snapshots taken at decision time.
	SellName   string `json:"sell_name,omitempty" yaml:"sell_name,omitempty"`
	SellSet    string `json:"sell_set,omitempty" yaml:"sell_set,omitempty"`
	BuyName    string `json:"buy_name,omitempty" yaml:"buy_name,omitempty"`
	BuyEdition string `json:"buy_edition,omitempty" yaml:"buy_edition,omitempty"`

	// Score is the similarity score at the time the decision was made.
	Score float64 `json:"score" yaml:"score"`

	Status DecisionStatus `json:"status" yaml:"status"`

	// ThresholdUsed records the auto-accept threshold in force when the
	// decision was written. Zero for manual decisions.
	ThresholdUsed float64 `json:"threshold_used,omitempty" yaml:"threshold_used,omitempty"`

	Notes     string    `json:"notes,omitempty" yaml:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// ConflictType identifies which side of the one-to-one invariant an
// attempted decision would have violated.
type ConflictType string

const (
	// ConflictSellSide: the sell id is already actively bound elsewhere.
	ConflictSellSide ConflictType = "sell_side"

	// ConflictBuySide: the buy id is already actively bound elsewhere.
	ConflictBuySide ConflictType = "buy_side"

	// ConflictDuplicatePair: the exact pair is already actively bound on
	// both sides.
	ConflictDuplicatePair ConflictType = "duplicate_pair"
)

// ResolutionStatus is the review state of a recorded conflict.
type ResolutionStatus string

const (
	ResolutionUnresolved ResolutionStatus = "unresolved"
	ResolutionResolved   ResolutionStatus = "resolved"
	ResolutionIgnored    ResolutionStatus = "ignored"
)

// MatchingConflict records a decision attempt the store refused because it
// would have violated the one-to-one invariant. Conflicts are created by
// the store itself and mutated only by explicit resolution calls.
type MatchingConflict struct {
	ID   int64        `json:"id" yaml:"id"`
	Type ConflictType `json:"type" yaml:"type"`

	// ExistingDecisionID references the active decision that blocked the
	// attempt.
	ExistingDecisionID int64 `json:"existing_decision_id" yaml:"existing_decision_id"`

	AttemptedSellID string  `json:"attempted_sell_id" yaml:"attempted_sell_id"`
	AttemptedBuyID  string  `json:"attempted_buy_id" yaml:"attempted_buy_id"`
	AttemptedScore  float64 `json:"attempted_score" yaml:"attempted_score"`

	// Message is a human-readable description of the collision.
	Message string `json:"message,omitempty" yaml:"message,omitempty"`

	ResolutionStatus ResolutionStatus `json:"resolution_status" yaml:"resolution_status"`
	ResolutionAction string           `json:"resolution_action,omitempty" yaml:"resolution_action,omitempty"`
	ResolvedAt       *time.Time       `json:"resolved_at,omitempty" yaml:"resolved_at,omitempty"`
	CreatedAt        time.Time        `json:"created_at" yaml:"created_at"`
}

// ExclusionOrigin identifies who excluded a pair.
type ExclusionOrigin string

const (
	OriginUser   ExclusionOrigin = "user"
	OriginSystem ExclusionOrigin = "system"
)

// NonMatchExclusion blocks a sell/buy pair from future candidate
// generation. Exclusions are unique per pair.
type NonMatchExclusion struct {
	SellID string `json:"sell_id" yaml:"sell_id"`
	BuyID  string `json:"buy_id" yaml:"buy_id"`

	// Reason records why the pair was excluded.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`

	Origin ExclusionOrigin `json:"origin" yaml:"origin"`

	// ScoreAtExclusion is the similarity score observed when the pair was
	// excluded, if any.
	ScoreAtExclusion float64 `json:"score_at_exclusion,omitempty" yaml:"score_at_exclusion,omitempty"`

	// Permanent exclusions survive across sessions; non-permanent ones are
	// scoped to the session that created them.
	Permanent bool `json:"permanent" yaml:"permanent"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// PairKey is the lookup key for an excluded or decided pair.
type PairKey struct {
	SellID string
	BuyID  string
}

// Key returns the exclusion's pair key.
func (e NonMatchExclusion) Key() PairKey {
	return PairKey{SellID: e.SellID, BuyID: e.BuyID}
}

// MatchSession is the append-only record of one orchestrator run. It is
// never mutated after the run completes.
type MatchSession struct {
	// ID is a run-unique identifier (UUID).
	ID string `json:"id" yaml:"id"`

	SellCount      int `json:"sell_count" yaml:"sell_count"`
	BuyCount       int `json:"buy_count" yaml:"buy_count"`
	CandidateCount int `json:"candidate_count" yaml:"candidate_count"`

	AutoAccepted     int `json:"auto_accepted" yaml:"auto_accepted"`
	AutoRejected     int `json:"auto_rejected" yaml:"auto_rejected"`
	ConflictsBlocked int `json:"conflicts_blocked" yaml:"conflicts_blocked"`
	PendingReview    int `json:"pending_review" yaml:"pending_review"`

	// SkippedDecided counts sell records dropped because they already had
	// an active decision.
	SkippedDecided int `json:"skipped_decided" yaml:"skipped_decided"`

	// ExclusionsApplied counts the exclusion pairs loaded for the run.
	ExclusionsApplied int `json:"exclusions_applied" yaml:"exclusions_applied"`

	// Config snapshots the matcher configuration used for the run.
	Config MatcherConfig `json:"config" yaml:"config"`

	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
}
