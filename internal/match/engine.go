// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package match

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/match-engine/internal/decision"
	"github.com/pdiddy/match-engine/pkg/types"
)

// Outcome is the applied result of one classifier proposal. Auto
// proposals resolve to a decision id or to a conflict; pending proposals
// pass through untouched for manual review.
type Outcome struct {
	Proposal Proposal `json:"proposal" yaml:"proposal"`

	// Status is the final status after applying the proposal. It differs
	// from the proposed status only when an auto-accept was degraded to
	// conflict_blocked.
	Status types.DecisionStatus `json:"status" yaml:"status"`

	// DecisionID is set when a decision row was written.
	DecisionID int64 `json:"decision_id,omitempty" yaml:"decision_id,omitempty"`

	// Conflict is set when the store refused the write.
	Conflict *decision.ConflictError `json:"-" yaml:"-"`
}

// RunResult is everything one matching run produced: the full candidate
// set (including pending candidates awaiting review), the applied
// outcomes, and the persisted session record.
type RunResult struct {
	Candidates []SellCandidates   `json:"candidates" yaml:"candidates"`
	Outcomes   []Outcome          `json:"outcomes" yaml:"outcomes"`
	Session    types.MatchSession `json:"session" yaml:"session"`
}

// Pending returns the proposals left for manual review.
func (r *RunResult) Pending() []Proposal {
	var out []Proposal
	for _, o := range r.Outcomes {
		if o.Status == types.StatusPending {
			out = append(out, o.Proposal)
		}
	}
	return out
}

// Engine orchestrates matching runs against one decision store. It holds
// no per-run state; concurrent runs are safe and serialize only inside
// the store.
type Engine struct {
	store *decision.Store
	cfg   types.EngineConfig
}

// NewEngine returns an engine over store with cfg normalized.
func NewEngine(store *decision.Store, cfg types.EngineConfig) *Engine {
	return &Engine{store: store, cfg: cfg.Normalized()}
}

// Run executes one reconciliation pass over the supplied catalogs:
// exclusions are loaded and pruned, candidates generated and classified,
// automatic proposals applied through the store, and the session recorded.
//
// A ConflictError during an automatic apply degrades that one candidate
// to conflict_blocked and the run continues; any other store error aborts
// the run. The run never blocks on manual review: pending candidates are
// returned to the caller, not persisted.
//
// Progress and warnings are written to w.
func (e *Engine) Run(ctx context.Context, sells []types.SellRecord, buys []types.BuyRecord, w io.Writer) (*RunResult, error) {
	if len(sells) == 0 || len(buys) == 0 {
		return nil, fmt.Errorf("%w: %d sell records, %d buy records",
			ErrEmptyCatalog, len(sells), len(buys))
	}

	started := time.Now()
	session := types.MatchSession{
		ID:        uuid.NewString(),
		SellCount: len(sells),
		BuyCount:  len(buys),
		Config:    e.cfg.Matcher,
		StartedAt: started.UTC(),
	}

	excluded, err := e.store.ExclusionSet(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading exclusions: %w", err)
	}
	session.ExclusionsApplied = len(excluded)

	if e.cfg.Matcher.SkipDecidedItems {
		active, err := e.store.ActiveDecisions(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading active decisions: %w", err)
		}
		var undecided []types.SellRecord
		for _, s := range sells {
			if _, ok := active[s.ID]; ok {
				session.SkippedDecided++
				continue
			}
			undecided = append(undecided, s)
		}
		sells = undecided
		if session.SkippedDecided > 0 {
			fmt.Fprintf(w, "skipped %d already-decided sell records\n", session.SkippedDecided)
		}
	}

	result := &RunResult{}

	if len(sells) > 0 {
		result.Candidates, err = Generate(ctx, sells, buys, e.cfg, excluded)
		if err != nil {
			return nil, err
		}
	}
	for _, set := range result.Candidates {
		session.CandidateCount += len(set.Candidates)
	}

	proposals := Classify(result.Candidates, e.cfg.Matcher.AutoAcceptThreshold)
	result.Outcomes, err = e.applyProposals(ctx, proposals, &session, w)
	if err != nil {
		return nil, err
	}

	session.Duration = time.Since(started)
	result.Session = session

	if err := e.store.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}

	fmt.Fprintf(w, "run %s: %d candidates, %d auto-accepted, %d auto-rejected, %d blocked, %d pending\n",
		session.ID, session.CandidateCount, session.AutoAccepted,
		session.AutoRejected, session.ConflictsBlocked, session.PendingReview)

	return result, nil
}

// applyProposals records every automatic proposal, folding each into an
// Outcome rather than letting a single conflict unwind the batch.
func (e *Engine) applyProposals(ctx context.Context, proposals []Proposal, session *types.MatchSession, w io.Writer) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(proposals))
	threshold := e.cfg.Matcher.AutoAcceptThreshold

	// Pairs already sitting behind an unresolved conflict stay degraded
	// without raising a fresh conflict on every run.
	openConflicts, err := e.store.UnresolvedConflictPairs(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading unresolved conflicts: %w", err)
	}

	for _, p := range proposals {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		switch p.Status {
		case types.StatusPending:
			session.PendingReview++
			outcomes = append(outcomes, Outcome{Proposal: p, Status: types.StatusPending})
			continue
		case types.StatusAutoAccepted, types.StatusAutoRejected:
			// Applied below.
		default:
			return nil, fmt.Errorf("match: classifier proposed %q", p.Status)
		}

		key := types.PairKey{SellID: p.Candidate.SellID, BuyID: p.Candidate.BuyID}
		if conflictID, open := openConflicts[key]; open && p.Status == types.StatusAutoAccepted {
			fmt.Fprintf(w, "warning: %s/%s still blocked by unresolved conflict %d\n",
				p.Candidate.SellID, p.Candidate.BuyID, conflictID)
			session.ConflictsBlocked++
			outcomes = append(outcomes, Outcome{Proposal: p, Status: types.StatusConflictBlocked})
			continue
		}

		id, err := e.store.Record(ctx, p.Candidate, p.Status, threshold, "")
		if cerr := decision.AsConflict(err); cerr != nil {
			fmt.Fprintf(w, "warning: %s %s/%s blocked by conflict %d: %s\n",
				p.Status, p.Candidate.SellID, p.Candidate.BuyID, cerr.ConflictID, cerr.Message)
			session.ConflictsBlocked++
			outcome := Outcome{Proposal: p, Status: types.StatusConflictBlocked, Conflict: cerr}

			// Persist the degraded state so the blocked attempt is
			// auditable next to its conflict row.
			if p.Status == types.StatusAutoAccepted {
				blockedID, berr := e.store.Record(ctx, p.Candidate, types.StatusConflictBlocked,
					threshold, fmt.Sprintf("blocked by conflict %d", cerr.ConflictID))
				if berr != nil && decision.AsConflict(berr) == nil {
					return nil, fmt.Errorf("recording blocked candidate: %w", berr)
				}
				outcome.DecisionID = blockedID
			}
			outcomes = append(outcomes, outcome)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("applying %s for %s/%s: %w",
				p.Status, p.Candidate.SellID, p.Candidate.BuyID, err)
		}

		switch p.Status {
		case types.StatusAutoAccepted:
			session.AutoAccepted++
		case types.StatusAutoRejected:
			session.AutoRejected++
		}
		outcomes = append(outcomes, Outcome{Proposal: p, Status: p.Status, DecisionID: id})
	}

	return outcomes, nil
}
