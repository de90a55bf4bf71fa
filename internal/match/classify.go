// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package match

import "github.com/pdiddy/match-engine/pkg/types"

// Proposal is the classifier's verdict for one candidate before it is
// applied to the decision store.
type Proposal struct {
	Candidate types.CandidateMatch `json:"candidate" yaml:"candidate"`
	Status    types.DecisionStatus `json:"status" yaml:"status"`
}

// Classify labels each sell record's candidates. When the top-ranked
// candidate scores at or above threshold, it is proposed auto_accepted
// and every other candidate of the same sell record auto_rejected, never
// pending, so a single classification can never itself propose two
// active bindings for one sell record. Below the threshold, all
// candidates stay pending for manual review.
//
// Proposals are emitted in input order, accept before its rejected
// siblings, so applying them sequentially is deterministic.
func Classify(sets []SellCandidates, threshold float64) []Proposal {
	var proposals []Proposal
	for _, set := range sets {
		if len(set.Candidates) == 0 {
			continue
		}
		best := set.Candidates[0]
		if best.Score >= threshold {
			proposals = append(proposals, Proposal{Candidate: best, Status: types.StatusAutoAccepted})
			for _, c := range set.Candidates[1:] {
				proposals = append(proposals, Proposal{Candidate: c, Status: types.StatusAutoRejected})
			}
			continue
		}
		for _, c := range set.Candidates {
			proposals = append(proposals, Proposal{Candidate: c, Status: types.StatusPending})
		}
	}
	return proposals
}
