// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package similarity

import (
	"fmt"
	"sort"
)

// Scored is one ranked buy-side hit from an index query.
type Scored struct {
	BuyID string
	Score float64
}

// Index holds the vectorized buy-side catalog for repeated top-K queries.
// Construction cost is paid once per run; each query is linear in the
// catalog size. The index is immutable after construction and safe for
// concurrent queries.
type Index struct {
	ids     []string
	vectors []Vector
}

// NewIndex builds an index over the buy catalog. ids and vectors must be
// parallel slices in catalog order.
func NewIndex(ids []string, vectors []Vector) (*Index, error) {
	if len(ids) != len(vectors) {
		return nil, fmt.Errorf("similarity: %d ids for %d vectors", len(ids), len(vectors))
	}
	return &Index{ids: ids, vectors: vectors}, nil
}

// Len returns the number of indexed records.
func (ix *Index) Len() int {
	return len(ix.ids)
}

// TopK returns up to k buy records most similar to query with score >=
// floor, ordered by descending score with ties broken by ascending buy ID.
// Records for which skip returns true are never scored; the caller uses
// this to prune excluded pairs before any similarity work happens.
func (ix *Index) TopK(query Vector, k int, floor float64, skip func(buyID string) bool) []Scored {
	if k <= 0 || len(query) == 0 {
		return nil
	}

	var hits []Scored
	for i, vec := range ix.vectors {
		if skip != nil && skip(ix.ids[i]) {
			continue
		}
		score := query.Dot(vec)
		if score >= floor {
			hits = append(hits, Scored{BuyID: ix.ids[i], Score: score})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].BuyID < hits[j].BuyID
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}
