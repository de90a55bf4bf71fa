// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package match drives one reconciliation run: candidate generation over
// the similarity index, confidence classification, and application of
// automatic decisions through the decision store.
package match

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/match-engine/internal/catalog"
	"github.com/pdiddy/match-engine/internal/similarity"
	"github.com/pdiddy/match-engine/pkg/types"
)

// ErrEmptyCatalog is returned when either catalog side has no records.
// Nothing is persisted for a run that fails this way.
var ErrEmptyCatalog = errors.New("match: empty catalog")

// SellCandidates groups one sell record with its ranked buy candidates.
// Sell records with no candidate above the floor appear with an empty
// candidate list; that is a valid empty result, not an error.
type SellCandidates struct {
	Sell       types.SellRecord      `json:"sell" yaml:"sell"`
	Candidates []types.CandidateMatch `json:"candidates" yaml:"candidates"`
}

// Generate scores every sell record against the buy-side index and
// returns per-sell candidate lists: the top K hits at or above the
// similarity floor, ordered by descending score with ties broken by
// ascending buy id. Excluded pairs are pruned before scoring.
//
// Scoring is a pure computation over immutable inputs; sell records are
// processed in parallel.
func Generate(ctx context.Context, sells []types.SellRecord, buys []types.BuyRecord, cfg types.EngineConfig, excluded map[types.PairKey]struct{}) ([]SellCandidates, error) {
	if len(sells) == 0 || len(buys) == 0 {
		return nil, fmt.Errorf("%w: %d sell records, %d buy records",
			ErrEmptyCatalog, len(sells), len(buys))
	}

	sellTexts := catalog.SellTexts(sells)
	buyTexts := catalog.BuyTexts(buys)

	vz := similarity.NewVectorizer(cfg.Similarity)
	corpus := make([]string, 0, len(sellTexts)+len(buyTexts))
	corpus = append(corpus, buyTexts...)
	corpus = append(corpus, sellTexts...)
	if err := vz.Fit(corpus); err != nil {
		return nil, fmt.Errorf("fitting vectorizer: %w", err)
	}

	buyVecs, err := vz.TransformAll(buyTexts)
	if err != nil {
		return nil, fmt.Errorf("vectorizing buy catalog: %w", err)
	}
	buyIDs := make([]string, len(buys))
	buyByID := make(map[string]types.BuyRecord, len(buys))
	for i, b := range buys {
		buyIDs[i] = b.ID
		buyByID[b.ID] = b
	}
	index, err := similarity.NewIndex(buyIDs, buyVecs)
	if err != nil {
		return nil, err
	}

	out := make([]SellCandidates, len(sells))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range sells {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sell := sells[i]
			vec, err := vz.Transform(sellTexts[i])
			if err != nil {
				return fmt.Errorf("vectorizing sell %s: %w", sell.ID, err)
			}

			skip := func(buyID string) bool {
				_, ok := excluded[types.PairKey{SellID: sell.ID, BuyID: buyID}]
				return ok
			}
			hits := index.TopK(vec, cfg.Matcher.TopK, cfg.Matcher.SimilarityFloor, skip)

			candidates := make([]types.CandidateMatch, len(hits))
			for rank, hit := range hits {
				buy := buyByID[hit.BuyID]
				candidates[rank] = types.CandidateMatch{
					SellID:     sell.ID,
					BuyID:      hit.BuyID,
					Score:      hit.Score,
					Rank:       rank + 1,
					SellName:   sell.Name,
					SellSet:    sell.SetName,
					SellPrice:  sell.MarketPrice,
					BuyName:    buy.Name,
					BuyEdition: buy.Edition,
					BuyPrice:   buy.Price,
				}
			}
			out[i] = SellCandidates{Sell: sell, Candidates: candidates}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}
