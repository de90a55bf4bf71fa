// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package similarity

import (
	"errors"
	"math"
	"sort"

	"github.com/pdiddy/match-engine/pkg/types"
)

// ErrEmptyCorpus is returned by Fit when the corpus contains no documents
// or no term survives vocabulary pruning.
var ErrEmptyCorpus = errors.New("similarity: empty corpus")

// ErrNotFitted is returned by Transform before Fit has been called.
var ErrNotFitted = errors.New("similarity: vectorizer not fitted")

// Vector is a sparse, L2-normalized TF-IDF document vector keyed by
// vocabulary index.
type Vector map[int]float64

// Dot returns the dot product of two vectors. Both sides are
// L2-normalized, so the result is the cosine similarity clamped to [0,1].
func (v Vector) Dot(other Vector) float64 {
	// Iterate the smaller map.
	if len(other) < len(v) {
		v, other = other, v
	}
	var sum float64
	for idx, w := range v {
		if ow, ok := other[idx]; ok {
			sum += w * ow
		}
	}
	if sum < 0 {
		return 0
	}
	if sum > 1 {
		return 1
	}
	return sum
}

// Vectorizer converts documents into TF-IDF vectors. It must be fit on
// the combined corpus of both catalog sides before transforming either,
// so that shared terms land on shared vocabulary indices.
//
// Fitting is fully deterministic: vocabulary pruning breaks document
// frequency ties alphabetically and the final index assignment is by
// sorted term.
type Vectorizer struct {
	cfg    types.SimilarityConfig
	vocab  map[string]int
	idf    []float64
	fitted bool
}

// NewVectorizer returns an unfitted vectorizer with the given settings.
// Zero values fall back to defaults via EngineConfig normalization rules.
func NewVectorizer(cfg types.SimilarityConfig) *Vectorizer {
	norm := types.EngineConfig{Similarity: cfg}.Normalized()
	return &Vectorizer{cfg: norm.Similarity}
}

// Fit builds the vocabulary and inverse document frequencies from docs.
// Terms below MinDocFreq documents or above MaxDocShare of the corpus are
// pruned; the remainder is capped at MaxFeatures by descending document
// frequency.
func (vz *Vectorizer) Fit(docs []string) error {
	if len(docs) == 0 {
		return ErrEmptyCorpus
	}

	docFreq := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, term := range ngrams(tokenize(doc), vz.cfg.MinNgram, vz.cfg.MaxNgram) {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			docFreq[term]++
		}
	}

	maxDF := int(math.Floor(vz.cfg.MaxDocShare * float64(len(docs))))
	if maxDF < 1 {
		maxDF = 1
	}

	type termFreq struct {
		term string
		df   int
	}
	kept := make([]termFreq, 0, len(docFreq))
	for term, df := range docFreq {
		if df < vz.cfg.MinDocFreq || df > maxDF {
			continue
		}
		kept = append(kept, termFreq{term: term, df: df})
	}
	if len(kept) == 0 {
		return ErrEmptyCorpus
	}

	if len(kept) > vz.cfg.MaxFeatures {
		sort.Slice(kept, func(i, j int) bool {
			if kept[i].df != kept[j].df {
				return kept[i].df > kept[j].df
			}
			return kept[i].term < kept[j].term
		})
		kept = kept[:vz.cfg.MaxFeatures]
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].term < kept[j].term })

	vz.vocab = make(map[string]int, len(kept))
	vz.idf = make([]float64, len(kept))
	n := float64(len(docs))
	for i, tf := range kept {
		vz.vocab[tf.term] = i
		// Smoothed IDF. Always positive, and terms present in every
		// document still contribute.
		vz.idf[i] = math.Log((1+n)/(1+float64(tf.df))) + 1
	}
	vz.fitted = true

	return nil
}

// VocabSize returns the number of terms in the fitted vocabulary.
func (vz *Vectorizer) VocabSize() int {
	return len(vz.vocab)
}

// Transform converts one document into its L2-normalized TF-IDF vector.
// Documents with no in-vocabulary terms transform to an empty vector,
// which scores 0 against everything.
func (vz *Vectorizer) Transform(doc string) (Vector, error) {
	if !vz.fitted {
		return nil, ErrNotFitted
	}

	counts := make(map[int]int)
	for _, term := range ngrams(tokenize(doc), vz.cfg.MinNgram, vz.cfg.MaxNgram) {
		if idx, ok := vz.vocab[term]; ok {
			counts[idx]++
		}
	}

	vec := make(Vector, len(counts))
	var sumSq float64
	for idx, count := range counts {
		w := float64(count) * vz.idf[idx]
		vec[idx] = w
		sumSq += w * w
	}
	if sumSq == 0 {
		return vec, nil
	}

	norm := math.Sqrt(sumSq)
	for idx := range vec {
		vec[idx] /= norm
	}
	return vec, nil
}

// TransformAll transforms a batch of documents in input order.
func (vz *Vectorizer) TransformAll(docs []string) ([]Vector, error) {
	vecs := make([]Vector, len(docs))
	for i, doc := range docs {
		vec, err := vz.Transform(doc)
		if err != nil {
			return nil, err
		}
		vecs[i] = vec
	}
	return vecs, nil
}
