// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package similarity

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/pdiddy/match-engine/pkg/types"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "Lightning BOLT", "lightning bolt"},
		{"strips punctuation", "Jace, the Mind-Sculptor", "jace the mind sculptor"},
		{"collapses whitespace", "  sol   ring\t(commander)  ", "sol ring commander"},
		{"keeps digits", "Border 2X2 #042", "border 2x2 042"},
		{"empty input", "", ""},
		{"all punctuation", "?!...---", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNgrams(t *testing.T) {
	tokens := []string{"black", "lotus", "alpha"}

	got := ngrams(tokens, 1, 3)
	want := []string{
		"black", "lotus", "alpha",
		"black lotus", "lotus alpha",
		"black lotus alpha",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ngrams = %v, want %v", got, want)
	}
}

func TestNgramsShortDocument(t *testing.T) {
	// A one-word document contributes nothing at n >= 2.
	got := ngrams([]string{"lotus"}, 2, 3)
	if got != nil {
		t.Errorf("ngrams = %v, want nil", got)
	}
}

// corpus returns composite texts with enough term overlap that min_df=2
// keeps a usable vocabulary.
func testCorpus() []string {
	return []string{
		"lightning bolt revised edition common",
		"lightning bolt fourth edition common",
		"lightning strike magic origins common",
		"black lotus unlimited edition rare",
		"black lotus alpha rare",
		"sol ring commander uncommon",
		"sol ring revised edition uncommon",
	}
}

func fitVectorizer(t *testing.T, cfg types.SimilarityConfig, docs []string) *Vectorizer {
	t.Helper()
	vz := NewVectorizer(cfg)
	if err := vz.Fit(docs); err != nil {
		t.Fatal(err)
	}
	return vz
}

func TestFitEmptyCorpus(t *testing.T) {
	vz := NewVectorizer(types.SimilarityConfig{})
	if err := vz.Fit(nil); !errors.Is(err, ErrEmptyCorpus) {
		t.Errorf("want ErrEmptyCorpus, got %v", err)
	}
}

func TestFitAllTermsPruned(t *testing.T) {
	// Every term appears exactly once, below the min_df=2 cutoff.
	vz := NewVectorizer(types.SimilarityConfig{MinDocFreq: 2})
	err := vz.Fit([]string{"alpha beta", "gamma delta"})
	if !errors.Is(err, ErrEmptyCorpus) {
		t.Errorf("want ErrEmptyCorpus, got %v", err)
	}
}

func TestTransformBeforeFit(t *testing.T) {
	vz := NewVectorizer(types.SimilarityConfig{})
	if _, err := vz.Transform("anything"); !errors.Is(err, ErrNotFitted) {
		t.Errorf("want ErrNotFitted, got %v", err)
	}
}

func TestFitPrunesByDocumentFrequency(t *testing.T) {
	vz := fitVectorizer(t, types.SimilarityConfig{MinNgram: 1, MaxNgram: 1, MinDocFreq: 2, MaxDocShare: 0.8}, testCorpus())

	// "unlimited" appears once: pruned. "common" appears in 3 of 7 docs:
	// kept. No term exceeds the 80% share in this corpus.
	vec, err := vz.Transform("unlimited")
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 0 {
		t.Errorf("pruned term produced a non-empty vector: %v", vec)
	}

	vec, err = vz.Transform("common")
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 1 {
		t.Errorf("kept term produced vector of size %d, want 1", len(vec))
	}
}

func TestFitMaxDocShare(t *testing.T) {
	docs := []string{
		"foil lightning bolt",
		"foil black lotus",
		"foil sol ring",
		"foil mox emerald",
	}
	// "foil" appears in all 4 docs; with max share 0.5 it is pruned while
	// the per-card terms are too rare to keep either, except none repeat.
	vz := NewVectorizer(types.SimilarityConfig{MinNgram: 1, MaxNgram: 1, MinDocFreq: 1, MaxDocShare: 0.5})
	if err := vz.Fit(docs); err != nil {
		t.Fatal(err)
	}

	vec, err := vz.Transform("foil")
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 0 {
		t.Errorf("over-share term survived pruning: %v", vec)
	}
}

func TestFitMaxFeaturesCap(t *testing.T) {
	vz := fitVectorizer(t, types.SimilarityConfig{MinNgram: 1, MaxNgram: 1, MinDocFreq: 2, MaxDocShare: 0.9, MaxFeatures: 3}, testCorpus())

	if vz.VocabSize() != 3 {
		t.Errorf("VocabSize = %d, want 3", vz.VocabSize())
	}
}

func TestFitIsDeterministic(t *testing.T) {
	cfg := types.SimilarityConfig{MinNgram: 1, MaxNgram: 2, MinDocFreq: 2, MaxDocShare: 0.8}

	a := fitVectorizer(t, cfg, testCorpus())
	b := fitVectorizer(t, cfg, testCorpus())

	if !reflect.DeepEqual(a.vocab, b.vocab) {
		t.Error("vocabularies differ between identical fits")
	}
	if !reflect.DeepEqual(a.idf, b.idf) {
		t.Error("idf vectors differ between identical fits")
	}
}

func TestTransformIsL2Normalized(t *testing.T) {
	vz := fitVectorizer(t, types.SimilarityConfig{MinNgram: 1, MaxNgram: 3, MinDocFreq: 2, MaxDocShare: 0.8}, testCorpus())

	vec, err := vz.Transform("lightning bolt revised edition common")
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) == 0 {
		t.Fatal("vector is empty")
	}

	var sumSq float64
	for _, w := range vec {
		sumSq += w * w
	}
	if math.Abs(sumSq-1) > 1e-9 {
		t.Errorf("squared norm = %f, want 1", sumSq)
	}
}

func TestIdenticalTextScoresOne(t *testing.T) {
	vz := fitVectorizer(t, types.SimilarityConfig{MinNgram: 1, MaxNgram: 3, MinDocFreq: 2, MaxDocShare: 0.8}, testCorpus())

	a, err := vz.Transform("lightning bolt revised edition common")
	if err != nil {
		t.Fatal(err)
	}
	b, err := vz.Transform("Lightning Bolt, Revised Edition (Common)")
	if err != nil {
		t.Fatal(err)
	}

	if score := a.Dot(b); math.Abs(score-1) > 1e-9 {
		t.Errorf("identical composite text scores %f, want 1.0", score)
	}
}

func TestDisjointTextScoresZero(t *testing.T) {
	vz := fitVectorizer(t, types.SimilarityConfig{MinNgram: 1, MaxNgram: 1, MinDocFreq: 2, MaxDocShare: 0.8}, testCorpus())

	a, err := vz.Transform("lightning bolt")
	if err != nil {
		t.Fatal(err)
	}
	b, err := vz.Transform("sol ring")
	if err != nil {
		t.Fatal(err)
	}
	if score := a.Dot(b); score != 0 {
		t.Errorf("disjoint text scores %f, want 0", score)
	}
}

func TestDotClampsToUnitRange(t *testing.T) {
	// Hand-built vectors with float noise just over 1.
	a := Vector{0: 0.8, 1: 0.60000000001}
	b := Vector{0: 0.8, 1: 0.60000000001}
	if score := a.Dot(b); score > 1 {
		t.Errorf("Dot = %v, want clamped to 1", score)
	}
}

func TestTransformAllPreservesOrder(t *testing.T) {
	vz := fitVectorizer(t, types.SimilarityConfig{MinNgram: 1, MaxNgram: 1, MinDocFreq: 2, MaxDocShare: 0.8}, testCorpus())

	docs := []string{"lightning bolt", "sol ring"}
	vecs, err := vz.TransformAll(docs)
	if err != nil {
		t.Fatal(err)
	}
	if len(vecs) != 2 {
		t.Fatalf("got %d vectors, want 2", len(vecs))
	}

	single, err := vz.Transform("sol ring")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(vecs[1], single) {
		t.Error("batch transform differs from single transform")
	}
}

// --- index tests ---

func testIndex(t *testing.T) (*Vectorizer, *Index) {
	t.Helper()
	vz := fitVectorizer(t, types.SimilarityConfig{MinNgram: 1, MaxNgram: 2, MinDocFreq: 2, MaxDocShare: 0.9}, testCorpus())

	buys := map[string]string{
		"b1": "lightning bolt revised edition common",
		"b2": "lightning bolt fourth edition common",
		"b3": "black lotus alpha rare",
		"b4": "sol ring commander uncommon",
	}
	ids := []string{"b1", "b2", "b3", "b4"}
	var vectors []Vector
	for _, id := range ids {
		vec, err := vz.Transform(buys[id])
		if err != nil {
			t.Fatal(err)
		}
		vectors = append(vectors, vec)
	}
	ix, err := NewIndex(ids, vectors)
	if err != nil {
		t.Fatal(err)
	}
	return vz, ix
}

func TestNewIndexLengthMismatch(t *testing.T) {
	if _, err := NewIndex([]string{"b1"}, nil); err == nil {
		t.Error("expected error for mismatched ids and vectors")
	}
}

func TestTopKOrdering(t *testing.T) {
	vz, ix := testIndex(t)

	query, err := vz.Transform("lightning bolt revised edition common")
	if err != nil {
		t.Fatal(err)
	}

	hits := ix.TopK(query, 3, 0.0, nil)
	if len(hits) == 0 {
		t.Fatal("no hits")
	}
	if hits[0].BuyID != "b1" {
		t.Errorf("top hit = %s, want the identical b1", hits[0].BuyID)
	}
	if math.Abs(hits[0].Score-1) > 1e-9 {
		t.Errorf("top score = %f, want 1.0", hits[0].Score)
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Score > hits[i-1].Score {
			t.Errorf("hits not in descending score order: %v", hits)
		}
	}
}

func TestTopKFloor(t *testing.T) {
	vz, ix := testIndex(t)

	query, err := vz.Transform("lightning bolt revised edition common")
	if err != nil {
		t.Fatal(err)
	}

	hits := ix.TopK(query, 10, 0.99, nil)
	if len(hits) != 1 {
		t.Errorf("got %d hits above 0.99, want only the exact match", len(hits))
	}
}

func TestTopKLimit(t *testing.T) {
	vz, ix := testIndex(t)

	query, err := vz.Transform("lightning bolt edition common")
	if err != nil {
		t.Fatal(err)
	}

	hits := ix.TopK(query, 1, 0.0, nil)
	if len(hits) != 1 {
		t.Errorf("got %d hits with k=1, want 1", len(hits))
	}
}

func TestTopKSkip(t *testing.T) {
	vz, ix := testIndex(t)

	query, err := vz.Transform("lightning bolt revised edition common")
	if err != nil {
		t.Fatal(err)
	}

	hits := ix.TopK(query, 10, 0.0, func(buyID string) bool { return buyID == "b1" })
	for _, h := range hits {
		if h.BuyID == "b1" {
			t.Error("skipped record b1 was scored")
		}
	}
}

func TestTopKTieBreaksByBuyID(t *testing.T) {
	vz := fitVectorizer(t, types.SimilarityConfig{MinNgram: 1, MaxNgram: 1, MinDocFreq: 2, MaxDocShare: 1.0},
		[]string{"sol ring", "sol ring", "sol ring"})

	vec, err := vz.Transform("sol ring")
	if err != nil {
		t.Fatal(err)
	}
	// Identical vectors under different ids score identically; order must
	// still be stable.
	ix, err := NewIndex([]string{"b2", "b1"}, []Vector{vec, vec})
	if err != nil {
		t.Fatal(err)
	}

	hits := ix.TopK(vec, 2, 0.0, nil)
	if len(hits) != 2 || hits[0].BuyID != "b1" || hits[1].BuyID != "b2" {
		t.Errorf("tie order = %v, want b1 then b2", hits)
	}
}

func TestTopKEmptyQuery(t *testing.T) {
	_, ix := testIndex(t)

	if hits := ix.TopK(Vector{}, 5, 0.0, nil); hits != nil {
		t.Errorf("empty query returned hits: %v", hits)
	}
}
