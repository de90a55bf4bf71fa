// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SimilarityConfig holds the vectorizer parameters. Defaults follow the
// tuning that works for free-text card catalogs: word 1-3 grams, a large
// feature cap, and document-frequency pruning at both ends.
type SimilarityConfig struct {
	// MaxFeatures caps the vocabulary size. Terms are kept by descending
	// document frequency (default 10000).
	MaxFeatures int `json:"max_features" yaml:"max_features"`

	// MinNgram and MaxNgram bound the word n-gram range (defaults 1 and 3).
	MinNgram int `json:"min_ngram" yaml:"min_ngram"`
	MaxNgram int `json:"max_ngram" yaml:"max_ngram"`

	// MinDocFreq drops terms appearing in fewer than this many documents
	// (default 2).
	MinDocFreq int `json:"min_doc_freq" yaml:"min_doc_freq"`

	// MaxDocShare drops terms appearing in more than this share of the
	// corpus (default 0.8).
	MaxDocShare float64 `json:"max_doc_share" yaml:"max_doc_share"`
}

// MatcherConfig holds the candidate generation and classification settings.
type MatcherConfig struct {
	// TopK is the maximum number of buy candidates kept per sell record
	// (default 5).
	TopK int `json:"top_k" yaml:"top_k"`

	// SimilarityFloor is the minimum score for a candidate (default 0.3).
	SimilarityFloor float64 `json:"similarity_floor" yaml:"similarity_floor"`

	// AutoAcceptThreshold is the score at or above which the top candidate
	// is accepted without review (default 0.9).
	AutoAcceptThreshold float64 `json:"auto_accept_threshold" yaml:"auto_accept_threshold"`

	// SkipDecidedItems drops sell records that already carry an active
	// decision before candidate generation.
	SkipDecidedItems bool `json:"skip_decided_items" yaml:"skip_decided_items"`
}

// StoreConfig holds the decision store settings.
type StoreConfig struct {
	// Path is the SQLite database file (default "match-engine.db").
	Path string `json:"path" yaml:"path"`
}

// EngineConfig groups all stage configurations for one matching run.
type EngineConfig struct {
	Similarity SimilarityConfig `json:"similarity" yaml:"similarity"`
	Matcher    MatcherConfig    `json:"matcher" yaml:"matcher"`
	Store      StoreConfig      `json:"store" yaml:"store"`
}

// DefaultEngineConfig returns the configuration used when nothing is set.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Similarity: SimilarityConfig{
			MaxFeatures: 10000,
			MinNgram:    1,
			MaxNgram:    3,
			MinDocFreq:  2,
			MaxDocShare: 0.8,
		},
		Matcher: MatcherConfig{
			TopK:                5,
			SimilarityFloor:     0.3,
			AutoAcceptThreshold: 0.9,
		},
		Store: StoreConfig{Path: "match-engine.db"},
	}
}

// Normalized returns a copy of the config with zero values replaced by
// defaults and out-of-range values clamped.
func (c EngineConfig) Normalized() EngineConfig {
	def := DefaultEngineConfig()
	if c.Similarity.MaxFeatures <= 0 {
		c.Similarity.MaxFeatures = def.Similarity.MaxFeatures
	}
	if c.Similarity.MinNgram <= 0 {
		c.Similarity.MinNgram = def.Similarity.MinNgram
	}
	if c.Similarity.MaxNgram < c.Similarity.MinNgram {
		c.Similarity.MaxNgram = def.Similarity.MaxNgram
	}
	if c.Similarity.MinDocFreq <= 0 {
		c.Similarity.MinDocFreq = def.Similarity.MinDocFreq
	}
	if c.Similarity.MaxDocShare <= 0 || c.Similarity.MaxDocShare > 1 {
		c.Similarity.MaxDocShare = def.Similarity.MaxDocShare
	}
	if c.Matcher.TopK <= 0 {
		c.Matcher.TopK = def.Matcher.TopK
	}
	if c.Matcher.SimilarityFloor <= 0 {
		c.Matcher.SimilarityFloor = def.Matcher.SimilarityFloor
	}
	if c.Matcher.AutoAcceptThreshold <= 0 {
		c.Matcher.AutoAcceptThreshold = def.Matcher.AutoAcceptThreshold
	}
	if c.Store.Path == "" {
		c.Store.Path = def.Store.Path
	}
	return c
}
