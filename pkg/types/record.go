// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data model for the matching pipeline:
// catalog records, candidate matches, decisions, conflicts, exclusions,
// sessions, and per-stage configuration.
package types

// SellRecord is one item from the sell-side catalog. Records are immutable
// per-run inputs supplied by the catalog loader; the engine never mutates
// or persists them.
type SellRecord struct {
	// ID is the stable external identifier (e.g. a TCGplayer product id).
	ID string `json:"id" yaml:"id"`

	// Name is the product name as it appears in the sell catalog.
	Name string `json:"name" yaml:"name"`

	// SetName is the set or edition the item belongs to.
	SetName string `json:"set_name" yaml:"set_name"`

	// Rarity is the printed rarity, free text.
	Rarity string `json:"rarity" yaml:"rarity"`

	// MarketPrice is the listed market price, carried for display only.
	MarketPrice float64 `json:"market_price,omitempty" yaml:"market_price,omitempty"`

	// Quantity is the listed quantity, carried for display only.
	Quantity int `json:"quantity,omitempty" yaml:"quantity,omitempty"`
}

// BuyRecord is one item from the buy-side catalog.
type BuyRecord struct {
	// ID is the stable external identifier (e.g. a buylist product id).
	ID string `json:"id" yaml:"id"`

	// Name is the card or product name as it appears in the buy catalog.
	Name string `json:"name" yaml:"name"`

	// Edition is the set or edition the item belongs to.
	Edition string `json:"edition" yaml:"edition"`

	// Rarity is the printed rarity, free text.
	Rarity string `json:"rarity" yaml:"rarity"`

	// Foil reports whether the buy entry is for the foil printing.
	Foil bool `json:"foil" yaml:"foil"`

	// Price is the offered buy price, carried for display only.
	Price float64 `json:"price,omitempty" yaml:"price,omitempty"`

	// Quantity is the wanted quantity, carried for display only.
	Quantity int `json:"quantity,omitempty" yaml:"quantity,omitempty"`
}

// CandidateMatch pairs a sell record with a similar buy record. Candidates
// are produced fresh each run and never persisted as-is; only the decision
// derived from a candidate is durable.
type CandidateMatch struct {
	// SellID and BuyID are the stable external identifiers of the pair.
	SellID string `json:"sell_id" yaml:"sell_id"`
	BuyID  string `json:"buy_id" yaml:"buy_id"`

	// Score is the cosine similarity of the pair's composite text, in [0,1].
	Score float64 `json:"score" yaml:"score"`

	// Rank is the 1-based position among this sell record's candidates,
	// ordered by descending score.
	Rank int `json:"rank" yaml:"rank"`

	// Denormalized display fields for the review surface.
	SellName   string  `json:"sell_name,omitempty" yaml:"sell_name,omitempty"`
	SellSet    string  `json:"sell_set,omitempty" yaml:"sell_set,omitempty"`
	SellPrice  float64 `json:"sell_price,omitempty" yaml:"sell_price,omitempty"`
	BuyName    string  `json:"buy_name,omitempty" yaml:"buy_name,omitempty"`
	BuyEdition string  `json:"buy_edition,omitempty" yaml:"buy_edition,omitempty"`
	BuyPrice   float64 `json:"buy_price,omitempty" yaml:"buy_price,omitempty"`
}

// ConfidenceBucket is a coarse display classification of a similarity score.
type ConfidenceBucket string

const (
	ConfidenceHigh    ConfidenceBucket = "high"
	ConfidenceMedium  ConfidenceBucket = "medium"
	ConfidenceLow     ConfidenceBucket = "low"
	ConfidenceVeryLow ConfidenceBucket = "very_low"
)

// Confidence buckets a similarity score for display. The cutoffs are
// informational only; they never feed the decision logic.
func Confidence(score float64) ConfidenceBucket {
	switch {
	case score >= 0.8:
		return ConfidenceHigh
	case score >= 0.5:
		return ConfidenceMedium
	case score >= 0.3:
		return ConfidenceLow
	default:
		return ConfidenceVeryLow
	}
}
