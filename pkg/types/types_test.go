// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "testing"

func TestDecisionStatusPredicates(t *testing.T) {
	tests := []struct {
		status   DecisionStatus
		active   bool
		terminal bool
	}{
		{StatusPending, false, false},
		{StatusAccepted, true, true},
		{StatusRejected, false, true},
		{StatusAutoAccepted, true, true},
		{StatusAutoRejected, false, true},
		{StatusConflictBlocked, false, true},
		{StatusReplaced, false, true},
	}
	for _, tt := range tests {
		if got := tt.status.IsActive(); got != tt.active {
			t.Errorf("%s.IsActive() = %v, want %v", tt.status, got, tt.active)
		}
		if got := tt.status.IsTerminal(); got != tt.terminal {
			t.Errorf("%s.IsTerminal() = %v, want %v", tt.status, got, tt.terminal)
		}
		if !tt.status.Valid() {
			t.Errorf("%s.Valid() = false", tt.status)
		}
	}

	if DecisionStatus("approved").Valid() {
		t.Error(`"approved" should not be a valid status`)
	}
}

func TestConfidenceBuckets(t *testing.T) {
	tests := []struct {
		score float64
		want  ConfidenceBucket
	}{
		{1.0, ConfidenceHigh},
		{0.8, ConfidenceHigh},
		{0.79, ConfidenceMedium},
		{0.5, ConfidenceMedium},
		{0.49, ConfidenceLow},
		{0.3, ConfidenceLow},
		{0.29, ConfidenceVeryLow},
		{0, ConfidenceVeryLow},
	}
	for _, tt := range tests {
		if got := Confidence(tt.score); got != tt.want {
			t.Errorf("Confidence(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestNormalizedFillsDefaults(t *testing.T) {
	got := EngineConfig{}.Normalized()
	want := DefaultEngineConfig()

	if got != want {
		t.Errorf("Normalized zero config = %+v, want defaults %+v", got, want)
	}
}

func TestNormalizedKeepsExplicitValues(t *testing.T) {
	cfg := EngineConfig{
		Similarity: SimilarityConfig{MaxFeatures: 500, MinNgram: 2, MaxNgram: 2, MinDocFreq: 1, MaxDocShare: 0.5},
		Matcher:    MatcherConfig{TopK: 10, SimilarityFloor: 0.6, AutoAcceptThreshold: 0.99, SkipDecidedItems: true},
		Store:      StoreConfig{Path: "custom.db"},
	}
	if got := cfg.Normalized(); got != cfg {
		t.Errorf("Normalized changed explicit values: %+v", got)
	}
}

func TestNormalizedClampsBadRanges(t *testing.T) {
	cfg := EngineConfig{
		Similarity: SimilarityConfig{MinNgram: 3, MaxNgram: 1, MaxDocShare: 1.5},
	}.Normalized()

	if cfg.Similarity.MaxNgram < cfg.Similarity.MinNgram {
		t.Errorf("MaxNgram %d below MinNgram %d", cfg.Similarity.MaxNgram, cfg.Similarity.MinNgram)
	}
	if cfg.Similarity.MaxDocShare > 1 {
		t.Errorf("MaxDocShare = %f, want <= 1", cfg.Similarity.MaxDocShare)
	}
}
