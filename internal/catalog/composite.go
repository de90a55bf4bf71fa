// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog loads sell and buy record sets from files and assembles
// the composite text the similarity stage matches on. The loaders are the
// thin record-supplying collaborator of the matching core; the core itself
// never touches files.
package catalog

import (
	"strings"

	"github.com/pdiddy/match-engine/internal/similarity"
	"github.com/pdiddy/match-engine/pkg/types"
)

// foilKeywords are name fragments that indicate a foil or special-treatment
// printing on the sell side, which lists no explicit foil column.
var foilKeywords = []string{
	"foil",
	"borderless",
	"showcase",
	"extended art",
	"alternate art",
}

// detectFoil inspects a product name for foil indicators.
func detectFoil(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range foilKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// foilTerm maps the variant flag onto a matching token. Both sides emit
// one of the same two tokens so the variant participates in similarity.
func foilTerm(foil bool) string {
	if foil {
		return "foil"
	}
	return "nonfoil"
}

// SellCompositeText builds the normalized matching text for a sell record:
// name, set, rarity, and the variant token inferred from the name.
func SellCompositeText(r types.SellRecord) string {
	parts := []string{
		similarity.Normalize(r.Name),
		similarity.Normalize(r.SetName),
		similarity.Normalize(r.Rarity),
		foilTerm(detectFoil(r.Name)),
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// BuyCompositeText builds the normalized matching text for a buy record:
// name, edition, rarity, and the explicit variant token.
func BuyCompositeText(r types.BuyRecord) string {
	parts := []string{
		similarity.Normalize(r.Name),
		similarity.Normalize(r.Edition),
		similarity.Normalize(r.Rarity),
		foilTerm(r.Foil),
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// SellTexts returns the composite text of each sell record in order.
func SellTexts(records []types.SellRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = SellCompositeText(r)
	}
	return out
}

// BuyTexts returns the composite text of each buy record in order.
func BuyTexts(records []types.BuyRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = BuyCompositeText(r)
	}
	return out
}
