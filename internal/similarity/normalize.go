// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package similarity builds a deterministic TF-IDF representation of
// free-text catalog records and scores cosine similarity between them.
// The vectorizer is fit once per run on the combined sell+buy corpus;
// scoring is a sparse dot product over L2-normalized vectors, so results
// are bounded to [0,1] and identical composite text scores exactly 1.0.
package similarity

import (
	"strings"
	"unicode"
)

// Normalize lowercases text, replaces punctuation with spaces, and
// collapses runs of whitespace. Empty or all-punctuation input yields "".
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	lastSpace := true
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			b.WriteByte(' ')
			lastSpace = true
		}
	}

	return strings.TrimSpace(b.String())
}

// tokenize splits normalized text into word tokens.
func tokenize(text string) []string {
	norm := Normalize(text)
	if norm == "" {
		return nil
	}
	return strings.Fields(norm)
}

// ngrams expands word tokens into space-joined n-grams for n in
// [minN, maxN]. A document shorter than n words contributes no n-grams at
// that length.
func ngrams(tokens []string, minN, maxN int) []string {
	if len(tokens) == 0 {
		return nil
	}
	var out []string
	for n := minN; n <= maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}
