// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"testing"
	"unicode/utf8"
)

func TestClip(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"Lightning Bolt", 30, "Lightning Bolt"},
		{"Lightning Bolt", 10, "Lightni..."},
		{"Jötun Grunt and the Longest Name", 12, "Jötun Gru..."},
		{"Æther Vial Æther Vial", 10, "Æther V..."},
	}
	for _, tt := range tests {
		got := clip(tt.in, tt.n)
		if got != tt.want {
			t.Errorf("clip(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("clip(%q, %d) produced invalid UTF-8 %q", tt.in, tt.n, got)
		}
	}
}
