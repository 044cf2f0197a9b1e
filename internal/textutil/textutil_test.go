package textutil

import (
	"reflect"
	"testing"
)

func TestStripDiacritics(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{"Vláda", "vlada"},
		{"ŽELEZNIČNÁ", "zeleznicna"},
		{"šťastie", "stastie"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := StripDiacritics(tt.in); got != tt.want {
			t.Fatalf("StripDiacritics(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestKeywordsRankingAndFiltering(t *testing.T) {
	t.Parallel()
	text := "Vláda schválila rozpočet. Rozpočet kritizovala opozícia, vláda rozpočet obhajovala a 123 45."
	got := Keywords(text, 5)
	// "rozpocet" appears three times, "vlada" twice, the rest once in
	// first-seen order; stopwords ("a") and digit-only tokens drop out.
	want := []string{"rozpocet", "vlada", "schvalila", "kritizovala", "opozicia"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Keywords() = %v, want %v", got, want)
	}
}

func TestKeywordsDropsShortAndStopTokens(t *testing.T) {
	t.Parallel()
	if got := Keywords("a aby ako by to je na 12 x7", 10); got != nil {
		t.Fatalf("expected no keywords, got %v", got)
	}
	if got := Keywords("", 10); got != nil {
		t.Fatalf("expected nil for empty text, got %v", got)
	}
}

func TestKeywordsTiesBrokenByFirstSeen(t *testing.T) {
	t.Parallel()
	got := Keywords("premiér minister premiér minister poslanec", 3)
	want := []string{"premier", "minister", "poslanec"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Keywords() = %v, want %v", got, want)
	}
}

func TestOverlap(t *testing.T) {
	t.Parallel()
	base := []string{"vlada", "rozpocet", "parlament", "hlasovanie"}
	candidate := []string{"vlada", "rozpocet", "opozicia"}
	score, count := Overlap(base, candidate)
	if count != 2 {
		t.Fatalf("expected overlap count 2, got %d", count)
	}
	// |A∩B| = 2, |A∪B| = 5
	if score != 0.4 {
		t.Fatalf("expected score 0.4, got %v", score)
	}
}

func TestOverlapEmptySides(t *testing.T) {
	t.Parallel()
	if score, count := Overlap(nil, []string{"vlada"}); score != 0 || count != 0 {
		t.Fatalf("expected zero overlap for empty base, got %v/%d", score, count)
	}
	if score, count := Overlap([]string{"vlada"}, nil); score != 0 || count != 0 {
		t.Fatalf("expected zero overlap for empty candidate, got %v/%d", score, count)
	}
}

func TestTokenSetAndSetJaccard(t *testing.T) {
	t.Parallel()
	a := TokenSet("vláda schválila rozpočet")
	b := TokenSet("rozpočet kritizovala opozícia")
	if _, ok := a["vlada"]; !ok {
		t.Fatalf("expected diacritic-free token in set, got %v", a)
	}
	score := SetJaccard(a, b)
	// shared "rozpocet" over union of 5 tokens
	if score != 0.2 {
		t.Fatalf("expected jaccard 0.2, got %v", score)
	}
	if SetJaccard(nil, b) != 0 {
		t.Fatalf("expected 0 for empty set")
	}
}
