package similarity

import (
	"math"
	"testing"

	"github.com/spravodaj/spravodaj/config"
)

func newTestScorer() *Scorer {
	return NewScorer(config.SimilarityConfig{})
}

func TestCosine(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero norm", []float32{0, 0}, []float32{1, 1}, 0},
		{"both empty", nil, nil, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Cosine(tc.a, tc.b)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("Cosine() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRatio(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "vlada schvalila rozpocet", "vlada schvalila rozpocet", 1},
		{"case and whitespace", "Vlada   schvalila rozpocet", "vlada schvalila  ROZPOCET", 1},
		{"both empty", "", "", 1},
		{"one empty", "vlada", "", 0},
		{"partial", "abcd", "bcde", 0.75},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Ratio(tc.a, tc.b)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("Ratio(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestRatioDisjoint(t *testing.T) {
	t.Parallel()

	if got := Ratio("qqqq", "zzzz"); got != 0 {
		t.Fatalf("Ratio of disjoint strings = %v, want 0", got)
	}
}

// Embeddings built so that the cosine against the unit x-axis is exactly
// the given value.
func embeddingWithCosine(c float64) []float32 {
	return []float32{float32(c), float32(math.Sqrt(1 - c*c))}
}

func TestMatchRenormalizesWeights(t *testing.T) {
	t.Parallel()

	// Stopword-only summaries leave both keyword sets empty, and there is
	// no body embedding and no tags, so only the semantic and summary
	// weights remain in play.
	s := newTestScorer()
	input := Input{
		Summary:          "to je ale ako sa",
		SummaryEmbedding: []float32{1, 0},
	}
	cand := Candidate{
		ID:        "a1",
		Summary:   "to je ale ako sa",
		Embedding: embeddingWithCosine(0.9),
	}

	res := s.Match(input, []Candidate{cand})
	if res.Match == nil {
		t.Fatal("expected a match")
	}
	want := (0.4*0.9 + 0.25*1.0) / 0.65
	if math.Abs(res.Score-want) > 1e-6 {
		t.Fatalf("combined score = %v, want %v", res.Score, want)
	}
	if res.BestMatch == nil || res.BestMatch.CandidateID != "a1" {
		t.Fatalf("unexpected best match metrics: %+v", res.BestMatch)
	}
}

func TestMatchSummaryGate(t *testing.T) {
	t.Parallel()

	// Identical embeddings but unrelated summaries: the summary gate must
	// block the match even though the semantic score is perfect.
	s := newTestScorer()
	input := Input{
		Summary:          "qqqq wwww eeee rrrr",
		SummaryEmbedding: []float32{1, 0},
	}
	cand := Candidate{
		ID:        "a1",
		Summary:   "zzzz xxxx cccc vvvv",
		Embedding: []float32{1, 0},
	}

	res := s.Match(input, []Candidate{cand})
	if res.Match != nil {
		t.Fatalf("expected no match, got %q", res.Match.ID)
	}
	if res.ClosestCandidate == nil || res.ClosestCandidate.CandidateID != "a1" {
		t.Fatalf("expected closest candidate diagnostics, got %+v", res.ClosestCandidate)
	}
}

func TestMatchKeywordGate(t *testing.T) {
	t.Parallel()

	// Summaries that read alike but share too few keywords: the overlap
	// gate requires at least three shared keywords.
	s := newTestScorer()
	input := Input{
		Summary:          "predseda vlady rokoval parlament",
		SummaryEmbedding: []float32{1, 0},
	}
	cand := Candidate{
		ID:        "a1",
		Summary:   "predseda vlady rokovala kabinet",
		Embedding: []float32{1, 0},
	}

	res := s.Match(input, []Candidate{cand})
	if res.Match != nil {
		t.Fatalf("expected no match, got %q", res.Match.ID)
	}
}

func TestMatchSemanticGate(t *testing.T) {
	t.Parallel()

	s := newTestScorer()
	input := Input{
		Summary:          "to je ale ako sa",
		SummaryEmbedding: []float32{1, 0},
	}
	cand := Candidate{
		ID:        "a1",
		Summary:   "to je ale ako sa",
		Embedding: embeddingWithCosine(0.81),
	}

	if res := s.Match(input, []Candidate{cand}); res.Match != nil {
		t.Fatalf("semantic 0.81 should not pass the 0.82 gate, got match %q", res.Match.ID)
	}
}

func TestMatchPicksHighestCombined(t *testing.T) {
	t.Parallel()

	s := newTestScorer()
	input := Input{
		Summary:          "to je ale ako sa",
		SummaryEmbedding: []float32{1, 0},
	}
	candidates := []Candidate{
		{ID: "lower", Summary: "to je ale ako sa", Embedding: embeddingWithCosine(0.85)},
		{ID: "higher", Summary: "to je ale ako sa", Embedding: embeddingWithCosine(0.95)},
	}

	res := s.Match(input, candidates)
	if res.Match == nil || res.Match.ID != "higher" {
		t.Fatalf("expected candidate %q to win, got %+v", "higher", res.Match)
	}
	if res.ClosestCandidate == nil || res.ClosestCandidate.CandidateID != "higher" {
		t.Fatalf("closest candidate should track the top score, got %+v", res.ClosestCandidate)
	}
}

func TestMatchScoreMonotonicInSemantic(t *testing.T) {
	t.Parallel()

	s := newTestScorer()
	input := Input{
		Summary:          "to je ale ako sa",
		SummaryEmbedding: []float32{1, 0},
	}
	low := s.Match(input, []Candidate{{ID: "a", Summary: input.Summary, Embedding: embeddingWithCosine(0.85)}})
	high := s.Match(input, []Candidate{{ID: "a", Summary: input.Summary, Embedding: embeddingWithCosine(0.95)}})
	if high.Score <= low.Score {
		t.Fatalf("score should grow with semantic similarity: %v <= %v", high.Score, low.Score)
	}
}

func TestMatchSkipsZeroNormEmbeddings(t *testing.T) {
	t.Parallel()

	s := newTestScorer()
	input := Input{
		Summary:          "to je ale ako sa",
		SummaryEmbedding: []float32{1, 0},
	}
	candidates := []Candidate{
		{ID: "zero", Summary: input.Summary, Embedding: []float32{0, 0}},
		{ID: "none", Summary: input.Summary},
	}

	res := s.Match(input, candidates)
	if res.Match != nil || res.ClosestCandidate != nil {
		t.Fatalf("candidates without usable embeddings must be skipped, got %+v", res)
	}
}

func TestMatchNoCandidates(t *testing.T) {
	t.Parallel()

	res := newTestScorer().Match(Input{Summary: "vlada", SummaryEmbedding: []float32{1, 0}}, nil)
	if res.Match != nil || res.ClosestCandidate != nil || res.Score != 0 {
		t.Fatalf("empty candidate set must yield an empty result, got %+v", res)
	}
}

func TestMatchTagsRaiseScore(t *testing.T) {
	t.Parallel()

	s := newTestScorer()
	base := Input{
		Summary:          "to je ale ako sa",
		SummaryEmbedding: []float32{1, 0},
	}
	tagged := base
	tagged.Tags = []string{"politika", "vláda", "rozpočet"}
	cand := func() Candidate {
		return Candidate{ID: "a1", Summary: base.Summary, Embedding: embeddingWithCosine(0.9), Tags: []string{"politika", "vlada", "rozpocet"}}
	}

	without := s.Match(base, []Candidate{cand()})
	with := s.Match(tagged, []Candidate{cand()})
	if without.Match == nil || with.Match == nil {
		t.Fatal("both runs should match")
	}
	if with.BestMatch.Tag != 1 {
		t.Fatalf("tag score should ignore diacritics, got %v", with.BestMatch.Tag)
	}
	if with.Score <= without.Score {
		t.Fatalf("matching tags should raise the combined score: %v <= %v", with.Score, without.Score)
	}
}
