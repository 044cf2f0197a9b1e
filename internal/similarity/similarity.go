// Package similarity decides whether freshly parsed content is a
// near-duplicate of an already stored article. It combines an embedding
// distance with text-level signals into one weighted score and applies
// per-signal gates before a candidate may be declared a match.
package similarity

import (
	"math"
	"strings"

	"github.com/spravodaj/spravodaj/config"
	"github.com/spravodaj/spravodaj/internal/textutil"
)

// Candidate is one stored article considered during a match attempt,
// fetched as part of the read-only candidate snapshot.
type Candidate struct {
	ID        string
	Title     string
	Summary   string
	Embedding []float32
	Tags      []string
}

// Input carries the new article's comparison material.
type Input struct {
	Summary          string
	Body             string
	Tags             []string
	SummaryEmbedding []float32
	BodyEmbedding    []float32
}

// Metrics records the per-signal scores computed for one candidate.
type Metrics struct {
	CandidateID    string  `json:"candidate_id"`
	CandidateTitle string  `json:"candidate_title"`
	Semantic       float64 `json:"semantic"`
	Summary        float64 `json:"summary"`
	Keyword        float64 `json:"keyword"`
	KeywordOverlap int     `json:"keyword_overlap"`
	Body           float64 `json:"body"`
	Tag            float64 `json:"tag"`
	Combined       float64 `json:"combined"`
}

// Result is the scorer verdict: a confirmed match, or no match together
// with the closest candidate seen for diagnostics.
type Result struct {
	Match            *Candidate
	Score            float64
	BestMatch        *Metrics
	ClosestCandidate *Metrics
}

// Scorer evaluates candidates using configured weights and thresholds.
type Scorer struct {
	cfg config.SimilarityConfig
}

// NewScorer builds a scorer from normalized configuration.
func NewScorer(cfg config.SimilarityConfig) *Scorer {
	return &Scorer{cfg: cfg.Normalize()}
}

// Match scores every candidate against the input. A candidate qualifies
// only when all gates pass; among qualifying candidates the one with the
// highest combined score wins. When none qualify the highest-scoring
// candidate is still reported for diagnostics.
func (s *Scorer) Match(input Input, candidates []Candidate) Result {
	newKeywords := s.inputKeywords(input)

	var (
		match        *Candidate
		matchMetrics *Metrics
		closest      *Metrics
		closestScore = -1.0
	)

	for i := range candidates {
		cand := &candidates[i]
		if len(cand.Embedding) == 0 || norm(cand.Embedding) == 0 {
			continue
		}

		m := s.score(input, newKeywords, cand)

		if m.Combined > closestScore {
			closestScore = m.Combined
			closest = m
		}

		if !s.passesGates(input, newKeywords, cand, m) {
			continue
		}
		if matchMetrics == nil || m.Combined > matchMetrics.Combined {
			match = cand
			matchMetrics = m
		}
	}

	if match != nil {
		return Result{Match: match, Score: matchMetrics.Combined, BestMatch: matchMetrics, ClosestCandidate: closest}
	}
	score := 0.0
	if closest != nil {
		score = closest.Combined
	}
	return Result{Score: score, ClosestCandidate: closest}
}

func (s *Scorer) inputKeywords(input Input) []string {
	body := input.Body
	if runes := []rune(body); len(runes) > s.cfg.MaxBodyLen {
		body = string(runes[:s.cfg.MaxBodyLen])
	}
	text := input.Summary
	if body != "" {
		text += " " + body
	}
	if len(input.Tags) > 0 {
		text += " " + strings.Join(input.Tags, " ")
	}
	return textutil.Keywords(text, s.cfg.MaxKeywords)
}

func (s *Scorer) candidateKeywords(cand *Candidate) []string {
	text := cand.Summary
	if len(cand.Tags) > 0 {
		text += " " + strings.Join(cand.Tags, " ")
	}
	return textutil.Keywords(text, s.cfg.MaxKeywords)
}

func (s *Scorer) score(input Input, newKeywords []string, cand *Candidate) *Metrics {
	m := &Metrics{CandidateID: cand.ID, CandidateTitle: cand.Title}

	m.Semantic = Cosine(input.SummaryEmbedding, cand.Embedding)
	m.Summary = Ratio(input.Summary, cand.Summary)

	candKeywords := s.candidateKeywords(cand)
	m.Keyword, m.KeywordOverlap = textutil.Overlap(newKeywords, candKeywords)

	bodyAvailable := len(input.BodyEmbedding) > 0 && norm(input.BodyEmbedding) > 0
	if bodyAvailable {
		m.Body = Cosine(input.BodyEmbedding, cand.Embedding)
	}

	tagsAvailable := len(input.Tags) > 0 && len(cand.Tags) > 0
	if tagsAvailable {
		m.Tag = textutil.SetJaccard(normalizeTags(input.Tags), normalizeTags(cand.Tags))
	}

	keywordsAvailable := len(newKeywords) > 0 && len(candKeywords) > 0

	// Weights of unavailable signals are zeroed out and the remainder is
	// renormalized to sum to 1 before combining.
	wSemantic := s.cfg.SemanticWeight
	wSummary := s.cfg.SummaryWeight
	wKeyword := s.cfg.KeywordWeight
	wBody := s.cfg.BodyWeight
	wTag := s.cfg.TagWeight
	if !keywordsAvailable {
		wKeyword = 0
	}
	if !bodyAvailable {
		wBody = 0
	}
	if !tagsAvailable {
		wTag = 0
	}
	total := wSemantic + wSummary + wKeyword + wBody + wTag
	if total == 0 {
		return m
	}
	m.Combined = (wSemantic*m.Semantic + wSummary*m.Summary + wKeyword*m.Keyword + wBody*m.Body + wTag*m.Tag) / total
	return m
}

func (s *Scorer) passesGates(input Input, newKeywords []string, cand *Candidate, m *Metrics) bool {
	if m.Semantic < s.cfg.SemanticThreshold {
		return false
	}
	if m.Summary < s.cfg.SummaryThreshold {
		return false
	}
	if len(input.BodyEmbedding) > 0 && norm(input.BodyEmbedding) > 0 && m.Body < s.cfg.BodyThreshold {
		return false
	}
	keywordsAvailable := len(newKeywords) > 0 && len(s.candidateKeywords(cand)) > 0
	if keywordsAvailable {
		if m.Keyword < s.cfg.KeywordThreshold || m.KeywordOverlap < s.cfg.MinKeywordOverlap {
			return false
		}
	}
	return m.Combined >= s.cfg.CombinedThreshold
}

func normalizeTags(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		normalized := textutil.StripDiacritics(strings.TrimSpace(tag))
		if normalized == "" {
			continue
		}
		set[normalized] = struct{}{}
	}
	return set
}

// Cosine returns the cosine similarity of two vectors, 0 when either has
// zero norm or either is empty.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		ai := float64(a[i])
		bi := float64(b[i])
		dot += ai * bi
		na += ai * ai
		nb += bi * bi
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func norm(v []float32) float64 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	return math.Sqrt(sum)
}
