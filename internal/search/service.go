package search

import (
	"context"
	"log"

	"github.com/spravodaj/spravodaj/internal/store"
)

// Embedder produces the query embedding for semantic search.
type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// Result is one search service hit.
type Result struct {
	Article store.Article `json:"article"`
	Score   float64       `json:"score"`
}

// Service answers article search queries: semantic search over pgvector
// first, text search as the fallback when embeddings are unavailable.
type Service struct {
	store    *store.Store
	embedder Embedder
	index    *Index
	logger   *log.Logger
}

// NewService wires the search service.
func NewService(st *store.Store, embedder Embedder, index *Index, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{store: st, embedder: embedder, index: index, logger: logger}
}

// Search returns up to k articles matching the query, best first.
func (s *Service) Search(ctx context.Context, q string, k int) ([]Result, error) {
	if k <= 0 {
		k = 10
	}
	if results, err := s.semantic(ctx, q, k); err == nil && len(results) > 0 {
		return results, nil
	} else if err != nil {
		s.logger.Printf("[SEARCH] semantic %q: %v, falling back to text", q, err)
	}
	return s.text(ctx, q, k)
}

func (s *Service) semantic(ctx context.Context, q string, k int) ([]Result, error) {
	vecs, err := s.embedder.CreateEmbedding(ctx, []string{q})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, nil
	}
	hits, err := s.store.SearchByEmbedding(ctx, vecs[0], k)
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		a, err := s.store.GetArticle(ctx, h.ArticleID)
		if err != nil {
			return nil, err
		}
		if a == nil {
			continue
		}
		results = append(results, Result{Article: *a, Score: 1 - h.Distance})
	}
	return results, nil
}

func (s *Service) text(ctx context.Context, q string, k int) ([]Result, error) {
	hits, err := s.index.Search(q, k)
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		a, err := s.store.GetArticle(ctx, h.ArticleID)
		if err != nil {
			return nil, err
		}
		if a == nil {
			continue
		}
		results = append(results, Result{Article: *a, Score: h.Score})
	}
	return results, nil
}
