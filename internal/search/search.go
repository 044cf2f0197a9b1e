// Package search keeps an in-memory full-text index of aggregated
// articles and combines it with pgvector semantic search.
package search

import (
	"context"
	"fmt"
	"sync"

	"github.com/blevesearch/bleve"

	"github.com/spravodaj/spravodaj/internal/store"
)

// indexDoc is the bleve document shape.
type indexDoc struct {
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// Hit is one text search result.
type Hit struct {
	ArticleID string  `json:"article_id"`
	Score     float64 `json:"score"`
}

// Index is a memory-only full-text index over articles. It is rebuilt
// from the store at startup and kept current by the coordinator.
type Index struct {
	mu    sync.RWMutex
	bleve bleve.Index
}

// NewIndex creates an empty memory-only index.
func NewIndex() (*Index, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("bleve: %w", err)
	}
	return &Index{bleve: idx}, nil
}

// Rebuild loads every stored article into the index.
func (i *Index) Rebuild(ctx context.Context, s *store.Store) (int, error) {
	const pageSize = 500
	count := 0
	for offset := 0; ; offset += pageSize {
		articles, err := s.ListArticles(ctx, pageSize, offset)
		if err != nil {
			return count, err
		}
		for _, a := range articles {
			if err := i.Index(a); err != nil {
				return count, err
			}
			count++
		}
		if len(articles) < pageSize {
			return count, nil
		}
	}
}

// Index adds or replaces one article.
func (i *Index) Index(a store.Article) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.bleve.Index(a.ID, indexDoc{
		Title:    a.Title,
		Summary:  a.Summary,
		Category: a.Category,
		Tags:     a.Tags,
	})
}

// Search runs a query-string search and returns up to k hits.
func (i *Index) Search(q string, k int) ([]Hit, error) {
	if k <= 0 {
		k = 10
	}
	i.mu.RLock()
	defer i.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(bleve.NewQueryStringQuery(q), k, 0, false)
	res, err := i.bleve.Search(req)
	if err != nil {
		return nil, err
	}
	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hits = append(hits, Hit{ArticleID: h.ID, Score: h.Score})
	}
	return hits, nil
}
