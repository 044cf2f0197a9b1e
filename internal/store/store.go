// Package store is the Postgres persistence layer: crawl reservations,
// articles with their source URL sets, and pgvector embeddings.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Store wraps a Postgres connection pool.
type Store struct {
	DB *sql.DB
}

// NewWithDSN constructs the Store using an explicit Postgres DSN.
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() error { return s.DB.Close() }

// Reservation statuses recorded in processed_urls.
const (
	StatusProcessing = "processing"
	StatusDone       = "done"
	StatusFailed     = "failed"
)

// Reserve claims a URL for processing. The canonical form is the primary
// claim: exactly one caller wins the insert, everyone else observes the
// conflict and backs off. The raw alias is registered only after the
// primary claim succeeds, inside the same transaction, so a lost race
// leaves no partial rows behind.
func (s *Store) Reserve(ctx context.Context, raw, canonical string) (bool, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var claimed bool
	err = tx.QueryRowContext(ctx,
		`INSERT INTO processed_urls (url, status) VALUES ($1,$2) ON CONFLICT DO NOTHING RETURNING true`,
		canonical, StatusProcessing).Scan(&claimed)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if raw != canonical {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO processed_urls (url, status) VALUES ($1,$2) ON CONFLICT DO NOTHING`,
			raw, StatusProcessing); err != nil {
			return false, err
		}
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// Complete marks both URL forms terminal. It upserts, so completing an
// alias that was never reserved still leaves a durable record.
func (s *Store) Complete(ctx context.Context, raw, canonical, status, reason string) error {
	urls := []string{canonical}
	if raw != canonical {
		urls = append(urls, raw)
	}
	for _, u := range urls {
		if _, err := s.DB.ExecContext(ctx, `
INSERT INTO processed_urls (url, status, reason, processed_at)
VALUES ($1,$2,$3,NOW())
ON CONFLICT (url) DO UPDATE SET
  status = EXCLUDED.status,
  reason = EXCLUDED.reason,
  processed_at = NOW()`, u, status, reason); err != nil {
			return fmt.Errorf("complete %s: %w", u, err)
		}
	}
	return nil
}

// IsReserved reports whether any of the given URL forms is already known.
func (s *Store) IsReserved(ctx context.Context, urls []string) (bool, error) {
	var exists bool
	err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM processed_urls WHERE url = ANY($1))`,
		pq.Array(urls)).Scan(&exists)
	return exists, err
}

// Article is one aggregated story. URLs holds every source link that has
// been merged into it.
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Intro       string    `json:"intro"`
	Summary     string    `json:"summary"`
	Category    string    `json:"category"`
	TopImage    string    `json:"top_image"`
	Tags        []string  `json:"tags"`
	URLs        []string  `json:"urls"`
	PublishedAt time.Time `json:"published_at"`
	ScrapedAt   time.Time `json:"scraped_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// FindArticleByURL returns the article whose URL set contains the given
// link, or nil when no article carries it.
func (s *Store) FindArticleByURL(ctx context.Context, url string) (*Article, error) {
	var a Article
	err := s.DB.QueryRowContext(ctx, `
SELECT id, title, intro, summary, category, top_image, tags, url, published_at, scraped_at, created_at
FROM articles
WHERE $1 = ANY(url)`, url).Scan(
		&a.ID, &a.Title, &a.Intro, &a.Summary, &a.Category, &a.TopImage,
		pq.Array(&a.Tags), pq.Array(&a.URLs), &a.PublishedAt, &a.ScrapedAt, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetArticle returns one article by id, or nil when it does not exist.
func (s *Store) GetArticle(ctx context.Context, id string) (*Article, error) {
	var a Article
	err := s.DB.QueryRowContext(ctx, `
SELECT id, title, intro, summary, category, top_image, tags, url, published_at, scraped_at, created_at
FROM articles
WHERE id = $1`, id).Scan(
		&a.ID, &a.Title, &a.Intro, &a.Summary, &a.Category, &a.TopImage,
		pq.Array(&a.Tags), pq.Array(&a.URLs), &a.PublishedAt, &a.ScrapedAt, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// InsertArticle stores a new article and returns its generated id.
func (s *Store) InsertArticle(ctx context.Context, a Article) (string, error) {
	id := uuid.NewString()
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO articles (id, title, intro, summary, category, top_image, tags, url, published_at, scraped_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		id, a.Title, a.Intro, a.Summary, a.Category, a.TopImage,
		pq.Array(a.Tags), pq.Array(a.URLs), a.PublishedAt, a.ScrapedAt)
	if err != nil {
		return "", err
	}
	return id, nil
}

// UpdateArticle refreshes the merged summary and appends new source URLs.
// The append deduplicates inside the statement, so replaying the same
// merge is harmless.
func (s *Store) UpdateArticle(ctx context.Context, id, intro, summary string, newURLs []string, scrapedAt time.Time) error {
	_, err := s.DB.ExecContext(ctx, `
UPDATE articles SET
  intro = $2,
  summary = $3,
  url = ARRAY(SELECT DISTINCT u FROM unnest(url || $4::text[]) AS u),
  scraped_at = $5
WHERE id = $1`, id, intro, summary, pq.Array(newURLs), scrapedAt)
	return err
}

// ListArticles returns the newest articles first.
func (s *Store) ListArticles(ctx context.Context, limit, offset int) ([]Article, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, title, intro, summary, category, top_image, tags, url, published_at, scraped_at, created_at
FROM articles
ORDER BY scraped_at DESC
LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Article
	for rows.Next() {
		var a Article
		if err := rows.Scan(&a.ID, &a.Title, &a.Intro, &a.Summary, &a.Category, &a.TopImage,
			pq.Array(&a.Tags), pq.Array(&a.URLs), &a.PublishedAt, &a.ScrapedAt, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ArticleCandidate is the comparison material of one stored article.
// Embedding is nil for articles that have not been embedded yet.
type ArticleCandidate struct {
	ID        string
	Title     string
	Summary   string
	Tags      []string
	Embedding []float32
}

// ListCandidates loads the candidate snapshot used by the duplicate
// matcher. The snapshot is read without locking, so two concurrent
// workers can both miss an article the other is about to create.
func (s *Store) ListCandidates(ctx context.Context) ([]ArticleCandidate, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT a.id, a.title, a.summary, a.tags, e.embedding
FROM articles a
LEFT JOIN article_embeddings e ON e.article_id = a.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ArticleCandidate
	for rows.Next() {
		var (
			c   ArticleCandidate
			lit sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Title, &c.Summary, pq.Array(&c.Tags), &lit); err != nil {
			return nil, err
		}
		if lit.Valid {
			vec, err := decodeVectorLiteral(lit.String)
			if err != nil {
				return nil, fmt.Errorf("candidate %s: %w", c.ID, err)
			}
			c.Embedding = vec
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpsertArticleEmbedding stores or replaces the summary embedding of an
// article.
func (s *Store) UpsertArticleEmbedding(ctx context.Context, articleID string, vec []float32) error {
	lit, err := encodeVectorLiteral(vec)
	if err != nil {
		return err
	}
	_, err = s.DB.ExecContext(ctx, `
INSERT INTO article_embeddings (article_id, embedding, updated_at)
VALUES ($1,$2::vector,NOW())
ON CONFLICT (article_id) DO UPDATE SET
  embedding = EXCLUDED.embedding,
  updated_at = NOW()`, articleID, lit)
	return err
}

// EmbeddingSearchResult is one semantic search hit.
type EmbeddingSearchResult struct {
	ArticleID string
	Title     string
	Summary   string
	Distance  float64
}

// SearchByEmbedding returns the stored articles closest to the supplied
// vector, nearest first.
func (s *Store) SearchByEmbedding(ctx context.Context, vec []float32, limit int) ([]EmbeddingSearchResult, error) {
	if limit <= 0 {
		limit = 10
	}
	lit, err := encodeVectorLiteral(vec)
	if err != nil {
		return nil, err
	}
	rows, err := s.DB.QueryContext(ctx, `
SELECT a.id, a.title, a.summary, e.embedding <=> $1::vector AS distance
FROM article_embeddings e
JOIN articles a ON a.id = e.article_id
ORDER BY e.embedding <=> $1::vector
LIMIT $2`, lit, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []EmbeddingSearchResult
	for rows.Next() {
		var r EmbeddingSearchResult
		if err := rows.Scan(&r.ArticleID, &r.Title, &r.Summary, &r.Distance); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func encodeVectorLiteral(vec []float32) (string, error) {
	if len(vec) == 0 {
		return "", fmt.Errorf("vector must not be empty")
	}
	var builder strings.Builder
	builder.WriteByte('[')
	for i, f := range vec {
		if i > 0 {
			builder.WriteByte(',')
		}
		builder.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	builder.WriteByte(']')
	return builder.String(), nil
}

func decodeVectorLiteral(lit string) ([]float32, error) {
	lit = strings.TrimSpace(lit)
	if lit == "" {
		return nil, fmt.Errorf("empty vector literal")
	}
	lit = strings.TrimPrefix(lit, "[")
	lit = strings.TrimSuffix(lit, "]")
	parts := strings.Split(lit, ",")
	vec := make([]float32, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value == "" {
			continue
		}
		f, err := strconv.ParseFloat(value, 32)
		if err != nil {
			return nil, fmt.Errorf("parse vector value %q: %w", value, err)
		}
		vec = append(vec, float32(f))
	}
	return vec, nil
}
