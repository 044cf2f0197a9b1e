// Package coordinator decides what happens to a parsed article page:
// merge it into an existing article, create a new one, or skip it. Every
// processed URL ends in a terminal reservation state regardless of the
// outcome.
package coordinator

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spravodaj/spravodaj/config"
	"github.com/spravodaj/spravodaj/internal/fetch"
	"github.com/spravodaj/spravodaj/internal/generate"
	"github.com/spravodaj/spravodaj/internal/similarity"
	"github.com/spravodaj/spravodaj/internal/store"
	"github.com/spravodaj/spravodaj/internal/telemetry"
	"github.com/spravodaj/spravodaj/internal/textutil"
)

// Storage is the slice of the store the coordinator needs.
type Storage interface {
	FindArticleByURL(ctx context.Context, url string) (*store.Article, error)
	ListCandidates(ctx context.Context) ([]store.ArticleCandidate, error)
	InsertArticle(ctx context.Context, a store.Article) (string, error)
	UpdateArticle(ctx context.Context, id, intro, summary string, newURLs []string, scrapedAt time.Time) error
	UpsertArticleEmbedding(ctx context.Context, articleID string, vec []float32) error
	Complete(ctx context.Context, raw, canonical, status, reason string) error
}

// Generator produces structured article text.
type Generator interface {
	Structure(ctx context.Context, text string) (*generate.Structured, error)
	Merge(ctx context.Context, existingSummary, newText string) (*generate.Merged, error)
}

// Embedder produces embedding vectors.
type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// Matcher scores a new article against stored candidates.
type Matcher interface {
	Match(input similarity.Input, candidates []similarity.Candidate) similarity.Result
}

// Indexer receives created and updated articles for the search index.
// It is optional.
type Indexer interface {
	Index(a store.Article) error
}

// Kind classifies a processing outcome.
type Kind string

const (
	KindCreated Kind = "created"
	KindUpdated Kind = "updated"
	KindSkipped Kind = "skipped"
	KindFailed  Kind = "failed"
)

// Outcome reports what the coordinator did with one page.
type Outcome struct {
	Kind      Kind
	ArticleID string
	Reason    string
	Score     float64
}

// Item is one reserved, fetched and parsed page.
type Item struct {
	RawURL       string
	CanonicalURL string
	Page         *fetch.Page
}

// Coordinator implements the merge-or-create decision.
type Coordinator struct {
	storage  Storage
	gen      Generator
	embedder Embedder
	matcher  Matcher
	indexer  Indexer
	cfg      config.CrawlConfig
	simCfg   config.SimilarityConfig
	logger   *log.Logger
}

// New wires the coordinator. indexer may be nil.
func New(storage Storage, gen Generator, embedder Embedder, matcher Matcher, indexer Indexer, cfg config.CrawlConfig, simCfg config.SimilarityConfig, logger *log.Logger) *Coordinator {
	if logger == nil {
		logger = log.Default()
	}
	return &Coordinator{
		storage:  storage,
		gen:      gen,
		embedder: embedder,
		matcher:  matcher,
		indexer:  indexer,
		cfg:      cfg.Normalize(),
		simCfg:   simCfg.Normalize(),
		logger:   logger,
	}
}

// Titles that mean the source page had no usable headline.
var placeholderTitles = map[string]struct{}{
	"":          {},
	"untitled":  {},
	"no title":  {},
	"bez nazvu": {},
}

func isPlaceholderTitle(title string) bool {
	normalized := textutil.StripDiacritics(strings.TrimSpace(title))
	_, ok := placeholderTitles[normalized]
	return ok
}

const minSummaryLen = 80

// Process runs the full decision for one page and records the terminal
// reservation state. The returned error is non-nil only when even the
// terminal state could not be written.
func (c *Coordinator) Process(ctx context.Context, item Item) (Outcome, error) {
	out := c.process(ctx, item)
	telemetry.Outcomes.WithLabelValues(string(out.Kind)).Inc()

	status := store.StatusDone
	if out.Kind == KindFailed {
		status = store.StatusFailed
	}
	reason := out.Reason
	if reason == "" {
		reason = string(out.Kind)
	}
	if err := c.storage.Complete(ctx, item.RawURL, item.CanonicalURL, status, reason); err != nil {
		return out, fmt.Errorf("complete %s: %w", item.CanonicalURL, err)
	}
	return out, nil
}

func (c *Coordinator) process(ctx context.Context, item Item) Outcome {
	page := item.Page

	// A URL can be reserved before anyone notices it already belongs to
	// an article, so membership is checked again here.
	for _, u := range []string{item.CanonicalURL, item.RawURL} {
		existing, err := c.storage.FindArticleByURL(ctx, u)
		if err != nil {
			return Outcome{Kind: KindFailed, Reason: "article lookup failed"}
		}
		if existing != nil {
			return Outcome{Kind: KindSkipped, ArticleID: existing.ID, Reason: "url already aggregated"}
		}
	}

	if len([]rune(page.Text)) < c.cfg.MinTextLen {
		return Outcome{Kind: KindSkipped, Reason: "text too short"}
	}

	structured, err := c.gen.Structure(ctx, page.Text)
	if err != nil {
		c.logger.Printf("[COORD] structure %s: %v", item.CanonicalURL, err)
		return Outcome{Kind: KindFailed, Reason: "generation failed"}
	}
	title := resolveTitle(structured.Title, page.Title)
	if title == "" {
		return Outcome{Kind: KindSkipped, Reason: "placeholder title"}
	}
	structured.Title = title
	if strings.TrimSpace(structured.Intro) == "" {
		structured.Intro = introFromSummary(structured.Summary)
	}
	if len([]rune(structured.Summary)) < minSummaryLen {
		return Outcome{Kind: KindSkipped, Reason: "summary too short"}
	}

	input, haveEmbedding := c.buildInput(ctx, item, structured)
	if !haveEmbedding {
		return Outcome{Kind: KindSkipped, Reason: "embedding unavailable"}
	}

	candidates, err := c.storage.ListCandidates(ctx)
	if err != nil {
		return Outcome{Kind: KindFailed, Reason: "candidate load failed"}
	}
	result := c.matcher.Match(input, toSimilarityCandidates(candidates))
	if result.Match != nil {
		return c.update(ctx, item, structured, result)
	}
	return c.create(ctx, item, structured, input)
}

// resolveTitle prefers the generated title and falls back to the parsed
// page title. Empty result means both were placeholders.
func resolveTitle(generated, parsed string) string {
	if !isPlaceholderTitle(generated) {
		return strings.TrimSpace(generated)
	}
	if !isPlaceholderTitle(parsed) {
		return strings.TrimSpace(parsed)
	}
	return ""
}

const introPrefixLen = 200

// introFromSummary stands in for a missing intro with the leading part
// of the summary.
func introFromSummary(summary string) string {
	runes := []rune(strings.TrimSpace(summary))
	if len(runes) <= introPrefixLen {
		return string(runes)
	}
	return string(runes[:introPrefixLen])
}

// buildInput embeds the generated summary and the truncated body in one
// call. An embedding failure is reported to the caller; without a
// vector there is no duplicate matching, so the page is skipped instead
// of risking an unmatched near-duplicate.
func (c *Coordinator) buildInput(ctx context.Context, item Item, structured *generate.Structured) (similarity.Input, bool) {
	body := item.Page.Text
	if runes := []rune(body); len(runes) > c.simCfg.MaxBodyLen {
		body = string(runes[:c.simCfg.MaxBodyLen])
	}
	input := similarity.Input{
		Summary: structured.Summary,
		Body:    body,
		Tags:    structured.Tags,
	}
	vecs, err := c.embedder.CreateEmbedding(ctx, []string{structured.Summary, body})
	if err != nil || len(vecs) != 2 {
		c.logger.Printf("[COORD] embedding %s: %v", item.CanonicalURL, err)
		return input, false
	}
	input.SummaryEmbedding = vecs[0]
	input.BodyEmbedding = vecs[1]
	return input, true
}

func (c *Coordinator) update(ctx context.Context, item Item, structured *generate.Structured, result similarity.Result) Outcome {
	match := result.Match
	urls := urlForms(item)

	merged, err := c.gen.Merge(ctx, match.Summary, item.Page.Text)
	if err != nil {
		// Keep the stored summary rather than replacing it with an
		// unmerged one; the new source URL is still recorded.
		c.logger.Printf("[COORD] merge %s into %s: %v", item.CanonicalURL, match.ID, err)
		if err := c.storage.UpdateArticle(ctx, match.ID, structured.Intro, match.Summary, urls, time.Now()); err != nil {
			return Outcome{Kind: KindFailed, Reason: "article update failed"}
		}
		return Outcome{Kind: KindUpdated, ArticleID: match.ID, Reason: "merged without regeneration", Score: result.Score}
	}
	summary := merged.Summary

	if err := c.storage.UpdateArticle(ctx, match.ID, merged.Intro, summary, urls, time.Now()); err != nil {
		return Outcome{Kind: KindFailed, Reason: "article update failed"}
	}

	// The merged summary replaces the stored one, so its embedding is
	// refreshed too.
	if vecs, err := c.embedder.CreateEmbedding(ctx, []string{summary}); err == nil && len(vecs) == 1 {
		if err := c.storage.UpsertArticleEmbedding(ctx, match.ID, vecs[0]); err != nil {
			c.logger.Printf("[COORD] refresh embedding %s: %v", match.ID, err)
		}
	}

	if c.indexer != nil {
		if err := c.indexer.Index(store.Article{ID: match.ID, Title: match.Title, Summary: summary, URLs: urls}); err != nil {
			c.logger.Printf("[COORD] index %s: %v", match.ID, err)
		}
	}
	return Outcome{Kind: KindUpdated, ArticleID: match.ID, Score: result.Score}
}

func (c *Coordinator) create(ctx context.Context, item Item, structured *generate.Structured, input similarity.Input) Outcome {
	publishedAt := item.Page.PublishedAt
	if publishedAt.IsZero() {
		publishedAt = time.Now()
	}
	article := store.Article{
		Title:       structured.Title,
		Intro:       structured.Intro,
		Summary:     structured.Summary,
		Category:    structured.Category,
		TopImage:    item.Page.Image,
		Tags:        structured.Tags,
		URLs:        urlForms(item),
		PublishedAt: publishedAt,
		ScrapedAt:   time.Now(),
	}
	id, err := c.storage.InsertArticle(ctx, article)
	if err != nil {
		return Outcome{Kind: KindFailed, Reason: "article insert failed"}
	}
	article.ID = id

	if err := c.storage.UpsertArticleEmbedding(ctx, id, input.SummaryEmbedding); err != nil {
		c.logger.Printf("[COORD] store embedding %s: %v", id, err)
	}
	if c.indexer != nil {
		if err := c.indexer.Index(article); err != nil {
			c.logger.Printf("[COORD] index %s: %v", id, err)
		}
	}
	return Outcome{Kind: KindCreated, ArticleID: id}
}

func urlForms(item Item) []string {
	if item.RawURL == item.CanonicalURL {
		return []string{item.CanonicalURL}
	}
	return []string{item.CanonicalURL, item.RawURL}
}

func toSimilarityCandidates(in []store.ArticleCandidate) []similarity.Candidate {
	out := make([]similarity.Candidate, 0, len(in))
	for _, c := range in {
		out = append(out, similarity.Candidate{
			ID:        c.ID,
			Title:     c.Title,
			Summary:   c.Summary,
			Embedding: c.Embedding,
			Tags:      c.Tags,
		})
	}
	return out
}
