package fetch

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	readability "github.com/go-shiori/go-readability"
)

// Page is a parsed article page.
type Page struct {
	URL         string
	Title       string
	Text        string
	Byline      string
	Image       string
	PublishedAt time.Time
}

// Parse runs readability over the page and pulls the publish date from
// the usual meta tags. PublishedAt is zero when no date could be found.
func Parse(pageURL string, html []byte) (*Page, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	article, err := readability.FromReader(bytes.NewReader(html), base)
	if err != nil {
		return nil, fmt.Errorf("readability %s: %w", pageURL, err)
	}
	page := &Page{
		URL:         pageURL,
		Title:       strings.TrimSpace(article.Title),
		Text:        strings.TrimSpace(article.TextContent),
		Byline:      strings.TrimSpace(article.Byline),
		Image:       article.Image,
		PublishedAt: publishedAt(html),
	}
	return page, nil
}

// Meta properties checked for a publish date, in priority order.
var dateMetaSelectors = []string{
	"meta[property='article:published_time']",
	"meta[name='article:published_time']",
	"meta[property='og:published_time']",
	"meta[name='date']",
	"meta[itemprop='datePublished']",
}

func publishedAt(html []byte) time.Time {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return time.Time{}
	}
	for _, sel := range dateMetaSelectors {
		value, ok := doc.Find(sel).First().Attr("content")
		if !ok {
			continue
		}
		if ts, err := dateparse.ParseAny(strings.TrimSpace(value)); err == nil {
			return ts
		}
	}
	if value, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
		if ts, err := dateparse.ParseAny(strings.TrimSpace(value)); err == nil {
			return ts
		}
	}
	return time.Time{}
}
