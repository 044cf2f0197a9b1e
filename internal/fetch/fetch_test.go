package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const landingPage = `<!DOCTYPE html>
<html><body>
<nav><a href="/o-nas">O nas</a></nav>
<a href="/spravy/vlada-schvalila-rozpocet">Vlada schvalila rozpocet</a>
<a href="https://example.sk/spravy/novy-zakon">Novy zakon</a>
<a href="/spravy/vlada-schvalila-rozpocet">duplicate</a>
<a href="#top">hore</a>
<a href="javascript:void(0)">menu</a>
<a href="mailto:redakcia@example.sk">kontakt</a>
</body></html>`

func TestDiscoverLinks(t *testing.T) {
	t.Parallel()

	links, err := DiscoverLinks("https://example.sk/", []byte(landingPage), []string{"/spravy/"})
	if err != nil {
		t.Fatalf("DiscoverLinks: %v", err)
	}
	want := []string{
		"https://example.sk/spravy/vlada-schvalila-rozpocet",
		"https://example.sk/spravy/novy-zakon",
	}
	if len(links) != len(want) {
		t.Fatalf("links = %v, want %v", links, want)
	}
	for i := range want {
		if links[i] != want[i] {
			t.Fatalf("links[%d] = %q, want %q", i, links[i], want[i])
		}
	}
}

func TestDiscoverLinksNoPatterns(t *testing.T) {
	t.Parallel()

	links, err := DiscoverLinks("https://example.sk/", []byte(landingPage), nil)
	if err != nil {
		t.Fatalf("DiscoverLinks: %v", err)
	}
	// Without patterns every resolvable http(s) link is kept.
	if len(links) != 3 {
		t.Fatalf("expected 3 links, got %v", links)
	}
}

func TestClientGet(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != defaultUserAgent {
			t.Errorf("unexpected user agent %q", ua)
		}
		w.Write([]byte("ahoj"))
	}))
	defer srv.Close()

	body, err := NewClient(5 * time.Second).Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(body) != "ahoj" {
		t.Fatalf("body = %q", body)
	}
}

func TestClientGetRejectsErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	if _, err := NewClient(5 * time.Second).Get(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for non-2xx status")
	}
}

const articlePage = `<!DOCTYPE html>
<html><head>
<title>Vlada schvalila rozpocet</title>
<meta property="article:published_time" content="2026-08-28T09:30:00+02:00">
</head><body>
<article>
<h1>Vlada schvalila rozpocet</h1>
<p>Vlada na stredajsom rokovani schvalila navrh statneho rozpoctu na buduci rok.
Minister financii povedal, ze deficit klesne pod tri percenta hrubeho domaceho produktu.
Opozicia navrh kritizovala a ziada dalsie upravy v kapitole skolstva.</p>
<p>Rozpocet teraz poputuje do parlamentu, kde ho cakaju dva mesiace rokovani.
Poslanci mozu predkladat pozmenujuce navrhy do konca oktobra.</p>
</article>
</body></html>`

func TestParse(t *testing.T) {
	t.Parallel()

	page, err := Parse("https://example.sk/spravy/rozpocet", []byte(articlePage))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if page.Title == "" {
		t.Fatal("expected a title")
	}
	if len(page.Text) < 100 {
		t.Fatalf("expected substantial text, got %d chars", len(page.Text))
	}
	want := time.Date(2026, 8, 28, 9, 30, 0, 0, time.FixedZone("", 2*3600))
	if !page.PublishedAt.Equal(want) {
		t.Fatalf("PublishedAt = %v, want %v", page.PublishedAt, want)
	}
}

func TestParseWithoutDate(t *testing.T) {
	t.Parallel()

	page, err := Parse("https://example.sk/spravy/x", []byte(`<html><head><title>T</title></head><body><article><p>obsah clanku na test</p></article></body></html>`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !page.PublishedAt.IsZero() {
		t.Fatalf("expected zero publish time, got %v", page.PublishedAt)
	}
}
