// Package urlx normalises article URLs into the stable form used as the
// deduplication key across crawl runs.
package urlx

import (
	"net/url"
	"regexp"
	"strings"
)

var repeatedSlashes = regexp.MustCompile(`/{2,}`)

// Canonicalize returns the canonical form of a URL: scheme and host
// lower-cased, repeated path separators collapsed, a single trailing
// separator stripped (the root path "/" is preserved) and query string and
// fragment dropped. Malformed input (missing scheme or host) is returned
// unchanged, so callers must tolerate a canonical form equal to the raw
// form. Canonicalization is idempotent.
func Canonicalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return raw
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return raw
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)

	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}
	path = repeatedSlashes.ReplaceAllString(path, "/")
	if path != "/" && strings.HasSuffix(path, "/") {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	parsed.RawPath = ""
	parsed.Path = path

	parsed.RawQuery = ""
	parsed.Fragment = ""
	parsed.RawFragment = ""

	return parsed.String()
}

// Aliases returns the distinct set of URL values a single page is known
// under: the raw URL and its canonical form. The canonical form comes
// first when it differs.
func Aliases(raw string) []string {
	canonical := Canonicalize(raw)
	if canonical == raw {
		return []string{raw}
	}
	return []string{canonical, raw}
}
