// Package textutil extracts comparison features from Slovak article text:
// ranked keywords, filtered token sets and coarse overlap scores.
package textutil

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxKeywords is the default cap on ranked keyword lists and the slice
// length the overlap score is computed over.
const MaxKeywords = 30

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_][\p{L}\p{N}_'-]*`)

// stripper removes combining marks after NFD decomposition, turning
// "vláda" into "vlada". Slovak stopwords below are stored in the same
// diacritic-free form.
var stripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var stopwords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"a", "aby", "aj", "ak", "ako", "ale", "alebo", "ani", "aspon", "avsak", "az", "bez",
		"bol", "bola", "boli", "bolo", "bud", "bude", "budu", "by", "byt", "cez", "ci", "co",
		"cize", "do", "este", "ho", "iba", "ich", "inak", "iny", "ja", "je", "jej", "jemu",
		"jeho", "ju", "k", "kam", "ked", "kedze", "kde", "keby", "kolko", "ktora", "ktore",
		"ktori", "ktory", "ktoru", "ktoreho", "ktorej", "ktorom", "ktorych", "ktorou",
		"ktosi", "kto", "lebo", "len", "ma", "maju", "mal", "mala", "mali", "malo", "mam",
		"mame", "mate", "medzi", "mi", "mna", "mnou", "moze", "mozu", "mus", "musi",
		"musime", "musite", "my", "na", "nad", "naco", "najma", "napr", "nas", "nasa",
		"nasich", "nasim", "nase", "nasi", "nasu", "ne", "nebo", "nebol", "nebola", "neboli",
		"nebolo", "nech", "nechce", "nechcem", "nej", "nejsu", "nemaju", "nemal", "nemame",
		"nemusi", "nie", "nijako", "nieco", "niekto", "nik", "nikto", "o", "od", "okolo",
		"okrem", "on", "ona", "ono", "oni", "ony", "po", "pod", "podla", "pokial", "potom",
		"pre", "pred", "pri", "pricom", "proti", "s", "sa", "seba", "sem", "si", "sme",
		"svoj", "svoja", "svoje", "svojich", "svojim", "svojmu", "som", "ste", "su", "tak",
		"taka", "take", "taki", "takto", "taky", "takze", "tam", "te", "ten", "tento", "tie",
		"tiez", "to", "toto", "tu", "tym", "tymto", "uz", "v", "vam", "vas", "vasa", "vase",
		"vasi", "vasej", "vasu", "vsak", "vsetci", "vsetko", "vy", "z", "za", "zo", "zatial",
		"ze", "zeby",
	} {
		stopwords[w] = struct{}{}
	}
}

// StripDiacritics returns the lower-cased token without combining marks.
func StripDiacritics(value string) string {
	out, _, err := transform.String(stripper, value)
	if err != nil {
		return strings.ToLower(value)
	}
	return strings.ToLower(out)
}

func filteredTokens(text string) []string {
	if text == "" {
		return nil
	}
	tokens := tokenPattern.FindAllString(strings.ToLower(text), -1)
	filtered := make([]string, 0, len(tokens))
	for _, token := range tokens {
		normalized := StripDiacritics(token)
		if len(normalized) <= 2 {
			continue
		}
		if _, stop := stopwords[normalized]; stop {
			continue
		}
		if !containsLetter(normalized) {
			continue
		}
		filtered = append(filtered, normalized)
	}
	return filtered
}

func containsLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// Keywords returns up to maxK tokens ranked by term frequency after
// lower-casing, diacritic stripping, stopword and short-token removal.
// Ties are broken by first-seen order.
func Keywords(text string, maxK int) []string {
	if maxK <= 0 {
		maxK = MaxKeywords
	}
	filtered := filteredTokens(text)
	if len(filtered) == 0 {
		return nil
	}

	counts := make(map[string]int, len(filtered))
	firstSeen := make(map[string]int, len(filtered))
	order := make([]string, 0, len(filtered))
	for i, token := range filtered {
		if _, seen := counts[token]; !seen {
			firstSeen[token] = i
			order = append(order, token)
		}
		counts[token]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		if counts[order[i]] != counts[order[j]] {
			return counts[order[i]] > counts[order[j]]
		}
		return firstSeen[order[i]] < firstSeen[order[j]]
	})

	if len(order) > maxK {
		order = order[:maxK]
	}
	return order
}

// TokenSet returns the distinct filtered tokens of text, for coarse
// Jaccard-style overlap checks.
func TokenSet(text string) map[string]struct{} {
	filtered := filteredTokens(text)
	if len(filtered) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(filtered))
	for _, token := range filtered {
		set[token] = struct{}{}
	}
	return set
}

// Overlap computes the Jaccard overlap between the top-MaxKeywords slices
// of two ranked keyword lists. It returns the score in [0,1] and the raw
// number of shared keywords.
func Overlap(base, candidate []string) (float64, int) {
	if len(base) == 0 || len(candidate) == 0 {
		return 0, 0
	}
	baseSet := headSet(base, MaxKeywords)
	candidateSet := headSet(candidate, MaxKeywords)

	overlap := 0
	for token := range baseSet {
		if _, ok := candidateSet[token]; ok {
			overlap++
		}
	}
	union := len(baseSet) + len(candidateSet) - overlap
	if union == 0 {
		return 0, overlap
	}
	return float64(overlap) / float64(union), overlap
}

// SetJaccard computes |A∩B| / |A∪B| over two token sets, 0 when either
// side is empty.
func SetJaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	overlap := 0
	for token := range a {
		if _, ok := b[token]; ok {
			overlap++
		}
	}
	union := len(a) + len(b) - overlap
	if union == 0 {
		return 0
	}
	return float64(overlap) / float64(union)
}

func headSet(tokens []string, n int) map[string]struct{} {
	if len(tokens) > n {
		tokens = tokens[:n]
	}
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}
