package similarity

import "strings"

// Ratio measures how alike two summaries read, as the Ratcliff/Obershelp
// similarity of their normalized text: twice the number of matching
// characters divided by the total length, in [0, 1]. Case and whitespace
// runs are normalized before comparison.
func Ratio(a, b string) float64 {
	ra := []rune(normalizeText(a))
	rb := []rune(normalizeText(b))
	if len(ra) == 0 && len(rb) == 0 {
		return 1
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	matched := matchingRunes(ra, rb)
	return 2 * float64(matched) / float64(len(ra)+len(rb))
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// matchingRunes counts matching characters by finding the longest common
// substring and recursing into the pieces to its left and right.
func matchingRunes(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	aStart, bStart, size := longestCommonRun(a, b)
	if size == 0 {
		return 0
	}
	total := size
	total += matchingRunes(a[:aStart], b[:bStart])
	total += matchingRunes(a[aStart+size:], b[bStart+size:])
	return total
}

func longestCommonRun(a, b []rune) (aStart, bStart, size int) {
	// One dynamic-programming row per outer step keeps this O(len(b)) in
	// memory while still finding the leftmost longest run.
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > size {
					size = cur[j]
					aStart = i - size
					bStart = j - size
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return aStart, bStart, size
}
