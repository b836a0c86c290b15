package grouping

import (
	"regexp"
	"strings"
	"unicode"
)

// SimilarityThreshold is the minimum Levenshtein ratio for two titles to be
// considered similar when no domain pattern matches both.
const SimilarityThreshold = 0.6

type pattern struct {
	label string
	re    *regexp.Regexp
}

// patterns are checked in priority order; the first shared match decides the
// group title.
var patterns = []pattern{
	{label: "Email", re: regexp.MustCompile(`(?i)\b(e-?mails?|reply|replies|respond|inbox|follow[- ]?up)\b`)},
	{label: "Social media", re: regexp.MustCompile(`(?i)\b(social|twitter|tweets?|linkedin|facebook|instagram|mastodon)\b`)},
	{label: "Admin", re: regexp.MustCompile(`(?i)\b(invoices?|expenses?|receipts?|paperwork|forms?|bills?|taxes|tax|reimburse\w*)\b`)},
	{label: "Writing", re: regexp.MustCompile(`(?i)\b(write|writing|draft|drafting|blog|article|proofread|outline)\b`)},
	{label: "Meeting", re: regexp.MustCompile(`(?i)\b(call|calls|meeting|meetings|sync|standup|1:1|one-on-one)\b`)},
	{label: "File", re: regexp.MustCompile(`(?i)\b(files?|folders?|organi[sz]e|upload|download|backup|archive)\b`)},
}

// matchPatterns returns the indices of every pattern the title matches.
func matchPatterns(title string) []int {
	var out []int
	for i, p := range patterns {
		if p.re.MatchString(title) {
			out = append(out, i)
		}
	}
	return out
}

// sharedPattern returns the first pattern both titles match, or -1.
func sharedPattern(a, b string) int {
	for i, p := range patterns {
		if p.re.MatchString(a) && p.re.MatchString(b) {
			return i
		}
	}
	return -1
}

// Similar reports whether two task titles describe the same kind of work:
// either both match one domain pattern or their normalized Levenshtein ratio
// is at least SimilarityThreshold.
func Similar(a, b string) bool {
	if sharedPattern(a, b) >= 0 {
		return true
	}
	return SimilarityRatio(a, b) >= SimilarityThreshold
}

// SimilarityRatio returns 1 - dist/max(len) over normalized titles.
// Two empty titles are identical (1.0).
func SimilarityRatio(a, b string) float64 {
	ra := []rune(normalize(a))
	rb := []rune(normalize(b))
	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

// Levenshtein returns the edit distance between a and b counted in runes.
// It runs in O(n·m) time and O(min(n, m)) space.
func Levenshtein(a, b string) int {
	return levenshtein([]rune(a), []rune(b))
}

func levenshtein(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// normalize lowercases, drops punctuation and collapses whitespace.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range strings.TrimSpace(strings.ToLower(s)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteRune(' ')
			}
			space = false
			b.WriteRune(r)
		default:
			space = true
		}
	}
	return b.String()
}

// significantWords returns the distinct lowercased words longer than three
// runes, in order of first appearance.
func significantWords(title string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, w := range strings.Fields(normalize(title)) {
		if len([]rune(w)) <= 3 || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}
