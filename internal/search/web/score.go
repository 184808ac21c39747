package web

import (
	"regexp"
	"strings"
	"time"
)

var trustedSources = []string{"techcrunch", "bloomberg", "reuters", "wsj", "crunchbase"}

var keywordPattern = regexp.MustCompile(`[0-9A-Za-z_]+|\p{Han}+`)

// scoreResults adjusts each result's relevance for keyword overlap with
// the original query (title hits weigh more than body hits), trusted
// sources and recency, clamping into [0,1]. Trusted-source results are
// additionally marked verified.
func scoreResults(results []Result, originalQuery string, now time.Time) []Result {
	keywords := extractKeywords(originalQuery)

	scored := make([]Result, len(results))
	for i, r := range results {
		score := r.Relevance
		if score == 0 {
			score = 0.5
		}

		titleMatches := countKeywordMatches(r.Title, keywords)
		contentMatches := countKeywordMatches(r.Content, keywords)
		score += float64(titleMatches)*0.3 + float64(contentMatches)*0.2

		if isTrustedURL(r.URL) {
			score += 0.2
			r.Verified = true
		}

		if r.PublishDate != nil && now.Sub(*r.PublishDate) < 30*24*time.Hour {
			score += 0.15
		}

		if score > 1.0 {
			score = 1.0
		}
		if score < 0 {
			score = 0
		}
		r.Relevance = score
		scored[i] = r
	}
	return scored
}

func isTrustedURL(url string) bool {
	lower := strings.ToLower(url)
	for _, src := range trustedSources {
		if strings.Contains(lower, src) {
			return true
		}
	}
	return false
}

func extractKeywords(query string) []string {
	raw := keywordPattern.FindAllString(strings.ToLower(query), -1)
	out := make([]string, 0, len(raw))
	for _, tok := range raw {
		if len([]rune(tok)) > 2 || len([]rune(tok)) == 2 && !isASCII(tok) {
			out = append(out, tok)
		}
	}
	return out
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > 127 {
			return false
		}
	}
	return true
}

func countKeywordMatches(text string, keywords []string) int {
	lower := strings.ToLower(text)
	count := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			count++
		}
	}
	return count
}
