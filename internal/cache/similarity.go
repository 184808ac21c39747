package cache

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var wordPattern = regexp.MustCompile(`[0-9A-Za-z_]+|\p{Han}+`)

// businessKeywords gates the keyword tier: two queries only match there
// when they share at least one of these venture-domain terms.
var businessKeywords = []string{
	"投资", "融资", "公司", "估值", "轮次", "创投", "基金", "独角兽", "赛道",
	"investment", "funding", "valuation", "startup", "venture", "capital",
	"ipo", "acquisition", "unicorn",
}

// Normalize lowercases the query and strips everything except word
// characters and CJK ideographs, collapsing runs into single spaces.
// Two queries with the same normal form share a cache key.
func Normalize(query string) string {
	toks := wordPattern.FindAllString(strings.ToLower(query), -1)
	return strings.Join(toks, " ")
}

// Similarity scores two queries in [0,1] as a weighted mix of token-set
// Jaccard similarity and length-ratio similarity.
func Similarity(a, b string) float64 {
	return 0.7*jaccard(tokenSet(a), tokenSet(b)) + 0.3*lengthRatio(a, b)
}

func tokenSet(s string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, tok := range wordPattern.FindAllString(strings.ToLower(s), -1) {
		set[tok] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func lengthRatio(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la == 0 && lb == 0 {
		return 1.0
	}
	if la == 0 || lb == 0 {
		return 0
	}
	if la > lb {
		la, lb = lb, la
	}
	return float64(la) / float64(lb)
}

// keywordOverlap is the share of the smaller keyword set found in the
// other. The keyword tier uses it as a wider net than full similarity.
func keywordOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(b))
	for _, kw := range b {
		set[strings.ToLower(kw)] = struct{}{}
	}
	inter := 0
	for _, kw := range a {
		if _, ok := set[strings.ToLower(kw)]; ok {
			inter++
		}
	}
	smaller := len(a)
	if len(b) < smaller {
		smaller = len(b)
	}
	return float64(inter) / float64(smaller)
}

func shareBusinessKeyword(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	for _, kw := range businessKeywords {
		if strings.Contains(la, kw) && strings.Contains(lb, kw) {
			return true
		}
	}
	return false
}
