// Package expansion normalizes raw user queries into an expanded,
// intent-tagged form that downstream retrieval can use directly. The
// expansion is deterministic and fully offline.
package expansion

import (
	"strings"
	"unicode/utf8"
)

// Intent is the coarse category a query falls into. It drives which
// lexicon buckets feed the expansion and whether the orchestrator
// considers live web search worthwhile.
type Intent string

const (
	IntentCompanySearch      Intent = "company_search"
	IntentInvestmentAnalysis Intent = "investment_analysis"
	IntentMarketTrends       Intent = "market_trends"
	IntentTechnologyInfo     Intent = "technology_info"
	IntentFundingInfo        Intent = "funding_info"
	IntentTeamEvaluation     Intent = "team_evaluation"
	IntentGeneral            Intent = "general"
)

// ExpandedQuery is the result of expanding a single raw query.
type ExpandedQuery struct {
	Original    string   `json:"original"`
	Expanded    string   `json:"expanded"`
	Intent      Intent   `json:"intent"`
	Keywords    []string `json:"keywords"`
	Synonyms    []string `json:"synonyms"`
	DomainTerms []string `json:"domainTerms"`
	Confidence  float64  `json:"confidence"`
}

// Options tunes a single expansion call. The zero value is usable.
type Options struct {
	// MaxExpansions caps the number of terms appended to the original
	// query. Zero means the default of 10.
	MaxExpansions int
	// SkipContext suppresses the intent-specific contextual tags.
	SkipContext bool
}

func (o Options) maxExpansions() int {
	if o.MaxExpansions <= 0 {
		return 10
	}
	return o.MaxExpansions
}

// Classifier assigns an intent to a raw query. Implementations must be
// safe for concurrent use.
type Classifier interface {
	Classify(query string) Intent
}

// RuleClassifier classifies by an ordered list of regexp rules; the
// first match wins, and no match yields IntentGeneral.
type RuleClassifier struct {
	rules []intentRule
}

func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{rules: intentRules}
}

func (c *RuleClassifier) Classify(query string) Intent {
	q := strings.ToLower(strings.TrimSpace(query))
	for _, r := range c.rules {
		if r.pattern.MatchString(q) {
			return r.intent
		}
	}
	return IntentGeneral
}

// Expander produces ExpandedQuery values. It holds no per-query state
// and is safe for concurrent use.
type Expander struct {
	classifier Classifier
}

func New() *Expander {
	return NewWithClassifier(NewRuleClassifier())
}

// NewWithClassifier lets callers swap in their own intent classifier,
// e.g. a model-backed one, without touching the expansion logic.
func NewWithClassifier(c Classifier) *Expander {
	return &Expander{classifier: c}
}

// Expand tokenizes the query, classifies its intent and appends
// synonyms, domain terms and contextual tags. The original query is
// always preserved verbatim as the prefix of Expanded.
func (e *Expander) Expand(query string, opts Options) ExpandedQuery {
	original := strings.TrimSpace(query)
	intent := e.classifier.Classify(original)
	keywords := Tokenize(original)

	synonyms := collectSynonyms(keywords)
	terms := collectDomainTerms(intent)

	limit := opts.maxExpansions()
	// Budget split: 40% synonyms, 40% domain terms, remainder context.
	synBudget := limit * 2 / 5
	termBudget := limit * 2 / 5

	parts := []string{original}
	parts = append(parts, capped(synonyms, synBudget)...)
	parts = append(parts, capped(terms, termBudget)...)
	if !opts.SkipContext {
		used := min(len(synonyms), synBudget) + min(len(terms), termBudget)
		if rest := limit - used; rest > 0 {
			parts = append(parts, capped(contextTags[intent], rest)...)
		}
	}

	expanded := dedupeJoin(parts)

	return ExpandedQuery{
		Original:    original,
		Expanded:    expanded,
		Intent:      intent,
		Keywords:    keywords,
		Synonyms:    synonyms,
		DomainTerms: terms,
		Confidence:  scoreConfidence(original, expanded, synonyms, terms),
	}
}

// Suggestions renders follow-up query suggestions for the intent using
// the first extracted keyword. Intents without templates get none.
func (e *Expander) Suggestions(intent Intent, keywords []string) []string {
	templates, ok := suggestionTemplates[intent]
	if !ok || len(keywords) == 0 {
		return nil
	}
	out := make([]string, 0, len(templates))
	for _, t := range templates {
		out = append(out, strings.ReplaceAll(t, "{keyword}", keywords[0]))
	}
	return out
}

// Tokenize lowercases the query and splits it into Latin word runs and
// CJK ideograph runs, dropping stop words and single-character tokens.
func Tokenize(query string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(query), -1)
	out := make([]string, 0, len(raw))
	for _, tok := range raw {
		if utf8.RuneCountInString(tok) <= 1 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func collectSynonyms(keywords []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, kw := range keywords {
		for _, key := range synonymKeys {
			if kw != key && !strings.Contains(kw, key) {
				continue
			}
			for _, s := range synonymTable[key] {
				if _, dup := seen[s]; dup {
					continue
				}
				seen[s] = struct{}{}
				out = append(out, s)
			}
		}
	}
	return out
}

func collectDomainTerms(intent Intent) []string {
	var out []string
	for _, bucket := range intentDomains[intent] {
		out = append(out, domainTerms[bucket]...)
	}
	return out
}

// scoreConfidence estimates how much signal the expansion added. Base
// 0.5, bumped for a healthy expansion ratio, synonym and domain-term
// coverage, and short queries that benefit most from expansion.
func scoreConfidence(original, expanded string, synonyms, terms []string) float64 {
	score := 0.5
	if lo := utf8.RuneCountInString(original); lo > 0 {
		ratio := float64(utf8.RuneCountInString(expanded)) / float64(lo)
		if ratio > 1.2 && ratio < 3.0 {
			score += 0.2
		}
		if lo < 20 {
			score += 0.1
		}
	}
	if len(synonyms) > 2 {
		score += 0.2
	}
	if len(terms) > 3 {
		score += 0.2
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func capped(in []string, n int) []string {
	if len(in) > n {
		return in[:n]
	}
	return in
}

// dedupeJoin joins the parts with spaces, dropping whole parts that
// already appeared. The first part (the original query) is never
// dropped, so the original text survives verbatim.
func dedupeJoin(parts []string) string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(parts))
	for i, p := range parts {
		key := strings.ToLower(p)
		if _, dup := seen[key]; dup && i > 0 {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return strings.Join(out, " ")
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
