package query

import (
	"regexp"
	"strings"

	"github.com/svtr-ai/ragcore/internal/expansion"
)

// trackedEntities are external companies the assistant follows; naming
// one is a strong signal the user wants current information.
var trackedEntities = []string{
	"openai", "anthropic", "meta", "google", "microsoft", "nvidia", "tesla", "apple",
}

// internalKeywords mark questions about the platform's own identity,
// which the internal knowledge base answers authoritatively.
var internalKeywords = []string{"svtr", "创始人", "founder", "硅谷科技评论"}

var definitionalKeywords = []string{"什么是", "what is", "怎么", "how to", "如何", "定义", "definition"}

var financialKeywords = []string{
	"估值", "valuation", "融资", "funding", "股价", "stock price",
	"市值", "market cap", "收购", "acquisition", "ipo", "上市", "财报", "earnings",
}

var recencyKeywords = []string{"最新", "latest", "recent", "currently", "目前", "近期"}

var numericQuestionKeywords = []string{"多少", "how much", "how many"}

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

var realtimeIntents = map[expansion.Intent]struct{}{
	expansion.IntentFundingInfo:        {},
	expansion.IntentCompanySearch:      {},
	expansion.IntentMarketTrends:       {},
	expansion.IntentInvestmentAnalysis: {},
}

// Decision is the outcome of the web-search heuristic, with the reason
// kept for logging and metrics.
type Decision struct {
	UseWebSearch bool
	Reason       string
}

// DecideWebSearch determines whether live external search should
// supplement internal retrieval. It is a pure function of the expanded
// query. Suppression rules run first, but an entity or recency signal
// overrides the definitional one: "what is the latest valuation of X"
// is definitional in form yet still needs live data.
func DecideWebSearch(eq expansion.ExpandedQuery) Decision {
	lower := strings.ToLower(eq.Original)

	entity := containsAny(lower, trackedEntities)
	recency := containsAny(lower, recencyKeywords) || yearPattern.MatchString(lower)
	definitional := containsAny(lower, definitionalKeywords)
	internal := containsAny(lower, internalKeywords)

	if internal && !entity {
		return Decision{Reason: "internal_identity"}
	}
	if definitional && !entity && !recency {
		return Decision{Reason: "basic_knowledge"}
	}

	switch {
	case entity:
		return Decision{UseWebSearch: true, Reason: "tracked_entity"}
	case containsAny(lower, financialKeywords):
		return Decision{UseWebSearch: true, Reason: "financial_vocabulary"}
	case intentIsRealtime(eq.Intent):
		return Decision{UseWebSearch: true, Reason: "realtime_intent"}
	case recency && !definitional:
		return Decision{UseWebSearch: true, Reason: "recency_marker"}
	case containsAny(lower, numericQuestionKeywords):
		return Decision{UseWebSearch: true, Reason: "numeric_question"}
	}

	return Decision{Reason: "no_signal"}
}

func intentIsRealtime(intent expansion.Intent) bool {
	_, ok := realtimeIntents[intent]
	return ok
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
