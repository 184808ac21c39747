package web

import (
	"fmt"
	"strings"
)

// Rewrite turns a user question into a search-engine query. Known
// entity and finance patterns get explicit, date-qualified templates;
// anything else just gets a recency qualifier.
func Rewrite(query string) string {
	lower := strings.ToLower(query)

	if strings.Contains(lower, "openai") {
		if containsAny(lower, "估值", "valuation") {
			return "OpenAI valuation 2024 2025 latest funding round billion"
		}
		if containsAny(lower, "融资", "funding") {
			return "OpenAI funding round 2024 2025 investment latest news"
		}
		return "OpenAI latest news 2024 2025 company update"
	}

	if strings.Contains(lower, "anthropic") {
		if containsAny(lower, "融资", "估值", "funding", "valuation") {
			return "Anthropic funding 2024 2025 Claude AI investment valuation billion"
		}
		return "Anthropic latest news 2024 2025 Claude AI update"
	}

	if containsAny(lower, "估值", "valuation") && containsAny(lower, "ai", "人工智能") {
		return fmt.Sprintf("%s AI company valuation 2024 2025 latest funding billion", query)
	}

	if containsAny(lower, "融资", "funding") {
		return fmt.Sprintf("%s funding round 2024 2025 AI startup investment latest", query)
	}

	return fmt.Sprintf("%s 2024 2025 latest news", query)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
