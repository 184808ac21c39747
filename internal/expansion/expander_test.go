package expansion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	c := NewRuleClassifier()

	tests := []struct {
		query string
		want  Intent
	}{
		{"AI领域有哪些独角兽公司", Intent("company_search")},
		{"find startup in robotics", IntentCompanySearch},
		{"2024年AI投资趋势分析", IntentInvestmentAnalysis},
		{"AI行业市场趋势如何", IntentMarketTrends},
		{"transformer技术介绍", IntentTechnologyInfo},
		{"OpenAI完成新一轮融资", IntentFundingInfo},
		{"Series A funding round size", IntentFundingInfo},
		{"如何评估创始人背景", IntentTeamEvaluation},
		{"你好", IntentGeneral},
		{"", IntentGeneral},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Classify(tt.query), "query %q", tt.query)
	}
}

func TestExpandPreservesOriginal(t *testing.T) {
	e := New()

	for _, q := range []string{
		"AI投资趋势",
		"which companies raised a series A",
		"SVTR平台介绍",
	} {
		res := e.Expand(q, Options{})
		assert.True(t, strings.HasPrefix(res.Expanded, q), "expanded %q must start with original", res.Expanded)
		assert.GreaterOrEqual(t, len(res.Expanded), len(q))
	}
}

func TestExpandConfidenceBounds(t *testing.T) {
	e := New()

	for _, q := range []string{"ai", "投资", "完全无关的随机文本测试", "estimating total addressable market for autonomous driving startups in china"} {
		res := e.Expand(q, Options{})
		assert.GreaterOrEqual(t, res.Confidence, 0.0)
		assert.LessOrEqual(t, res.Confidence, 1.0)
	}
}

func TestExpandEmptyQuery(t *testing.T) {
	e := New()

	res := e.Expand("   ", Options{})
	assert.Equal(t, IntentGeneral, res.Intent)
	assert.Empty(t, res.Keywords)
	assert.Empty(t, res.Synonyms)
}

func TestExpandRespectsMaxExpansions(t *testing.T) {
	e := New()

	res := e.Expand("AI投资公司估值趋势", Options{MaxExpansions: 4})
	added := strings.Fields(strings.TrimPrefix(res.Expanded, res.Original))
	assert.LessOrEqual(t, len(added), 4)
}

func TestExpandCollectsSynonymsAndTerms(t *testing.T) {
	e := New()

	res := e.Expand("AI投资趋势分析", Options{})
	require.Equal(t, IntentInvestmentAnalysis, res.Intent)
	assert.NotEmpty(t, res.Synonyms)
	assert.NotEmpty(t, res.DomainTerms)
	assert.Contains(t, res.Keywords, "ai")
}

func TestTokenizeMixedScripts(t *testing.T) {
	toks := Tokenize("OpenAI的最新估值是多少？")
	assert.Contains(t, toks, "openai")
	assert.NotContains(t, toks, "的")

	toks = Tokenize("what is the TAM for robotics")
	assert.Contains(t, toks, "tam")
	assert.Contains(t, toks, "robotics")
	assert.NotContains(t, toks, "is")
}

func TestSuggestions(t *testing.T) {
	e := New()

	got := e.Suggestions(IntentCompanySearch, []string{"机器人"})
	require.Len(t, got, 3)
	for _, s := range got {
		assert.Contains(t, s, "机器人")
	}

	assert.Nil(t, e.Suggestions(IntentGeneral, []string{"ai"}))
	assert.Nil(t, e.Suggestions(IntentCompanySearch, nil))
}
