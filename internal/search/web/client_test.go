package web

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name    string
	results []Result
	err     error
	delay   time.Duration
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func TestSearchAllProvidersFail(t *testing.T) {
	c := NewClientWithProviders(Config{},
		&stubProvider{name: "p1", err: errors.New("quota exceeded")},
		&stubProvider{name: "p2", err: errors.New("network unreachable")},
	)

	results := c.Search(context.Background(), "OpenAI估值")

	require.Len(t, results, 1)
	assert.InDelta(t, 0.3, results[0].Relevance, 1e-9)
	assert.False(t, results[0].Verified)
	assert.Contains(t, results[0].Content, "OpenAI估值")
}

func TestSearchIsolatesProviderFailures(t *testing.T) {
	good := &stubProvider{name: "good", results: []Result{
		{Title: "OpenAI funding news", Content: "OpenAI raised a round", URL: "https://techcrunch.com/a", Relevance: 0.8},
	}}
	bad := &stubProvider{name: "bad", err: errors.New("boom")}

	c := NewClientWithProviders(Config{}, bad, good)
	results := c.Search(context.Background(), "openai funding")

	require.Len(t, results, 1)
	assert.Equal(t, "OpenAI funding news", results[0].Title)
}

func TestSearchDeduplicatesByURL(t *testing.T) {
	p1 := &stubProvider{name: "p1", results: []Result{
		{Title: "first", URL: "https://example.com/story/", Relevance: 0.8},
	}}
	p2 := &stubProvider{name: "p2", results: []Result{
		{Title: "second", URL: "HTTPS://EXAMPLE.COM/story", Relevance: 0.9},
		{Title: "third", URL: "https://example.com/other", Relevance: 0.6},
	}}

	c := NewClientWithProviders(Config{}, p1, p2)
	results := c.Search(context.Background(), "some query")

	require.Len(t, results, 2)
	for _, r := range results {
		assert.NotEqual(t, "second", r.Title, "duplicate URL must be dropped")
	}
}

func TestSearchRanksAndTruncates(t *testing.T) {
	var many []Result
	for _, u := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		many = append(many, Result{Title: u, URL: "https://example.com/" + u, Relevance: 0.5})
	}
	many[3].Relevance = 0.9

	c := NewClientWithProviders(Config{MaxResults: 3}, &stubProvider{name: "p", results: many})
	results := c.Search(context.Background(), "unrelated words")

	require.Len(t, results, 3)
	assert.Equal(t, "d", results[0].Title)
}

func TestSearchTimesOutSlowProvider(t *testing.T) {
	slow := &stubProvider{name: "slow", delay: 500 * time.Millisecond, results: []Result{
		{Title: "late", URL: "https://example.com/late"},
	}}
	fast := &stubProvider{name: "fast", results: []Result{
		{Title: "fast", URL: "https://example.com/fast", Relevance: 0.7},
	}}

	c := NewClientWithProviders(Config{ProviderTimeout: 50 * time.Millisecond}, slow, fast)
	results := c.Search(context.Background(), "query")

	require.Len(t, results, 1)
	assert.Equal(t, "fast", results[0].Title)
}

func TestScoringTrustedAndRecent(t *testing.T) {
	now := time.Now()
	recent := now.Add(-24 * time.Hour)
	stale := now.Add(-90 * 24 * time.Hour)

	results := scoreResults([]Result{
		{Title: "openai valuation news", Content: "openai raised funding", URL: "https://techcrunch.com/x", Relevance: 0.5, PublishDate: &recent},
		{Title: "unrelated", Content: "nothing here", URL: "https://randomblog.example/x", Relevance: 0.5, PublishDate: &stale},
	}, "openai valuation", now)

	assert.True(t, results[0].Verified, "trusted domain marks verified")
	assert.Greater(t, results[0].Relevance, results[1].Relevance)
	assert.False(t, results[1].Verified)
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Relevance, 0.0)
		assert.LessOrEqual(t, r.Relevance, 1.0)
	}
}

func TestKnowledgeProviderMatchesEntities(t *testing.T) {
	results, err := knowledgeProvider{}.Search(context.Background(), "OpenAI的最新估值是多少？", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Verified)
	assert.Contains(t, results[0].Title, "OpenAI")

	results, err = knowledgeProvider{}.Search(context.Background(), "什么是A轮融资？", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRewriteTemplates(t *testing.T) {
	assert.Equal(t,
		"OpenAI valuation 2024 2025 latest funding round billion",
		Rewrite("OpenAI的最新估值是多少？"))

	assert.Equal(t,
		"Anthropic latest news 2024 2025 Claude AI update",
		Rewrite("Anthropic怎么样"))

	generic := Rewrite("量子计算创业公司")
	assert.True(t, strings.HasSuffix(generic, "2024 2025 latest news"))
}

func TestTruncateRunesNeverSplitsMultibyte(t *testing.T) {
	s := strings.Repeat("投资分析", 5)

	out := truncateRunes(s, 7)
	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, 7, utf8.RuneCountInString(out))
	assert.Equal(t, "投资分析投资分", out)

	assert.Equal(t, s, truncateRunes(s, 100))
	assert.Equal(t, "", truncateRunes("", 10))
}
