package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svtr-ai/ragcore/internal/storage/models"
)

func bundleFor(query string) models.ContextBundle {
	return models.ContextBundle{Query: query, Text: "context for " + query, Confidence: 0.8}
}

func fixedClock(c *Cache, at *time.Time) {
	c.now = func() time.Time { return *at }
}

func TestExactHitShortCircuits(t *testing.T) {
	c := New(Config{})

	c.Store("OpenAI的最新估值是多少？", "funding_info", []string{"openai", "估值"}, bundleFor("q"), 0.8)

	hit, ok := c.Lookup("OpenAI的最新估值是多少？", "funding_info")
	require.True(t, ok)
	assert.Equal(t, MatchExact, hit.Kind)
	assert.Equal(t, 1.0, hit.Similarity)
	assert.Equal(t, 1, hit.HitCount)

	// Repeated lookup keeps incrementing the hit count in place.
	hit, ok = c.Lookup("openai的最新估值是多少", "funding_info")
	require.True(t, ok, "normalization must make punctuation and case irrelevant")
	assert.Equal(t, MatchExact, hit.Kind)
	assert.Equal(t, 2, hit.HitCount)
}

func TestMissOnDifferentIntent(t *testing.T) {
	c := New(Config{DisableSemantic: true})

	c.Store("ai funding trends", "market_trends", nil, bundleFor("q"), 0.8)

	_, ok := c.Lookup("ai funding trends", "company_search")
	assert.False(t, ok)
}

func TestSemanticTier(t *testing.T) {
	c := New(Config{})

	c.Store("latest openai valuation", "funding_info", nil, bundleFor("q"), 0.8)

	// Same token set in a different order is not an exact key match but
	// scores 1.0 on the semantic tier.
	hit, ok := c.Lookup("openai latest valuation", "funding_info")
	require.True(t, ok)
	assert.Equal(t, MatchSemantic, hit.Kind)
	assert.InDelta(t, 1.0, hit.Similarity, 1e-9)

	// Below the 0.85 threshold there is no hit.
	_, ok = c.Lookup("openai ipo rumors this year", "funding_info")
	assert.False(t, ok)
}

func TestSimilarityMonotonicity(t *testing.T) {
	base := "ai venture funding china"

	low := Similarity(base, "ai venture")
	high := Similarity(base, "ai venture funding")
	assert.Greater(t, high, low)

	assert.InDelta(t, 1.0, Similarity(base, base), 1e-9)
	assert.GreaterOrEqual(t, Similarity("a", "b"), 0.0)
}

func TestKeywordTier(t *testing.T) {
	c := New(Config{DisableSemantic: true, EnableKeyword: true})

	c.Store("openai funding valuation", "funding_info", []string{"openai", "funding", "valuation"}, bundleFor("q"), 0.9)

	hit, ok := c.Lookup("openai valuation outlook", "funding_info")
	require.True(t, ok)
	assert.Equal(t, MatchKeyword, hit.Kind)
	assert.Greater(t, hit.Similarity, 0.6)
}

func TestKeywordTierRequiresConfidence(t *testing.T) {
	c := New(Config{DisableSemantic: true, EnableKeyword: true})

	c.Store("openai funding valuation", "funding_info", []string{"openai", "funding", "valuation"}, bundleFor("q"), 0.5)

	_, ok := c.Lookup("openai valuation outlook", "funding_info")
	assert.False(t, ok)
}

func TestEvictionKeepsHighestScored(t *testing.T) {
	c := New(Config{Capacity: 5, DisableSemantic: true})
	at := time.Now()
	fixedClock(c, &at)

	for i := 1; i <= 5; i++ {
		c.Store(fmt.Sprintf("query number %d about topic%d", i, i), "general", nil, bundleFor("q"), 0.8)
	}
	// Reward entry 2 with a hit so eviction prefers the cold ones.
	_, ok := c.Lookup("query number 2 about topic2", "general")
	require.True(t, ok)

	c.Store("query number 6 about topic6", "general", nil, bundleFor("q"), 0.8)
	c.Store("query number 7 about topic7", "general", nil, bundleFor("q"), 0.8)

	assert.LessOrEqual(t, c.Stats().Size, 5)

	_, ok = c.Lookup("query number 2 about topic2", "general")
	assert.True(t, ok, "hit entry must survive eviction")
	_, ok = c.Lookup("query number 1 about topic1", "general")
	assert.False(t, ok, "oldest zero-hit entry must be evicted first")
}

func TestHotEntriesOutliveStandardTTL(t *testing.T) {
	c := New(Config{StandardTTL: 30 * time.Minute, HotTTL: 2 * time.Hour, HotThreshold: 3, DisableSemantic: true})
	at := time.Now()
	fixedClock(c, &at)

	c.Store("hot venture query", "general", nil, bundleFor("hot"), 0.8)
	c.Store("cold venture query", "general", nil, bundleFor("cold"), 0.8)

	for i := 0; i < 4; i++ {
		_, ok := c.Lookup("hot venture query", "general")
		require.True(t, ok)
	}

	at = at.Add(time.Hour)

	_, ok := c.Lookup("cold venture query", "general")
	assert.False(t, ok, "standard TTL expired")

	hit, ok := c.Lookup("hot venture query", "general")
	require.True(t, ok, "hot TTL still in effect")
	assert.Equal(t, MatchExact, hit.Kind)
}

func TestStatsSnapshot(t *testing.T) {
	c := New(Config{DisableSemantic: true})

	c.Store("some query", "general", nil, bundleFor("q"), 0.8)
	c.Lookup("some query", "general")
	c.Lookup("another query", "general")

	s := c.Stats()
	assert.Equal(t, 1, s.Size)
	assert.Equal(t, uint64(2), s.Queries)
	assert.Equal(t, uint64(1), s.Hits)
	assert.Equal(t, uint64(1), s.Misses)
	assert.InDelta(t, 0.5, s.HitRate, 1e-9)
}

func TestClear(t *testing.T) {
	c := New(Config{})
	c.Store("some query", "general", nil, bundleFor("q"), 0.8)
	c.Clear()
	assert.Equal(t, 0, c.Stats().Size)
}
