package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/svtr-ai/ragcore/internal/expansion"
)

func expand(q string) expansion.ExpandedQuery {
	return expansion.New().Expand(q, expansion.Options{})
}

func TestDecideWebSearchScenarios(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  bool
	}{
		{"internal identity stays internal", "SVTR的创始人是谁？", false},
		{"external entity with recency and amount", "OpenAI的最新估值是多少？", true},
		{"pure definitional question", "什么是A轮融资？", false},
		{"definitional form with entity still searches", "什么是OpenAI的最新估值？", true},
		{"market trend intent", "2024年AI市场趋势", true},
		{"entity without other signals", "Anthropic公布了新模型", true},
		{"plain chit-chat", "你好", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecideWebSearch(expand(tt.query))
			assert.Equal(t, tt.want, got.UseWebSearch, "query %q (reason %s)", tt.query, got.Reason)
		})
	}
}

func TestDecideWebSearchIsPure(t *testing.T) {
	eq := expand("OpenAI的最新估值是多少？")

	first := DecideWebSearch(eq)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, DecideWebSearch(eq))
	}
}

func TestDecideWebSearchInternalWithEntity(t *testing.T) {
	// Naming a tracked entity overrides the internal-identity rule.
	d := DecideWebSearch(expand("OpenAI的创始人是谁"))
	assert.True(t, d.UseWebSearch)
	assert.Equal(t, "tracked_entity", d.Reason)
}
