package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svtr-ai/ragcore/internal/storage/models"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	require.NoError(t, c.InitSchema())
	return c
}

func record(id, query string, createdAt time.Time) *models.QueryRecord {
	return &models.QueryRecord{
		ID:            id,
		QueryText:     query,
		Intent:        "investment_analysis",
		Confidence:    0.8,
		SourceCount:   3,
		WebSearchUsed: true,
		CacheHit:      false,
		LatencyMS:     120,
		CreatedAt:     createdAt,
	}
}

func TestInsertAndRecentQueries(t *testing.T) {
	c := newTestClient(t)

	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, c.InsertQueryRecord(record("q1", "AI投资趋势", base)))
	require.NoError(t, c.InsertQueryRecord(record("q2", "OpenAI估值", base.Add(time.Minute))))
	require.NoError(t, c.InsertQueryRecord(record("q3", "A轮融资", base.Add(2*time.Minute))))

	records, err := c.RecentQueries(2)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Newest first.
	assert.Equal(t, "q3", records[0].ID)
	assert.Equal(t, "q2", records[1].ID)

	assert.Equal(t, "OpenAI估值", records[1].QueryText)
	assert.Equal(t, "investment_analysis", records[1].Intent)
	assert.True(t, records[1].WebSearchUsed)
	assert.False(t, records[1].CacheHit)
	assert.Equal(t, 120, records[1].LatencyMS)
}

func TestSourcesRoundTrip(t *testing.T) {
	c := newTestClient(t)

	require.NoError(t, c.InsertQueryRecord(record("q1", "Anthropic融资", time.Now())))
	require.NoError(t, c.InsertQuerySource(&models.QuerySource{
		QueryID:    "q1",
		SourceType: "knowledge",
		SourceRef:  "doc-42",
		Confidence: 0.9,
	}))
	require.NoError(t, c.InsertQuerySource(&models.QuerySource{
		QueryID:    "q1",
		SourceType: "web",
		SourceRef:  "https://reuters.com/anthropic-amazon-funding",
		Confidence: 0.95,
	}))

	sources, err := c.SourcesFor("q1")
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "knowledge", sources[0].SourceType)
	assert.Equal(t, "doc-42", sources[0].SourceRef)
	assert.Equal(t, "web", sources[1].SourceType)
}

func TestSourcesForUnknownQuery(t *testing.T) {
	c := newTestClient(t)
	sources, err := c.SourcesFor("missing")
	require.NoError(t, err)
	assert.Empty(t, sources)
}

func TestSourceRequiresExistingQuery(t *testing.T) {
	c := newTestClient(t)
	err := c.InsertQuerySource(&models.QuerySource{
		QueryID:    "ghost",
		SourceType: "web",
		SourceRef:  "https://example.com",
	})
	assert.Error(t, err)
}
