package query

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/svtr-ai/ragcore/internal/expansion"
	"github.com/svtr-ai/ragcore/internal/retrieval"
	"github.com/svtr-ai/ragcore/internal/search/web"
	"github.com/svtr-ai/ragcore/internal/storage/models"
)

const maxContentPerSource = 500

// assembleBundle ranks internal matches and web results together,
// keeps the top n and renders the citation-bearing context text.
// Confidence is the mean score of the retained sources; an empty
// bundle has confidence 0 and no citations.
func assembleBundle(eq expansion.ExpandedQuery, matches []retrieval.Match, webResults []web.Result, n int, now time.Time) models.ContextBundle {
	items := make([]models.SourceItem, 0, len(matches)+len(webResults))

	for _, m := range matches {
		items = append(items, models.SourceItem{
			Kind:       models.SourceKnowledge,
			ID:         m.ID,
			Title:      m.Title,
			Content:    m.Content,
			Source:     m.Source,
			Score:      m.Score,
			DocumentID: m.DocumentID,
		})
	}
	for _, r := range webResults {
		items = append(items, models.SourceItem{
			Kind:        models.SourceWeb,
			ID:          r.URL,
			Title:       r.Title,
			Content:     r.Content,
			Source:      r.Source,
			Score:       r.Relevance,
			URL:         r.URL,
			Verified:    r.Verified,
			PublishDate: r.PublishDate,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
	if len(items) > n {
		items = items[:n]
	}

	bundle := models.ContextBundle{
		Query:       eq.Original,
		Intent:      string(eq.Intent),
		Sources:     items,
		GeneratedAt: now,
		WebSearch:   len(webResults) > 0,
	}

	if len(items) == 0 {
		bundle.Citations = []string{}
		return bundle
	}

	var text strings.Builder
	seen := map[string]struct{}{}
	citations := make([]string, 0, len(items))
	sum := 0.0

	for i, item := range items {
		sum += item.Score

		fmt.Fprintf(&text, "[来源 %d] %s（%s）\n%s\n\n",
			i+1, item.Title, item.Source, truncate(item.Content, maxContentPerSource))

		citation := renderCitation(item)
		if _, dup := seen[citation]; dup {
			continue
		}
		seen[citation] = struct{}{}
		citations = append(citations, citation)
	}

	bundle.Text = strings.TrimSpace(text.String())
	bundle.Citations = citations
	bundle.Confidence = sum / float64(len(items))
	if bundle.Confidence > 1.0 {
		bundle.Confidence = 1.0
	}
	return bundle
}

func renderCitation(item models.SourceItem) string {
	if item.Kind == models.SourceWeb && item.URL != "" {
		return fmt.Sprintf("%s - %s", item.Title, item.URL)
	}
	if item.Source != "" {
		return fmt.Sprintf("%s - %s", item.Title, item.Source)
	}
	return item.Title
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
