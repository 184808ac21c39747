// Package retrieval converts a query into an embedding, searches the
// vector index and turns the raw neighbors into a deduplicated,
// confidence-scored match set. Provider failures degrade to an empty
// result instead of propagating.
package retrieval

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/svtr-ai/ragcore/internal/vector/milvus"
	"github.com/svtr-ai/ragcore/pkg/logger"
)

// Embedder turns text into a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Index runs nearest-neighbor queries against the knowledge base.
type Index interface {
	Search(ctx context.Context, queryEmbedding []float32, topK int, source string) ([]milvus.SearchResult, error)
}

// Match is one retained knowledge-base chunk.
type Match struct {
	ID         string  `json:"id"`
	Score      float64 `json:"score"`
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	DocumentID string  `json:"documentId"`
	Source     string  `json:"source"`
}

// Result is the outcome of one retrieval pass. Confidence is the mean
// score of the retained matches, 0 when there are none.
type Result struct {
	Matches    []Match `json:"matches"`
	Confidence float64 `json:"confidence"`
	// Variants counts how many alternative query strings were tried.
	Variants int `json:"variants"`
}

type Config struct {
	TopK int
	// Threshold filters the first pass; VariantThreshold the retries.
	Threshold        float64
	VariantThreshold float64
	// MinMatches triggers variant retries when the first pass retains
	// fewer matches.
	MinMatches  int
	MaxVariants int
	// FingerprintLen is the content-prefix length used for dedupe.
	FingerprintLen int
}

func (c Config) withDefaults() Config {
	if c.TopK <= 0 {
		c.TopK = 8
	}
	if c.Threshold <= 0 {
		c.Threshold = 0.7
	}
	if c.VariantThreshold <= 0 {
		c.VariantThreshold = 0.6
	}
	if c.MinMatches <= 0 {
		c.MinMatches = 3
	}
	if c.MaxVariants <= 0 {
		c.MaxVariants = 2
	}
	if c.FingerprintLen <= 0 {
		c.FingerprintLen = 100
	}
	return c
}

type Retriever struct {
	embedder Embedder
	index    Index
	cfg      Config
}

func New(embedder Embedder, index Index, cfg Config) *Retriever {
	return &Retriever{embedder: embedder, index: index, cfg: cfg.withDefaults()}
}

// Request is one retrieval invocation. Zero TopK and Threshold fall
// back to the retriever's configured defaults.
type Request struct {
	Query     string
	Variants  []string
	TopK      int
	Threshold float64
}

// Retrieve runs the primary query and, when it yields too few matches,
// up to MaxVariants alternative phrasings at a lower threshold. The
// accumulated match set is deduplicated by content fingerprint.
func (r *Retriever) Retrieve(ctx context.Context, req Request) Result {
	topK := req.TopK
	if topK <= 0 {
		topK = r.cfg.TopK
	}
	threshold := req.Threshold
	if threshold <= 0 {
		threshold = r.cfg.Threshold
	}

	seen := map[string]struct{}{}
	matches := r.searchOnce(ctx, req.Query, topK, threshold, seen)

	used := 0
	if len(matches) < r.cfg.MinMatches {
		for _, variant := range req.Variants {
			if used >= r.cfg.MaxVariants {
				break
			}
			if strings.TrimSpace(variant) == "" || variant == req.Query {
				continue
			}
			used++
			matches = append(matches, r.searchOnce(ctx, variant, topK, r.cfg.VariantThreshold, seen)...)
			if len(matches) >= r.cfg.MinMatches {
				break
			}
		}
	}

	return Result{
		Matches:    matches,
		Confidence: meanScore(matches),
		Variants:   used,
	}
}

func (r *Retriever) searchOnce(ctx context.Context, query string, topK int, threshold float64, seen map[string]struct{}) []Match {
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		logger.Warn("Embedding failed, degrading to empty retrieval",
			zap.String("query", query), zap.Error(err))
		return nil
	}

	raw, err := r.index.Search(ctx, vec, topK, "")
	if err != nil {
		logger.Warn("Vector search failed, degrading to empty retrieval",
			zap.String("query", query), zap.Error(err))
		return nil
	}

	matches := make([]Match, 0, len(raw))
	for _, hit := range raw {
		if hit.Score < threshold {
			continue
		}
		fp := fingerprint(hit.Content, r.cfg.FingerprintLen)
		if _, dup := seen[fp]; dup {
			continue
		}
		seen[fp] = struct{}{}
		matches = append(matches, Match{
			ID:         hit.ID,
			Score:      hit.Score,
			Title:      hit.Title,
			Content:    hit.Content,
			DocumentID: hit.DocumentID,
			Source:     hit.Source,
		})
	}
	return matches
}

// fingerprint is a normalized content prefix; chunks sharing it are
// treated as duplicates even when retrieved under different ids.
func fingerprint(content string, n int) string {
	s := strings.ToLower(strings.TrimSpace(content))
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

func meanScore(matches []Match) float64 {
	if len(matches) == 0 {
		return 0
	}
	sum := 0.0
	for _, m := range matches {
		sum += m.Score
	}
	return sum / float64(len(matches))
}
