// Package query is the orchestration core: it sequences expansion,
// cache lookup, vector retrieval, the web-search decision and context
// assembly into a single Answer operation. Per-request provider
// failures degrade to lower-confidence bundles; only construction-time
// configuration problems surface as errors.
package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/svtr-ai/ragcore/internal/cache"
	"github.com/svtr-ai/ragcore/internal/expansion"
	"github.com/svtr-ai/ragcore/internal/metrics"
	"github.com/svtr-ai/ragcore/internal/retrieval"
	"github.com/svtr-ai/ragcore/internal/search/web"
	"github.com/svtr-ai/ragcore/internal/storage/models"
	"github.com/svtr-ai/ragcore/pkg/logger"
	"github.com/svtr-ai/ragcore/pkg/utils"
)

// Retriever runs the internal knowledge-base side of a query.
type Retriever interface {
	Retrieve(ctx context.Context, req retrieval.Request) retrieval.Result
}

// Searcher is the live web-search fallback.
type Searcher interface {
	Search(ctx context.Context, query string) []web.Result
}

// Expander classifies and enriches raw queries.
type Expander interface {
	Expand(query string, opts expansion.Options) expansion.ExpandedQuery
	Suggestions(intent expansion.Intent, keywords []string) []string
}

// History records answered queries for later inspection.
type History interface {
	InsertQueryRecord(record *models.QueryRecord) error
	InsertQuerySource(source *models.QuerySource) error
}

// BundleStore is the optional persistent cache tier behind the
// in-memory one.
type BundleStore interface {
	GetBundle(ctx context.Context, key string) (models.ContextBundle, bool)
	SetBundle(ctx context.Context, key string, bundle models.ContextBundle, ttl time.Duration) error
}

type Config struct {
	Expander  Expander
	Cache     *cache.Cache
	Retriever Retriever
	// Searcher, History and Persistent are optional; a nil Searcher
	// disables the web fallback entirely.
	Searcher   Searcher
	History    History
	Persistent BundleStore

	// MaxSources caps the bundle size. MinConfidence is the internal
	// confidence below which the web fallback fires even without a
	// decision signal.
	MaxSources    int
	MinConfidence float64
	PersistTTL    time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxSources <= 0 {
		c.MaxSources = 5
	}
	if c.MinConfidence <= 0 {
		c.MinConfidence = 0.5
	}
	if c.PersistTTL <= 0 {
		c.PersistTTL = 30 * time.Minute
	}
	return c
}

// Options tunes one Answer call. The zero value gives topK 8,
// threshold 0.7 and the web fallback enabled.
type Options struct {
	TopK               int
	Threshold          float64
	DisableWebFallback bool
}

type Engine struct {
	cfg Config
	now func() time.Time
}

// NewEngine validates the wiring. A missing required provider is a
// configuration error and prevents construction.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Expander == nil {
		return nil, fmt.Errorf("query engine: expander is required")
	}
	if cfg.Cache == nil {
		return nil, fmt.Errorf("query engine: cache is required")
	}
	if cfg.Retriever == nil {
		return nil, fmt.Errorf("query engine: retriever is required")
	}
	return &Engine{cfg: cfg.withDefaults(), now: time.Now}, nil
}

// Answer produces a context bundle for the raw query. It never fails
// per-request: degraded providers yield a valid bundle with lower
// confidence, empty sources and confidence 0 at worst.
func (e *Engine) Answer(ctx context.Context, rawQuery string, opts Options) models.ContextBundle {
	start := e.now()
	raw := strings.TrimSpace(rawQuery)

	eq := e.cfg.Expander.Expand(raw, expansion.Options{})
	metrics.ExpansionConfidence.Observe(eq.Confidence)

	if raw == "" {
		return assembleBundle(eq, nil, nil, e.cfg.MaxSources, e.now())
	}

	logger.Info("Answering query",
		zap.String("query", raw),
		zap.String("intent", string(eq.Intent)),
	)

	if bundle, ok := e.lookupCached(ctx, raw, eq); ok {
		e.record(raw, eq, bundle, true, start)
		e.observe(eq, bundle, start)
		return bundle
	}

	res := e.cfg.Retriever.Retrieve(ctx, retrieval.Request{
		Query:     eq.Expanded,
		Variants:  variantsFor(eq),
		TopK:      opts.TopK,
		Threshold: opts.Threshold,
	})
	metrics.RetrievalMatches.Observe(float64(len(res.Matches)))

	var webResults []web.Result
	if !opts.DisableWebFallback && e.cfg.Searcher != nil {
		decision := DecideWebSearch(eq)
		reason := decision.Reason
		use := decision.UseWebSearch
		if !use && res.Confidence < e.cfg.MinConfidence {
			use = true
			reason = "low_confidence"
		}
		if use {
			metrics.WebSearchTriggered.WithLabelValues(reason).Inc()
			logger.Info("Web search fallback triggered",
				zap.String("reason", reason),
				zap.Float64("internal_confidence", res.Confidence),
			)
			webResults = e.cfg.Searcher.Search(ctx, raw)
			metrics.WebSearchResults.Observe(float64(len(webResults)))
		}
	}

	bundle := assembleBundle(eq, res.Matches, webResults, e.cfg.MaxSources, e.now())

	e.storeCached(ctx, raw, eq, bundle)
	e.record(raw, eq, bundle, false, start)
	e.observe(eq, bundle, start)

	logger.Info("Query answered",
		zap.String("query", raw),
		zap.Int("sources", len(bundle.Sources)),
		zap.Float64("confidence", bundle.Confidence),
		zap.Bool("web_search", bundle.WebSearch),
	)
	return bundle
}

// Suggestions proposes follow-up queries for the raw query's intent.
func (e *Engine) Suggestions(rawQuery string) []string {
	eq := e.cfg.Expander.Expand(rawQuery, expansion.Options{})
	return e.cfg.Expander.Suggestions(eq.Intent, eq.Keywords)
}

// CacheStats exposes the in-memory cache counters.
func (e *Engine) CacheStats() cache.Stats {
	return e.cfg.Cache.Stats()
}

// observe records the per-answer metrics. Both exit paths run through
// it so cache hits stay visible in the latency and volume series.
func (e *Engine) observe(eq expansion.ExpandedQuery, bundle models.ContextBundle, start time.Time) {
	metrics.ConfidenceScore.Observe(bundle.Confidence)
	metrics.QueryDuration.WithLabelValues(string(eq.Intent)).Observe(e.now().Sub(start).Seconds())
	metrics.QueryTotal.WithLabelValues("ok").Inc()
	metrics.CacheSize.Set(float64(e.cfg.Cache.Stats().Size))
}

func (e *Engine) lookupCached(ctx context.Context, raw string, eq expansion.ExpandedQuery) (models.ContextBundle, bool) {
	if hit, ok := e.cfg.Cache.Lookup(raw, string(eq.Intent)); ok {
		metrics.CacheHits.WithLabelValues(string(hit.Kind)).Inc()
		return hit.Bundle, true
	}
	metrics.CacheMisses.WithLabelValues("memory").Inc()

	if e.cfg.Persistent != nil {
		if bundle, ok := e.cfg.Persistent.GetBundle(ctx, persistKey(raw, eq)); ok {
			metrics.CacheHits.WithLabelValues("persistent").Inc()
			// Warm the in-memory tier so the next lookup stays local.
			e.cfg.Cache.Store(raw, string(eq.Intent), eq.Keywords, bundle, bundle.Confidence)
			return bundle, true
		}
		metrics.CacheMisses.WithLabelValues("persistent").Inc()
	}
	return models.ContextBundle{}, false
}

func (e *Engine) storeCached(ctx context.Context, raw string, eq expansion.ExpandedQuery, bundle models.ContextBundle) {
	e.cfg.Cache.Store(raw, string(eq.Intent), eq.Keywords, bundle, bundle.Confidence)

	if e.cfg.Persistent != nil {
		if err := e.cfg.Persistent.SetBundle(ctx, persistKey(raw, eq), bundle, e.cfg.PersistTTL); err != nil {
			logger.Warn("Persistent cache write failed", zap.Error(err))
		}
	}
}

func (e *Engine) record(raw string, eq expansion.ExpandedQuery, bundle models.ContextBundle, cacheHit bool, start time.Time) {
	if e.cfg.History == nil {
		return
	}

	queryID := uuid.New().String()
	err := e.cfg.History.InsertQueryRecord(&models.QueryRecord{
		ID:            queryID,
		QueryText:     raw,
		Intent:        string(eq.Intent),
		Confidence:    bundle.Confidence,
		SourceCount:   len(bundle.Sources),
		WebSearchUsed: bundle.WebSearch,
		CacheHit:      cacheHit,
		LatencyMS:     int(e.now().Sub(start).Milliseconds()),
		CreatedAt:     e.now(),
	})
	if err != nil {
		logger.Warn("Failed to record query", zap.Error(err))
		return
	}

	for _, item := range bundle.Sources {
		ref := item.URL
		if ref == "" {
			ref = item.DocumentID
		}
		err := e.cfg.History.InsertQuerySource(&models.QuerySource{
			QueryID:    queryID,
			SourceType: string(item.Kind),
			SourceRef:  ref,
			Confidence: item.Score,
		})
		if err != nil {
			logger.Warn("Failed to record query source", zap.Error(err))
		}
	}
}

func persistKey(raw string, eq expansion.ExpandedQuery) string {
	return utils.HashString(cache.Normalize(raw) + ":" + string(eq.Intent))
}

// variantsFor builds alternative retrieval phrasings: the original
// text as typed, then the original enriched with its top synonyms.
func variantsFor(eq expansion.ExpandedQuery) []string {
	variants := []string{eq.Original}
	if len(eq.Synonyms) > 0 {
		n := len(eq.Synonyms)
		if n > 3 {
			n = 3
		}
		variants = append(variants, eq.Original+" "+strings.Join(eq.Synonyms[:n], " "))
	}
	return variants
}
