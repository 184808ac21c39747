// Package cache implements the in-process result cache for answered
// queries. Lookups run through up to three tiers (exact key, semantic
// similarity, keyword overlap); eviction weighs hit frequency against
// recency; hot entries earn a longer TTL. All operations are safe for
// concurrent use.
package cache

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/svtr-ai/ragcore/internal/storage/models"
	"github.com/svtr-ai/ragcore/pkg/logger"
	"github.com/svtr-ai/ragcore/pkg/utils"
)

// MatchKind reports which tier satisfied a lookup.
type MatchKind string

const (
	MatchExact    MatchKind = "exact"
	MatchSemantic MatchKind = "semantic"
	MatchKeyword  MatchKind = "keyword"
)

// Config tunes a Cache instance. Zero values fall back to defaults.
type Config struct {
	Capacity             int
	StandardTTL          time.Duration
	HotTTL               time.Duration
	HotThreshold         int
	SimilarityThreshold  float64
	KeywordOverlap       float64
	KeywordMinConfidence float64
	// CleanupMinSize gates the expiry sweep: below this size the sweep
	// is skipped so small caches never pay the scan cost.
	CleanupMinSize int
	// DisableSemantic turns the semantic tier off.
	DisableSemantic bool
	// EnableKeyword turns the wider keyword-overlap tier on.
	EnableKeyword bool
}

func (c Config) withDefaults() Config {
	if c.Capacity <= 0 {
		c.Capacity = 1000
	}
	if c.StandardTTL <= 0 {
		c.StandardTTL = 30 * time.Minute
	}
	if c.HotTTL <= 0 {
		c.HotTTL = 2 * time.Hour
	}
	if c.HotThreshold <= 0 {
		c.HotThreshold = 3
	}
	if c.SimilarityThreshold <= 0 {
		c.SimilarityThreshold = 0.85
	}
	if c.KeywordOverlap <= 0 {
		c.KeywordOverlap = 0.6
	}
	if c.KeywordMinConfidence <= 0 {
		c.KeywordMinConfidence = 0.7
	}
	if c.CleanupMinSize <= 0 {
		c.CleanupMinSize = 100
	}
	return c
}

type entry struct {
	key        string
	query      string
	intent     string
	keywords   []string
	bundle     models.ContextBundle
	confidence float64
	createdAt  time.Time
	lastAccess time.Time
	hitCount   int
	seq        uint64
}

// effective TTL depends on how often the entry has been hit.
func (e *entry) expiresAt(cfg Config) time.Time {
	if e.hitCount > cfg.HotThreshold {
		return e.createdAt.Add(cfg.HotTTL)
	}
	return e.createdAt.Add(cfg.StandardTTL)
}

func (e *entry) expired(cfg Config, now time.Time) bool {
	return now.After(e.expiresAt(cfg))
}

// Hit describes a successful lookup.
type Hit struct {
	Bundle     models.ContextBundle
	Kind       MatchKind
	Similarity float64
	HitCount   int
}

// Stats is a read-only snapshot of cache counters.
type Stats struct {
	Size     int     `json:"size"`
	Capacity int     `json:"capacity"`
	Queries  uint64  `json:"totalQueries"`
	Hits     uint64  `json:"hits"`
	Misses   uint64  `json:"misses"`
	HitRate  float64 `json:"hitRate"`
}

// Cache is safe for concurrent use by multiple goroutines.
type Cache struct {
	mu      sync.Mutex
	cfg     Config
	entries map[string]*entry
	nextSeq uint64

	queries uint64
	hits    uint64
	misses  uint64

	now func() time.Time
}

func New(cfg Config) *Cache {
	return &Cache{
		cfg:     cfg.withDefaults(),
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

func key(query, intent string) string {
	return utils.HashString(Normalize(query) + ":" + intent)
}

// Lookup tries the exact, semantic and keyword tiers in order and
// returns the first hit. A hit refreshes the entry's hit count and
// access time in place.
func (c *Cache) Lookup(query, intent string) (Hit, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.queries++
	c.sweepLocked(now)

	if e, ok := c.entries[key(query, intent)]; ok {
		if e.expired(c.cfg, now) {
			delete(c.entries, e.key)
		} else {
			return c.hitLocked(e, MatchExact, 1.0, now), true
		}
	}

	if !c.cfg.DisableSemantic {
		if e, sim := c.bestSemanticLocked(query, intent, now); e != nil {
			return c.hitLocked(e, MatchSemantic, sim, now), true
		}
	}

	if c.cfg.EnableKeyword {
		if e, overlap := c.bestKeywordLocked(query, intent, now); e != nil {
			return c.hitLocked(e, MatchKeyword, overlap, now), true
		}
	}

	c.misses++
	return Hit{}, false
}

func (c *Cache) hitLocked(e *entry, kind MatchKind, sim float64, now time.Time) Hit {
	e.hitCount++
	e.lastAccess = now
	c.hits++
	logger.Debug("cache hit",
		zap.String("kind", string(kind)),
		zap.Float64("similarity", sim),
		zap.Int("hit_count", e.hitCount))
	return Hit{Bundle: e.bundle, Kind: kind, Similarity: sim, HitCount: e.hitCount}
}

func (c *Cache) bestSemanticLocked(query, intent string, now time.Time) (*entry, float64) {
	var best *entry
	bestSim := 0.0
	for _, e := range c.entries {
		if e.expired(c.cfg, now) {
			delete(c.entries, e.key)
			continue
		}
		if intent != "" && e.intent != "" && e.intent != intent {
			continue
		}
		sim := Similarity(query, e.query)
		if sim >= c.cfg.SimilarityThreshold && sim > bestSim {
			best, bestSim = e, sim
		}
	}
	return best, bestSim
}

func (c *Cache) bestKeywordLocked(query, intent string, now time.Time) (*entry, float64) {
	keywords := wordPattern.FindAllString(Normalize(query), -1)
	var best *entry
	bestOverlap := 0.0
	for _, e := range c.entries {
		if e.expired(c.cfg, now) {
			delete(c.entries, e.key)
			continue
		}
		if intent != "" && e.intent != "" && e.intent != intent {
			continue
		}
		if e.confidence < c.cfg.KeywordMinConfidence {
			continue
		}
		overlap := keywordOverlap(keywords, e.keywords)
		if overlap > c.cfg.KeywordOverlap && overlap > bestOverlap && shareBusinessKeyword(query, e.query) {
			best, bestOverlap = e, overlap
		}
	}
	return best, bestOverlap
}

// Store inserts or replaces the entry for the query, evicting the
// least valuable entries when over capacity.
func (c *Cache) Store(query, intent string, keywords []string, bundle models.ContextBundle, confidence float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.sweepLocked(now)

	k := key(query, intent)
	c.nextSeq++
	c.entries[k] = &entry{
		key:        k,
		query:      query,
		intent:     intent,
		keywords:   append([]string(nil), keywords...),
		bundle:     bundle,
		confidence: confidence,
		createdAt:  now,
		lastAccess: now,
		seq:        c.nextSeq,
	}

	if len(c.entries) > c.cfg.Capacity {
		c.evictLocked(now)
	}
}

// sweepLocked drops expired entries. Only runs once the cache is big
// enough for the scan to be worth it; there is no background timer.
func (c *Cache) sweepLocked(now time.Time) {
	if len(c.entries) < c.cfg.CleanupMinSize {
		return
	}
	removed := 0
	for k, e := range c.entries {
		if e.expired(c.cfg, now) {
			delete(c.entries, k)
			removed++
		}
	}
	if removed > 0 {
		logger.Debug("cache sweep", zap.Int("removed", removed), zap.Int("remaining", len(c.entries)))
	}
}

// evictionScore favors frequently hit, recently touched entries.
// Lower scores are evicted first.
func evictionScore(e *entry, now time.Time) float64 {
	return float64(e.hitCount) - now.Sub(e.lastAccess).Seconds()/1000
}

// evictLocked removes the lowest-scoring entries until the cache is at
// 90% capacity, so a burst of inserts does not evict on every call.
func (c *Cache) evictLocked(now time.Time) {
	target := c.cfg.Capacity * 9 / 10
	if target < 1 {
		target = 1
	}

	scored := make([]*entry, 0, len(c.entries))
	for _, e := range c.entries {
		scored = append(scored, e)
	}
	sort.Slice(scored, func(i, j int) bool {
		si, sj := evictionScore(scored[i], now), evictionScore(scored[j], now)
		if si != sj {
			return si < sj
		}
		return scored[i].seq < scored[j].seq
	})

	evicted := 0
	for _, e := range scored {
		if len(c.entries) <= target {
			break
		}
		delete(c.entries, e.key)
		evicted++
	}
	logger.Debug("cache eviction", zap.Int("evicted", evicted), zap.Int("size", len(c.entries)))
}

// Stats returns a snapshot of the running counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Size:     len(c.entries),
		Capacity: c.cfg.Capacity,
		Queries:  c.queries,
		Hits:     c.hits,
		Misses:   c.misses,
	}
	if s.Queries > 0 {
		s.HitRate = float64(s.Hits) / float64(s.Queries)
	}
	return s
}

// Clear drops every entry but keeps the counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}
