// Package web is the live-search fallback for questions the internal
// knowledge base cannot answer confidently. It fans out to every
// configured provider, merges and scores whatever came back, and on
// total failure degrades to a synthetic low-confidence pointer at
// authoritative sources instead of returning an error.
package web

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/svtr-ai/ragcore/pkg/logger"
)

// Result is one external search hit.
type Result struct {
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	URL         string     `json:"url"`
	Source      string     `json:"source"`
	PublishDate *time.Time `json:"publishDate,omitempty"`
	Relevance   float64    `json:"relevanceScore"`
	Verified    bool       `json:"verified"`
}

type Config struct {
	MaxResults      int
	ProviderTimeout time.Duration
	GoogleAPIKey    string
	GoogleEngineID  string
	Language        string
	// EnrichContent scrapes the result page for fuller text when the
	// snippet alone is too short to be useful context.
	EnrichContent bool
}

func (c Config) withDefaults() Config {
	if c.MaxResults <= 0 {
		c.MaxResults = 5
	}
	if c.ProviderTimeout <= 0 {
		c.ProviderTimeout = 5 * time.Second
	}
	if c.Language == "" {
		c.Language = "zh-CN"
	}
	return c
}

type Client struct {
	cfg        Config
	providers  []Provider
	httpClient *http.Client
	now        func() time.Time
}

func NewClient(cfg Config) *Client {
	cfg = cfg.withDefaults()
	httpClient := &http.Client{Timeout: cfg.ProviderTimeout}

	providers := []Provider{}
	if cfg.GoogleAPIKey != "" && cfg.GoogleEngineID != "" {
		providers = append(providers, newGoogleProvider(cfg.GoogleAPIKey, cfg.GoogleEngineID, cfg.Language, httpClient))
	}
	providers = append(providers, newDuckDuckGoProvider(httpClient), knowledgeProvider{})

	return &Client{
		cfg:        cfg,
		providers:  providers,
		httpClient: httpClient,
		now:        time.Now,
	}
}

// NewClientWithProviders bypasses the default provider set.
func NewClientWithProviders(cfg Config, providers ...Provider) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		cfg:        cfg,
		providers:  providers,
		httpClient: &http.Client{Timeout: cfg.ProviderTimeout},
		now:        time.Now,
	}
}

// Search never returns an error: provider failures are isolated during
// fan-out, and when every provider fails the caller gets a single
// synthetic low-confidence result.
func (c *Client) Search(ctx context.Context, query string) []Result {
	rewritten := Rewrite(query)
	logger.Info("Performing web search",
		zap.String("query", query),
		zap.String("rewritten", rewritten),
	)

	merged := c.fanOut(ctx, rewritten)

	if len(merged) == 0 {
		logger.Warn("All search providers failed, returning fallback result", zap.String("query", query))
		return []Result{fallbackResult(query)}
	}

	scored := scoreResults(merged, query, c.now())
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Relevance > scored[j].Relevance
	})
	if len(scored) > c.cfg.MaxResults {
		scored = scored[:c.cfg.MaxResults]
	}

	if c.cfg.EnrichContent {
		c.enrich(ctx, scored)
	}

	logger.Info("Web search completed", zap.Int("results", len(scored)))
	return scored
}

// fanOut queries every provider concurrently and joins on all of them,
// collecting whichever succeeded. Results are deduplicated by
// normalized URL; first provider to report a URL wins.
func (c *Client) fanOut(ctx context.Context, query string) []Result {
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	collected := make([][]Result, len(c.providers))

	for i, p := range c.providers {
		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()

			pctx, cancel := context.WithTimeout(ctx, c.cfg.ProviderTimeout)
			defer cancel()

			results, err := p.Search(pctx, query, c.cfg.MaxResults)
			if err != nil {
				logger.Warn("Search provider failed",
					zap.String("provider", p.Name()),
					zap.Error(err),
				)
				return
			}
			mu.Lock()
			collected[i] = results
			mu.Unlock()
		}(i, p)
	}
	wg.Wait()

	seen := map[string]struct{}{}
	var merged []Result
	for _, results := range collected {
		for _, r := range results {
			key := normalizeURL(r.URL)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, r)
		}
	}
	return merged
}

func (c *Client) enrich(ctx context.Context, results []Result) {
	for i := range results {
		if len(results[i].Content) >= 200 || results[i].URL == "" {
			continue
		}
		text, err := c.scrapePage(ctx, results[i].URL)
		if err != nil {
			logger.Debug("Page enrichment failed",
				zap.String("url", results[i].URL),
				zap.Error(err),
			)
			continue
		}
		if len(text) > len(results[i].Content) {
			results[i].Content = text
		}
	}
}

func (c *Client) scrapePage(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}

	doc.Find("script, style, nav, footer, header").Remove()
	text := strings.TrimSpace(doc.Find("body").Text())

	return truncateRunes(text, maxScrapeRunes), nil
}

const maxScrapeRunes = 5000

// truncateRunes cuts at a rune boundary so scraped CJK pages never end
// in a split multibyte sequence.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// fallbackResult points the user at authoritative sources when live
// search is unavailable. Its low relevance keeps it below any real
// knowledge-base match in the final ranking.
func fallbackResult(query string) Result {
	return Result{
		Title:     "实时信息查询",
		Content:   fmt.Sprintf("关于\"%s\"的最新信息，建议您查看以下权威来源获取实时数据：TechCrunch、Bloomberg、Reuters等专业媒体，或直接访问相关公司官网。", query),
		URL:       "https://www.google.com/search?q=" + url.QueryEscape(query+" 2024 latest news"),
		Source:    "SVTR智能助手",
		Relevance: 0.3,
		Verified:  false,
	}
}

func normalizeURL(rawURL string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(rawURL)), "/")
}
