// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/research-assistant/internal/httputil"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// jinaAPIBase is the Jina search endpoint (s.jina.ai). Declared as a var so
// tests can substitute an httptest server.
var jinaAPIBase = "https://s.jina.ai"

// JinaProvider queries the Jina web search API. It is the preferred
// provider for academic and technical content.
type JinaProvider struct {
	Client *http.Client
}

// NewJinaProvider builds a provider whose HTTP timeout comes from config.
func NewJinaProvider(cfg types.SearchConfig) *JinaProvider {
	return &JinaProvider{Client: &http.Client{Timeout: cfg.Timeout}}
}

// Name returns the provider identifier.
func (p *JinaProvider) Name() string { return "jina" }

// Search queries the Jina search API. Academic and technical requests are
// biased by a site-neutral qualifier rather than a separate endpoint; the
// API key is optional but unauthenticated calls are rate limited.
func (p *JinaProvider) Search(ctx context.Context, query string, searchType types.SearchType, cfg types.SearchConfig) ([]types.SearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("empty Jina query")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jinaAPIBase+"/"+url.PathEscape(qualifiedQuery(query, searchType)), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", cfg.UserAgent)
	if cfg.JinaAPIKey != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.JinaAPIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, p.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Jina API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Jina API returned HTTP %d", resp.StatusCode)
	}

	var jr jinaResponse
	if err := json.NewDecoder(resp.Body).Decode(&jr); err != nil {
		return nil, fmt.Errorf("parsing Jina response: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}

	var results []types.SearchResult
	for i, item := range jr.Data {
		if i >= maxResults {
			break
		}
		results = append(results, types.SearchResult{
			URL:     item.URL,
			Title:   item.Title,
			Content: item.Content,
			Score:   item.Score,
		})
	}
	return results, nil
}

// qualifiedQuery narrows academic and technical searches toward their
// content class. General and news queries pass through untouched.
func qualifiedQuery(query string, searchType types.SearchType) string {
	switch searchType {
	case types.SearchAcademic:
		return query + " research paper"
	case types.SearchTechnical:
		return query + " documentation"
	default:
		return query
	}
}

// Jina API JSON structures.
type jinaResponse struct {
	Data []jinaResult `json:"data"`
}

type jinaResult struct {
	URL     string  `json:"url"`
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}
