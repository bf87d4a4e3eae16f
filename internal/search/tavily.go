// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pdiddy/research-assistant/internal/httputil"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// tavilyAPIBase is the Tavily search endpoint. Declared as a var so tests
// can substitute an httptest server.
var tavilyAPIBase = "https://api.tavily.com/search"

// TavilyProvider queries the Tavily web search API. It is the preferred
// provider for news and general web content.
type TavilyProvider struct {
	Client *http.Client
}

// NewTavilyProvider builds a provider whose HTTP timeout comes from config.
func NewTavilyProvider(cfg types.SearchConfig) *TavilyProvider {
	return &TavilyProvider{Client: &http.Client{Timeout: cfg.Timeout}}
}

// Name returns the provider identifier.
func (p *TavilyProvider) Name() string { return "tavily" }

// Search queries the Tavily API. The current month and year are appended to
// the query to bias toward recent content, and results below the configured
// score threshold are dropped before returning.
func (p *TavilyProvider) Search(ctx context.Context, query string, searchType types.SearchType, cfg types.SearchConfig) ([]types.SearchResult, error) {
	topic := "general"
	if searchType == types.SearchNews {
		topic = "news"
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}

	body, err := json.Marshal(tavilyRequest{
		APIKey:     cfg.TavilyAPIKey,
		Query:      fmt.Sprintf("%s %s", query, time.Now().Format("01-2006")),
		Topic:      topic,
		MaxResults: maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding Tavily request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tavilyAPIBase, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, p.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Tavily API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Tavily API returned HTTP %d", resp.StatusCode)
	}

	var tr tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("parsing Tavily response: %w", err)
	}

	minScore := cfg.MinScore
	if minScore <= 0 {
		minScore = 0.45
	}

	var results []types.SearchResult
	for _, item := range tr.Results {
		if item.Score <= minScore {
			continue
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

// Tavily API JSON structures.
type tavilyRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	Topic      string `json:"topic"`
	MaxResults int    `json:"max_results"`
}

type tavilyResponse struct {
	Results []tavilyResult `json:"results"`
}

type tavilyResult struct {
	URL     string  `json:"url"`
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}
