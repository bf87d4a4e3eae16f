// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SearchType classifies a search request so the orchestrator can pick the
// providers best suited to it.
type SearchType string

const (
	SearchGeneral   SearchType = "general"
	SearchNews      SearchType = "news"
	SearchAcademic  SearchType = "academic"
	SearchTechnical SearchType = "technical"
)

// SearchRequest is one query in an orchestrator batch.
type SearchRequest struct {
	// Query is the free-text search query.
	Query string `json:"query" yaml:"query"`

	// Type classifies the search: general, news, academic, or technical.
	// Unrecognized values fall back to the general provider policy.
	Type SearchType `json:"type" yaml:"type"`
}

// SearchResult is one item a provider returned for a query.
type SearchResult struct {
	// URL is the result location. Results with an empty URL are dropped
	// during aggregation.
	URL string `json:"url" yaml:"url"`

	// Title is the page or document title.
	Title string `json:"title" yaml:"title"`

	// Content is the snippet or extracted text.
	Content string `json:"content" yaml:"content"`

	// Score is the provider-reported relevance in [0, 1].
	Score float64 `json:"score" yaml:"score"`
}
