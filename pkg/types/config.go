// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the per-call HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "research-assistant/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the search orchestrator and its providers.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the per-provider result cap for one query (default 10).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// MaxParallel bounds concurrent provider calls in one orchestrator run.
	// Zero means unbounded.
	MaxParallel int `json:"max_parallel" yaml:"max_parallel"`

	// MinScore drops provider results scored below this threshold
	// (default 0.45, applied by providers that report scores).
	MinScore float64 `json:"min_score" yaml:"min_score"`

	// TavilyAPIKey authenticates against the Tavily search API.
	TavilyAPIKey string `json:"tavily_api_key,omitempty" yaml:"tavily_api_key,omitempty"`

	// JinaAPIKey authenticates against the Jina search and reader APIs.
	// Optional; unauthenticated calls are rate limited.
	JinaAPIKey string `json:"jina_api_key,omitempty" yaml:"jina_api_key,omitempty"`
}

// ModelConfig holds settings for the language-model client.
type ModelConfig struct {
	HTTPConfig `yaml:",inline"`

	// Model is the model identifier (e.g. "gpt-4o-mini").
	Model string `json:"model" yaml:"model"`

	// BaseURL is the chat-completions endpoint base
	// (default "https://api.openai.com/v1").
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// APIKey authenticates against the model API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for rate-limited calls
	// (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// SessionConfig holds settings for the session store.
type SessionConfig struct {
	// Dir is the directory holding the session database (default "sessions").
	Dir string `json:"dir" yaml:"dir"`
}

// AgentConfig groups all component configurations for one assistant.
type AgentConfig struct {
	Search  SearchConfig  `json:"search" yaml:"search"`
	Model   ModelConfig   `json:"model" yaml:"model"`
	Session SessionConfig `json:"session" yaml:"session"`
}
