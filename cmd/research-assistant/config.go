// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/research-assistant/internal/secrets"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// Secret file names under .secrets/.
const (
	tavilyKeySecret = "tavily-api-key"
	jinaKeySecret   = "jina-api-key"
	modelKeySecret  = "model-api-key"
)

// agentConfig assembles the full configuration from viper (config file and
// RESEARCH_ASSISTANT_* env) with secrets filling in keys the config omits.
func agentConfig() types.AgentConfig {
	http := types.HTTPConfig{
		Timeout:   durationDefault("http.timeout", 30*time.Second),
		UserAgent: stringDefault("http.user_agent", "research-assistant/"+version),
	}

	return types.AgentConfig{
		Search: types.SearchConfig{
			HTTPConfig:   http,
			MaxResults:   intDefault("search.max_results", 10),
			MaxParallel:  viper.GetInt("search.max_parallel"),
			MinScore:     floatDefault("search.min_score", 0.45),
			TavilyAPIKey: secrets.Value(loadedSecrets, tavilyKeySecret, viper.GetString("search.tavily_api_key")),
			JinaAPIKey:   secrets.Value(loadedSecrets, jinaKeySecret, viper.GetString("search.jina_api_key")),
		},
		Model: types.ModelConfig{
			HTTPConfig: http,
			Model:      stringDefault("model.name", "gpt-4o-mini"),
			BaseURL:    viper.GetString("model.base_url"),
			APIKey:     secrets.Value(loadedSecrets, modelKeySecret, viper.GetString("model.api_key")),
			MaxRetries: intDefault("model.max_retries", 3),
		},
		Session: types.SessionConfig{
			Dir: stringDefault("session.dir", "sessions"),
		},
	}
}

func stringDefault(key, fallback string) string {
	if v := viper.GetString(key); v != "" {
		return v
	}
	return fallback
}

func intDefault(key string, fallback int) int {
	if v := viper.GetInt(key); v > 0 {
		return v
	}
	return fallback
}

func floatDefault(key string, fallback float64) float64 {
	if v := viper.GetFloat64(key); v > 0 {
		return v
	}
	return fallback
}

func durationDefault(key string, fallback time.Duration) time.Duration {
	if v := viper.GetDuration(key); v > 0 {
		return v
	}
	return fallback
}
