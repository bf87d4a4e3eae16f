// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pdiddy/research-assistant/internal/model"
	"github.com/pdiddy/research-assistant/internal/search"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// SearchTool runs a batch of web searches through the orchestrator and
// replaces the record's source set with the merged result.
type SearchTool struct {
	orchestrator *search.Orchestrator
}

func NewSearchTool(orchestrator *search.Orchestrator) *SearchTool {
	return &SearchTool{orchestrator: orchestrator}
}

func (t *SearchTool) Name() string { return SearchToolName }

func (t *SearchTool) Spec() model.ToolSpec {
	return model.ToolSpec{
		Name: SearchToolName,
		Description: "Run one or more web searches in parallel across the available " +
			"search providers and collect deduplicated sources. Prefer several " +
			"focused queries over one broad query.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"searches": {
					"type": "array",
					"items": {
						"type": "object",
						"properties": {
							"query": {"type": "string", "description": "The search query."},
							"type": {
								"type": "string",
								"enum": ["general", "news", "academic", "technical"],
								"description": "The kind of material the query is after."
							}
						},
						"required": ["query", "type"]
					}
				},
				"enabled_providers": {
					"type": "array",
					"items": {"type": "string"},
					"description": "Optional provider names to restrict the search to, or [\"all\"] for every provider. Omit to let each search type pick its providers."
				}
			},
			"required": ["searches"]
		}`),
	}
}

type searchArgs struct {
	Searches         []types.SearchRequest `json:"searches"`
	EnabledProviders []string              `json:"enabled_providers"`
}

// Invoke executes the batch and commits the merged sources wholesale; a
// later search replaces what an earlier one gathered. The progress trace
// is left on the record for the dispatcher's snapshot.
func (t *SearchTool) Invoke(ctx context.Context, rec *types.ResearchRecord, args json.RawMessage) (*types.ResearchRecord, string, error) {
	var a searchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, "", fmt.Errorf("parsing search arguments: %w", err)
	}

	out, err := t.orchestrator.Execute(ctx, a.Searches, a.EnabledProviders, func(logs []types.LogEntry) {
		rec.Logs = logs
	})
	if err != nil {
		return nil, "", err
	}

	rec.Sources = out.Sources
	rec.Logs = out.Logs
	return rec, out.Summary, nil
}
