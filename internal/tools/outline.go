// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/research-assistant/internal/model"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// outlineSystemPrompt instructs the model to plan a report structure as a
// strict JSON object so the response can be parsed without cleanup.
const outlineSystemPrompt = `You are a research report planner. Given a research
query and a set of gathered sources, propose a report outline.

Respond with a JSON object of the form:
{"sections": {"<stable-key>": {"title": "...", "description": "..."}, ...}}

Keys must be short lowercase slugs. Propose between 3 and 7 sections. Each
description states what the section will cover and which sources support it.`

// OutlineTool asks the model for a report structure proposal. The result is
// always unapproved; a human reviews it through the approval flow.
type OutlineTool struct {
	client model.Client
}

func NewOutlineTool(client model.Client) *OutlineTool {
	return &OutlineTool{client: client}
}

func (t *OutlineTool) Name() string { return OutlineToolName }

func (t *OutlineTool) Spec() model.ToolSpec {
	return model.ToolSpec{
		Name: OutlineToolName,
		Description: "Propose a report outline for human review, based on the research " +
			"query and the sources gathered so far. Call this after searching, and " +
			"again with revised structure when the reviewer asks for changes.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"research_query": {
					"type": "string",
					"description": "The research question the report answers."
				}
			},
			"required": ["research_query"]
		}`),
	}
}

type outlineArgs struct {
	ResearchQuery string `json:"research_query"`
}

type outlineResponse struct {
	Sections map[string]struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"sections"`
}

// Invoke generates a fresh proposal. A model or parse failure does not fail
// the call: the record gets a fallback proposal whose remarks carry the
// error, so the reviewer sees what went wrong instead of the session dying.
func (t *OutlineTool) Invoke(ctx context.Context, rec *types.ResearchRecord, args json.RawMessage) (*types.ResearchRecord, string, error) {
	var a outlineArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, "", fmt.Errorf("parsing outline arguments: %w", err)
	}
	if rec.Title == "" {
		rec.Title = a.ResearchQuery
	}

	rec.Logs = []types.LogEntry{
		{Message: "Analyzing research query and gathered sources", Done: true},
		{Message: "Generating report outline proposal"},
	}

	raw, err := t.client.CompleteJSON(ctx, outlineSystemPrompt, t.userPrompt(rec, a.ResearchQuery))
	if err == nil {
		var parsed outlineResponse
		if jsonErr := json.Unmarshal([]byte(raw), &parsed); jsonErr != nil {
			err = fmt.Errorf("parsing outline response: %w", jsonErr)
		} else if len(parsed.Sections) == 0 {
			err = fmt.Errorf("outline response has no sections")
		} else {
			proposal := &types.Proposal{Sections: make(map[string]types.ProposalSection, len(parsed.Sections))}
			for key, sec := range parsed.Sections {
				proposal.Sections[key] = types.ProposalSection{Title: sec.Title, Description: sec.Description}
			}
			rec.Proposal = proposal
			rec.Logs[1].Done = true
			return rec, fmt.Sprintf("Generated a report outline proposal with %d sections. It now needs human review.", len(proposal.Sections)), nil
		}
	}

	// Fallback: surface the failure through the proposal itself.
	rec.Proposal = &types.Proposal{
		Sections: make(map[string]types.ProposalSection),
		Remarks:  fmt.Sprintf("Outline generation failed: %v", err),
	}
	rec.Logs[1].Done = true
	rec.Logs[1].Error = err.Error()
	return rec, "Outline generation failed; an empty proposal with the error was recorded.", nil
}

// userPrompt assembles the query, a bounded source digest, and prior review
// guidance into the completion's user message.
func (t *OutlineTool) userPrompt(rec *types.ResearchRecord, query string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Research query: %s\n", query)

	if len(rec.Sources) > 0 {
		b.WriteString("\nGathered sources:\n")
		urls := make([]string, 0, len(rec.Sources))
		for u := range rec.Sources {
			urls = append(urls, u)
		}
		sort.Strings(urls)
		for _, u := range urls {
			src := rec.Sources[u]
			fmt.Fprintf(&b, "- %s (%s): %s\n", src.Title, src.URL, truncate(src.Content, 200))
		}
	}

	if prior := rec.Proposal; prior != nil && len(prior.Sections) > 0 {
		b.WriteString("\nA previous proposal was reviewed. Keep the approved sections, drop the rest,\n")
		b.WriteString("and revise the structure according to the reviewer's remarks.\n")
		keys := make([]string, 0, len(prior.Sections))
		for k := range prior.Sections {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sec := prior.Sections[k]
			status := "not approved"
			if sec.Approved {
				status = "approved"
			}
			fmt.Fprintf(&b, "- [%s] %s: %s (%s)\n", k, sec.Title, sec.Description, status)
		}
		if prior.Remarks != "" {
			fmt.Fprintf(&b, "Reviewer remarks: %s\n", prior.Remarks)
		}
	}

	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
