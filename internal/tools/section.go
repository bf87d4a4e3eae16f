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

const sectionSystemPrompt = `You are a research report writer. Draft one section
of the report from the approved outline and the gathered sources.

Respond with a JSON object of the form:
{"title": "...", "content": "...", "footer": "..."}

Content is Markdown prose grounded in the sources. Footer lists the cited
sources as footnotes, or is empty when the section cites nothing.`

// SectionTool drafts one approved outline section via the model and commits
// it into the record by index.
type SectionTool struct {
	client model.Client
}

func NewSectionTool(client model.Client) *SectionTool {
	return &SectionTool{client: client}
}

func (t *SectionTool) Name() string { return SectionToolName }

func (t *SectionTool) Spec() model.ToolSpec {
	return model.ToolSpec{
		Name: SectionToolName,
		Description: "Draft one section of the report. Only sections present in the " +
			"approved outline can be drafted; call once per section, in order.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"key": {
					"type": "string",
					"description": "The outline key of the section to draft."
				},
				"index": {
					"type": "integer",
					"description": "The section's position in the report, starting at 0."
				}
			},
			"required": ["key", "index"]
		}`),
	}
}

type sectionArgs struct {
	Key   string `json:"key"`
	Index int    `json:"index"`
}

type sectionResponse struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Footer  string `json:"footer"`
}

// Invoke drafts the named section. Drafting before approval, or for a key the
// reviewer did not approve, is an error the model sees in its tool result.
func (t *SectionTool) Invoke(ctx context.Context, rec *types.ResearchRecord, args json.RawMessage) (*types.ResearchRecord, string, error) {
	var a sectionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, "", fmt.Errorf("parsing section arguments: %w", err)
	}

	if len(rec.Outline) == 0 {
		return nil, "", fmt.Errorf("no approved outline; propose one and get it reviewed first")
	}
	outlineSec, ok := rec.Outline[a.Key]
	if !ok {
		return nil, "", fmt.Errorf("section %q is not in the approved outline", a.Key)
	}

	rec.Logs = []types.LogEntry{{Message: fmt.Sprintf("Drafting section %q", outlineSec.Title)}}

	raw, err := t.client.CompleteJSON(ctx, sectionSystemPrompt, t.userPrompt(rec, outlineSec))
	if err != nil {
		return nil, "", fmt.Errorf("drafting section %q: %w", a.Key, err)
	}

	var parsed sectionResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, "", fmt.Errorf("parsing section response: %w", err)
	}
	if parsed.Title == "" {
		parsed.Title = outlineSec.Title
	}

	rec.UpsertSection(types.Section{
		Index:   a.Index,
		Title:   parsed.Title,
		Content: parsed.Content,
		Footer:  parsed.Footer,
	})
	rec.Logs[0].Done = true
	return rec, fmt.Sprintf("Drafted section %d: %s", a.Index, parsed.Title), nil
}

func (t *SectionTool) userPrompt(rec *types.ResearchRecord, sec types.OutlineSection) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Report title: %s\n", rec.Title)
	fmt.Fprintf(&b, "Section to draft: %s\n", sec.Title)
	fmt.Fprintf(&b, "What it covers: %s\n", sec.Description)

	if len(rec.Sources) > 0 {
		b.WriteString("\nSources:\n")
		urls := make([]string, 0, len(rec.Sources))
		for u := range rec.Sources {
			urls = append(urls, u)
		}
		sort.Strings(urls)
		for _, u := range urls {
			src := rec.Sources[u]
			fmt.Fprintf(&b, "- %s (%s): %s\n", src.Title, src.URL, truncate(src.Content, 500))
		}
	}

	if len(rec.Sections) > 0 {
		b.WriteString("\nSections already drafted (do not repeat their content):\n")
		for _, s := range rec.Sections {
			fmt.Fprintf(&b, "- %d: %s\n", s.Index, s.Title)
		}
	}

	return b.String()
}
