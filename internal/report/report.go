// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders a research record into shareable artifacts: a
// Markdown report and a YAML export of the full record.
package report

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// Markdown renders the record as a Markdown report: title, sections in
// index order with their footers, and the source list.
func Markdown(rec *types.ResearchRecord) string {
	var b strings.Builder

	title := rec.Title
	if title == "" {
		title = "Research Report"
	}
	fmt.Fprintf(&b, "# %s\n", title)

	ordered := append([]types.Section(nil), rec.Sections...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })
	for _, sec := range ordered {
		fmt.Fprintf(&b, "\n## %s\n\n%s\n", sec.Title, sec.Content)
		if sec.Footer != "" {
			fmt.Fprintf(&b, "\n%s\n", sec.Footer)
		}
	}

	if len(rec.Sources) > 0 {
		b.WriteString("\n## Sources\n\n")
		urls := make([]string, 0, len(rec.Sources))
		for u := range rec.Sources {
			urls = append(urls, u)
		}
		sort.Strings(urls)
		for _, u := range urls {
			src := rec.Sources[u]
			name := src.Title
			if name == "" {
				name = u
			}
			fmt.Fprintf(&b, "- [%s](%s) (%s)\n", name, u, src.Provider)
		}
	}

	return b.String()
}

// export is the YAML shape of a record export. Sources become a URL-sorted
// list so exports diff cleanly.
type export struct {
	Title    string          `yaml:"title"`
	Proposal *types.Proposal `yaml:"proposal,omitempty"`
	Outline  []outlineEntry  `yaml:"outline,omitempty"`
	Sections []types.Section `yaml:"sections,omitempty"`
	Sources  []types.Source  `yaml:"sources,omitempty"`
}

type outlineEntry struct {
	Key         string `yaml:"key"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// WriteYAML writes the record export to path.
func WriteYAML(path string, rec *types.ResearchRecord) error {
	e := export{
		Title:    rec.Title,
		Proposal: rec.Proposal,
	}

	keys := make([]string, 0, len(rec.Outline))
	for k := range rec.Outline {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sec := rec.Outline[k]
		e.Outline = append(e.Outline, outlineEntry{Key: k, Title: sec.Title, Description: sec.Description})
	}

	e.Sections = append([]types.Section(nil), rec.Sections...)
	sort.Slice(e.Sections, func(i, j int) bool { return e.Sections[i].Index < e.Sections[j].Index })

	urls := make([]string, 0, len(rec.Sources))
	for u := range rec.Sources {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	for _, u := range urls {
		e.Sources = append(e.Sources, rec.Sources[u])
	}

	data, err := yaml.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	return nil
}
