// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/research-assistant/pkg/types"
)

const instructions = `You are a research assistant that produces well-sourced
reports through a fixed workflow:

1. Use intelligent_search to gather sources for the research question. Prefer
   several focused queries with appropriate search types over one broad query.
2. Use outline_writer to propose a report structure from the sources.
3. Use review_proposal to submit the proposal for human review. Never draft
   sections before the outline is approved.
4. After approval, use section_writer once per approved section, in order.
5. When every approved section is drafted, summarize the report and finish.

If the reviewer rejects the proposal, revise it according to their remarks and
submit it again. Answer simple questions directly without tools.`

// buildContext assembles the system-level context for one model turn from
// the record's state as of the start of that turn. The conversation history
// travels separately; this is only the standing context.
func buildContext(rec *types.ResearchRecord, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Today's date is %s.\n\n", now.Format("January 2, 2006"))
	b.WriteString(instructions)

	if rec.Title != "" {
		fmt.Fprintf(&b, "\n\nWorking title: %s", rec.Title)
	}

	// A reviewed-but-unresolved proposal is shown in full until an outline
	// exists, so a rejection's remarks steer the regeneration.
	if p := rec.Proposal; p != nil && p.Remarks != "" && len(rec.Outline) == 0 {
		b.WriteString("\n\nThe previous proposal and the reviewer's remarks:\n")
		for _, key := range sortedKeys(p.Sections) {
			sec := p.Sections[key]
			fmt.Fprintf(&b, "- [%s] %s: %s\n", key, sec.Title, sec.Description)
		}
		fmt.Fprintf(&b, "Remarks: %s", p.Remarks)
	}

	if len(rec.Outline) > 0 {
		b.WriteString("\n\nApproved outline:\n")
		for _, key := range sortedOutlineKeys(rec.Outline) {
			sec := rec.Outline[key]
			fmt.Fprintf(&b, "- [%s] %s: %s\n", key, sec.Title, sec.Description)
		}
	}

	if len(rec.Sections) > 0 {
		b.WriteString("\nDrafted sections:\n")
		ordered := append([]types.Section(nil), rec.Sections...)
		sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })
		for _, sec := range ordered {
			fmt.Fprintf(&b, "\n## %d. %s\n%s\n", sec.Index, sec.Title, sec.Content)
			if sec.Footer != "" {
				fmt.Fprintf(&b, "%s\n", sec.Footer)
			}
		}
	}

	return b.String()
}

func sortedKeys(m map[string]types.ProposalSection) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedOutlineKeys(m map[string]types.OutlineSection) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
