// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the research assistant.
// The central type is ResearchRecord, the single mutable aggregate one
// conversation session reads and writes.
package types

// ProposalSection is one candidate section in a report proposal.
type ProposalSection struct {
	// Title is the section heading shown to the reviewer.
	Title string `json:"title" yaml:"title"`

	// Description explains what the section will cover.
	Description string `json:"description" yaml:"description"`

	// Approved records the reviewer's decision for this section.
	Approved bool `json:"approved" yaml:"approved"`
}

// Proposal is a structural plan for the report awaiting, or having
// received, human review.
type Proposal struct {
	// Sections maps a stable section key to its proposed content.
	Sections map[string]ProposalSection `json:"sections" yaml:"sections"`

	// Remarks carries the reviewer's free-form feedback, if any.
	Remarks string `json:"remarks,omitempty" yaml:"remarks,omitempty"`

	// Approved records the overall decision for the proposal.
	Approved bool `json:"approved" yaml:"approved"`
}

// ApprovedOutline projects the proposal into an outline containing only the
// sections the reviewer approved. The result is empty for a full rejection.
func (p Proposal) ApprovedOutline() map[string]OutlineSection {
	outline := make(map[string]OutlineSection)
	for key, sec := range p.Sections {
		if sec.Approved {
			outline[key] = OutlineSection{Title: sec.Title, Description: sec.Description}
		}
	}
	return outline
}

// OutlineSection is one approved section of the report outline.
type OutlineSection struct {
	// Title is the section heading.
	Title string `json:"title" yaml:"title"`

	// Description explains what the section covers.
	Description string `json:"description" yaml:"description"`
}

// Section is a drafted section of the report.
type Section struct {
	// Index is the section's stable ordering key, unique within a record.
	Index int `json:"idx" yaml:"idx"`

	// Title is the section heading.
	Title string `json:"title" yaml:"title"`

	// Content is the drafted body; empty until drafting runs for this index.
	Content string `json:"content" yaml:"content"`

	// Footer holds footnotes or citations for the section.
	Footer string `json:"footer,omitempty" yaml:"footer,omitempty"`
}

// Source is a web source discovered during research, keyed by URL in the
// record's Sources map.
type Source struct {
	// URL is the source location and the deduplication key.
	URL string `json:"url" yaml:"url"`

	// Title is the page or document title.
	Title string `json:"title" yaml:"title"`

	// Content is the snippet or extracted text the provider returned.
	Content string `json:"content,omitempty" yaml:"content,omitempty"`

	// Score is the provider-reported relevance in [0, 1].
	Score float64 `json:"score" yaml:"score"`

	// Provider identifies which search provider found this source.
	Provider string `json:"provider" yaml:"provider"`

	// SearchType is the requested search type that surfaced this source.
	SearchType string `json:"search_type" yaml:"search_type"`
}

// LogEntry is one line of the ephemeral progress trace a tool emits while it
// runs. The trace is cleared when the tool invocation finishes.
type LogEntry struct {
	// Message is the human-readable progress line.
	Message string `json:"message" yaml:"message"`

	// Done marks the entry's task as finished.
	Done bool `json:"done" yaml:"done"`

	// Error holds the task failure text, if the task failed.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// Provider identifies the search provider for per-task entries.
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"`

	// ResultCount is the number of items a successful task returned.
	ResultCount int `json:"result_count,omitempty" yaml:"result_count,omitempty"`
}

// ResearchRecord is the shared mutable aggregate for one conversation
// session. The state machine owns it between turns and hands exclusive
// mutation rights to one tool at a time, so no locking is needed.
type ResearchRecord struct {
	// Title is the working title of the report.
	Title string `json:"title" yaml:"title"`

	// Proposal is the pending or most recently reviewed structural plan.
	Proposal *Proposal `json:"proposal,omitempty" yaml:"proposal,omitempty"`

	// Outline holds only the sections the reviewer approved; empty until
	// a proposal is approved.
	Outline map[string]OutlineSection `json:"outline" yaml:"outline"`

	// Sections holds the drafted report sections. Entries are appended or
	// replaced by index, never reordered in place.
	Sections []Section `json:"sections" yaml:"sections"`

	// Sources maps URL to the source discovered at that URL.
	Sources map[string]Source `json:"sources" yaml:"sources"`

	// Logs is the ephemeral progress trace of the tool currently running.
	Logs []LogEntry `json:"logs" yaml:"logs"`

	// Conversation is the append-only message history, one entry per model
	// turn or tool result.
	Conversation []Message `json:"conversation" yaml:"conversation"`
}

// NewResearchRecord returns an empty record ready for a new session.
func NewResearchRecord() *ResearchRecord {
	return &ResearchRecord{
		Outline: make(map[string]OutlineSection),
		Sources: make(map[string]Source),
	}
}

// Clone returns a deep copy of the record. Tools receive a clone and return
// it mutated; the dispatcher commits the result, so a failing tool never
// leaves the live record half-updated.
func (r *ResearchRecord) Clone() *ResearchRecord {
	c := &ResearchRecord{
		Title:    r.Title,
		Outline:  make(map[string]OutlineSection, len(r.Outline)),
		Sections: append([]Section(nil), r.Sections...),
		Sources:  make(map[string]Source, len(r.Sources)),
		Logs:     append([]LogEntry(nil), r.Logs...),
	}
	for k, v := range r.Outline {
		c.Outline[k] = v
	}
	for k, v := range r.Sources {
		c.Sources[k] = v
	}
	if r.Proposal != nil {
		p := *r.Proposal
		p.Sections = make(map[string]ProposalSection, len(r.Proposal.Sections))
		for k, v := range r.Proposal.Sections {
			p.Sections[k] = v
		}
		c.Proposal = &p
	}
	for _, m := range r.Conversation {
		c.Conversation = append(c.Conversation, m.Clone())
	}
	return c
}

// UpsertSection replaces the section with the same index, or appends when no
// section carries that index yet.
func (r *ResearchRecord) UpsertSection(sec Section) {
	for i := range r.Sections {
		if r.Sections[i].Index == sec.Index {
			r.Sections[i] = sec
			return
		}
	}
	r.Sections = append(r.Sections, sec)
}
