// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tools implements the fixed tool set the model can invoke and the
// dispatcher that routes a model turn's tool-call batch onto it.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pdiddy/research-assistant/internal/model"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// Tool names are part of the wire contract between the model and the
// dispatcher and must not collide.
const (
	SearchToolName  = "intelligent_search"
	OutlineToolName = "outline_writer"
	SectionToolName = "section_writer"
	ReviewToolName  = "review_proposal"
)

// Tool is one named capability. Invoke receives a private clone of the
// research record, mutates it, and returns it with a human-readable summary
// for the tool-result message. The dispatcher commits the returned record
// only when err is nil.
type Tool interface {
	Name() string
	Spec() model.ToolSpec
	Invoke(ctx context.Context, rec *types.ResearchRecord, args json.RawMessage) (*types.ResearchRecord, string, error)
}

// Registry is the fixed, named tool set resolved at startup.
type Registry struct {
	order  []Tool
	byName map[string]Tool
}

// NewRegistry builds a registry. Name collisions are a startup error, not a
// runtime surprise.
func NewRegistry(toolset ...Tool) (*Registry, error) {
	r := &Registry{byName: make(map[string]Tool, len(toolset))}
	for _, t := range toolset {
		if _, dup := r.byName[t.Name()]; dup {
			return nil, fmt.Errorf("duplicate tool name %q", t.Name())
		}
		r.byName[t.Name()] = t
		r.order = append(r.order, t)
	}
	return r, nil
}

// Specs returns the tool declarations for the model, in registration order.
func (r *Registry) Specs() []model.ToolSpec {
	specs := make([]model.ToolSpec, 0, len(r.order))
	for _, t := range r.order {
		specs = append(specs, t.Spec())
	}
	return specs
}

// Lookup resolves a tool by its wire name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Snapshot is the observer-relevant view of the record the dispatcher emits
// after each non-approval tool call.
type Snapshot struct {
	Tool     string                          `json:"tool"`
	Title    string                          `json:"title"`
	Outline  map[string]types.OutlineSection `json:"outline"`
	Sections []types.Section                 `json:"sections"`
	Sources  map[string]types.Source         `json:"sources"`
	Proposal *types.Proposal                 `json:"proposal,omitempty"`
	Logs     []types.LogEntry                `json:"logs"`
	Messages []types.Message                 `json:"messages"`
}

// Observer receives incremental snapshots. Emission is fire-and-forget: a
// slow or failing observer must not affect orchestration correctness.
type Observer interface {
	Emit(Snapshot)
}
