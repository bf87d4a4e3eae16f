// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/pdiddy/research-assistant/internal/model"
	"github.com/pdiddy/research-assistant/internal/search"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// --- fakes ---

type fakeTool struct {
	name    string
	invoked int
	err     error
	panics  bool
	mutate  func(*types.ResearchRecord)
}

func (f *fakeTool) Name() string { return f.name }

func (f *fakeTool) Spec() model.ToolSpec {
	return model.ToolSpec{Name: f.name, Parameters: json.RawMessage(`{"type":"object"}`)}
}

func (f *fakeTool) Invoke(_ context.Context, rec *types.ResearchRecord, _ json.RawMessage) (*types.ResearchRecord, string, error) {
	f.invoked++
	if f.panics {
		panic("boom")
	}
	if f.err != nil {
		return nil, "", f.err
	}
	if f.mutate != nil {
		f.mutate(rec)
	}
	return rec, "ok from " + f.name, nil
}

type fakeClient struct {
	jsonResponse string
	jsonErr      error
	lastSystem   string
	lastUser     string
}

func (f *fakeClient) Complete(context.Context, string, []types.Message, []model.ToolSpec) (model.Turn, error) {
	return model.Turn{}, fmt.Errorf("not used")
}

func (f *fakeClient) CompleteJSON(_ context.Context, system, user string) (string, error) {
	f.lastSystem = system
	f.lastUser = user
	return f.jsonResponse, f.jsonErr
}

type recordingObserver struct {
	snapshots []Snapshot
}

func (o *recordingObserver) Emit(s Snapshot) { o.snapshots = append(o.snapshots, s) }

type fakeProvider struct {
	name    string
	results []types.SearchResult
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Search(context.Context, string, types.SearchType, types.SearchConfig) ([]types.SearchResult, error) {
	return p.results, nil
}

func call(name string, args string) types.ToolCall {
	return types.ToolCall{ID: "call-" + name, Name: name, Arguments: json.RawMessage(args)}
}

// --- registry ---

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(&fakeTool{name: "a"}, &fakeTool{name: "a"})
	if err == nil {
		t.Fatal("expected error for duplicate tool name")
	}
}

func TestRegistrySpecsOrder(t *testing.T) {
	r, err := NewRegistry(&fakeTool{name: "b"}, &fakeTool{name: "a"})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	specs := r.Specs()
	if len(specs) != 2 || specs[0].Name != "b" || specs[1].Name != "a" {
		t.Errorf("specs = %+v, want registration order", specs)
	}
}

// --- dispatcher ---

func TestDispatchReviewShortCircuits(t *testing.T) {
	after := &fakeTool{name: "after"}
	r, _ := NewRegistry(NewReviewTool(), after)
	d := NewDispatcher(r, nil, nil)

	rec := types.NewResearchRecord()
	result := d.Dispatch(context.Background(), rec, []types.ToolCall{
		call(ReviewToolName, `{}`),
		call("after", `{}`),
	})

	if !result.AwaitingApproval {
		t.Error("expected AwaitingApproval")
	}
	if len(result.Messages) != 1 {
		t.Fatalf("len(Messages) = %d, want 1", len(result.Messages))
	}
	if result.Messages[0].Content != "" {
		t.Errorf("review tool message = %q, want empty", result.Messages[0].Content)
	}
	if after.invoked != 0 {
		t.Error("calls after the review tool must not execute")
	}
}

func TestDispatchCapturesToolError(t *testing.T) {
	bad := &fakeTool{name: "bad", err: fmt.Errorf("no network")}
	good := &fakeTool{name: "good"}
	r, _ := NewRegistry(bad, good)
	d := NewDispatcher(r, nil, nil)

	rec := types.NewResearchRecord()
	result := d.Dispatch(context.Background(), rec, []types.ToolCall{
		call("bad", `{}`),
		call("good", `{}`),
	})

	if result.AwaitingApproval {
		t.Error("unexpected AwaitingApproval")
	}
	if len(result.Messages) != 2 {
		t.Fatalf("len(Messages) = %d, want 2", len(result.Messages))
	}
	if !strings.Contains(result.Messages[0].Content, "Error executing bad") {
		t.Errorf("error message = %q", result.Messages[0].Content)
	}
	if good.invoked != 1 {
		t.Error("batch must continue past a failed call")
	}
}

func TestDispatchCapturesPanic(t *testing.T) {
	r, _ := NewRegistry(&fakeTool{name: "panicky", panics: true})
	d := NewDispatcher(r, nil, nil)

	result := d.Dispatch(context.Background(), types.NewResearchRecord(), []types.ToolCall{
		call("panicky", `{}`),
	})
	if !strings.Contains(result.Messages[0].Content, "Error executing panicky") {
		t.Errorf("message = %q", result.Messages[0].Content)
	}
}

func TestDispatchUnknownTool(t *testing.T) {
	r, _ := NewRegistry()
	d := NewDispatcher(r, nil, nil)

	result := d.Dispatch(context.Background(), types.NewResearchRecord(), []types.ToolCall{
		call("mystery", `{}`),
	})
	if !strings.Contains(result.Messages[0].Content, "unknown tool") {
		t.Errorf("message = %q", result.Messages[0].Content)
	}
}

func TestDispatchCommitsAndSnapshots(t *testing.T) {
	mutator := &fakeTool{name: "mutator", mutate: func(rec *types.ResearchRecord) {
		rec.Title = "Updated"
		rec.Logs = []types.LogEntry{{Message: "working", Done: true}}
	}}
	r, _ := NewRegistry(mutator)
	obs := &recordingObserver{}
	d := NewDispatcher(r, obs, nil)

	rec := types.NewResearchRecord()
	rec.Conversation = []types.Message{types.HumanMessage("hi")}
	d.Dispatch(context.Background(), rec, []types.ToolCall{call("mutator", `{}`)})

	if rec.Title != "Updated" {
		t.Errorf("Title = %q, want commit applied", rec.Title)
	}
	if len(rec.Conversation) != 1 {
		t.Error("dispatch must not touch the conversation history")
	}
	if len(rec.Logs) != 0 {
		t.Errorf("Logs = %+v, want cleared after snapshot", rec.Logs)
	}

	if len(obs.snapshots) != 1 {
		t.Fatalf("snapshots = %d, want 1", len(obs.snapshots))
	}
	snap := obs.snapshots[0]
	if snap.Tool != "mutator" || snap.Title != "Updated" {
		t.Errorf("snapshot = %+v", snap)
	}
	// The snapshot sees the tool's trace before the dispatcher clears it.
	if len(snap.Logs) != 1 {
		t.Errorf("snapshot Logs = %+v, want the tool's trace", snap.Logs)
	}
}

func TestDispatchFailedToolLeavesRecordUntouched(t *testing.T) {
	r, _ := NewRegistry(&fakeTool{name: "bad", err: fmt.Errorf("nope")})
	d := NewDispatcher(r, nil, nil)

	rec := types.NewResearchRecord()
	rec.Title = "Before"
	d.Dispatch(context.Background(), rec, []types.ToolCall{call("bad", `{}`)})
	if rec.Title != "Before" {
		t.Errorf("Title = %q, failed call must not commit", rec.Title)
	}
}

type panickyObserver struct{}

func (panickyObserver) Emit(Snapshot) { panic("observer broke") }

func TestDispatchSurvivesObserverPanic(t *testing.T) {
	r, _ := NewRegistry(&fakeTool{name: "fine"})
	d := NewDispatcher(r, panickyObserver{}, nil)

	result := d.Dispatch(context.Background(), types.NewResearchRecord(), []types.ToolCall{
		call("fine", `{}`),
	})
	if result.Messages[0].Content != "ok from fine" {
		t.Errorf("message = %q", result.Messages[0].Content)
	}
}

// --- search tool ---

func TestSearchToolReplacesSources(t *testing.T) {
	provider := &fakeProvider{name: "tavily", results: []types.SearchResult{
		{URL: "https://example.com/new", Title: "New", Score: 0.9},
	}}
	o := search.NewOrchestrator(types.SearchConfig{MaxResults: 5}, nil, provider)
	tool := NewSearchTool(o)

	rec := types.NewResearchRecord()
	rec.Sources["https://example.com/old"] = types.Source{URL: "https://example.com/old"}

	updated, summary, err := tool.Invoke(context.Background(), rec,
		json.RawMessage(`{"searches": [{"query": "X", "type": "news"}]}`))
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	// Sources are replaced wholesale, not merged with the previous set.
	if len(updated.Sources) != 1 {
		t.Fatalf("len(Sources) = %d, want 1", len(updated.Sources))
	}
	if _, ok := updated.Sources["https://example.com/new"]; !ok {
		t.Errorf("Sources = %+v", updated.Sources)
	}
	if !strings.Contains(summary, "Total unique sources: 1") {
		t.Errorf("summary = %q", summary)
	}
	if len(updated.Logs) == 0 {
		t.Error("trace must be left on the record for the dispatcher snapshot")
	}
}

func TestSearchToolBadArguments(t *testing.T) {
	o := search.NewOrchestrator(types.SearchConfig{}, nil, &fakeProvider{name: "tavily"})
	tool := NewSearchTool(o)
	if _, _, err := tool.Invoke(context.Background(), types.NewResearchRecord(), json.RawMessage(`{`)); err == nil {
		t.Fatal("expected error for malformed arguments")
	}
}

func TestSearchToolEmptyBatch(t *testing.T) {
	o := search.NewOrchestrator(types.SearchConfig{}, nil, &fakeProvider{name: "tavily"})
	tool := NewSearchTool(o)
	if _, _, err := tool.Invoke(context.Background(), types.NewResearchRecord(), json.RawMessage(`{"searches": []}`)); err == nil {
		t.Fatal("expected error for empty batch")
	}
}

// --- outline tool ---

func TestOutlineToolStoresUnapprovedProposal(t *testing.T) {
	client := &fakeClient{jsonResponse: `{"sections": {
		"intro": {"title": "Introduction", "description": "Sets the scene"},
		"findings": {"title": "Findings", "description": "What the sources show"}
	}}`}
	tool := NewOutlineTool(client)

	rec := types.NewResearchRecord()
	rec.Sources["https://example.com/a"] = types.Source{URL: "https://example.com/a", Title: "A", Content: "body"}

	updated, summary, err := tool.Invoke(context.Background(), rec,
		json.RawMessage(`{"research_query": "What is quantum error correction?"}`))
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	if updated.Title != "What is quantum error correction?" {
		t.Errorf("Title = %q", updated.Title)
	}
	if updated.Proposal == nil || len(updated.Proposal.Sections) != 2 {
		t.Fatalf("Proposal = %+v", updated.Proposal)
	}
	if updated.Proposal.Approved {
		t.Error("fresh proposal must be unapproved")
	}
	for key, sec := range updated.Proposal.Sections {
		if sec.Approved {
			t.Errorf("section %s approved before review", key)
		}
	}
	if !strings.Contains(summary, "2 sections") {
		t.Errorf("summary = %q", summary)
	}
	if !strings.Contains(client.lastUser, "https://example.com/a") {
		t.Error("prompt should include the gathered sources")
	}
}

func TestOutlineToolIncludesPriorReview(t *testing.T) {
	client := &fakeClient{jsonResponse: `{"sections": {"intro": {"title": "I", "description": "d"}}}`}
	tool := NewOutlineTool(client)

	rec := types.NewResearchRecord()
	rec.Proposal = &types.Proposal{
		Sections: map[string]types.ProposalSection{
			"keep": {Title: "Keep me", Approved: true},
			"drop": {Title: "Drop me"},
		},
		Remarks: "merge the last two sections",
	}

	if _, _, err := tool.Invoke(context.Background(), rec, json.RawMessage(`{"research_query": "q"}`)); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	for _, want := range []string{"Keep me", "Drop me", "approved", "not approved", "merge the last two sections"} {
		if !strings.Contains(client.lastUser, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestOutlineToolFallbackOnModelError(t *testing.T) {
	tool := NewOutlineTool(&fakeClient{jsonErr: fmt.Errorf("model offline")})

	updated, _, err := tool.Invoke(context.Background(), types.NewResearchRecord(),
		json.RawMessage(`{"research_query": "q"}`))
	if err != nil {
		t.Fatalf("model failure must not fail the call: %v", err)
	}
	if updated.Proposal == nil {
		t.Fatal("expected fallback proposal")
	}
	if !strings.Contains(updated.Proposal.Remarks, "model offline") {
		t.Errorf("Remarks = %q, want the error surfaced", updated.Proposal.Remarks)
	}
}

func TestOutlineToolFallbackOnBadJSON(t *testing.T) {
	tool := NewOutlineTool(&fakeClient{jsonResponse: `not json`})

	updated, _, err := tool.Invoke(context.Background(), types.NewResearchRecord(),
		json.RawMessage(`{"research_query": "q"}`))
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if updated.Proposal == nil || updated.Proposal.Remarks == "" {
		t.Errorf("Proposal = %+v, want fallback with remarks", updated.Proposal)
	}
}

// --- section tool ---

func TestSectionToolDraftsApprovedSection(t *testing.T) {
	client := &fakeClient{jsonResponse: `{"title": "Findings", "content": "The data shows...", "footer": "[1] example.com"}`}
	tool := NewSectionTool(client)

	rec := types.NewResearchRecord()
	rec.Title = "Report"
	rec.Outline["findings"] = types.OutlineSection{Title: "Findings", Description: "What the sources show"}

	updated, summary, err := tool.Invoke(context.Background(), rec,
		json.RawMessage(`{"key": "findings", "index": 1}`))
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	if len(updated.Sections) != 1 {
		t.Fatalf("Sections = %+v", updated.Sections)
	}
	sec := updated.Sections[0]
	if sec.Index != 1 || sec.Title != "Findings" || sec.Footer == "" {
		t.Errorf("section = %+v", sec)
	}
	if !strings.Contains(summary, "Findings") {
		t.Errorf("summary = %q", summary)
	}
}

func TestSectionToolReplacesByIndex(t *testing.T) {
	client := &fakeClient{jsonResponse: `{"title": "Redraft", "content": "v2"}`}
	tool := NewSectionTool(client)

	rec := types.NewResearchRecord()
	rec.Outline["intro"] = types.OutlineSection{Title: "Intro"}
	rec.Sections = []types.Section{{Index: 0, Title: "Intro", Content: "v1"}}

	updated, _, err := tool.Invoke(context.Background(), rec,
		json.RawMessage(`{"key": "intro", "index": 0}`))
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if len(updated.Sections) != 1 || updated.Sections[0].Content != "v2" {
		t.Errorf("Sections = %+v, want replacement by index", updated.Sections)
	}
}

func TestSectionToolRejectsWithoutOutline(t *testing.T) {
	tool := NewSectionTool(&fakeClient{})
	_, _, err := tool.Invoke(context.Background(), types.NewResearchRecord(),
		json.RawMessage(`{"key": "intro", "index": 0}`))
	if err == nil {
		t.Fatal("expected error when no outline exists")
	}
}

func TestSectionToolRejectsUnapprovedKey(t *testing.T) {
	tool := NewSectionTool(&fakeClient{})
	rec := types.NewResearchRecord()
	rec.Outline["intro"] = types.OutlineSection{Title: "Intro"}

	_, _, err := tool.Invoke(context.Background(), rec,
		json.RawMessage(`{"key": "conclusion", "index": 5}`))
	if err == nil || !strings.Contains(err.Error(), "not in the approved outline") {
		t.Fatalf("err = %v", err)
	}
}
