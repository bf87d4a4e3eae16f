// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package model abstracts the language-model collaborator behind a small
// client interface so the conversation state machine can be tested with
// fakes. One concrete implementation speaks the OpenAI-compatible
// chat-completions protocol.
package model

import (
	"context"
	"encoding/json"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// ToolSpec declares one callable tool to the model. The name is part of the
// wire contract between the model and the dispatcher.
type ToolSpec struct {
	// Name is the registered tool name.
	Name string `json:"name"`

	// Description tells the model when to use the tool.
	Description string `json:"description"`

	// Parameters is the JSON Schema of the tool's argument object.
	Parameters json.RawMessage `json:"parameters"`
}

// Turn is the model's decision for one conversation turn: a final answer or
// a single tool-call batch, never both.
type Turn struct {
	// Answer is the final answer text when no tools were requested.
	Answer string

	// ToolCalls is the requested batch, dispatched sequentially.
	ToolCalls []types.ToolCall
}

// HasToolCalls reports whether the turn requests tool execution.
func (t Turn) HasToolCalls() bool { return len(t.ToolCalls) > 0 }

// Client is the language-model collaborator.
type Client interface {
	// Complete sends the system context, conversation history, and tool
	// declarations, and returns the model's turn. Implementations must not
	// return more than one tool-call batch per turn.
	Complete(ctx context.Context, system string, history []types.Message, tools []ToolSpec) (Turn, error)

	// CompleteJSON sends a one-shot prompt in JSON mode and returns the raw
	// JSON text. Used by tools that need structured output rather than a
	// conversational turn.
	CompleteJSON(ctx context.Context, system, user string) (string, error)
}
