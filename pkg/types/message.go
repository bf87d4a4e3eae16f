// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "encoding/json"

// MessageRole classifies a conversation entry.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleHuman     MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// ToolCall is one tool invocation requested by the model.
type ToolCall struct {
	// ID is the wire identifier correlating the call with its result message.
	ID string `json:"id" yaml:"id"`

	// Name is the registered tool name.
	Name string `json:"name" yaml:"name"`

	// Arguments is the raw JSON argument object the model produced.
	Arguments json.RawMessage `json:"arguments" yaml:"arguments"`
}

// Message is one entry in the conversation history.
type Message struct {
	// Role classifies the entry: system, user, assistant, or tool.
	Role MessageRole `json:"role" yaml:"role"`

	// Content is the message text. Empty for assistant turns that only
	// request tool calls and for the approval tool's result message.
	Content string `json:"content" yaml:"content"`

	// ToolCalls holds the batch an assistant turn requested, if any.
	ToolCalls []ToolCall `json:"tool_calls,omitempty" yaml:"tool_calls,omitempty"`

	// ToolCallID links a tool-result message back to its originating call.
	ToolCallID string `json:"tool_call_id,omitempty" yaml:"tool_call_id,omitempty"`

	// ToolName names the tool that produced a tool-result message.
	ToolName string `json:"tool_name,omitempty" yaml:"tool_name,omitempty"`
}

// Clone returns a copy with its own tool-call slice.
func (m Message) Clone() Message {
	c := m
	c.ToolCalls = append([]ToolCall(nil), m.ToolCalls...)
	return c
}

// HumanMessage builds a user-authored conversation entry.
func HumanMessage(content string) Message {
	return Message{Role: RoleHuman, Content: content}
}

// SystemMessage builds a synthetic system note, such as the one appended
// after a proposal review.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// ToolMessage builds the result message for one tool call.
func ToolMessage(callID, toolName, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: callID, ToolName: toolName}
}

// knownRoles is the set of message kinds the state machine accepts.
var knownRoles = map[MessageRole]bool{
	RoleSystem:    true,
	RoleHuman:     true,
	RoleAssistant: true,
	RoleTool:      true,
}

// Normalize coerces a message of unrecognized kind into a human message.
// Unknown roles come from callers feeding external transcripts in; treating
// them as user input keeps the turn going instead of rejecting it.
func (m Message) Normalize() Message {
	if knownRoles[m.Role] {
		return m
	}
	return HumanMessage(m.Content)
}
