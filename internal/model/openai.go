// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/pdiddy/research-assistant/internal/httputil"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// defaultAPIBase is the chat-completions endpoint used when the config does
// not name one. Tests point BaseURL at an httptest server instead.
const defaultAPIBase = "https://api.openai.com/v1"

// OpenAIClient calls an OpenAI-compatible chat-completions API.
type OpenAIClient struct {
	Client *http.Client
	cfg    types.ModelConfig
}

// NewOpenAIClient builds a client from config. The HTTP timeout comes from
// the config, never a hard-coded constant.
func NewOpenAIClient(cfg types.ModelConfig) *OpenAIClient {
	return &OpenAIClient{
		Client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
	}
}

// Complete sends one conversational turn with tool declarations. Parallel
// tool calls are disabled so the model issues at most one batch.
func (c *OpenAIClient) Complete(ctx context.Context, system string, history []types.Message, tools []ToolSpec) (Turn, error) {
	req := chatRequest{
		Model:    c.cfg.Model,
		Messages: append([]chatMessage{{Role: "system", Content: system}}, encodeHistory(history)...),
	}
	for _, t := range tools {
		req.Tools = append(req.Tools, chatTool{Type: "function", Function: t})
	}
	if len(tools) > 0 {
		disabled := false
		req.ParallelToolCalls = &disabled
	}

	msg, err := c.post(ctx, req)
	if err != nil {
		return Turn{}, err
	}

	turn := Turn{Answer: msg.Content}
	for _, tc := range msg.ToolCalls {
		id := tc.ID
		if id == "" {
			id = uuid.NewString()
		}
		turn.ToolCalls = append(turn.ToolCalls, types.ToolCall{
			ID:        id,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}
	if turn.HasToolCalls() {
		turn.Answer = ""
	}
	return turn, nil
}

// CompleteJSON sends a one-shot prompt in JSON mode and returns the raw
// JSON text of the reply.
func (c *OpenAIClient) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	req := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	msg, err := c.post(ctx, req)
	if err != nil {
		return "", err
	}
	return msg.Content, nil
}

// post sends the request and returns the first choice's message.
func (c *OpenAIClient) post(ctx context.Context, req chatRequest) (*chatMessage, error) {
	base := c.cfg.BaseURL
	if base == "" {
		base = defaultAPIBase
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", c.cfg.UserAgent)
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, c.Client, httpReq, c.cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("model API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("model API returned HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("parsing model response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return nil, fmt.Errorf("model response contained no choices")
	}
	return &cr.Choices[0].Message, nil
}

// encodeHistory maps conversation messages onto the wire format.
func encodeHistory(history []types.Message) []chatMessage {
	out := make([]chatMessage, 0, len(history))
	for _, m := range history {
		cm := chatMessage{Role: string(m.Role), Content: m.Content}
		if m.Role == types.RoleTool {
			cm.ToolCallID = m.ToolCallID
			cm.Name = m.ToolName
		}
		for _, tc := range m.ToolCalls {
			cm.ToolCalls = append(cm.ToolCalls, wireToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: wireFunction{
					Name:      tc.Name,
					Arguments: string(tc.Arguments),
				},
			})
		}
		out = append(out, cm)
	}
	return out
}

// Chat-completions API JSON structures.
type chatRequest struct {
	Model             string          `json:"model"`
	Messages          []chatMessage   `json:"messages"`
	Tools             []chatTool      `json:"tools,omitempty"`
	ParallelToolCalls *bool           `json:"parallel_tool_calls,omitempty"`
	ResponseFormat    *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatTool struct {
	Type     string   `json:"type"`
	Function ToolSpec `json:"function"`
}

type chatMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	Name       string         `json:"name,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
}

type wireToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

type wireFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}
