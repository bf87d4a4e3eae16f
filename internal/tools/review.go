// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pdiddy/research-assistant/internal/model"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// ReviewTool marks the point where the model hands the proposal to a human.
// The dispatcher intercepts it before Invoke ever runs; the implementation
// exists only so the registry and the model see a complete tool set.
type ReviewTool struct{}

func NewReviewTool() *ReviewTool { return &ReviewTool{} }

func (t *ReviewTool) Name() string { return ReviewToolName }

func (t *ReviewTool) Spec() model.ToolSpec {
	return model.ToolSpec{
		Name: ReviewToolName,
		Description: "Submit the current report proposal for human review. Call this " +
			"after generating an outline proposal and before drafting any sections.",
		Parameters: json.RawMessage(`{"type": "object", "properties": {}}`),
	}
}

func (t *ReviewTool) Invoke(context.Context, *types.ResearchRecord, json.RawMessage) (*types.ResearchRecord, string, error) {
	return nil, "", fmt.Errorf("%s is handled by the dispatcher", ReviewToolName)
}
