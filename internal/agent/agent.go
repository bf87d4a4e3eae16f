// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package agent implements the conversation state machine that drives one
// research session: it rebuilds the model context from the record on every
// turn, routes tool-call batches to the dispatcher, and suspends on the
// human-approval interrupt.
package agent

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/internal/model"
	"github.com/pdiddy/research-assistant/internal/tools"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// State identifies where the machine is within one user turn.
type State int

const (
	// StateDeciding is the initial state: the model is consulted for the
	// next action.
	StateDeciding State = iota

	// StateExecutingTools runs the model's tool-call batch.
	StateExecutingTools

	// StateAwaitingApproval blocks on the external reviewer. No timeout;
	// callers cancel via ctx.
	StateAwaitingApproval

	// StateTerminated ends the turn. The session accepts further input.
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateDeciding:
		return "deciding"
	case StateExecutingTools:
		return "executing-tools"
	case StateAwaitingApproval:
		return "awaiting-approval"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Approver supplies the human decision for a proposal. Review blocks until
// the reviewer decides; it has no error path of its own beyond ctx.
type Approver interface {
	Review(ctx context.Context, proposal types.Proposal) (types.Proposal, error)
}

// Agent is the conversation state machine. It owns the record between turns
// and hands exclusive mutation rights to the dispatcher for one batch at a
// time.
type Agent struct {
	client     model.Client
	registry   *tools.Registry
	dispatcher *tools.Dispatcher
	approver   Approver
	logger     *zap.Logger

	// now is swappable so tests pin the context's date line.
	now func() time.Time
}

// New builds an agent. A nil logger disables diagnostic logging.
func New(client model.Client, registry *tools.Registry, dispatcher *tools.Dispatcher, approver Approver, logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{
		client:     client,
		registry:   registry,
		dispatcher: dispatcher,
		approver:   approver,
		logger:     logger,
		now:        time.Now,
	}
}

// Run processes one user turn: it appends the input to the conversation and
// loops through the states until the turn terminates. A model failure ends
// the turn with the error recorded as the answer, not a returned error; the
// session stays usable. Run returns an error only when the turn cannot
// proceed at all (ctx cancelled, reviewer gone, invalid review shape).
func (a *Agent) Run(ctx context.Context, rec *types.ResearchRecord, input string) error {
	if input != "" {
		rec.Conversation = append(rec.Conversation, types.HumanMessage(input))
	}
	normalizeTail(rec)

	state := StateDeciding
	for state != StateTerminated {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch state {
		case StateDeciding:
			state = a.decide(ctx, rec)
		case StateExecutingTools:
			state = a.executeTools(ctx, rec)
		case StateAwaitingApproval:
			next, err := a.awaitApproval(ctx, rec)
			if err != nil {
				return err
			}
			state = next
		}
	}
	return nil
}

// decide rebuilds the context from the record and asks the model for the
// next action.
func (a *Agent) decide(ctx context.Context, rec *types.ResearchRecord) State {
	system := buildContext(rec, a.now())

	turn, err := a.client.Complete(ctx, system, rec.Conversation, a.registry.Specs())
	if err != nil {
		a.logger.Warn("model call failed", zap.Error(err))
		rec.Conversation = append(rec.Conversation, types.Message{
			Role:    types.RoleAssistant,
			Content: fmt.Sprintf("I ran into a problem talking to the model: %v. Please try again.", err),
		})
		return StateTerminated
	}

	if turn.HasToolCalls() {
		rec.Conversation = append(rec.Conversation, types.Message{
			Role:      types.RoleAssistant,
			ToolCalls: turn.ToolCalls,
		})
		return StateExecutingTools
	}

	rec.Conversation = append(rec.Conversation, types.Message{
		Role:    types.RoleAssistant,
		Content: turn.Answer,
	})
	return StateTerminated
}

// executeTools dispatches the batch the model just requested. The batch is
// read off the trailing assistant message.
func (a *Agent) executeTools(ctx context.Context, rec *types.ResearchRecord) State {
	last := rec.Conversation[len(rec.Conversation)-1]

	result := a.dispatcher.Dispatch(ctx, rec, last.ToolCalls)
	rec.Conversation = append(rec.Conversation, result.Messages...)

	if result.AwaitingApproval {
		return StateAwaitingApproval
	}
	return StateDeciding
}

// awaitApproval blocks on the reviewer and applies the resume rule: the
// outline becomes the approved-subset projection of the reviewed proposal,
// and the proposal is replaced wholesale even on rejection so the next turn
// can see the remarks and regenerate.
func (a *Agent) awaitApproval(ctx context.Context, rec *types.ResearchRecord) (State, error) {
	if rec.Proposal == nil {
		return 0, fmt.Errorf("approval requested with no proposal on the record")
	}

	reviewed, err := a.approver.Review(ctx, *rec.Proposal)
	if err != nil {
		return 0, fmt.Errorf("awaiting proposal review: %w", err)
	}
	if err := validateReviewed(reviewed, *rec.Proposal); err != nil {
		return 0, err
	}

	rec.Proposal = &reviewed
	rec.Outline = reviewed.ApprovedOutline()

	note := "User has reviewed the proposal and rejected it. Revise the outline according to the remarks and submit it for review again."
	if reviewed.Approved {
		note = "User has reviewed the proposal and approved it. Proceed to draft the approved sections."
	}
	rec.Conversation = append(rec.Conversation, types.SystemMessage(note))

	a.logger.Info("proposal reviewed",
		zap.Bool("approved", reviewed.Approved),
		zap.Int("approved_sections", len(rec.Outline)))
	return StateDeciding, nil
}

// validateReviewed checks the reviewed proposal against the shape that was
// sent out: identical section keys, and an overall approval backed by at
// least one approved section.
func validateReviewed(reviewed, sent types.Proposal) error {
	if len(reviewed.Sections) != len(sent.Sections) {
		return fmt.Errorf("reviewed proposal has %d sections, sent %d", len(reviewed.Sections), len(sent.Sections))
	}
	for key := range sent.Sections {
		if _, ok := reviewed.Sections[key]; !ok {
			return fmt.Errorf("reviewed proposal is missing section %q", key)
		}
	}
	if reviewed.Approved && len(reviewed.ApprovedOutline()) == 0 {
		return fmt.Errorf("reviewed proposal is approved but no section is")
	}
	return nil
}

// normalizeTail coerces a malformed trailing message into a human message.
// External transcripts fed into a session sometimes carry roles we do not
// know; treating them as user input keeps the turn going.
func normalizeTail(rec *types.ResearchRecord) {
	if n := len(rec.Conversation); n > 0 {
		rec.Conversation[n-1] = rec.Conversation[n-1].Normalize()
	}
}
