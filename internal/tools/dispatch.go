// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tools

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// Dispatcher routes a model turn's tool-call batch to the registry. Calls
// run sequentially; the record is handed to one tool at a time, so no
// locking is needed.
type Dispatcher struct {
	registry *Registry
	observer Observer
	logger   *zap.Logger
}

// NewDispatcher builds a dispatcher. Observer may be nil; a nil logger
// disables diagnostic logging.
func NewDispatcher(registry *Registry, observer Observer, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{registry: registry, observer: observer, logger: logger}
}

// BatchResult is the outcome of dispatching one tool-call batch.
type BatchResult struct {
	// Messages holds one tool-result message per dispatched call.
	Messages []types.Message

	// AwaitingApproval is set when the batch contained the review tool;
	// no further calls in the batch were executed.
	AwaitingApproval bool
}

// Dispatch executes the batch against the record. The review tool
// short-circuits: it produces an empty tool-result message, signals the
// approval pause, and leaves the rest of the batch unexecuted. Any other
// tool failing is captured as an error-bearing tool-result message and the
// batch continues. After each executed call the observer receives a record
// snapshot and the record's ephemeral log trace is cleared.
func (d *Dispatcher) Dispatch(ctx context.Context, rec *types.ResearchRecord, calls []types.ToolCall) BatchResult {
	var result BatchResult

	for _, call := range calls {
		if call.Name == ReviewToolName {
			result.Messages = append(result.Messages, types.ToolMessage(call.ID, call.Name, ""))
			result.AwaitingApproval = true
			d.logger.Info("entering approval pause", zap.String("call_id", call.ID))
			return result
		}

		summary := d.execute(ctx, rec, call)
		result.Messages = append(result.Messages, types.ToolMessage(call.ID, call.Name, summary))

		d.emit(rec, call.Name, result.Messages)
		rec.Logs = nil
	}

	return result
}

// execute runs one tool call and commits its record on success. Tool
// errors and panics are converted to error summaries so one bad call never
// takes down the batch or the session.
func (d *Dispatcher) execute(ctx context.Context, rec *types.ResearchRecord, call types.ToolCall) (summary string) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("tool panicked", zap.String("tool", call.Name), zap.Any("panic", r))
			summary = fmt.Sprintf("Error executing %s: %v", call.Name, r)
		}
	}()

	tool, ok := d.registry.Lookup(call.Name)
	if !ok {
		return fmt.Sprintf("Error executing %s: unknown tool", call.Name)
	}

	updated, summary, err := tool.Invoke(ctx, rec.Clone(), call.Arguments)
	if err != nil {
		d.logger.Warn("tool failed", zap.String("tool", call.Name), zap.Error(err))
		return fmt.Sprintf("Error executing %s: %v", call.Name, err)
	}

	commit(rec, updated)
	return summary
}

// commit copies a tool's returned record fields back onto the live record.
// The conversation history is owned by the state machine and is never
// committed from a tool.
func commit(rec, updated *types.ResearchRecord) {
	rec.Title = updated.Title
	rec.Proposal = updated.Proposal
	rec.Outline = updated.Outline
	rec.Sections = updated.Sections
	rec.Sources = updated.Sources
	rec.Logs = updated.Logs
}

// emit sends a snapshot to the observer. Observer panics are swallowed;
// notification failure never affects the batch.
func (d *Dispatcher) emit(rec *types.ResearchRecord, toolName string, messages []types.Message) {
	if d.observer == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("observer panicked", zap.Any("panic", r))
		}
	}()

	d.observer.Emit(Snapshot{
		Tool:     toolName,
		Title:    rec.Title,
		Outline:  rec.Outline,
		Sections: rec.Sections,
		Sources:  rec.Sources,
		Proposal: rec.Proposal,
		Logs:     rec.Logs,
		Messages: messages,
	})
}
