// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-assistant/internal/agent"
	"github.com/pdiddy/research-assistant/internal/model"
	"github.com/pdiddy/research-assistant/internal/search"
	"github.com/pdiddy/research-assistant/internal/session"
	"github.com/pdiddy/research-assistant/internal/tools"
	"github.com/pdiddy/research-assistant/pkg/types"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start or resume an interactive research session",
	Long: `Chat runs an interactive research session. Type a research question and the
assistant searches the web, proposes a report outline for your approval, and
drafts the approved sections.

The session is saved after every turn. Resume one with --session; list saved
sessions with the sessions command.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().String("session", "", "session ID to resume")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg := agentConfig()
	logger := buildLogger(cmd)
	defer logger.Sync()

	store, err := session.NewStore(cfg.Session)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	sessionID, _ := cmd.Flags().GetString("session")
	rec := types.NewResearchRecord()
	if sessionID != "" {
		if rec, err = store.Load(ctx, sessionID); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Resumed session %s (%s)\n", sessionID, rec.Title)
	} else {
		sessionID = session.NewSessionID()
		fmt.Fprintf(os.Stdout, "Started session %s\n", sessionID)
	}

	stdin := bufio.NewReader(os.Stdin)

	client := model.NewOpenAIClient(cfg.Model)
	orchestrator := search.NewOrchestrator(cfg.Search, logger, search.DefaultProviders(cfg.Search)...)

	registry, err := tools.NewRegistry(
		tools.NewSearchTool(orchestrator),
		tools.NewOutlineTool(client),
		tools.NewSectionTool(client),
		tools.NewReviewTool(),
	)
	if err != nil {
		return err
	}

	observer := &progressObserver{w: os.Stderr}
	dispatcher := tools.NewDispatcher(registry, observer, logger)
	approver := &terminalApprover{in: stdin, out: os.Stdout}
	a := agent.New(client, registry, dispatcher, approver, logger)

	fmt.Fprintln(os.Stdout, `Ask a research question, or "exit" to quit.`)
	for {
		fmt.Fprint(os.Stdout, "> ")
		line, err := stdin.ReadString('\n')
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		if err := a.Run(ctx, rec, input); err != nil {
			return err
		}

		if last := rec.Conversation[len(rec.Conversation)-1]; last.Role == types.RoleAssistant {
			fmt.Fprintf(os.Stdout, "\n%s\n\n", last.Content)
		}
		if err := store.Save(ctx, sessionID, rec); err != nil {
			fmt.Fprintf(os.Stderr, "warning: saving session: %v\n", err)
		}
	}

	fmt.Fprintf(os.Stdout, "Session saved as %s\n", sessionID)
	return nil
}

// progressObserver prints each tool's progress trace as it completes.
type progressObserver struct {
	w io.Writer
}

func (o *progressObserver) Emit(snap tools.Snapshot) {
	for _, entry := range snap.Logs {
		status := "..."
		if entry.Done {
			status = "done"
		}
		if entry.Error != "" {
			status = "failed: " + entry.Error
		}
		fmt.Fprintf(o.w, "[%s] %s (%s)\n", snap.Tool, entry.Message, status)
	}
}

// terminalApprover collects the proposal review on the terminal: a per-section
// decision, then the overall decision and optional remarks.
type terminalApprover struct {
	in  *bufio.Reader
	out io.Writer
}

func (t *terminalApprover) Review(ctx context.Context, proposal types.Proposal) (types.Proposal, error) {
	fmt.Fprintln(t.out, "\nProposed report outline:")
	keys := make([]string, 0, len(proposal.Sections))
	for k := range proposal.Sections {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sec := proposal.Sections[k]
		fmt.Fprintf(t.out, "  [%s] %s: %s\n", k, sec.Title, sec.Description)
	}

	reviewed := proposal
	reviewed.Sections = make(map[string]types.ProposalSection, len(proposal.Sections))
	anyApproved := false
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return types.Proposal{}, err
		}
		sec := proposal.Sections[k]
		ok, err := t.ask(fmt.Sprintf("Keep section %q?", sec.Title))
		if err != nil {
			return types.Proposal{}, err
		}
		sec.Approved = ok
		anyApproved = anyApproved || ok
		reviewed.Sections[k] = sec
	}

	reviewed.Approved = anyApproved
	if anyApproved {
		ok, err := t.ask("Approve the proposal overall?")
		if err != nil {
			return types.Proposal{}, err
		}
		reviewed.Approved = ok
	}

	fmt.Fprint(t.out, "Remarks (empty for none): ")
	remarks, err := t.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return types.Proposal{}, err
	}
	reviewed.Remarks = strings.TrimSpace(remarks)
	return reviewed, nil
}

func (t *terminalApprover) ask(prompt string) (bool, error) {
	for {
		fmt.Fprintf(t.out, "%s [y/n]: ", prompt)
		line, err := t.in.ReadString('\n')
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
	}
}
