// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-assistant/internal/search"
	"github.com/pdiddy/research-assistant/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run a one-shot multi-provider web search",
	Long: `Search runs the multi-provider search orchestrator outside a chat session.
Queries come from the command line or from a YAML batch file written by a
previous run; results can be saved back to a batch file for later sessions.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("type", "general", "search type: general, news, academic, technical")
	searchCmd.Flags().StringSlice("providers", nil, `provider names to use, or "all" (default: pick by search type)`)
	searchCmd.Flags().String("batch-file", "", "read the search batch from a YAML file instead of the command line")
	searchCmd.Flags().String("output", "", "write the batch and its results to a YAML file")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := agentConfig()
	logger := buildLogger(cmd)
	defer logger.Sync()

	providers, _ := cmd.Flags().GetStringSlice("providers")

	var searches []types.SearchRequest
	if batchPath, _ := cmd.Flags().GetString("batch-file"); batchPath != "" {
		bf, err := search.ReadBatchFile(batchPath)
		if err != nil {
			return err
		}
		searches = bf.Searches
		if len(providers) == 0 {
			providers = bf.Providers
		}
	} else {
		if len(args) == 0 {
			return fmt.Errorf("query required: pass it as an argument or use --batch-file")
		}
		searchType, _ := cmd.Flags().GetString("type")
		searches = []types.SearchRequest{{
			Query: strings.Join(args, " "),
			Type:  types.SearchType(searchType),
		}}
	}

	o := search.NewOrchestrator(cfg.Search, logger, search.DefaultProviders(cfg.Search)...)
	out, err := o.Execute(cmd.Context(), searches, providers, nil)
	if err != nil {
		return err
	}

	for _, entry := range out.Logs[1:] {
		status := fmt.Sprintf("%d results", entry.ResultCount)
		if entry.Error != "" {
			status = "failed: " + entry.Error
		}
		fmt.Fprintf(os.Stderr, "%s (%s)\n", entry.Message, status)
	}

	urls := make([]string, 0, len(out.Sources))
	for u := range out.Sources {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	for _, u := range urls {
		src := out.Sources[u]
		fmt.Fprintf(os.Stdout, "%-8s  %.2f  %s\n    %s\n", src.Provider, src.Score, src.Title, u)
	}
	fmt.Fprintf(os.Stdout, "\n%s\n", out.Summary)

	if outputPath, _ := cmd.Flags().GetString("output"); outputPath != "" {
		if err := search.WriteBatchFile(outputPath, searches, providers, out); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Saved batch to %s\n", outputPath)
	}
	return nil
}
