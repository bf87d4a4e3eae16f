// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search fans a batch of search requests out across multiple web
// providers, tracks per-task progress, and merges deduplicated results
// under partial failure.
package search

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// Provider searches a single external content source. Each provider
// (Tavily, Jina) implements this interface per the Strategy pattern.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, searchType types.SearchType, cfg types.SearchConfig) ([]types.SearchResult, error)
}

// AllProviders is the sentinel callers pass in enabledProviders to select
// every known provider.
const AllProviders = "all"

// Orchestrator runs search batches against a fixed provider set. Provider
// order is stable: task expansion, progress indices, and result merging all
// follow it, so one invocation's output is reproducible regardless of which
// task finishes first.
type Orchestrator struct {
	providers []Provider
	byName    map[string]Provider
	cfg       types.SearchConfig
	logger    *zap.Logger
}

// NewOrchestrator builds an orchestrator over the given providers. A nil
// logger disables diagnostic logging.
func NewOrchestrator(cfg types.SearchConfig, logger *zap.Logger, providers ...Provider) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	byName := make(map[string]Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &Orchestrator{
		providers: providers,
		byName:    byName,
		cfg:       cfg,
		logger:    logger,
	}
}

// DefaultProviders returns the standard provider set: Tavily for general web
// and news, Jina for academic and technical content.
func DefaultProviders(cfg types.SearchConfig) []Provider {
	return []Provider{
		NewTavilyProvider(cfg),
		NewJinaProvider(cfg),
	}
}

// SelectProviders resolves the provider set for one search request. A
// non-empty enabled list wins: "all" expands to every known provider, and
// unrecognized names are silently dropped. Otherwise the search type picks
// providers by policy: general uses both for diversity, news favors Tavily,
// academic and technical favor Jina, and unrecognized types use both.
func (o *Orchestrator) SelectProviders(searchType types.SearchType, enabled []string) []Provider {
	if len(enabled) > 0 {
		for _, name := range enabled {
			if name == AllProviders {
				return append([]Provider(nil), o.providers...)
			}
		}
		var selected []Provider
		for _, p := range o.providers {
			for _, name := range enabled {
				if p.Name() == name {
					selected = append(selected, p)
					break
				}
			}
		}
		return selected
	}

	switch searchType {
	case types.SearchNews:
		return o.named("tavily")
	case types.SearchAcademic, types.SearchTechnical:
		return o.named("jina")
	default:
		return append([]Provider(nil), o.providers...)
	}
}

// named returns the providers with the given names that are actually
// registered, preserving registration order.
func (o *Orchestrator) named(names ...string) []Provider {
	var out []Provider
	for _, p := range o.providers {
		for _, name := range names {
			if p.Name() == name {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// task is one (provider, query, type) unit of work.
type task struct {
	provider Provider
	req      types.SearchRequest
}

// taskResult pairs a task's items with its failure, if any.
type taskResult struct {
	items []types.SearchResult
	err   error
}

// Output is the outcome of one orchestrator invocation.
type Output struct {
	// Sources is the aggregated, URL-deduplicated source map. It replaces
	// the record's previous sources wholesale.
	Sources map[string]types.Source

	// Logs is the final progress trace: one summary entry plus one entry
	// per task, all marked done.
	Logs []types.LogEntry

	// Summary is the human-readable report for the tool result message.
	Summary string
}

// Execute expands the search batch into provider tasks, runs them all
// concurrently behind a join-all barrier, and aggregates results. A failed
// task contributes zero items and its error is recorded on its progress
// entry; it never aborts sibling tasks or the invocation. The optional
// progress callback observes the log trace after every update.
func (o *Orchestrator) Execute(ctx context.Context, searches []types.SearchRequest, enabled []string, progress func([]types.LogEntry)) (Output, error) {
	if len(searches) == 0 {
		return Output{}, fmt.Errorf("no search requests provided")
	}
	if progress == nil {
		progress = func([]types.LogEntry) {}
	}

	// Expand each request against its selected providers, independently of
	// the other requests in the batch.
	var tasks []task
	usage := make(map[string]int)
	for _, req := range searches {
		for _, p := range o.SelectProviders(req.Type, enabled) {
			tasks = append(tasks, task{provider: p, req: req})
			usage[p.Name()]++
		}
	}

	logs := make([]types.LogEntry, 0, len(tasks)+1)
	logs = append(logs, types.LogEntry{
		Message: fmt.Sprintf("Intelligent search: %d searches across %s", len(tasks), o.usageSummary(usage)),
	})
	for _, t := range tasks {
		logs = append(logs, types.LogEntry{
			Message:  fmt.Sprintf("%s: %q (%s)", strings.ToUpper(t.provider.Name()), t.req.Query, t.req.Type),
			Provider: t.provider.Name(),
		})
	}
	progress(logs)

	o.logger.Info("executing search batch",
		zap.Int("requests", len(searches)),
		zap.Int("tasks", len(tasks)),
		zap.Bool("user_directed", len(enabled) > 0))

	// Launch every task; wait for all of them, never short-circuiting on
	// first failure. Results land in a slice indexed by task so the merge
	// below follows stable task order, not completion order.
	results := make([]taskResult, len(tasks))
	var sem *semaphore.Weighted
	if o.cfg.MaxParallel > 0 {
		sem = semaphore.NewWeighted(int64(o.cfg.MaxParallel))
	}

	var wg sync.WaitGroup
	for i, t := range tasks {
		wg.Add(1)
		go func(i int, t task) {
			defer wg.Done()
			if sem != nil {
				if err := sem.Acquire(ctx, 1); err != nil {
					results[i] = taskResult{err: err}
					return
				}
				defer sem.Release(1)
			}
			items, err := t.provider.Search(ctx, t.req.Query, t.req.Type, o.cfg)
			results[i] = taskResult{items: items, err: err}
		}(i, t)
	}
	wg.Wait()

	// Merge in task order: first writer wins per URL, empty URLs dropped.
	sources := make(map[string]types.Source)
	stats := make(map[string]int)
	for i, t := range tasks {
		res := results[i]
		if res.err != nil {
			o.logger.Warn("search task failed",
				zap.String("provider", t.provider.Name()),
				zap.String("query", t.req.Query),
				zap.Error(res.err))
			logs[i+1].Done = true
			logs[i+1].Error = res.err.Error()
			progress(logs)
			continue
		}

		for _, item := range res.items {
			if item.URL == "" {
				continue
			}
			if _, seen := sources[item.URL]; seen {
				continue
			}
			sources[item.URL] = types.Source{
				URL:        item.URL,
				Title:      item.Title,
				Content:    item.Content,
				Score:      item.Score,
				Provider:   t.provider.Name(),
				SearchType: string(t.req.Type),
			}
			stats[t.provider.Name()]++
		}

		logs[i+1].Done = true
		logs[i+1].ResultCount = len(res.items)
		progress(logs)
	}

	logs[0].Done = true
	progress(logs)

	return Output{
		Sources: sources,
		Logs:    logs,
		Summary: o.buildSummary(sources, stats, enabled),
	}, nil
}

// usageSummary formats per-provider task counts like "tavily(2), jina(1)"
// in stable provider order.
func (o *Orchestrator) usageSummary(usage map[string]int) string {
	var parts []string
	for _, p := range o.providers {
		if n := usage[p.Name()]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s(%d)", p.Name(), n))
		}
	}
	if len(parts) == 0 {
		return "no providers"
	}
	return strings.Join(parts, ", ")
}

// buildSummary reports total unique sources, per-provider contributions,
// and whether selection was user-directed or policy-directed.
func (o *Orchestrator) buildSummary(sources map[string]types.Source, stats map[string]int, enabled []string) string {
	var breakdown []string
	for _, p := range o.providers {
		if n := stats[p.Name()]; n > 0 {
			breakdown = append(breakdown, fmt.Sprintf("%s: %d", p.Name(), n))
		}
	}

	strategy := "policy-selected providers based on search types"
	if len(enabled) > 0 {
		strategy = "user-specified providers: " + strings.Join(enabled, ", ")
	}

	return fmt.Sprintf(
		"Intelligent search complete!\nTotal unique sources: %d\nProvider breakdown: %s\nSearch strategy: %s",
		len(sources), strings.Join(breakdown, ", "), strategy)
}
