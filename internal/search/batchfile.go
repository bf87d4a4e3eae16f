// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"sort"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// BatchFile is the on-disk representation of a search batch and its
// aggregated sources. A researcher can save an orchestrator run to a file
// and reload the requests later without re-querying providers.
type BatchFile struct {
	Searches  []types.SearchRequest `yaml:"searches"`
	Providers []string              `yaml:"providers,omitempty"`
	Sources   []types.Source        `yaml:"sources"`
	Summary   BatchSummary          `yaml:"summary"`
}

// BatchSummary stores aggregate statistics and a timestamp for one run.
type BatchSummary struct {
	TotalSources int       `yaml:"total_sources"`
	TaskErrors   []string  `yaml:"task_errors,omitempty"`
	Timestamp    time.Time `yaml:"timestamp"`
}

// WriteBatchFile saves the batch, the provider selection, and the run's
// aggregated sources to a YAML file. Sources are sorted by URL so the file
// is diff-stable.
func WriteBatchFile(path string, searches []types.SearchRequest, providers []string, out Output) error {
	bf := BatchFile{
		Searches:  searches,
		Providers: providers,
		Summary: BatchSummary{
			TotalSources: len(out.Sources),
			Timestamp:    time.Now(),
		},
	}

	for _, src := range out.Sources {
		bf.Sources = append(bf.Sources, src)
	}
	sort.Slice(bf.Sources, func(i, j int) bool { return bf.Sources[i].URL < bf.Sources[j].URL })

	for _, entry := range out.Logs {
		if entry.Error != "" {
			bf.Summary.TaskErrors = append(bf.Summary.TaskErrors, entry.Error)
		}
	}

	data, err := yaml.Marshal(&bf)
	if err != nil {
		return fmt.Errorf("marshaling batch file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadBatchFile loads a previously saved batch file from disk.
func ReadBatchFile(path string) (*BatchFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading batch file: %w", err)
	}
	var bf BatchFile
	if err := yaml.Unmarshal(data, &bf); err != nil {
		return nil, fmt.Errorf("parsing batch file: %w", err)
	}
	return &bf, nil
}
