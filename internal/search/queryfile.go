// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/datahackshaw/sourcesearch/pkg/types"
)

// QueryFile is the on-disk representation of a search query and its results.
// The researcher can save a search to a file and reload it later without
// re-querying APIs.
type QueryFile struct {
	Query   string              `yaml:"query"`
	Config  QueryFileConfig     `yaml:"config"`
	Records []types.PaperRecord `yaml:"records"`
	Summary QuerySummary        `yaml:"summary"`
}

// QueryFileConfig stores the search configuration that produced the records.
type QueryFileConfig struct {
	PerSourceCap int `yaml:"per_source_cap"`
	RequestRows  int `yaml:"request_rows"`
}

// QuerySummary stores result statistics and a timestamp.
type QuerySummary struct {
	Total        int            `yaml:"total"`
	BySource     map[string]int `yaml:"by_source,omitempty"`
	SourceErrors []string       `yaml:"source_errors,omitempty"`
	Timestamp    time.Time      `yaml:"timestamp"`
}

// WriteQueryFile saves the query and its results to a YAML file.
func WriteQueryFile(path, query string, cfg types.SearchConfig, out Output) error {
	qf := QueryFile{
		Query: query,
		Config: QueryFileConfig{
			PerSourceCap: cfg.PerSourceCap,
			RequestRows:  cfg.RequestRows,
		},
		Records: out.Records,
		Summary: QuerySummary{
			Total:        len(out.Records),
			BySource:     sourceCounts(out.BySource),
			SourceErrors: out.SourceErrors,
			Timestamp:    time.Now(),
		},
	}

	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// sourceCounts flattens the per-source tallies to plain string keys so the
// file schema stays independent of the Source type.
func sourceCounts(bySource map[types.Source]int) map[string]int {
	if len(bySource) == 0 {
		return nil
	}
	m := make(map[string]int, len(bySource))
	for src, n := range bySource {
		m[string(src)] = n
	}
	return m
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	return &qf, nil
}
