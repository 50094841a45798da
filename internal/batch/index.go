package batch

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/beamstd/internal/store"
)

// IndexEntry is one run in the batch index.
type IndexEntry struct {
	File    string         `yaml:"file"`
	ID      string         `yaml:"id"`
	Summary map[string]any `yaml:"summary,omitempty"`
}

// Index renders the YAML index for a set of combined runs.
func Index(entries []store.BatchEntry) ([]byte, error) {
	idx := make([]IndexEntry, 0, len(entries))
	for _, e := range entries {
		rec := e.Record
		summary := make(map[string]any)
		for _, key := range rec.SummaryKeys() {
			v, _ := rec.SummaryValue(key)
			summary[key] = v
		}
		idx = append(idx, IndexEntry{
			File:    e.SourceFile,
			ID:      rec.ID(),
			Summary: summary,
		})
	}

	data, err := yaml.Marshal(idx)
	if err != nil {
		return nil, fmt.Errorf("render batch index: %w", err)
	}
	return data, nil
}

// WriteIndex writes the YAML index to path.
func WriteIndex(path string, entries []store.BatchEntry) error {
	data, err := Index(entries)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write batch index: %w", err)
	}
	return nil
}
