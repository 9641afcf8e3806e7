// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// ExportYAML writes every stored paper to path as a YAML list. An
// empty path defaults to export.yaml inside the library directory.
func (s *Store) ExportYAML(ctx context.Context, path string) error {
	entries, err := s.List(ctx)
	if err != nil {
		return fmt.Errorf("querying for export: %w", err)
	}

	if path == "" {
		path = filepath.Join(s.libraryDir, "export.yaml")
	}

	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON writes every stored paper to path as a JSON array. An
// empty path defaults to export.json inside the library directory.
func (s *Store) ExportJSON(ctx context.Context, path string) error {
	entries, err := s.List(ctx)
	if err != nil {
		return fmt.Errorf("querying for export: %w", err)
	}

	if path == "" {
		path = filepath.Join(s.libraryDir, "export.json")
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
