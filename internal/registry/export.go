// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.yaml.in/yaml/v3"
)

// ExportEntry is the exported view of a project.
type ExportEntry struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Stack     string `json:"stack" yaml:"stack"`
	Status    string `json:"status" yaml:"status"`
	Digest    string `json:"digest" yaml:"digest"`
	GitLabURL string `json:"gitlab_url,omitempty" yaml:"gitlab_url,omitempty"`
	Pipeline  string `json:"pipeline,omitempty" yaml:"pipeline,omitempty"`
	CreatedAt string `json:"created_at" yaml:"created_at"`
}

// Export writes the projects matching opts to w as "yaml" or "json".
func (s *Store) Export(ctx context.Context, w io.Writer, format string, opts ListOptions) error {
	projects, err := s.List(ctx, opts)
	if err != nil {
		return fmt.Errorf("querying for export: %w", err)
	}

	entries := make([]ExportEntry, len(projects))
	for i, p := range projects {
		entries[i] = ExportEntry{
			ID:        p.ID,
			Name:      p.Name,
			Stack:     p.Stack.String(),
			Status:    string(p.Status),
			Digest:    p.Digest,
			GitLabURL: p.GitLabURL,
			Pipeline:  p.LastPipelineURL,
			CreatedAt: p.CreatedAt.Format(time.RFC3339),
		}
	}

	switch format {
	case "", "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown export format %q (want yaml or json)", format)
	}
}
