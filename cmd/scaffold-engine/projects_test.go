// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/scaffold-engine/internal/registry"
	"github.com/pdiddy/scaffold-engine/pkg/types"
)

func TestPrintPipelines(t *testing.T) {
	runs := []types.PipelineRun{
		{ID: 12, Ref: "main", Status: "success", WebURL: "https://gitlab.example.com/p/-/pipelines/12", CreatedAt: time.Now()},
		{ID: 11, Ref: "main", Status: "failed", WebURL: "https://gitlab.example.com/p/-/pipelines/11", CreatedAt: time.Now()},
	}

	tests := []struct {
		name   string
		runs   []types.PipelineRun
		format string
		check  func(t *testing.T, out string)
	}{
		{
			name:   "table",
			runs:   runs,
			format: "table",
			check: func(t *testing.T, out string) {
				assert.Contains(t, out, "Pipeline")
				assert.Contains(t, out, "12")
				assert.Contains(t, out, "failed")
				assert.Contains(t, out, "pipelines/11")
			},
		},
		{
			name:   "empty table",
			format: "table",
			check: func(t *testing.T, out string) {
				assert.Equal(t, "No pipelines recorded.\n", out)
			},
		},
		{
			name:   "json",
			runs:   runs,
			format: "json",
			check: func(t *testing.T, out string) {
				var got []types.PipelineRun
				require.NoError(t, json.Unmarshal([]byte(out), &got))
				require.Len(t, got, 2)
				assert.Equal(t, int64(12), got[0].ID)
			},
		},
		{
			name:   "empty json",
			format: "json",
			check: func(t *testing.T, out string) {
				assert.JSONEq(t, `[]`, out)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, printPipelines(&buf, tt.runs, tt.format))
			tt.check(t, buf.String())
		})
	}

	assert.Error(t, printPipelines(&bytes.Buffer{}, runs, "csv"))
}

func TestPrintStats(t *testing.T) {
	st := &registry.Stats{
		Total:     3,
		ByStatus:  map[types.ProjectStatus]int{types.StatusDeployed: 1, types.StatusCreated: 2},
		ByBackend: map[types.BackendTech]int{types.BackendPython: 3},
		Pipelines: 4,
	}
	var buf bytes.Buffer
	printStats(&buf, st)
	out := buf.String()

	assert.Contains(t, out, "Projects:   3\n")
	assert.Contains(t, out, "Deployed:   1\n")
	assert.Contains(t, out, "Pipelines:  4\n")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("CREATED")), bytes.Index(buf.Bytes(), []byte("DEPLOYED")), "statuses are sorted")
	assert.Contains(t, out, "python")
}
