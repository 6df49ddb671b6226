// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  Set
	}{
		{
			name: "trims values",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, GitLabToken, "  glpat-abc123 \n")
				writeFile(t, dir, GitLabURL, "https://gitlab.example.com\n")
				return dir
			},
			want: Set{GitLabToken: "glpat-abc123", GitLabURL: "https://gitlab.example.com"},
		},
		{
			name: "missing directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "absent")
			},
			want: Set{},
		},
		{
			name: "skips hidden, empty and directories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ".gitkeep", "x")
				writeFile(t, dir, "empty", "  \n")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
				writeFile(t, dir, GitLabToken, "tok")
				return dir
			},
			want: Set{GitLabToken: "tok"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.setup(t))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadNotADirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	writeFile(t, filepath.Dir(path), "file", "x")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestGet(t *testing.T) {
	s := Set{GitLabToken: "tok"}
	assert.Equal(t, "tok", s.Get(GitLabToken))
	assert.Empty(t, s.Get("missing"))
}
