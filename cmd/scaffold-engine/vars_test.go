// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/scaffold-engine/internal/placeholder"
)

func TestReadVarsFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    placeholder.Vars
		wantErr bool
	}{
		{
			name:    "scalars",
			content: "DB_NAME: shop\nBACKEND_PORT: 9000\nDEBUG: true\nEMPTY:\n",
			want:    placeholder.Vars{"DB_NAME": "shop", "BACKEND_PORT": "9000", "DEBUG": "true", "EMPTY": ""},
		},
		{name: "nested value", content: "DB:\n  NAME: x\n", wantErr: true},
		{name: "invalid key", content: "\"db name\": x\n", wantErr: true},
		{name: "not yaml", content: "a: [\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "vars.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			got, err := readVarsFile(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOverridesFromFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vars.yaml")
	require.NoError(t, os.WriteFile(path, []byte("DB_NAME: from_file\nAPI_PREFIX: api\n"), 0o644))

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringArray("var", nil, "")
	cmd.Flags().String("vars-file", "", "")
	require.NoError(t, cmd.Flags().Parse([]string{"--vars-file", path, "--var", "DB_NAME=from_flag"}))

	got, err := overridesFromFlags(cmd)
	require.NoError(t, err)
	assert.Equal(t, placeholder.Vars{"DB_NAME": "from_flag", "API_PREFIX": "api"}, got)
}

func TestWriteVars(t *testing.T) {
	vars := placeholder.Vars{"PROJECT_NAME": "Shop", "DB_NAME": "shop"}

	var buf bytes.Buffer
	require.NoError(t, writeVars(&buf, vars, "env"))
	assert.Equal(t, "DB_NAME=shop\nPROJECT_NAME=Shop\n", buf.String())

	buf.Reset()
	require.NoError(t, writeVars(&buf, vars, "yaml"))
	assert.Equal(t, "DB_NAME: shop\nPROJECT_NAME: Shop\n", buf.String())

	buf.Reset()
	require.NoError(t, writeVars(&buf, vars, "json"))
	assert.JSONEq(t, `{"DB_NAME":"shop","PROJECT_NAME":"Shop"}`, buf.String())

	assert.Error(t, writeVars(&buf, vars, "toml"))
}
