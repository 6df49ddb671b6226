// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gitlab

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/scaffold-engine/pkg/types"
)

type recorded struct {
	method string
	path   string
	token  string
	body   map[string]any
}

func testClient(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Client, *[]recorded) {
	t.Helper()
	var calls []recorded
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path, token: r.Header.Get("PRIVATE-TOKEN")}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&rec.body)
		}
		calls = append(calls, rec)
		handler(w, r)
	}))
	t.Cleanup(ts.Close)

	c, err := New(types.GitLabConfig{URL: ts.URL + "/", Token: "glpat-test", NamespaceID: 12}, WithHTTPClient(ts.Client()))
	require.NoError(t, err)
	return c, &calls
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  types.GitLabConfig
	}{
		{name: "missing url", cfg: types.GitLabConfig{Token: "t"}},
		{name: "missing token", cfg: types.GitLabConfig{URL: "https://gitlab.example.com"}},
		{name: "relative url", cfg: types.GitLabConfig{URL: "gitlab.example.com", Token: "t"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.Error(t, err)
		})
	}

	c, err := New(types.GitLabConfig{URL: "https://gitlab.example.com", Token: "t"})
	require.NoError(t, err)
	assert.Equal(t, "main", c.DefaultBranch())
	assert.Equal(t, "https://gitlab.example.com/api/v4", c.baseURL)
}

func TestCreateProject(t *testing.T) {
	c, calls := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]any{
			"id": 101, "name": "Shop_API", "path": "shop-api",
			"web_url":          "https://gitlab.example.com/team/shop-api",
			"http_url_to_repo": "https://gitlab.example.com/team/shop-api.git",
		})
	})

	p, err := c.CreateProject(context.Background(), "Shop_API", "demo")
	require.NoError(t, err)
	assert.Equal(t, int64(101), p.ID)
	assert.Equal(t, "https://gitlab.example.com/team/shop-api.git", p.HTTPURLToRepo)

	require.Len(t, *calls, 1)
	got := (*calls)[0]
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/api/v4/projects", got.path)
	assert.Equal(t, "glpat-test", got.token)
	assert.Equal(t, "shop-api", got.body["path"])
	assert.Equal(t, "private", got.body["visibility"])
	assert.Equal(t, float64(12), got.body["namespace_id"])
	assert.Equal(t, false, got.body["initialize_with_readme"])
}

func TestCommitFiles(t *testing.T) {
	c, calls := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]any{"id": "deadbeef", "short_id": "deadbee"})
	})

	files := []types.GeneratedFile{
		{Path: "README.md", Content: "# shop\n"},
		{Path: "backend/manage.py", Content: "#!/usr/bin/env python\n"},
	}
	commit, err := c.CommitFiles(context.Background(), 101, "Initial commit", files)
	require.NoError(t, err)
	assert.Equal(t, "deadbee", commit.ShortID)

	got := (*calls)[0]
	assert.Equal(t, "/api/v4/projects/101/repository/commits", got.path)
	assert.Equal(t, "main", got.body["branch"])
	actions := got.body["actions"].([]any)
	require.Len(t, actions, 2)
	first := actions[0].(map[string]any)
	assert.Equal(t, "create", first["action"])
	assert.Equal(t, "README.md", first["file_path"])
	assert.Nil(t, first["execute_filemode"])
	assert.Equal(t, true, actions[1].(map[string]any)["execute_filemode"])

	_, err = c.CommitFiles(context.Background(), 101, "empty", nil)
	assert.Error(t, err)
}

func TestPipelines(t *testing.T) {
	c, calls := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			writeJSON(w, http.StatusCreated, map[string]any{"id": 7, "status": "pending", "ref": "main", "web_url": "https://gitlab.example.com/p/-/pipelines/7"})
		default:
			writeJSON(w, http.StatusOK, map[string]any{"id": 7, "status": "success", "ref": "main"})
		}
	})
	ctx := context.Background()

	p, err := c.TriggerPipeline(ctx, 101, "")
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.ID)
	assert.Equal(t, "pending", p.Status)

	p, err = c.Pipeline(ctx, 101, 7)
	require.NoError(t, err)
	assert.Equal(t, "success", p.Status)

	require.Len(t, *calls, 2)
	assert.Equal(t, "/api/v4/projects/101/pipeline", (*calls)[0].path)
	assert.Equal(t, "main", (*calls)[0].body["ref"])
	assert.Equal(t, "/api/v4/projects/101/pipelines/7", (*calls)[1].path)
}

func TestDeleteProject(t *testing.T) {
	c, calls := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	require.NoError(t, c.DeleteProject(context.Background(), 101))
	assert.Equal(t, http.MethodDelete, (*calls)[0].method)
	assert.Equal(t, "/api/v4/projects/101", (*calls)[0].path)
}

func TestAPIError(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": map[string]any{"path": []string{"has already been taken"}}})
	})

	_, err := c.CreateProject(context.Background(), "shop", "")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Contains(t, apiErr.Body, "has already been taken")
}

func TestProjectPath(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{name: "Shop_API", want: "shop-api"},
		{name: "orders-2", want: "orders-2"},
		{name: "_demo", want: "demo"},
		{name: "demo_", want: "demo"},
		{name: "-demo-", want: "demo"},
		{name: "my__shop--api", want: "my-shop-api"},
		{name: "__", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ProjectPath(tt.name))
		})
	}
}

func TestCreateProjectRejectsEmptyPath(t *testing.T) {
	c, err := New(types.GitLabConfig{URL: "http://gitlab.invalid", Token: "t"})
	require.NoError(t, err)
	_, err = c.CreateProject(context.Background(), "__", "")
	assert.ErrorContains(t, err, "GitLab path")
}

func TestProjectStatus(t *testing.T) {
	tests := map[string]types.ProjectStatus{
		"pending":  types.StatusBuilding,
		"running":  types.StatusBuilding,
		"success":  types.StatusDeployed,
		"failed":   types.StatusFailed,
		"canceled": types.StatusFailed,
		"manual":   types.StatusActive,
	}
	for in, want := range tests {
		assert.Equal(t, want, ProjectStatus(in), in)
	}
}
