// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/scaffold-engine/internal/gitlab"
	"github.com/pdiddy/scaffold-engine/internal/registry"
	"github.com/pdiddy/scaffold-engine/pkg/types"
)

// fakeGitLab serves project creation and commits; commits fail until
// failCommits reaches zero.
type fakeGitLab struct {
	mu          sync.Mutex
	failCommits int
	creates     int
	commits     int
}

func (f *fakeGitLab) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	switch r.URL.Path {
	case "/api/v4/projects":
		f.creates++
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": 55, "web_url": "https://gitlab.example.com/g/demo", "http_url_to_repo": "https://gitlab.example.com/g/demo.git",
		})
	case "/api/v4/projects/55/repository/commits":
		f.commits++
		if f.failCommits > 0 {
			f.failCommits--
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{"message": "A file with this name already exists"})
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "abc123def", "short_id": "abc123d"})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func publishFixture(t *testing.T, failCommits int) (*fakeGitLab, *gitlab.Client, *registry.Store, *types.Project) {
	t.Helper()
	fake := &fakeGitLab{failCommits: failCommits}
	ts := httptest.NewServer(fake)
	t.Cleanup(ts.Close)

	client, err := gitlab.New(types.GitLabConfig{URL: ts.URL, Token: "glpat-test"}, gitlab.WithHTTPClient(ts.Client()))
	require.NoError(t, err)

	store := openTestRegistry(t)
	req, res := testResult("demo")
	p := &types.Project{Name: req.Name, Stack: res.Stack, Digest: res.Digest, Files: res.Files}
	require.NoError(t, store.Create(context.Background(), p))
	return fake, client, store, p
}

func TestPublish(t *testing.T) {
	ctx := context.Background()
	fake, client, store, p := publishFixture(t, 0)

	require.NoError(t, publish(ctx, client, store, p, ""))
	assert.Equal(t, 1, fake.creates)
	assert.Equal(t, 1, fake.commits)

	got, err := store.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusActive, got.Status)
	assert.Equal(t, int64(55), got.GitLabProjectID)

	err = publish(ctx, client, store, got, "")
	assert.ErrorContains(t, err, "already published")
	assert.Equal(t, 1, fake.creates)
}

func TestPublishRetriesFailedCommit(t *testing.T) {
	ctx := context.Background()
	fake, client, store, p := publishFixture(t, 1)

	err := publish(ctx, client, store, p, "")
	require.Error(t, err)
	assert.ErrorContains(t, err, "committing files")

	got, err := store.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusFailed, got.Status)
	assert.Equal(t, int64(55), got.GitLabProjectID)
	assert.True(t, commitPending(got))

	require.NoError(t, publish(ctx, client, store, got, ""))
	assert.Equal(t, 1, fake.creates, "the GitLab project is not created twice")
	assert.Equal(t, 2, fake.commits)

	got, err = store.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusActive, got.Status)
	assert.False(t, commitPending(got))
}

func TestCommitPending(t *testing.T) {
	tests := []struct {
		name string
		p    types.Project
		want bool
	}{
		{name: "not published", p: types.Project{Status: types.StatusFailed}},
		{name: "published", p: types.Project{GitLabProjectID: 1, Status: types.StatusActive}},
		{name: "commit failed", p: types.Project{GitLabProjectID: 1, Status: types.StatusFailed}, want: true},
		{name: "pipeline failed", p: types.Project{GitLabProjectID: 1, Status: types.StatusFailed, LastPipelineID: 9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, commitPending(&tt.p))
		})
	}
}
