// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/scaffold-engine/internal/logging"
	"github.com/pdiddy/scaffold-engine/internal/registry"
	"github.com/pdiddy/scaffold-engine/internal/scaffold"
	"github.com/pdiddy/scaffold-engine/internal/templates"
	"github.com/pdiddy/scaffold-engine/pkg/types"
)

func newTestServer(t *testing.T, withStore bool) *Server {
	t.Helper()
	c, err := templates.Default()
	require.NoError(t, err)
	gen := scaffold.NewGenerator(c, logging.Discard())

	var store ProjectStore
	if withStore {
		s, err := registry.Open(types.RegistryConfig{DataDir: t.TempDir()})
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		store = s
	}
	return New(types.ServerConfig{}, gen, store, logging.Discard())
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t, false), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestMetrics(t *testing.T) {
	rec := do(t, newTestServer(t, false), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "scaffold_registry_projects")
}

func TestStacks(t *testing.T) {
	rec := do(t, newTestServer(t, false), http.MethodGet, "/api/stacks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "python")
	assert.Contains(t, rec.Body.String(), "angular")
}

func TestRender(t *testing.T) {
	s := newTestServer(t, false)

	rec := do(t, s, http.MethodPost, "/api/render", `{
		"templates": [{"name": "views.py", "content": "'project': '{{PROJECT_NAME}}'"}],
		"vars": {"PROJECT_NAME": "Shop"}
	}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"rendered":[{"name":"views.py","content":"'project': 'Shop'"}]}`, rec.Body.String())
}

func TestRenderMissing(t *testing.T) {
	s := newTestServer(t, false)

	rec := do(t, s, http.MethodPost, "/api/render", `{
		"templates": [
			{"name": "settings.py", "content": "{{DB_NAME}}"},
			{"name": "views.py", "content": "{{PROJECT_NAME}}"}
		],
		"vars": {"PROJECT_NAME": "Shop"}
	}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"DB_NAME"}, body.Missing)
	assert.Equal(t, []string{"settings.py"}, body.Templates["DB_NAME"])
	assert.NotContains(t, rec.Body.String(), "rendered")
}

func TestRenderNoTemplates(t *testing.T) {
	rec := do(t, newTestServer(t, false), http.MethodPost, "/api/render", `{"vars": {}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPreview(t *testing.T) {
	s := newTestServer(t, false)

	rec := do(t, s, http.MethodPost, "/api/projects/preview",
		`{"name": "Shop-API", "backend": "python", "frontend": "react", "use_docker": true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res scaffold.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "shop_api", res.Vars["PROJECT_NAME_UNDERSCORE"])
	assert.Equal(t, types.DatabasePostgres, res.Stack.Database)
	assert.NotEmpty(t, res.Files)
	assert.Len(t, res.Digest, 64)
}

func TestPreviewInvalid(t *testing.T) {
	s := newTestServer(t, false)

	for _, body := range []string{
		`{"name": "x", "backend": "python", "frontend": "react"}`,
		`{"name": "shop", "backend": "cobol", "frontend": "react"}`,
	} {
		rec := do(t, s, http.MethodPost, "/api/projects/preview", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestProjectsWithoutStore(t *testing.T) {
	rec := do(t, newTestServer(t, false), http.MethodGet, "/api/projects", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestProjectLifecycle(t *testing.T) {
	s := newTestServer(t, true)
	create := `{"name": "orders", "backend": "java", "frontend": "vue", "description": "order service"}`

	rec := do(t, s, http.MethodPost, "/api/projects", create)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created types.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, types.StatusCreated, created.Status)
	require.NotEmpty(t, created.Files)
	assert.Empty(t, created.Files[0].Content)

	rec = do(t, s, http.MethodPost, "/api/projects", create)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/projects?status=created", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []types.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "orders", list[0].Name)

	rec = do(t, s, http.MethodGet, "/api/projects?status=bogus", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/projects/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/projects/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/projects/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/projects", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestProjectPipelinesAndStats(t *testing.T) {
	s := newTestServer(t, true)
	store := s.store.(*registry.Store)
	ctx := context.Background()

	p := &types.Project{
		Name:  "orders",
		Stack: types.TechStack{Backend: types.BackendJava, Frontend: types.FrontendVue, Database: types.DatabasePostgres},
	}
	require.NoError(t, store.Create(ctx, p))

	rec := do(t, s, http.MethodGet, "/api/projects/"+p.ID+"/pipelines", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	require.NoError(t, store.SetPipeline(ctx, p.ID, types.PipelineRun{ID: 3, Ref: "main", Status: "success"}, types.StatusDeployed))

	rec = do(t, s, http.MethodGet, "/api/projects/"+p.ID+"/pipelines", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []types.PipelineRun
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, int64(3), runs[0].ID)
	assert.Equal(t, "success", runs[0].Status)

	rec = do(t, s, http.MethodGet, "/api/projects/"+p.ID+"/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var st registry.ProjectStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, 1, st.Pipelines)
	assert.Equal(t, 1, st.Succeeded)

	rec = do(t, s, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var summary struct {
		Total     int            `json:"total"`
		Deployed  int            `json:"deployed"`
		ByBackend map[string]int `json:"by_backend"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Deployed)
	assert.Equal(t, map[string]int{"java": 1}, summary.ByBackend)

	rec = do(t, s, http.MethodGet, "/api/projects/nope/pipelines", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, s, http.MethodGet, "/api/projects/nope/stats", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatsWithoutStore(t *testing.T) {
	rec := do(t, newTestServer(t, false), http.MethodGet, "/api/stats", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
