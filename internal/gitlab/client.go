// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package gitlab is a small client for the GitLab REST API (v4) covering
// what publishing a generated project needs: creating the project,
// committing its files, and running pipelines.
package gitlab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/pdiddy/scaffold-engine/internal/httputil"
	"github.com/pdiddy/scaffold-engine/internal/metrics"
	"github.com/pdiddy/scaffold-engine/pkg/types"
)

const (
	apiPrefix         = "/api/v4"
	defaultBranch     = "main"
	defaultVisibility = "private"
	defaultTimeout    = 30 * time.Second
	maxErrorBody      = 4096
)

// APIError is a non-2xx answer from GitLab.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("gitlab: HTTP %d", e.Status)
	}
	return fmt.Sprintf("gitlab: HTTP %d: %s", e.Status, e.Body)
}

// Client talks to one GitLab instance.
type Client struct {
	baseURL string
	cfg     types.GitLabConfig
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New returns a client for cfg.URL authenticated with cfg.Token.
func New(cfg types.GitLabConfig, opts ...Option) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("gitlab url is not configured")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("gitlab token is not configured")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid gitlab url %q", cfg.URL)
	}
	if cfg.DefaultBranch == "" {
		cfg.DefaultBranch = defaultBranch
	}
	if cfg.Visibility == "" {
		cfg.Visibility = defaultVisibility
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.URL, "/") + apiPrefix,
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// DefaultBranch returns the branch commits and pipelines target.
func (c *Client) DefaultBranch() string {
	return c.cfg.DefaultBranch
}

// do sends a JSON request and decodes a JSON answer into out when non-nil.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding %s request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating %s request: %w", op, err)
	}
	req.Header.Set("PRIVATE-TOKEN", c.cfg.Token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	start := time.Now()
	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.cfg.MaxRetries)
	if err != nil {
		metrics.GitLabRequestsTotal.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("gitlab %s: %w", op, err)
	}
	defer resp.Body.Close()

	metrics.GitLabRequestsTotal.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Inc()
	log.WithFields(log.Fields{
		"op":       op,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("GitLab request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing gitlab %s response: %w", op, err)
	}
	return nil
}

// Project is the subset of a GitLab project we keep.
type Project struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Path          string `json:"path"`
	WebURL        string `json:"web_url"`
	HTTPURLToRepo string `json:"http_url_to_repo"`
	SSHURLToRepo  string `json:"ssh_url_to_repo"`
}

// pathUnsafe matches characters GitLab does not accept in project paths.
var pathUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// ProjectPath turns a project name into a GitLab path. GitLab rejects paths
// that start or end with a dash or repeat special characters, so runs of
// anything outside [a-z0-9] become one dash and edge dashes are dropped.
func ProjectPath(name string) string {
	return strings.Trim(pathUnsafe.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

// CreateProject creates an empty project. The repository is not
// initialised so the first commit can create every file.
func (c *Client) CreateProject(ctx context.Context, name, description string) (*Project, error) {
	path := ProjectPath(name)
	if path == "" {
		return nil, fmt.Errorf("project name %q has no letters or digits for a GitLab path", name)
	}
	body := map[string]any{
		"name":                   name,
		"path":                   path,
		"description":            description,
		"visibility":             c.cfg.Visibility,
		"default_branch":         c.cfg.DefaultBranch,
		"initialize_with_readme": false,
	}
	if c.cfg.NamespaceID != 0 {
		body["namespace_id"] = c.cfg.NamespaceID
	}

	var p Project
	if err := c.do(ctx, "create_project", http.MethodPost, "/projects", body, &p); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"project": name, "id": p.ID, "url": p.WebURL}).Info("Created GitLab project")
	return &p, nil
}

// DeleteProject schedules project id for deletion.
func (c *Client) DeleteProject(ctx context.Context, id int64) error {
	if err := c.do(ctx, "delete_project", http.MethodDelete, "/projects/"+strconv.FormatInt(id, 10), nil, nil); err != nil {
		return err
	}
	log.WithField("id", id).Info("Deleted GitLab project")
	return nil
}

// Commit is the subset of a GitLab commit we keep.
type Commit struct {
	ID      string `json:"id"`
	ShortID string `json:"short_id"`
	Title   string `json:"title"`
	WebURL  string `json:"web_url"`
}

type commitAction struct {
	Action          string `json:"action"`
	FilePath        string `json:"file_path"`
	Content         string `json:"content"`
	ExecuteFilemode bool   `json:"execute_filemode,omitempty"`
}

type commitRequest struct {
	Branch        string         `json:"branch"`
	CommitMessage string         `json:"commit_message"`
	Actions       []commitAction `json:"actions"`
}

// CommitFiles adds files to project id on the default branch in a single
// commit.
func (c *Client) CommitFiles(ctx context.Context, id int64, message string, files []types.GeneratedFile) (*Commit, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to commit")
	}
	req := commitRequest{
		Branch:        c.cfg.DefaultBranch,
		CommitMessage: message,
		Actions:       make([]commitAction, 0, len(files)),
	}
	for _, f := range files {
		req.Actions = append(req.Actions, commitAction{
			Action:          "create",
			FilePath:        f.Path,
			Content:         f.Content,
			ExecuteFilemode: strings.HasPrefix(f.Content, "#!"),
		})
	}

	var commit Commit
	path := "/projects/" + strconv.FormatInt(id, 10) + "/repository/commits"
	if err := c.do(ctx, "commit_files", http.MethodPost, path, req, &commit); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"id": id, "files": len(files), "commit": commit.ShortID}).Info("Committed project files")
	return &commit, nil
}

// Pipeline is the subset of a GitLab pipeline we keep.
type Pipeline struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
	Ref    string `json:"ref"`
	WebURL string `json:"web_url"`
}

// Run converts p into the registry's pipeline record.
func (p *Pipeline) Run() types.PipelineRun {
	return types.PipelineRun{ID: p.ID, Ref: p.Ref, Status: p.Status, WebURL: p.WebURL}
}

// TriggerPipeline starts a pipeline on ref, or on the default branch when
// ref is empty.
func (c *Client) TriggerPipeline(ctx context.Context, id int64, ref string) (*Pipeline, error) {
	if ref == "" {
		ref = c.cfg.DefaultBranch
	}
	var p Pipeline
	path := "/projects/" + strconv.FormatInt(id, 10) + "/pipeline"
	if err := c.do(ctx, "trigger_pipeline", http.MethodPost, path, map[string]string{"ref": ref}, &p); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"id": id, "pipeline": p.ID, "ref": ref}).Info("Triggered pipeline")
	return &p, nil
}

// Pipeline fetches one pipeline of project id.
func (c *Client) Pipeline(ctx context.Context, id, pipelineID int64) (*Pipeline, error) {
	var p Pipeline
	path := fmt.Sprintf("/projects/%d/pipelines/%d", id, pipelineID)
	if err := c.do(ctx, "pipeline", http.MethodGet, path, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ProjectStatus maps a GitLab pipeline status onto the registry status of
// the project it builds.
func ProjectStatus(pipelineStatus string) types.ProjectStatus {
	switch pipelineStatus {
	case "created", "waiting_for_resource", "preparing", "pending", "running":
		return types.StatusBuilding
	case "success":
		return types.StatusDeployed
	case "failed", "canceled":
		return types.StatusFailed
	default:
		return types.StatusActive
	}
}
