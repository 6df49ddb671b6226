// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ProjectStatus tracks a generated project through publishing and CI.
type ProjectStatus string

const (
	StatusCreated   ProjectStatus = "CREATED"
	StatusActive    ProjectStatus = "ACTIVE"
	StatusBuilding  ProjectStatus = "BUILDING"
	StatusDeploying ProjectStatus = "DEPLOYING"
	StatusDeployed  ProjectStatus = "DEPLOYED"
	StatusFailed    ProjectStatus = "FAILED"
)

// Valid reports whether s is one of the known statuses.
func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusCreated, StatusActive, StatusBuilding, StatusDeploying, StatusDeployed, StatusFailed:
		return true
	}
	return false
}

// GeneratedFile is one rendered file of a project.
type GeneratedFile struct {
	// Path is the slash-separated path relative to the project root.
	Path string `json:"path" yaml:"path"`

	// Source is the catalog template the file was rendered from.
	Source string `json:"source" yaml:"source"`

	// Content is the rendered file body.
	Content string `json:"content,omitempty" yaml:"content,omitempty"`

	// Checksum is the hex sha256 of Content.
	Checksum string `json:"checksum" yaml:"checksum"`

	// Size is len(Content) in bytes.
	Size int `json:"size" yaml:"size"`
}

// Project is the registry record of a generated project.
type Project struct {
	ID          string        `json:"id" yaml:"id"`
	Name        string        `json:"name" yaml:"name"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Stack       TechStack     `json:"stack" yaml:"stack"`
	Status      ProjectStatus `json:"status" yaml:"status"`

	// Digest is the sha256 over every file path and checksum of the
	// generation that produced the project.
	Digest string `json:"digest" yaml:"digest"`

	// OutputDir is where the files were written, empty for preview-only runs.
	OutputDir string `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`

	GitLabProjectID int64  `json:"gitlab_project_id,omitempty" yaml:"gitlab_project_id,omitempty"`
	GitLabURL       string `json:"gitlab_url,omitempty" yaml:"gitlab_url,omitempty"`
	GitCloneURL     string `json:"git_clone_url,omitempty" yaml:"git_clone_url,omitempty"`
	LastPipelineID  int64  `json:"last_pipeline_id,omitempty" yaml:"last_pipeline_id,omitempty"`
	LastPipelineURL string `json:"last_pipeline_url,omitempty" yaml:"last_pipeline_url,omitempty"`

	Files []GeneratedFile `json:"files,omitempty" yaml:"files,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// PipelineRun is one CI pipeline started for a published project.
type PipelineRun struct {
	// ID is the GitLab pipeline id.
	ID  int64  `json:"id" yaml:"id"`
	Ref string `json:"ref" yaml:"ref"`

	// Status is the pipeline status as GitLab reports it (running,
	// success, failed, ...).
	Status string `json:"status" yaml:"status"`
	WebURL string `json:"web_url" yaml:"web_url"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}
