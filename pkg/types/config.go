// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that call
// remote APIs.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries caps retries on 429/503 answers (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// LogConfig selects the logrus level and formatter.
type LogConfig struct {
	// Level is one of debug, info, warn, error (default info).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is text or json (default text).
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// GeneratorConfig holds settings for the generation pass.
type GeneratorConfig struct {
	// TemplatesDir replaces the embedded catalog when set.
	TemplatesDir string `json:"templates_dir" yaml:"templates_dir" mapstructure:"templates_dir"`

	// OutputDir is the parent directory for generated projects (default ".").
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// Defaults seed the stack when flags are omitted.
	Defaults TechStack `json:"defaults" yaml:"defaults" mapstructure:"defaults"`
}

// RegistryConfig holds settings for the project registry.
type RegistryConfig struct {
	// DataDir contains registry.db (default ".scaffold-engine").
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
}

// GitLabConfig holds settings for publishing projects to GitLab.
type GitLabConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// URL is the GitLab base URL without /api/v4 (e.g. "https://gitlab.example.com").
	URL string `json:"url" yaml:"url" mapstructure:"url"`

	// Token is the personal access token sent as PRIVATE-TOKEN.
	Token string `json:"-" yaml:"-" mapstructure:"token"`

	// DefaultBranch receives the initial commit (default "main").
	DefaultBranch string `json:"default_branch" yaml:"default_branch" mapstructure:"default_branch"`

	// Visibility of created projects (default "private").
	Visibility string `json:"visibility" yaml:"visibility" mapstructure:"visibility"`

	// NamespaceID places new projects in a group when non-zero.
	NamespaceID int64 `json:"namespace_id,omitempty" yaml:"namespace_id,omitempty" mapstructure:"namespace_id"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// ShutdownTimeout bounds graceful shutdown (default 10s).
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// Config groups every section of scaffold-engine.yaml.
type Config struct {
	Log       LogConfig       `json:"log" yaml:"log" mapstructure:"log"`
	Generator GeneratorConfig `json:"generator" yaml:"generator" mapstructure:"generator"`
	Registry  RegistryConfig  `json:"registry" yaml:"registry" mapstructure:"registry"`
	GitLab    GitLabConfig    `json:"gitlab" yaml:"gitlab" mapstructure:"gitlab"`
	Server    ServerConfig    `json:"server" yaml:"server" mapstructure:"server"`
}
