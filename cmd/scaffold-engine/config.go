// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/scaffold-engine/internal/gitlab"
	"github.com/pdiddy/scaffold-engine/internal/registry"
	"github.com/pdiddy/scaffold-engine/internal/scaffold"
	"github.com/pdiddy/scaffold-engine/internal/secrets"
	"github.com/pdiddy/scaffold-engine/internal/templates"
	"github.com/pdiddy/scaffold-engine/pkg/types"
)

// envKeyReplacer maps "gitlab.url" to SCAFFOLD_ENGINE_GITLAB_URL.
var envKeyReplacer = strings.NewReplacer(".", "_")

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("generator.output_dir", ".")
	v.SetDefault("generator.defaults.backend", string(types.BackendPython))
	v.SetDefault("generator.defaults.frontend", string(types.FrontendReact))
	v.SetDefault("generator.defaults.database", string(types.DatabasePostgres))
	v.SetDefault("generator.defaults.use_docker", true)
	v.SetDefault("registry.data_dir", ".scaffold-engine")
	v.SetDefault("gitlab.url", "")
	v.SetDefault("gitlab.token", "")
	v.SetDefault("gitlab.default_branch", "main")
	v.SetDefault("gitlab.visibility", "private")
	v.SetDefault("gitlab.namespace_id", 0)
	v.SetDefault("gitlab.timeout", 30*time.Second)
	v.SetDefault("gitlab.user_agent", "scaffold-engine/"+version)
	v.SetDefault("gitlab.max_retries", 5)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
}

// loadConfig resolves defaults, the config file, environment and flags
// into a types.Config. Secrets fill credentials the config leaves empty.
func loadConfig() (types.Config, error) {
	setDefaults(viper.GetViper())

	var c types.Config
	if err := viper.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decoding configuration: %w", err)
	}
	if c.GitLab.Token == "" {
		c.GitLab.Token = loadedSecrets.Get(secrets.GitLabToken)
	}
	if c.GitLab.URL == "" {
		c.GitLab.URL = loadedSecrets.Get(secrets.GitLabURL)
	}
	return c, nil
}

func openCatalog() (*templates.Catalog, error) {
	return templates.Open(cfg.Generator.TemplatesDir)
}

func newGenerator() (*scaffold.Generator, error) {
	catalog, err := openCatalog()
	if err != nil {
		return nil, err
	}
	return scaffold.NewGenerator(catalog, nil), nil
}

func openRegistry() (*registry.Store, error) {
	return registry.Open(cfg.Registry)
}

func gitlabClient() (*gitlab.Client, error) {
	c, err := gitlab.New(cfg.GitLab)
	if err != nil {
		return nil, fmt.Errorf("%w (set gitlab.url and gitlab.token, or put the token in %s%s)", err, secretsDir, secrets.GitLabToken)
	}
	return c, nil
}
