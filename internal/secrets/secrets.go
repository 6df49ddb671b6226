// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// The filename is the key and the trimmed contents are the value, so a
// GitLab token lives in .secrets/gitlab-token.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Known keys.
const (
	GitLabToken = "gitlab-token"
	GitLabURL   = "gitlab-url"
)

// Set holds loaded secrets by key.
type Set map[string]string

// Get returns the value of key, or "" when absent.
func (s Set) Get(key string) string {
	return s[key]
}

// Load reads every regular, non-hidden file in dir. A missing directory is
// not an error and yields an empty Set; unreadable files are skipped with
// a warning.
func Load(dir string) (Set, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Set{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	set := make(Set)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.WithField("secret", name).WithError(err).Warn("Could not read secret")
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			set[name] = value
		}
	}
	return set, nil
}
