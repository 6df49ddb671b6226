// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package variables derives the placeholder map for a project from its name
// and technology stack.
package variables

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/scaffold-engine/internal/placeholder"
	"github.com/pdiddy/scaffold-engine/pkg/types"
)

const (
	minNameLen = 2
	maxNameLen = 100
)

// namePattern is the character set accepted in project names.
var namePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// unsafeChars matches everything that is not a lower-case letter or digit.
var unsafeChars = regexp.MustCompile(`[^a-z0-9]`)

// ValidateName checks a project name: 2 to 100 characters of letters,
// digits, hyphens and underscores.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("project name is required")
	}
	if n := len(name); n < minNameLen || n > maxNameLen {
		return fmt.Errorf("project name must be %d to %d characters, got %d", minNameLen, maxNameLen, n)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("project name %q may contain only letters, digits, hyphens and underscores", name)
	}
	return nil
}

// ParseStack validates stack values given as strings. Matching is case
// insensitive; an empty database selects postgres.
func ParseStack(backend, frontend, database string, useDocker bool) (types.TechStack, error) {
	stack := types.TechStack{UseDocker: useDocker}

	b := types.BackendTech(strings.ToLower(strings.TrimSpace(backend)))
	if !contains(types.Backends, b) {
		return stack, fmt.Errorf("unsupported backend %q (want one of %v)", backend, types.Backends)
	}
	stack.Backend = b

	f := types.FrontendTech(strings.ToLower(strings.TrimSpace(frontend)))
	if !contains(types.Frontends, f) {
		return stack, fmt.Errorf("unsupported frontend %q (want one of %v)", frontend, types.Frontends)
	}
	stack.Frontend = f

	d := types.DatabaseTech(strings.ToLower(strings.TrimSpace(database)))
	if d == "" {
		d = types.DatabasePostgres
	}
	if !contains(types.Databases, d) {
		return stack, fmt.Errorf("unsupported database %q (want one of %v)", database, types.Databases)
	}
	stack.Database = d

	return stack, nil
}

// Derive builds the base variables shared by every template of a project.
func Derive(name string, stack types.TechStack) (placeholder.Vars, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	stack, err := ParseStack(string(stack.Backend), string(stack.Frontend), string(stack.Database), stack.UseDocker)
	if err != nil {
		return nil, err
	}

	lower := strings.ToLower(name)
	safe := unsafeChars.ReplaceAllString(lower, "")
	underscore := unsafeChars.ReplaceAllString(lower, "_")
	dash := unsafeChars.ReplaceAllString(lower, "-")

	port := "8080"
	if stack.Backend == types.BackendPython {
		port = "8000"
	}

	docker, dockerLabel := "false", "No"
	if stack.UseDocker {
		docker, dockerLabel = "true", "Yes"
	}

	return placeholder.Vars{
		"PROJECT_NAME":            name,
		"PROJECT_NAME_LOWER":      lower,
		"PROJECT_NAME_SAFE":       safe,
		"PROJECT_NAME_UNDERSCORE": underscore,
		"PROJECT_NAME_DASH":       dash,
		"PACKAGE_NAME":            safe,
		"PACKAGE_PATH":            "com/" + safe,
		"BACKEND_TECH":            string(stack.Backend),
		"BACKEND_LABEL":           stack.Backend.Label(),
		"FRONTEND_TECH":           string(stack.Frontend),
		"FRONTEND_LABEL":          stack.Frontend.Label(),
		"DATABASE_TECH":           string(stack.Database),
		"USE_DOCKER":              docker,
		"USE_DOCKER_LABEL":        dockerLabel,
		"BACKEND_PORT":            port,
		"DB_NAME":                 underscore,
	}, nil
}

func contains[T comparable](list []T, v T) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
