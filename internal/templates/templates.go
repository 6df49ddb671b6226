// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package templates holds the project template catalog: a file tree plus a
// manifest.yaml that maps catalog sources to target paths per stack. The
// default catalog is embedded in the binary; any directory with the same
// layout can replace it.
package templates

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/scaffold-engine/pkg/types"
)

// ManifestFile is the catalog index at the root of every catalog.
const ManifestFile = "manifest.yaml"

// The all: prefix keeps files such as __init__.py.
//
//go:embed all:catalog
var embedded embed.FS

// Condition restricts an entry to matching stacks. Zero fields match any
// stack.
type Condition struct {
	Backend  types.BackendTech  `json:"backend,omitempty" yaml:"backend,omitempty"`
	Frontend types.FrontendTech `json:"frontend,omitempty" yaml:"frontend,omitempty"`
	Docker   *bool              `json:"docker,omitempty" yaml:"docker,omitempty"`
}

// Matches reports whether the condition admits stack.
func (c Condition) Matches(stack types.TechStack) bool {
	if c.Backend != "" && c.Backend != stack.Backend {
		return false
	}
	if c.Frontend != "" && c.Frontend != stack.Frontend {
		return false
	}
	if c.Docker != nil && *c.Docker != stack.UseDocker {
		return false
	}
	return true
}

// Entry maps one catalog source to a target path in the generated project.
// Target may contain placeholders.
type Entry struct {
	Target string    `json:"target" yaml:"target"`
	Source string    `json:"source" yaml:"source"`
	When   Condition `json:"when,omitempty" yaml:"when,omitempty"`
}

// Manifest is the parsed manifest.yaml.
type Manifest struct {
	Entries []Entry `json:"entries" yaml:"entries"`
}

// Catalog is a loaded, validated template catalog.
type Catalog struct {
	fsys     fs.FS
	manifest Manifest
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	sub, err := fs.Sub(embedded, "catalog")
	if err != nil {
		return nil, fmt.Errorf("opening embedded catalog: %w", err)
	}
	return Load(sub)
}

// FromDir loads a catalog from a directory on disk.
func FromDir(dir string) (*Catalog, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("opening catalog %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("catalog %s is not a directory", dir)
	}
	return Load(os.DirFS(dir))
}

// Open returns the catalog at dir, or the embedded one when dir is empty.
func Open(dir string) (*Catalog, error) {
	if dir == "" {
		return Default()
	}
	return FromDir(dir)
}

// Load reads and validates manifest.yaml from fsys. Every source the
// manifest names must exist.
func Load(fsys fs.FS) (*Catalog, error) {
	data, err := fs.ReadFile(fsys, ManifestFile)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if len(m.Entries) == 0 {
		return nil, fmt.Errorf("manifest has no entries")
	}

	for i, e := range m.Entries {
		if strings.TrimSpace(e.Target) == "" || strings.TrimSpace(e.Source) == "" {
			return nil, fmt.Errorf("manifest entry %d: target and source are required", i+1)
		}
		if !fs.ValidPath(e.Source) {
			return nil, fmt.Errorf("manifest entry %d: invalid source path %q", i+1, e.Source)
		}
		info, err := fs.Stat(fsys, e.Source)
		if err != nil {
			return nil, fmt.Errorf("manifest entry %d: source %s: %w", i+1, e.Source, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("manifest entry %d: source %s is a directory", i+1, e.Source)
		}
	}

	return &Catalog{fsys: fsys, manifest: m}, nil
}

// Entries returns every manifest entry in order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.manifest.Entries))
	copy(out, c.manifest.Entries)
	return out
}

// Plan returns the entries that apply to stack, in manifest order.
func (c *Catalog) Plan(stack types.TechStack) ([]Entry, error) {
	var out []Entry
	for _, e := range c.manifest.Entries {
		if e.When.Matches(stack) {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("catalog has no templates for stack %s", stack)
	}
	return out, nil
}

// Read returns the body of a catalog source.
func (c *Catalog) Read(source string) (string, error) {
	data, err := fs.ReadFile(c.fsys, source)
	if err != nil {
		return "", fmt.Errorf("reading template %s: %w", source, err)
	}
	return string(data), nil
}

// Support lists the stack values a catalog has templates for.
type Support struct {
	Backends  []types.BackendTech  `json:"backends" yaml:"backends"`
	Frontends []types.FrontendTech `json:"frontends" yaml:"frontends"`
	Templates int                  `json:"templates" yaml:"templates"`
}

// Stacks reports which backends and frontends the manifest names explicitly.
func (c *Catalog) Stacks() Support {
	backends := make(map[types.BackendTech]bool)
	frontends := make(map[types.FrontendTech]bool)
	sources := make(map[string]bool)
	for _, e := range c.manifest.Entries {
		if e.When.Backend != "" {
			backends[e.When.Backend] = true
		}
		if e.When.Frontend != "" {
			frontends[e.When.Frontend] = true
		}
		sources[e.Source] = true
	}

	var s Support
	for _, b := range types.Backends {
		if backends[b] {
			s.Backends = append(s.Backends, b)
		}
	}
	for _, f := range types.Frontends {
		if frontends[f] {
			s.Frontends = append(s.Frontends, f)
		}
	}
	s.Templates = len(sources)
	return s
}

// Sources returns every file under the catalog root except the manifest,
// sorted by path.
func (c *Catalog) Sources() ([]string, error) {
	var out []string
	err := fs.WalkDir(c.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || p == ManifestFile {
			return nil
		}
		out = append(out, path.Clean(p))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking catalog: %w", err)
	}
	sort.Strings(out)
	return out, nil
}
