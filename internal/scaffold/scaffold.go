// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scaffold runs a generation pass: it derives the placeholder map
// for a project, plans the catalog entries for its stack, renders target
// paths and file bodies together, and writes the result atomically.
package scaffold

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/pdiddy/scaffold-engine/internal/metrics"
	"github.com/pdiddy/scaffold-engine/internal/placeholder"
	"github.com/pdiddy/scaffold-engine/internal/templates"
	"github.com/pdiddy/scaffold-engine/internal/variables"
	"github.com/pdiddy/scaffold-engine/pkg/types"
)

// Request describes one project to generate.
type Request struct {
	Name        string
	Description string
	Stack       types.TechStack

	// Overrides replace or extend the derived variables.
	Overrides placeholder.Vars
}

// Result is the rendered file set of a generation pass.
type Result struct {
	Name   string                `json:"name" yaml:"name"`
	Stack  types.TechStack       `json:"stack" yaml:"stack"`
	Vars   placeholder.Vars      `json:"vars" yaml:"vars"`
	Files  []types.GeneratedFile `json:"files" yaml:"files"`
	Digest string                `json:"digest" yaml:"digest"`
}

// Generator renders projects from a template catalog.
type Generator struct {
	catalog *templates.Catalog
	log     *log.Logger
}

// NewGenerator returns a Generator over catalog. A nil logger uses the
// logrus standard logger.
func NewGenerator(catalog *templates.Catalog, logger *log.Logger) *Generator {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Generator{catalog: catalog, log: logger}
}

// Catalog returns the generator's template catalog.
func (g *Generator) Catalog() *templates.Catalog {
	return g.catalog
}

// Vars returns the variables a request would render with.
func (g *Generator) Vars(req Request) (placeholder.Vars, error) {
	base, err := variables.Derive(req.Name, req.Stack)
	if err != nil {
		return nil, err
	}
	return placeholder.Merge(base, req.Overrides), nil
}

// Generate renders every catalog entry planned for req.Stack. Target paths
// and file bodies are rendered in one pass with one variable map, so a
// placeholder resolves to the same value everywhere. If any placeholder is
// unresolved, Generate returns a *placeholder.MissingError and no files.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	res, err := g.generate(ctx, req)

	result := "ok"
	var missing *placeholder.MissingError
	switch {
	case errors.As(err, &missing):
		result = "missing_placeholder"
	case err != nil:
		result = "error"
	}
	metrics.GenerationsTotal.WithLabelValues(string(req.Stack.Backend), string(req.Stack.Frontend), result).Inc()
	metrics.GenerationDuration.WithLabelValues(string(req.Stack.Backend)).Observe(time.Since(start).Seconds())

	fields := log.Fields{"project": req.Name, "stack": req.Stack.String(), "duration": time.Since(start)}
	if err != nil {
		g.log.WithFields(fields).WithError(err).Warn("Generation failed")
		return nil, err
	}
	metrics.FilesRendered.Add(float64(len(res.Files)))
	fields["files"] = len(res.Files)
	fields["digest"] = res.Digest[:12]
	g.log.WithFields(fields).Info("Generated project")
	return res, nil
}

func (g *Generator) generate(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stack, err := variables.ParseStack(string(req.Stack.Backend), string(req.Stack.Frontend), string(req.Stack.Database), req.Stack.UseDocker)
	if err != nil {
		return nil, err
	}
	req.Stack = stack

	vars, err := g.Vars(req)
	if err != nil {
		return nil, err
	}

	plan, err := g.catalog.Plan(req.Stack)
	if err != nil {
		return nil, err
	}

	pairs := make([]pair, 0, len(plan))
	for _, e := range plan {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		body, err := g.catalog.Read(e.Source)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair{target: e.Target, source: e.Source, body: body})
	}

	files, err := renderPairs(pairs, vars)
	if err != nil {
		return nil, err
	}

	return &Result{
		Name:   req.Name,
		Stack:  req.Stack,
		Vars:   vars,
		Files:  files,
		Digest: Digest(files),
	}, nil
}

// pair is one target path template and its body template.
type pair struct {
	target string
	source string
	body   string
}

// targetTemplateName labels path templates in *placeholder.MissingError.
func targetTemplateName(target string) string {
	return "path " + target
}

// renderPairs renders all paths and bodies with one RenderAll call and
// returns the files sorted by path.
func renderPairs(pairs []pair, vars placeholder.Vars) ([]types.GeneratedFile, error) {
	batch := make([]placeholder.Template, 0, 2*len(pairs))
	for _, p := range pairs {
		batch = append(batch,
			placeholder.Template{Name: targetTemplateName(p.target), Content: p.target},
			placeholder.Template{Name: p.source, Content: p.body},
		)
	}

	rendered, err := placeholder.RenderAll(batch, vars)
	if err != nil {
		return nil, err
	}

	files := make([]types.GeneratedFile, 0, len(pairs))
	seen := make(map[string]string, len(pairs))
	for i, p := range pairs {
		target, err := cleanTarget(rendered[2*i].Content)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", p.source, err)
		}
		if prev, dup := seen[target]; dup {
			return nil, fmt.Errorf("templates %s and %s both render to %s", prev, p.source, target)
		}
		seen[target] = p.source

		body := rendered[2*i+1].Content
		files = append(files, types.GeneratedFile{
			Path:     target,
			Source:   p.source,
			Content:  body,
			Checksum: Checksum(body),
			Size:     len(body),
		})
	}

	sort.Slice(files, func(a, b int) bool { return files[a].Path < files[b].Path })
	return files, nil
}

// cleanTarget normalises a rendered target path and rejects paths that
// would leave the project root.
func cleanTarget(target string) (string, error) {
	t := strings.TrimSpace(strings.ReplaceAll(target, "\\", "/"))
	if t == "" {
		return "", fmt.Errorf("empty target path")
	}
	if strings.HasPrefix(t, "/") {
		return "", fmt.Errorf("target path %q is absolute", target)
	}
	clean := path.Clean(t)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("target path %q escapes the project root", target)
	}
	return clean, nil
}

// Checksum returns the hex sha256 of content.
func Checksum(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Digest hashes every path and checksum of files, in order. Two file sets
// have the same digest only if they are byte-identical.
func Digest(files []types.GeneratedFile) string {
	h := sha256.New()
	for _, f := range files {
		fmt.Fprintf(h, "%s\x00%s\n", f.Path, f.Checksum)
	}
	return hex.EncodeToString(h.Sum(nil))
}
