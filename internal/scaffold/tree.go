// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scaffold

import (
	"fmt"
	"io/fs"

	"github.com/pdiddy/scaffold-engine/internal/placeholder"
	"github.com/pdiddy/scaffold-engine/pkg/types"
)

// RenderTree renders every regular file under fsys with vars. File paths
// are templates too, so "{{PROJECT_NAME_UNDERSCORE}}/settings.py" lands in
// the right package directory. Like Generate, it renders all or nothing.
func RenderTree(fsys fs.FS, vars placeholder.Vars) ([]types.GeneratedFile, error) {
	var pairs []pair
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}
		pairs = append(pairs, pair{target: p, source: p, body: string(data)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking templates: %w", err)
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("no template files found")
	}
	return renderPairs(pairs, vars)
}

// Templates returns the bodies and paths of every file under fsys as
// placeholder templates, for callers that only need Tokens or Check.
func Templates(fsys fs.FS) ([]placeholder.Template, error) {
	var out []placeholder.Template
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}
		out = append(out,
			placeholder.Template{Name: targetTemplateName(p), Content: p},
			placeholder.Template{Name: p, Content: string(data)},
		)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking templates: %w", err)
	}
	return out, nil
}
