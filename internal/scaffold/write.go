// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scaffold

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/scaffold-engine/pkg/types"
)

// ErrExists is returned by Write when the destination already holds files
// and WriteOptions.Force is not set.
var ErrExists = errors.New("output directory exists and is not empty")

// WriteOptions controls Write.
type WriteOptions struct {
	// Force replaces a non-empty destination.
	Force bool
}

// Write materialises files under dir. Files are first written to a
// temporary sibling directory which is renamed into place once complete,
// so dir never holds a partial project.
func Write(files []types.GeneratedFile, dir string, opts WriteOptions) error {
	if len(files) == 0 {
		return fmt.Errorf("nothing to write")
	}
	dir = filepath.Clean(dir)

	exists, empty, err := dirState(dir)
	if err != nil {
		return err
	}
	if exists && !empty && !opts.Force {
		return fmt.Errorf("%s: %w", dir, ErrExists)
	}

	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", parent, err)
	}
	tmp, err := os.MkdirTemp(parent, "."+filepath.Base(dir)+"-*")
	if err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	for _, f := range files {
		if err := writeFile(tmp, f); err != nil {
			return err
		}
	}
	if err := os.Chmod(tmp, 0o755); err != nil {
		return fmt.Errorf("setting permissions on staging directory: %w", err)
	}

	if !exists {
		if err := os.Rename(tmp, dir); err != nil {
			return fmt.Errorf("moving project into %s: %w", dir, err)
		}
		return nil
	}

	// Swap the old directory out, move the new one in, then drop the old.
	backup := tmp + ".old"
	if err := os.Rename(dir, backup); err != nil {
		return fmt.Errorf("moving aside %s: %w", dir, err)
	}
	if err := os.Rename(tmp, dir); err != nil {
		if rerr := os.Rename(backup, dir); rerr != nil {
			return fmt.Errorf("moving project into %s: %w (restore failed: %v)", dir, err, rerr)
		}
		return fmt.Errorf("moving project into %s: %w", dir, err)
	}
	return os.RemoveAll(backup)
}

func writeFile(root string, f types.GeneratedFile) error {
	dest := filepath.Join(root, filepath.FromSlash(f.Path))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", f.Path, err)
	}
	mode := os.FileMode(0o644)
	if strings.HasPrefix(f.Content, "#!") {
		mode = 0o755
	}
	if err := os.WriteFile(dest, []byte(f.Content), mode); err != nil {
		return fmt.Errorf("writing %s: %w", f.Path, err)
	}
	return nil
}

// dirState reports whether dir exists and whether it is empty.
func dirState(dir string) (exists, empty bool, err error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return false, true, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("checking %s: %w", dir, err)
	}
	if !info.IsDir() {
		return true, false, fmt.Errorf("%s exists and is not a directory", dir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return true, false, fmt.Errorf("reading %s: %w", dir, err)
	}
	return true, len(entries) == 0, nil
}
