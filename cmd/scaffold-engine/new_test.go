// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/scaffold-engine/internal/registry"
	"github.com/pdiddy/scaffold-engine/internal/scaffold"
	"github.com/pdiddy/scaffold-engine/pkg/types"
)

func testResult(name string) (scaffold.Request, *scaffold.Result) {
	stack := types.TechStack{Backend: types.BackendPython, Frontend: types.FrontendReact, Database: types.DatabasePostgres}
	files := []types.GeneratedFile{
		{Path: "README.md", Content: "# " + name + "\n", Checksum: scaffold.Checksum("# " + name + "\n")},
	}
	return scaffold.Request{Name: name, Stack: stack}, &scaffold.Result{
		Stack:  stack,
		Files:  files,
		Digest: scaffold.Digest(files),
	}
}

func openTestRegistry(t *testing.T) *registry.Store {
	t.Helper()
	store, err := registry.Open(types.RegistryConfig{DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestWriteRegistered(t *testing.T) {
	ctx := context.Background()
	store := openTestRegistry(t)
	req, res := testResult("demo")
	dir := filepath.Join(t.TempDir(), "demo")

	p, err := writeRegistered(ctx, store, req, res, dir, scaffold.WriteOptions{})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "README.md"))

	got, err := store.GetByName(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.True(t, filepath.IsAbs(got.OutputDir))
}

func TestWriteRegisteredDuplicateWritesNothing(t *testing.T) {
	ctx := context.Background()
	store := openTestRegistry(t)
	req, res := testResult("demo")

	_, err := writeRegistered(ctx, store, req, res, filepath.Join(t.TempDir(), "a"), scaffold.WriteOptions{})
	require.NoError(t, err)

	second := filepath.Join(t.TempDir(), "b")
	_, err = writeRegistered(ctx, store, req, res, second, scaffold.WriteOptions{})
	assert.ErrorIs(t, err, registry.ErrDuplicate)
	assert.NoDirExists(t, second)
}

func TestWriteRegisteredRollsBackOnWriteFailure(t *testing.T) {
	ctx := context.Background()
	store := openTestRegistry(t)
	req, res := testResult("demo")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("x"), 0o644))

	_, err := writeRegistered(ctx, store, req, res, dir, scaffold.WriteOptions{})
	assert.ErrorIs(t, err, scaffold.ErrExists)

	_, err = store.GetByName(ctx, "demo")
	assert.ErrorIs(t, err, registry.ErrNotFound)
	assert.FileExists(t, filepath.Join(dir, "keep.txt"))
}
