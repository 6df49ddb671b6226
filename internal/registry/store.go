// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry persists generated projects in a SQLite database so they
// can be listed, published to GitLab and tracked through CI.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mattn/go-sqlite3"

	"github.com/pdiddy/scaffold-engine/internal/metrics"
	"github.com/pdiddy/scaffold-engine/pkg/types"
)

const (
	dbFile         = "registry.db"
	defaultDataDir = ".scaffold-engine"

	// timeFormat has fixed width so stored timestamps sort as text.
	timeFormat = "2006-01-02T15:04:05.000000000Z07:00"
)

var (
	// ErrNotFound is returned when no project matches an id or name.
	ErrNotFound = errors.New("project not found")

	// ErrDuplicate is returned when a project name is already registered.
	ErrDuplicate = errors.New("project name already registered")
)

// Store manages the registry database.
type Store struct {
	db    *sql.DB
	clock clockwork.Clock
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// Open opens or creates cfg.DataDir/registry.db and its schema.
func Open(cfg types.RegistryConfig, opts ...Option) (*Store, error) {
	dir := cfg.DataDir
	if dir == "" {
		dir = defaultDataDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating registry directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, dbFile)+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, clock: clockwork.NewRealClock()}
	for _, o := range opts {
		o(s)
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	s.refreshGauge(context.Background())
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			backend TEXT NOT NULL,
			frontend TEXT NOT NULL,
			database_tech TEXT NOT NULL,
			use_docker INTEGER NOT NULL,
			status TEXT NOT NULL,
			digest TEXT NOT NULL DEFAULT '',
			output_dir TEXT NOT NULL DEFAULT '',
			gitlab_project_id INTEGER NOT NULL DEFAULT 0,
			gitlab_url TEXT NOT NULL DEFAULT '',
			git_clone_url TEXT NOT NULL DEFAULT '',
			last_pipeline_id INTEGER NOT NULL DEFAULT 0,
			last_pipeline_url TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS files (
			project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			path TEXT NOT NULL,
			source TEXT NOT NULL,
			checksum TEXT NOT NULL,
			size INTEGER NOT NULL,
			content TEXT NOT NULL,
			PRIMARY KEY (project_id, path)
		)`,
		`CREATE TABLE IF NOT EXISTS pipelines (
			project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			pipeline_id INTEGER NOT NULL,
			ref TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			web_url TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (project_id, pipeline_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_projects_status ON projects(status)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

func (s *Store) now() string {
	return s.clock.Now().UTC().Format(timeFormat)
}

// Create registers p with its files. It assigns p.ID, the timestamps and,
// when unset, the CREATED status.
func (s *Store) Create(ctx context.Context, p *types.Project) error {
	if p.Name == "" {
		return fmt.Errorf("project name is required")
	}
	if p.Status == "" {
		p.Status = types.StatusCreated
	}
	if !p.Status.Valid() {
		return fmt.Errorf("invalid status %q", p.Status)
	}
	p.ID = uuid.NewString()
	now := s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO projects (id, name, description, backend, frontend, database_tech, use_docker,
			status, digest, output_dir, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description,
		string(p.Stack.Backend), string(p.Stack.Frontend), string(p.Stack.Database), p.Stack.UseDocker,
		string(p.Status), p.Digest, p.OutputDir, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", p.Name, ErrDuplicate)
		}
		return fmt.Errorf("inserting project: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO files (project_id, path, source, checksum, size, content) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range p.Files {
		if _, err := stmt.ExecContext(ctx, p.ID, f.Path, f.Source, f.Checksum, f.Size, f.Content); err != nil {
			return fmt.Errorf("inserting file %s: %w", f.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing project: %w", err)
	}
	p.CreatedAt, _ = time.Parse(timeFormat, now)
	p.UpdatedAt = p.CreatedAt
	s.refreshGauge(ctx)
	return nil
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}

const projectColumns = `id, name, description, backend, frontend, database_tech, use_docker, status,
	digest, output_dir, gitlab_project_id, gitlab_url, git_clone_url,
	last_pipeline_id, last_pipeline_url, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (*types.Project, error) {
	var (
		p                 types.Project
		backend, frontend string
		database, status  string
		created, updated  string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &backend, &frontend, &database, &p.Stack.UseDocker, &status,
		&p.Digest, &p.OutputDir, &p.GitLabProjectID, &p.GitLabURL, &p.GitCloneURL,
		&p.LastPipelineID, &p.LastPipelineURL, &created, &updated)
	if err != nil {
		return nil, err
	}
	p.Stack.Backend = types.BackendTech(backend)
	p.Stack.Frontend = types.FrontendTech(frontend)
	p.Stack.Database = types.DatabaseTech(database)
	p.Status = types.ProjectStatus(status)
	p.CreatedAt, _ = time.Parse(timeFormat, created)
	p.UpdatedAt, _ = time.Parse(timeFormat, updated)
	return &p, nil
}

// Get returns the project with id, including file metadata without content.
func (s *Store) Get(ctx context.Context, id string) (*types.Project, error) {
	return s.getBy(ctx, "id", id)
}

// GetByName returns the project called name.
func (s *Store) GetByName(ctx context.Context, name string) (*types.Project, error) {
	return s.getBy(ctx, "name", name)
}

// Resolve looks ref up as an id first, then as a name.
func (s *Store) Resolve(ctx context.Context, ref string) (*types.Project, error) {
	p, err := s.Get(ctx, ref)
	if errors.Is(err, ErrNotFound) {
		return s.GetByName(ctx, ref)
	}
	return p, err
}

func (s *Store) getBy(ctx context.Context, column, value string) (*types.Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE `+column+` = ?`, value)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", value, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying project: %w", err)
	}

	files, err := s.files(ctx, p.ID, false)
	if err != nil {
		return nil, err
	}
	p.Files = files
	return p, nil
}

// Files returns the stored files of project id with their content.
func (s *Store) Files(ctx context.Context, id string) ([]types.GeneratedFile, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.files(ctx, id, true)
}

func (s *Store) files(ctx context.Context, id string, withContent bool) ([]types.GeneratedFile, error) {
	content := "''"
	if withContent {
		content = "content"
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, source, checksum, size, `+content+` FROM files WHERE project_id = ? ORDER BY path`, id)
	if err != nil {
		return nil, fmt.Errorf("querying files: %w", err)
	}
	defer rows.Close()

	var out []types.GeneratedFile
	for rows.Next() {
		var f types.GeneratedFile
		if err := rows.Scan(&f.Path, &f.Source, &f.Checksum, &f.Size, &f.Content); err != nil {
			return nil, fmt.Errorf("scanning file: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ListOptions filters List.
type ListOptions struct {
	Status  types.ProjectStatus
	Backend types.BackendTech
}

// List returns projects, oldest first, without files.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]types.Project, error) {
	var (
		where []string
		args  []any
	)
	if opts.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(opts.Status))
	}
	if opts.Backend != "" {
		where = append(where, "backend = ?")
		args = append(args, string(opts.Backend))
	}
	query := `SELECT ` + projectColumns + ` FROM projects`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at, name"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var out []types.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// UpdateStatus sets the status of project id.
func (s *Store) UpdateStatus(ctx context.Context, id string, status types.ProjectStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	return s.update(ctx, id, `status = ?`, string(status))
}

// SetGitLab records the GitLab project created for id and marks it ACTIVE.
func (s *Store) SetGitLab(ctx context.Context, id string, projectID int64, webURL, cloneURL string) error {
	return s.update(ctx, id, `gitlab_project_id = ?, gitlab_url = ?, git_clone_url = ?, status = ?`,
		projectID, webURL, cloneURL, string(types.StatusActive))
}

// SetOutputDir records where the files of id were written.
func (s *Store) SetOutputDir(ctx context.Context, id, dir string) error {
	return s.update(ctx, id, `output_dir = ?`, dir)
}

func (s *Store) update(ctx context.Context, id, set string, args ...any) error {
	args = append(args, s.now(), id)
	res, err := s.db.ExecContext(ctx, `UPDATE projects SET `+set+`, updated_at = ? WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("updating project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating project: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}

// Delete removes project id and its files.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	s.refreshGauge(ctx)
	return nil
}

// Count returns the number of registered projects.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM projects`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting projects: %w", err)
	}
	return n, nil
}

func (s *Store) refreshGauge(ctx context.Context) {
	if n, err := s.Count(ctx); err == nil {
		metrics.RegistryProjects.Set(float64(n))
	}
}
