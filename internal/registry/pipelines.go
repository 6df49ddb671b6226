// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pdiddy/scaffold-engine/pkg/types"
)

// SetPipeline records a pipeline run of project id and the project status
// it implies. A run already recorded under the same pipeline id is updated
// in place, so polling a pipeline keeps one history row per run.
func (s *Store) SetPipeline(ctx context.Context, id string, run types.PipelineRun, status types.ProjectStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	if run.ID == 0 {
		return fmt.Errorf("pipeline id is required")
	}
	now := s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE projects SET last_pipeline_id = ?, last_pipeline_url = ?, status = ?, updated_at = ? WHERE id = ?`,
		run.ID, run.WebURL, string(status), now, id)
	if err != nil {
		return fmt.Errorf("updating project: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("updating project: %w", err)
	} else if n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO pipelines (project_id, pipeline_id, ref, status, web_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (project_id, pipeline_id) DO UPDATE SET
			status = excluded.status,
			web_url = excluded.web_url,
			ref = CASE WHEN excluded.ref = '' THEN pipelines.ref ELSE excluded.ref END,
			updated_at = excluded.updated_at`,
		id, run.ID, run.Ref, run.Status, run.WebURL, now, now)
	if err != nil {
		return fmt.Errorf("recording pipeline: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing pipeline: %w", err)
	}
	return nil
}

// Pipelines returns the pipeline history of project id, newest first.
func (s *Store) Pipelines(ctx context.Context, id string) ([]types.PipelineRun, error) {
	if err := s.exists(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT pipeline_id, ref, status, web_url, created_at, updated_at
		 FROM pipelines WHERE project_id = ?
		 ORDER BY created_at DESC, pipeline_id DESC`, id)
	if err != nil {
		return nil, fmt.Errorf("querying pipelines: %w", err)
	}
	defer rows.Close()

	var out []types.PipelineRun
	for rows.Next() {
		var (
			run              types.PipelineRun
			created, updated string
		)
		if err := rows.Scan(&run.ID, &run.Ref, &run.Status, &run.WebURL, &created, &updated); err != nil {
			return nil, fmt.Errorf("scanning pipeline: %w", err)
		}
		run.CreatedAt, _ = time.Parse(timeFormat, created)
		run.UpdatedAt, _ = time.Parse(timeFormat, updated)
		out = append(out, run)
	}
	return out, rows.Err()
}

func (s *Store) exists(ctx context.Context, id string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM projects WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("querying project: %w", err)
	}
	return nil
}

// ProjectStats summarises the pipeline history of one project.
type ProjectStats struct {
	Pipelines int `json:"pipelines" yaml:"pipelines"`
	Succeeded int `json:"succeeded" yaml:"succeeded"`

	// Failed counts failed and canceled runs.
	Failed int `json:"failed" yaml:"failed"`

	// LastActivity is the latest change to the project or one of its runs.
	LastActivity time.Time `json:"last_activity" yaml:"last_activity"`
}

// ProjectStats returns the pipeline counters of project id.
func (s *Store) ProjectStats(ctx context.Context, id string) (*ProjectStats, error) {
	var (
		st      ProjectStats
		updated string
	)
	err := s.db.QueryRowContext(ctx, `SELECT updated_at FROM projects WHERE id = ?`, id).Scan(&updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying project: %w", err)
	}

	var last sql.NullString
	err = s.db.QueryRowContext(ctx,
		`SELECT count(*),
			coalesce(sum(status = 'success'), 0),
			coalesce(sum(status IN ('failed', 'canceled')), 0),
			max(updated_at)
		 FROM pipelines WHERE project_id = ?`, id).Scan(&st.Pipelines, &st.Succeeded, &st.Failed, &last)
	if err != nil {
		return nil, fmt.Errorf("counting pipelines: %w", err)
	}
	if last.Valid && last.String > updated {
		updated = last.String
	}
	st.LastActivity, _ = time.Parse(timeFormat, updated)
	return &st, nil
}

// Stats summarises the whole registry.
type Stats struct {
	Total     int                         `json:"total" yaml:"total"`
	ByStatus  map[types.ProjectStatus]int `json:"by_status" yaml:"by_status"`
	ByBackend map[types.BackendTech]int   `json:"by_backend" yaml:"by_backend"`
	Pipelines int                         `json:"pipelines" yaml:"pipelines"`
}

// Deployed returns the number of projects whose last pipeline succeeded.
func (st *Stats) Deployed() int {
	return st.ByStatus[types.StatusDeployed]
}

// Stats counts projects per status and per backend.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	total, err := s.Count(ctx)
	if err != nil {
		return nil, err
	}
	st := &Stats{
		Total:     total,
		ByStatus:  map[types.ProjectStatus]int{},
		ByBackend: map[types.BackendTech]int{},
	}

	if err := s.groupCount(ctx, "status", func(k string, n int) { st.ByStatus[types.ProjectStatus(k)] = n }); err != nil {
		return nil, err
	}
	if err := s.groupCount(ctx, "backend", func(k string, n int) { st.ByBackend[types.BackendTech(k)] = n }); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM pipelines`).Scan(&st.Pipelines); err != nil {
		return nil, fmt.Errorf("counting pipelines: %w", err)
	}
	return st, nil
}

func (s *Store) groupCount(ctx context.Context, column string, add func(string, int)) error {
	rows, err := s.db.QueryContext(ctx, `SELECT `+column+`, count(*) FROM projects GROUP BY `+column)
	if err != nil {
		return fmt.Errorf("grouping projects by %s: %w", column, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			key string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("scanning %s count: %w", column, err)
		}
		add(key, n)
	}
	return rows.Err()
}
