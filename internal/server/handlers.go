// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pdiddy/scaffold-engine/internal/placeholder"
	"github.com/pdiddy/scaffold-engine/internal/registry"
	"github.com/pdiddy/scaffold-engine/internal/scaffold"
	"github.com/pdiddy/scaffold-engine/internal/variables"
	"github.com/pdiddy/scaffold-engine/pkg/types"
)

// errorBody is the JSON shape of every error answer.
type errorBody struct {
	Error     string              `json:"error"`
	Missing   []string            `json:"missing,omitempty"`
	Templates map[string][]string `json:"templates,omitempty"`
}

// fail writes err with the status its type implies.
func fail(c echo.Context, err error) error {
	var missing *placeholder.MissingError
	switch {
	case errors.As(err, &missing):
		return c.JSON(http.StatusUnprocessableEntity, errorBody{
			Error:     err.Error(),
			Missing:   missing.Keys,
			Templates: missing.Templates,
		})
	case errors.Is(err, registry.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, registry.ErrDuplicate):
		return c.JSON(http.StatusConflict, errorBody{Error: err.Error()})
	default:
		return err
	}
}

func badRequest(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startTime).Seconds(),
	})
}

func (s *Server) handleStacks(c echo.Context) error {
	return c.JSON(http.StatusOK, s.gen.Catalog().Stacks())
}

type renderRequest struct {
	Templates []placeholder.Template `json:"templates"`
	Vars      placeholder.Vars       `json:"vars"`
}

func (s *Server) handleRender(c echo.Context) error {
	var req renderRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if len(req.Templates) == 0 {
		return badRequest(c, errors.New("at least one template is required"))
	}

	out, err := placeholder.RenderAll(req.Templates, req.Vars)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"rendered": out})
}

type projectRequest struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Backend     string           `json:"backend"`
	Frontend    string           `json:"frontend"`
	Database    string           `json:"database"`
	UseDocker   bool             `json:"use_docker"`
	Vars        placeholder.Vars `json:"vars"`
}

func (r projectRequest) toScaffold() (scaffold.Request, error) {
	if err := variables.ValidateName(r.Name); err != nil {
		return scaffold.Request{}, err
	}
	stack, err := variables.ParseStack(r.Backend, r.Frontend, r.Database, r.UseDocker)
	if err != nil {
		return scaffold.Request{}, err
	}
	return scaffold.Request{
		Name:        r.Name,
		Description: strings.TrimSpace(r.Description),
		Stack:       stack,
		Overrides:   r.Vars,
	}, nil
}

func (s *Server) handlePreview(c echo.Context) error {
	var body projectRequest
	if err := c.Bind(&body); err != nil {
		return err
	}
	req, err := body.toScaffold()
	if err != nil {
		return badRequest(c, err)
	}

	res, err := s.gen.Generate(c.Request().Context(), req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) requireStore(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.store == nil {
			return c.JSON(http.StatusServiceUnavailable, errorBody{Error: "project registry is not configured"})
		}
		return next(c)
	}
}

func (s *Server) handleCreateProject(c echo.Context) error {
	var body projectRequest
	if err := c.Bind(&body); err != nil {
		return err
	}
	req, err := body.toScaffold()
	if err != nil {
		return badRequest(c, err)
	}

	ctx := c.Request().Context()
	res, err := s.gen.Generate(ctx, req)
	if err != nil {
		return fail(c, err)
	}

	p := &types.Project{
		Name:        req.Name,
		Description: req.Description,
		Stack:       res.Stack,
		Digest:      res.Digest,
		Files:       res.Files,
	}
	if err := s.store.Create(ctx, p); err != nil {
		return fail(c, err)
	}

	stored, err := s.store.Get(ctx, p.ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, stored)
}

func (s *Server) handleListProjects(c echo.Context) error {
	opts := registry.ListOptions{
		Status:  types.ProjectStatus(strings.ToUpper(c.QueryParam("status"))),
		Backend: types.BackendTech(strings.ToLower(c.QueryParam("backend"))),
	}
	if opts.Status != "" && !opts.Status.Valid() {
		return badRequest(c, errors.New("unknown status "+c.QueryParam("status")))
	}

	projects, err := s.store.List(c.Request().Context(), opts)
	if err != nil {
		return fail(c, err)
	}
	if projects == nil {
		projects = []types.Project{}
	}
	return c.JSON(http.StatusOK, projects)
}

func (s *Server) handleGetProject(c echo.Context) error {
	p, err := s.store.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleDeleteProject(c echo.Context) error {
	if err := s.store.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleProjectPipelines(c echo.Context) error {
	runs, err := s.store.Pipelines(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	if runs == nil {
		runs = []types.PipelineRun{}
	}
	return c.JSON(http.StatusOK, runs)
}

func (s *Server) handleProjectStats(c echo.Context) error {
	st, err := s.store.ProjectStats(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

func (s *Server) handleStats(c echo.Context) error {
	st, err := s.store.Stats(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"total":      st.Total,
		"deployed":   st.Deployed(),
		"pipelines":  st.Pipelines,
		"by_status":  st.ByStatus,
		"by_backend": st.ByBackend,
	})
}
