// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api")
	api.GET("/stacks", s.handleStacks)
	api.POST("/render", s.handleRender)
	api.POST("/projects/preview", s.handlePreview)

	projects := api.Group("/projects", s.requireStore)
	projects.POST("", s.handleCreateProject)
	projects.GET("", s.handleListProjects)
	projects.GET("/:id", s.handleGetProject)
	projects.DELETE("/:id", s.handleDeleteProject)
	projects.GET("/:id/pipelines", s.handleProjectPipelines)
	projects.GET("/:id/stats", s.handleProjectStats)

	api.GET("/stats", s.handleStats, s.requireStore)
}
