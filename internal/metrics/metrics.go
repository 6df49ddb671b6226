// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics declares the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Generation metrics
var (
	// GenerationsTotal counts generation passes by backend, frontend and
	// result (ok, missing_placeholder, error).
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scaffold_generations_total",
			Help: "Project generation passes by stack and result",
		},
		[]string{"backend", "frontend", "result"},
	)

	// GenerationDuration tracks generation latency in seconds.
	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scaffold_generation_duration_seconds",
			Help:    "Project generation duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"backend"},
	)

	// FilesRendered counts rendered files.
	FilesRendered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scaffold_files_rendered_total",
			Help: "Total files rendered across all generation passes",
		},
	)
)

// GitLab metrics
var (
	// GitLabRequestsTotal counts GitLab API calls by operation and status class.
	GitLabRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scaffold_gitlab_requests_total",
			Help: "GitLab API requests by operation and status",
		},
		[]string{"operation", "status"},
	)
)

// Registry metrics
var (
	// RegistryProjects tracks the number of registered projects.
	RegistryProjects = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scaffold_registry_projects",
			Help: "Projects currently held in the registry",
		},
	)
)
