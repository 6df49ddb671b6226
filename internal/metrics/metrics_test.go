// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestGenerationsTotal(t *testing.T) {
	c := GenerationsTotal.WithLabelValues("python", "react", "ok")
	before := testutil.ToFloat64(c)
	c.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(c))
}

func TestCollectorsRegistered(t *testing.T) {
	GitLabRequestsTotal.WithLabelValues("create_project", "2xx").Inc()
	assert.Equal(t, 1, testutil.CollectAndCount(GitLabRequestsTotal, "scaffold_gitlab_requests_total"))

	RegistryProjects.Set(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(RegistryProjects))
}
