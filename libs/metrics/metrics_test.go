package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryExposesPlannerCollectors(t *testing.T) {
	r := NewRegistry("planner-service")
	r.AvailabilityComputed.WithLabelValues("http").Inc()
	r.RecordsRejected.WithLabelValues("activity", "invalid_time_format").Add(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.AvailabilityComputed.WithLabelValues("http")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.RecordsRejected.WithLabelValues("activity", "invalid_time_format")))

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `planner_availability_computed_total{caller="http",service="planner-service"} 1`))

	// A second registry must not collide with the first.
	assert.NotPanics(t, func() { NewRegistry("plannerctl") })
}
