package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusCollector_Records(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg, "")

	p.ObserveClaim("success", 0.002)
	p.ObserveClaim("success", 0.003)
	p.ObserveClaim("task_full", 0.001)
	p.IncClaimRetry()
	p.IncBroadcastDropped()
	p.IncBroadcastDropped()
	p.IncAdminOp("reset")

	require.Equal(t, 2.0, testutil.ToFloat64(p.claims.WithLabelValues("success")))
	require.Equal(t, 1.0, testutil.ToFloat64(p.claims.WithLabelValues("task_full")))
	require.Equal(t, 1.0, testutil.ToFloat64(p.claimRetries))
	require.Equal(t, 2.0, testutil.ToFloat64(p.dropped))
	require.Equal(t, 1.0, testutil.ToFloat64(p.adminOps.WithLabelValues("reset")))

	count, err := testutil.GatherAndCount(reg, "claimhub_claim_duration_seconds")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestPrometheusCollector_Exposition(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg, "test")
	p.IncClaimRetry()

	expected := `
# HELP test_claim_retries_total Claim transactions retried after a store conflict.
# TYPE test_claim_retries_total counter
test_claim_retries_total 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "test_claim_retries_total"))
}

func TestNopMetrics(t *testing.T) {
	n := NewNop()
	n.ObserveClaim("success", 1)
	n.IncClaimRetry()
	n.IncBroadcastDropped()
	n.IncAdminOp("clear")
}
