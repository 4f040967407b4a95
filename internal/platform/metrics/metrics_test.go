package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue は登録済みメトリクスからラベルが一致するカウンターの値を取り出します。
func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			matched := 0
			for _, lp := range metric.GetLabel() {
				if labels[lp.GetName()] == lp.GetValue() {
					matched++
				}
			}
			if matched == len(labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestMetrics_Counters(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.TokenFetched(true)
	m.TokenFetched(false)
	m.RemoteRequest("create", true)
	m.RemoteRequest("create", true)
	m.Synchronized("provider1", false, true)
	m.ObserveHTTP("POST", "/:provider/employees", 201, 15*time.Millisecond)

	assert.Equal(t, 1.0, counterValue(t, reg, "employee_sync_token_fetches_total", map[string]string{"outcome": "success"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "employee_sync_token_fetches_total", map[string]string{"outcome": "failure"}))
	assert.Equal(t, 2.0, counterValue(t, reg, "employee_sync_remote_requests_total", map[string]string{"operation": "create", "outcome": "success"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "employee_sync_synchronizations_total", map[string]string{"provider": "provider1", "action": "create", "outcome": "success"}))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	assert.Contains(t, names, "employee_sync_http_request_duration_seconds")
}

func TestMetrics_NilReceiver(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.TokenFetched(true)
		m.RemoteRequest("get", false)
		m.Synchronized("provider2", true, false)
		m.ObserveHTTP("GET", "/health", 200, time.Millisecond)
	})
}

func TestNew_RegisterTwiceSharesCollectors(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	first, err := New(reg)
	require.NoError(t, err)
	second, err := New(reg)
	require.NoError(t, err)

	first.TokenFetched(true)
	second.TokenFetched(true)

	assert.Equal(t, 2.0, counterValue(t, reg, "employee_sync_token_fetches_total", map[string]string{"outcome": "success"}))
}
