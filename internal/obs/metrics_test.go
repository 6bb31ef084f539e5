package obs_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netbios-go/nbtresolve/internal/obs"
)

func TestMetrics_RecordResolution_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := obs.NewMetrics(reg)

	m.RecordResolution("wins", "success", 0.01)

	mf, err := reg.Gather()
	require.NoError(t, err)
	assert.True(t, hasCounterMetric(mf, "nbtresolve_resolutions_total"))
}

func TestMetrics_NilReceiverIsSafe(t *testing.T) {
	var m *obs.Metrics
	assert.NotPanics(t, func() {
		m.RecordResolution("wins", "success", 0.01)
		m.RecordCacheOutcome("hit")
		m.SetWINSDeadServers(2)
		m.ObserveBroadcastReplies(3)
	})
}

func hasCounterMetric(families []*dto.MetricFamily, name string) bool {
	for _, f := range families {
		if f.GetName() == name {
			return len(f.GetMetric()) > 0
		}
	}
	return false
}
