package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func counterValue(t *testing.T, vec *prometheus.CounterVec, labelValues ...string) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, vec.WithLabelValues(labelValues...).Write(m))
	return m.GetCounter().GetValue()
}

func TestRecordQuery_IncrementsCounterByKind(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, zap.NewNop())

	m.RecordQuery("rows", 10*time.Millisecond)
	m.RecordQuery("rows", 10*time.Millisecond)
	m.RecordQuery("mutation_report", 10*time.Millisecond)

	assert.Equal(t, 2.0, counterValue(t, m.queriesTotal, "rows"))
	assert.Equal(t, 1.0, counterValue(t, m.queriesTotal, "mutation_report"))
}

func TestRecordMutation_IncrementsCounterByOperation(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, zap.NewNop())

	m.RecordMutation("create_node")
	m.RecordMutation("create_node")
	m.RecordMutation("delete_node")

	assert.Equal(t, 2.0, counterValue(t, m.mutationsTotal, "create_node"))
	assert.Equal(t, 1.0, counterValue(t, m.mutationsTotal, "delete_node"))
}

func TestRecordGraphSize_SetsGaugesPerGraph(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, zap.NewNop())

	m.RecordGraphSize("g1", 100, 250)

	nodeMetric := &dto.Metric{}
	require.NoError(t, m.graphSizeNodes.WithLabelValues("g1").Write(nodeMetric))
	assert.Equal(t, 100.0, nodeMetric.GetGauge().GetValue())

	edgeMetric := &dto.Metric{}
	require.NoError(t, m.graphSizeEdges.WithLabelValues("g1").Write(edgeMetric))
	assert.Equal(t, 250.0, edgeMetric.GetGauge().GetValue())
}

func TestNewMetrics_RegistersDistinctFamiliesPerRegistry(t *testing.T) {
	reg1 := prometheus.NewRegistry()
	reg2 := prometheus.NewRegistry()

	assert.NotPanics(t, func() {
		NewMetrics(reg1, zap.NewNop())
		NewMetrics(reg2, zap.NewNop())
	})
}

func TestNewMetrics_DoubleRegistrationOnSameRegistryPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg, zap.NewNop())

	assert.Panics(t, func() {
		NewMetrics(reg, zap.NewNop())
	})
}
