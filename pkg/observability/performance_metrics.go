// Package observability holds BQL's Prometheus metrics. Grounded on the
// teacher's pkg/observability/performance_metrics.go shape (a struct
// holding named counters/histograms plus a logger, with one Record method
// per concern), backed by prometheus/client_golang instead of the
// teacher's CloudWatch client: CloudWatch requires a deployed AWS
// account/namespace baked into the binary, while a Prometheus registry is
// the portable, locally-scrapable ambient choice, and the sibling repo's
// go.mod already carries client_golang unused.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Metrics tracks query/mutation throughput and latency for the engine.
type Metrics struct {
	logger *zap.Logger

	queriesTotal   *prometheus.CounterVec
	mutationsTotal *prometheus.CounterVec
	queryDuration  *prometheus.HistogramVec
	graphSizeNodes *prometheus.GaugeVec
	graphSizeEdges *prometheus.GaugeVec
}

// NewMetrics registers BQL's metric families against reg and returns a
// Metrics tracker. Pass prometheus.NewRegistry() in tests to avoid
// colliding with the global default registry across repeated calls.
func NewMetrics(reg prometheus.Registerer, logger *zap.Logger) *Metrics {
	m := &Metrics{
		logger: logger,
		queriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bql_queries_total",
			Help: "Total BQL queries executed, by result kind.",
		}, []string{"kind"}),
		mutationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bql_mutations_total",
			Help: "Total BQL mutation operations applied, by operation.",
		}, []string{"operation"}),
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bql_query_duration_seconds",
			Help:    "Engine.Execute wall-clock duration, by result kind.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		graphSizeNodes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bql_graph_size_nodes",
			Help: "Node count of the most recently measured graph.",
		}, []string{"graph_id"}),
		graphSizeEdges: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bql_graph_size_edges",
			Help: "Edge count of the most recently measured graph.",
		}, []string{"graph_id"}),
	}

	reg.MustRegister(m.queriesTotal, m.mutationsTotal, m.queryDuration, m.graphSizeNodes, m.graphSizeEdges)
	return m
}

// RecordQuery records one Engine.Execute call's outcome and latency.
func (m *Metrics) RecordQuery(kind string, duration time.Duration) {
	m.queriesTotal.WithLabelValues(kind).Inc()
	m.queryDuration.WithLabelValues(kind).Observe(duration.Seconds())

	if duration > 500*time.Millisecond {
		m.logger.Warn("slow BQL query", zap.String("kind", kind), zap.Duration("duration", duration))
	}
}

// RecordMutation records one applied mutation operation (create_node,
// create_edge, update_node, update_type, delete_node, delete_edge).
func (m *Metrics) RecordMutation(operation string) {
	m.mutationsTotal.WithLabelValues(operation).Inc()
}

// RecordGraphSize records the node/edge count of a graph, typically sampled
// periodically rather than per-query.
func (m *Metrics) RecordGraphSize(activeGraphID string, nodeCount, edgeCount int) {
	m.graphSizeNodes.WithLabelValues(activeGraphID).Set(float64(nodeCount))
	m.graphSizeEdges.WithLabelValues(activeGraphID).Set(float64(edgeCount))

	if nodeCount > 10000 || edgeCount > 50000 {
		m.logger.Warn("large graph detected",
			zap.String("graph_id", activeGraphID),
			zap.Int("node_count", nodeCount),
			zap.Int("edge_count", edgeCount),
		)
	}
}
