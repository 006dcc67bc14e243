package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Metrics holds all Prometheus metrics for the cycle-ratio watcher.
type Metrics struct {
	// Feed metrics
	EventsReceived *prometheus.CounterVec
	EventLatency   prometheus.Histogram
	FeedStatus     prometheus.Gauge

	// Graph metrics
	GraphNodes prometheus.Gauge
	GraphEdges prometheus.Gauge

	// Scan metrics
	ScanLatency prometheus.Histogram
	CyclesFound *prometheus.CounterVec
	BestRatio   *prometheus.GaugeVec
	Iterations  prometheus.Histogram

	server *http.Server
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		EventsReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cycleratio_events_received_total",
				Help: "Total number of edge-weight update events received by type",
			},
			[]string{"type"},
		),
		EventLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cycleratio_event_latency_seconds",
				Help:    "Latency from event timestamp to processing",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
			},
		),
		FeedStatus: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "cycleratio_feed_connected",
				Help: "Feed WebSocket connection status (1=connected, 0=disconnected)",
			},
		),
		GraphNodes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "cycleratio_graph_nodes",
				Help: "Current number of nodes in the live graph",
			},
		),
		GraphEdges: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "cycleratio_graph_edges",
				Help: "Current number of edges in the live graph",
			},
		),
		ScanLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cycleratio_scan_latency_seconds",
				Help:    "Time to run a minimum-cycle-ratio scan of the current graph",
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16), // 0.1ms to ~3.3s
			},
		),
		CyclesFound: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cycleratio_cycles_found_total",
				Help: "Total number of distinct critical cycles found, by source node",
			},
			[]string{"source"},
		),
		BestRatio: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cycleratio_best_ratio",
				Help: "Current best (minimum) cycle ratio found, by source node",
			},
			[]string{"source"},
		),
		Iterations: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cycleratio_solver_iterations",
				Help:    "Number of fixed-point iterations a scan took to converge",
				Buckets: prometheus.LinearBuckets(1, 2, 15),
			},
		),
	}

	prometheus.MustRegister(
		m.EventsReceived,
		m.EventLatency,
		m.FeedStatus,
		m.GraphNodes,
		m.GraphEdges,
		m.ScanLatency,
		m.CyclesFound,
		m.BestRatio,
		m.Iterations,
	)

	return m
}

// StartServer starts the HTTP server for Prometheus metrics.
func (m *Metrics) StartServer(port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	m.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		log.Info().Int("port", port).Str("path", path).Msg("starting metrics server")
		if err := m.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server error")
		}
	}()

	return nil
}

// Shutdown gracefully stops the metrics server.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m.server != nil {
		return m.server.Shutdown(ctx)
	}
	return nil
}

// RecordEventReceived increments the event counter for the given type.
func (m *Metrics) RecordEventReceived(eventType string) {
	m.EventsReceived.WithLabelValues(eventType).Inc()
}

// RecordEventLatency records the latency from event timestamp to processing.
func (m *Metrics) RecordEventLatency(eventTime time.Time) {
	m.EventLatency.Observe(time.Since(eventTime).Seconds())
}

// SetFeedConnected sets the feed connection status.
func (m *Metrics) SetFeedConnected(connected bool) {
	if connected {
		m.FeedStatus.Set(1)
	} else {
		m.FeedStatus.Set(0)
	}
}

// RecordGraphStats updates the graph node and edge counts.
func (m *Metrics) RecordGraphStats(nodes, edges int) {
	m.GraphNodes.Set(float64(nodes))
	m.GraphEdges.Set(float64(edges))
}

// RecordScanLatency records the time a scan took.
func (m *Metrics) RecordScanLatency(d time.Duration) {
	m.ScanLatency.Observe(d.Seconds())
}

// RecordCycleFound increments the cycles-found counter for a source node.
func (m *Metrics) RecordCycleFound(source string) {
	m.CyclesFound.WithLabelValues(source).Inc()
}

// SetBestRatio sets the current best ratio for a source node.
func (m *Metrics) SetBestRatio(source string, ratio float64) {
	m.BestRatio.WithLabelValues(source).Set(ratio)
}

// RecordIterations records how many fixed-point iterations a scan took.
func (m *Metrics) RecordIterations(n int) {
	m.Iterations.Observe(float64(n))
}
