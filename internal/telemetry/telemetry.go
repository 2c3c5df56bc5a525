// Package telemetry exposes the server's operational counters as
// Prometheus metrics. It sits off the data path entirely: every
// method is a nil-receiver-safe no-op when metrics are disabled, so
// callers never need to branch on whether telemetry is configured.
package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the gauges and counters the pool, acceptor, connection
// handler, and ticker update as they run. A nil *Metrics is valid and every method on it
// is a no-op, so components can hold a *Metrics unconditionally.
type Metrics struct {
	liveWorkers         prometheus.Gauge
	cleanupWorkers      prometheus.Gauge
	connectionsAccepted prometheus.Counter
	connectionsClosed   prometheus.Counter
	appendBytesTotal    prometheus.Counter
	storeSizeBytes      prometheus.Gauge
	registry            *prometheus.Registry
}

// New creates and registers the metric set on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		liveWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aesdsocket_pool_live_workers",
			Help: "Goroutines currently executing a dispatched task.",
		}),
		cleanupWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aesdsocket_pool_cleanup_workers",
			Help: "Finished goroutines awaiting join.",
		}),
		connectionsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aesdsocket_connections_accepted_total",
			Help: "TCP connections accepted by the acceptor loop.",
		}),
		connectionsClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aesdsocket_connections_closed_total",
			Help: "Connections closed by the connection handler.",
		}),
		appendBytesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aesdsocket_append_bytes_total",
			Help: "Bytes written to the append store, including timestamp records.",
		}),
		storeSizeBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aesdsocket_store_size_bytes",
			Help: "Size of the append store file after the last write.",
		}),
		registry: reg,
	}
	reg.MustRegister(
		m.liveWorkers,
		m.cleanupWorkers,
		m.connectionsAccepted,
		m.connectionsClosed,
		m.appendBytesTotal,
		m.storeSizeBytes,
	)
	return m
}

// Serve starts an HTTP server exposing /metrics on addr and blocks
// until ctx is canceled, then shuts it down gracefully.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	if m == nil {
		<-ctx.Done()
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (m *Metrics) SetLiveWorkers(n int) {
	if m == nil {
		return
	}
	m.liveWorkers.Set(float64(n))
}

func (m *Metrics) SetCleanupWorkers(n int) {
	if m == nil {
		return
	}
	m.cleanupWorkers.Set(float64(n))
}

func (m *Metrics) IncConnectionsAccepted() {
	if m == nil {
		return
	}
	m.connectionsAccepted.Inc()
}

func (m *Metrics) IncConnectionsClosed() {
	if m == nil {
		return
	}
	m.connectionsClosed.Inc()
}

func (m *Metrics) AddAppendBytes(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.appendBytesTotal.Add(float64(n))
}

func (m *Metrics) SetStoreSize(n int64) {
	if m == nil {
		return
	}
	m.storeSizeBytes.Set(float64(n))
}
