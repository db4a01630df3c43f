// Package metrics exposes Prometheus counters for upload and fetch
// outcomes and a standalone metrics HTTP server.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// UploadsTotal counts per-provider upload outcomes.
	UploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_provider_uploads_total",
		Help: "Provider upload attempts by provider and result.",
	}, []string{"provider", "result"})

	// FetchesTotal counts per-provider read outcomes.
	FetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_provider_fetches_total",
		Help: "Blob reads served (or failed) by provider and result.",
	}, []string{"provider", "result"})

	// CommitsTotal counts upload commits by final result.
	CommitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_upload_commits_total",
		Help: "Upload commits by result.",
	}, []string{"result"})
)

// MetricsServer serves the Prometheus scrape endpoint on its own listener.
type MetricsServer struct {
	srv *http.Server
}

// New creates a metrics server for the given service name and address.
func New(name, addr string) (*MetricsServer, error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &MetricsServer{
		srv: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}, nil
}

// ListenAndServe blocks serving the scrape endpoint.
func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

// Shutdown gracefully stops the metrics server.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}
