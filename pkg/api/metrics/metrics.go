// Package metrics provides the HTTP handler for dockerstats' Prometheus endpoint.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nrhtr/dockerstats/pkg/metrics"
)

// Handler is an HTTP handle for serving metric data.
type Handler struct {
	Path      string
	Handle    http.HandlerFunc
	Telemetry *metrics.Telemetry
}

// New is a factory function creating a new metrics Handler.
//
// It initializes the telemetry singleton so the collectors are registered
// with the default registry before the first scrape.
func New() *Handler {
	telemetry := metrics.Default()

	return &Handler{
		Path:      "/v1/metrics",
		Handle:    promhttp.Handler().ServeHTTP,
		Telemetry: telemetry,
	}
}
