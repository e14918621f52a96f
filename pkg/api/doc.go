// Package api provides an HTTP server for dockerstats' API endpoints.
// It handles token-authenticated requests for exposing Prometheus metrics.
//
// Key components:
//   - API: Manages server setup and endpoint registration.
//   - RequireToken: Wraps HTTP handlers with bearer token validation.
//
// Usage example:
//
//	metricsAPI := api.New("secure-token")
//	metricsAPI.RegisterHandler("/v1/metrics", promhttp.Handler())
//	if err := metricsAPI.Start(ctx, true); err != nil {
//	    logrus.WithError(err).Error("API start failed")
//	}
//
// The package uses a custom ServeMux for routing, supports graceful shutdown,
// and integrates with logrus for logging server operations.
package api
