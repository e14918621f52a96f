// Package metrics turns raw container stats payloads into normalized metric
// records and tracks the source's own operational counters.
//
// Key components:
//   - BuildRecords: Maps one stats payload to records in a fixed order.
//   - Telemetry: Prometheus counters and gauges for stream activity.
//
// Usage example:
//
//	records := metrics.BuildRecords(payload, tags)
//	telemetry := metrics.Default()
//	telemetry.RecordsEmitted(len(records))
//
// The package uses Prometheus for exposure of the operational counters.
package metrics
