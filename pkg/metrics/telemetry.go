package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

var telemetry *Telemetry

// Persistence labels for the stream error counter.
const (
	PersistenceTransient = "transient"
	PersistencePermanent = "permanent"
)

// Telemetry exposes the source's own operational state via Prometheus.
type Telemetry struct {
	watched        prometheus.Gauge       // Gauge for containers currently watched.
	events         prometheus.Counter     // Counter for lifecycle events received.
	payloads       prometheus.Counter     // Counter for stats payloads received.
	records        prometheus.Counter     // Counter for records sent to the sink.
	streamsStarted prometheus.Counter     // Counter for polling tasks started.
	streamsRetried prometheus.Counter     // Counter for polling tasks restarted after faults.
	streamErrors   *prometheus.CounterVec // Counter for stream faults by persistence.
}

// NewWithRegistry creates a new Telemetry handler with a custom Prometheus registry.
//
// Parameters:
//   - registry: Prometheus registerer to use for metric registration.
//
// Returns:
//   - (*Telemetry, error): Telemetry handler, or an error if registration fails.
func NewWithRegistry(registry prometheus.Registerer) (*Telemetry, error) {
	telemetry := &Telemetry{
		watched: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dockerstats_containers_watched",
			Help: "Number of containers currently tracked by the source",
		}),
		events: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dockerstats_lifecycle_events_total",
			Help: "Number of container lifecycle events received since the source started",
		}),
		payloads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dockerstats_stats_payloads_total",
			Help: "Number of stats payloads received from the runtime",
		}),
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dockerstats_records_emitted_total",
			Help: "Number of metric records forwarded to the output sink",
		}),
		streamsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dockerstats_streams_started_total",
			Help: "Number of per-container polling tasks started",
		}),
		streamsRetried: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dockerstats_streams_restarted_total",
			Help: "Number of polling tasks restarted after a transient fault",
		}),
		streamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dockerstats_stream_errors_total",
			Help: "Number of polling task faults by persistence class",
		}, []string{"persistence"}),
	}

	// Register the metrics with the provided registry.
	// If a metric is already registered, return an error to avoid duplicate collectors.
	collectors := []prometheus.Collector{
		telemetry.watched,
		telemetry.events,
		telemetry.payloads,
		telemetry.records,
		telemetry.streamsStarted,
		telemetry.streamsRetried,
		telemetry.streamErrors,
	}
	for _, collector := range collectors {
		if err := registry.Register(collector); err != nil {
			alreadyRegisteredError := &prometheus.AlreadyRegisteredError{}
			if errors.As(err, alreadyRegisteredError) {
				return nil, fmt.Errorf("failed to register metric: %w", err)
			}
		}
	}

	return telemetry, nil
}

// Default initializes or returns the singleton Telemetry handler. It panics
// on registration failure, such as duplicate registration against the
// default registry.
func Default() *Telemetry {
	if telemetry != nil {
		return telemetry
	}

	var err error

	telemetry, err = NewWithRegistry(prometheus.DefaultRegisterer)
	if err != nil {
		panic(err)
	}

	return telemetry
}

// ContainerWatched records one more container under active tracking.
func (t *Telemetry) ContainerWatched() {
	t.watched.Inc()
}

// ContainerForgotten records a container leaving active tracking.
func (t *Telemetry) ContainerForgotten() {
	t.watched.Dec()
}

// EventReceived counts one lifecycle event from the runtime feed.
func (t *Telemetry) EventReceived() {
	t.events.Inc()
}

// PayloadReceived counts one decoded stats payload.
func (t *Telemetry) PayloadReceived() {
	t.payloads.Inc()
}

// RecordsEmitted counts records accepted by the output sink.
func (t *Telemetry) RecordsEmitted(count int) {
	t.records.Add(float64(count))
}

// StreamStarted counts a polling task spawn.
func (t *Telemetry) StreamStarted() {
	t.streamsStarted.Inc()
}

// StreamRestarted counts a polling task respawn after a fault.
func (t *Telemetry) StreamRestarted() {
	t.streamsRetried.Inc()
}

// StreamError counts a polling task fault with its persistence class.
func (t *Telemetry) StreamError(persistence string) {
	t.streamErrors.WithLabelValues(persistence).Inc()
}
