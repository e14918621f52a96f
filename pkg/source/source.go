package source

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nrhtr/dockerstats/pkg/filters"
	"github.com/nrhtr/dockerstats/pkg/metrics"
	"github.com/nrhtr/dockerstats/pkg/types"
)

// completionQueueSize bounds how many finished tasks can queue their report
// before blocking on the Coordinator.
const completionQueueSize = 16

// Source is the Coordinator: it owns the tracker table exclusively and is
// the sole consumer of lifecycle events and completion reports. All
// cross-task communication happens over the completions channel; the table
// is never touched from a polling task.
type Source struct {
	client      types.RuntimeClient
	sink        types.Sink
	telemetry   *metrics.Telemetry
	config      Config
	trackers    map[types.ContainerID]*containerState
	completions chan completionReport
	builder     *streamBuilder
}

// New creates a source over the given runtime client and sink.
//
// Parameters:
//   - client: Runtime API used for discovery, events, and stats feeds.
//   - sink: Downstream consumer of the normalized records.
//   - telemetry: Operational counters; use metrics.Default() outside tests.
//   - config: Immutable configuration snapshot.
//
// Returns:
//   - *Source: Source ready for Run.
func New(client types.RuntimeClient, sink types.Sink, telemetry *metrics.Telemetry, config Config) *Source {
	completions := make(chan completionReport, completionQueueSize)

	return &Source{
		client:      client,
		sink:        sink,
		telemetry:   telemetry,
		config:      config,
		trackers:    make(map[types.ContainerID]*containerState),
		completions: completions,
		builder: &streamBuilder{
			client:      client,
			sink:        sink,
			telemetry:   telemetry,
			completions: completions,
			hostKey:     config.HostKey,
			hostname:    config.Hostname,
		},
	}
}

// Run discovers the running containers, then drives the Coordinator loop
// until ctx is canceled or a fatal condition occurs.
//
// It returns nil on cancellation. The lifecycle feed ending or failing, and
// the completion channel closing, are fatal: per-container faults are
// handled inside the loop, but without lifecycle events the tracker table
// only decays, so the whole source terminates and leaves any reconnect
// policy to its supervisor.
func (s *Source) Run(ctx context.Context) error {
	// Subscribe before the startup scan so containers started while the
	// scan runs are not missed.
	events, eventErrs := s.client.Events(
		ctx, s.config.IncludeLabels, s.config.IncludeImages, time.Now())

	logrus.Debug("Listening for container lifecycle events")

	if err := s.discover(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case report, ok := <-s.completions:
			if !ok {
				logrus.Error("Completion report channel closed unexpectedly")

				return errCompletionFeedClosed
			}

			s.handleCompletion(ctx, report)
		case event, ok := <-events:
			if !ok {
				logrus.Error("Lifecycle event feed ended")

				return errEventFeedClosed
			}

			s.handleEvent(ctx, event)
		case err, ok := <-eventErrs:
			if !ok || err == nil {
				logrus.Error("Lifecycle event feed ended")

				return errEventFeedClosed
			}

			logrus.WithError(err).Error("Lifecycle event feed failed")

			return fmt.Errorf("%w: %w", errEventFeedFailed, err)
		}
	}
}

// discover runs the one-shot startup scan and seeds a tracker plus a polling
// task for every admitted container.
func (s *Source) discover(ctx context.Context) error {
	summaries, err := s.client.ListRunningContainers(
		ctx, s.config.IncludeLabels, s.config.IncludeImages)
	if err != nil {
		return fmt.Errorf("%w: %w", errDiscoveryFailed, err)
	}

	tracked := 0

	for _, summary := range summaries {
		if !s.admit(summary.ID, summary.Names) {
			continue
		}

		s.track(ctx, summary.ID, 0)

		tracked++
	}

	logrus.WithFields(logrus.Fields{
		"listed":  len(summaries),
		"tracked": tracked,
	}).Info("Discovered running containers")

	return nil
}

// admit applies self-exclusion and the include/exclude policy.
func (s *Source) admit(id types.ContainerID, names []string) bool {
	if filters.SelfExcluded(string(id), s.config.Hostname) {
		logrus.WithField("container_id", id.ShortID()).
			Debug("Skipping the container this source runs in")

		return false
	}

	if !filters.Included(string(id), names, s.config.IncludeContainers, s.config.ExcludeContainers) {
		logrus.WithField("container_id", id.ShortID()).
			Debug("Container excluded by filter policy")

		return false
	}

	return true
}

// track inserts a fresh running tracker and spawns its polling task.
func (s *Source) track(ctx context.Context, id types.ContainerID, backoff time.Duration) {
	s.trackers[id] = newRunningState()
	s.telemetry.ContainerWatched()
	s.builder.start(ctx, id, backoff)
}

// untrack removes a container's tracker.
func (s *Source) untrack(id types.ContainerID) {
	delete(s.trackers, id)
	s.telemetry.ContainerForgotten()
}

// handleCompletion reconciles one finished polling task against the tracker
// table.
func (s *Source) handleCompletion(ctx context.Context, report completionReport) {
	if report.info != nil {
		// Every dispatched task has a tracker; a clean report without one
		// means the bookkeeping is corrupt.
		state, ok := s.trackers[report.info.id]
		if !ok {
			panic("source: completion report for untracked container " +
				string(report.info.id))
		}

		if state.returnInfo(report.info) {
			s.builder.restart(ctx, state)
		}

		return
	}

	state, ok := s.trackers[report.id]
	if !ok {
		logrus.WithField("container_id", report.id.ShortID()).
			Warn("Failure report for untracked container")

		return
	}

	s.untrack(report.id)

	if report.persistence == persistencePermanent {
		logrus.WithField("container_id", report.id.ShortID()).
			Info("Dropping container after permanent failure")

		return
	}

	if !state.isRunning() {
		logrus.WithField("container_id", report.id.ShortID()).
			Debug("Dropping stopped container after transient failure")

		return
	}

	// Still running: re-track from scratch, throttled by the backoff.
	s.track(ctx, report.id, s.config.backoff())
}

// handleEvent applies one lifecycle event to the tracker table.
func (s *Source) handleEvent(ctx context.Context, event types.LifecycleEvent) {
	s.telemetry.EventReceived()

	if event.Action == "" || event.Actor.ID == "" {
		logrus.WithFields(logrus.Fields{
			"action":       event.Action,
			"container_id": event.Actor.ID,
		}).Warn("Skipping malformed lifecycle event")

		return
	}

	id := types.ContainerID(event.Actor.ID)

	switch event.Action {
	case "die", "pause":
		// Absence is normal: not every stopping container was tracked.
		if state, ok := s.trackers[id]; ok {
			state.markStopped()
		}
	case "start", "unpause":
		if state, ok := s.trackers[id]; ok {
			state.markRunning()
			s.builder.restart(ctx, state)

			return
		}

		var names []string
		if name := event.Actor.Attributes["name"]; name != "" {
			names = []string{name}
		}

		if !s.admit(id, names) {
			return
		}

		logrus.WithField("container_id", id.ShortID()).Info("Tracking started container")
		s.track(ctx, id, 0)
	default:
		// The event feed is prefiltered to the four actions above; anything
		// else is ignored.
	}
}
