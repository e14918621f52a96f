package source

import (
	"context"
	"errors"
	"time"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/sirupsen/logrus"

	"github.com/nrhtr/dockerstats/pkg/metrics"
	"github.com/nrhtr/dockerstats/pkg/types"
)

// errorPersistence classifies a polling-task failure for retry policy.
type errorPersistence int

const (
	persistenceTransient errorPersistence = iota
	persistencePermanent
)

func (p errorPersistence) String() string {
	if p == persistencePermanent {
		return metrics.PersistencePermanent
	}

	return metrics.PersistenceTransient
}

// completionReport is the one message a polling task sends when its feed
// ends. info is non-nil exactly when the feed ended cleanly.
type completionReport struct {
	info        *containerMetricInfo
	id          types.ContainerID
	err         error
	persistence errorPersistence
}

// streamBuilder spawns the per-container polling tasks. Each task fetches
// metadata, follows the container's stats feed, forwards mapped records to
// the sink, and reports completion exactly once.
type streamBuilder struct {
	client      types.RuntimeClient
	sink        types.Sink
	telemetry   *metrics.Telemetry
	completions chan<- completionReport
	hostKey     string
	hostname    string
}

// start spawns a polling task for a container without a prior snapshot.
//
// Parameters:
//   - id: Container to poll.
//   - backoff: Delay before the task does anything, zero for none. Used to
//     throttle retries after a transient failure.
func (b *streamBuilder) start(ctx context.Context, id types.ContainerID, backoff time.Duration) {
	b.telemetry.StreamStarted()

	go func() {
		if backoff > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			}
		}

		metadata, err := b.client.InspectContainer(ctx, id)
		if err != nil {
			// Metadata fetch failures are always retryable.
			b.fail(ctx, id, err, persistenceTransient)

			return
		}

		b.runEventStream(ctx, newContainerMetricInfo(id, metadata, b.hostKey, b.hostname))
	}()
}

// restart respawns a polling task from the tracker's stored snapshot. It is
// a no-op while a task is still active for the container.
func (b *streamBuilder) restart(ctx context.Context, state *containerState) {
	info := state.takeInfo()
	if info == nil {
		return
	}

	b.telemetry.StreamRestarted()

	go b.runEventStream(ctx, info)
}

// runEventStream follows one container's stats feed until it ends, erroring
// or not, then sends the single completion report.
func (b *streamBuilder) runEventStream(ctx context.Context, info *containerMetricInfo) {
	results, err := b.client.Stats(ctx, info.id)
	if err != nil {
		b.fail(ctx, info.id, err, classifyStreamError(err))

		return
	}

	for result := range results {
		if result.Err != nil {
			b.fail(ctx, info.id, result.Err, classifyStreamError(result.Err))

			return
		}

		b.telemetry.PayloadReceived()

		records := metrics.BuildRecords(result.Payload, info.tags)
		if err := b.sink.SendBatch(ctx, records); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				// Shutdown raced the send; the feed ends cleanly.
				b.report(ctx, completionReport{info: info, id: info.id})

				return
			}

			b.fail(ctx, info.id, err, classifyStreamError(err))

			return
		}

		b.telemetry.RecordsEmitted(len(records))
	}

	b.report(ctx, completionReport{info: info, id: info.id})
}

func (b *streamBuilder) fail(
	ctx context.Context,
	id types.ContainerID,
	err error,
	persistence errorPersistence,
) {
	logrus.WithFields(logrus.Fields{
		"container_id": id.ShortID(),
		"persistence":  persistence.String(),
		"error":        err,
	}).Warn("Container stats stream failed")

	b.telemetry.StreamError(persistence.String())
	b.report(ctx, completionReport{id: id, err: err, persistence: persistence})
}

// report delivers the completion report unless the Coordinator is already
// gone, which is the expected shutdown race rather than a fault.
func (b *streamBuilder) report(ctx context.Context, r completionReport) {
	select {
	case b.completions <- r:
	case <-ctx.Done():
	}
}

// classifyStreamError decides whether a stats feed failure is worth a retry.
// A runtime that rejects the configured reporting mode will keep rejecting
// it, and a closed sink means the downstream is gone entirely; everything
// else is assumed recoverable.
func classifyStreamError(err error) errorPersistence {
	if cerrdefs.IsNotImplemented(err) || errors.Is(err, types.ErrSinkClosed) {
		return persistencePermanent
	}

	return persistenceTransient
}
