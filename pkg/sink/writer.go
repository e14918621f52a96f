package sink

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/nrhtr/dockerstats/pkg/types"
)

// defaultQueueSize sets the batch queue capacity.
const defaultQueueSize = 64

// Writer is a types.Sink that encodes records as JSON lines on an
// io.Writer. Batches are queued on a bounded channel and drained by a
// single goroutine, so senders only block while the queue is full.
type Writer struct {
	batches   chan []types.Record
	done      chan struct{}
	drained   chan struct{}
	closeOnce sync.Once
}

// NewWriter creates a writer sink draining to out.
//
// Parameters:
//   - out: Destination for the JSON lines. Writes happen from a single
//     goroutine, so out does not need to be safe for concurrent use.
//
// Returns:
//   - *Writer: Running sink; release it with Close.
func NewWriter(out io.Writer) *Writer {
	writer := &Writer{
		batches: make(chan []types.Record, defaultQueueSize),
		done:    make(chan struct{}),
		drained: make(chan struct{}),
	}

	go writer.drain(out)

	return writer
}

// SendBatch queues one batch of records for encoding.
//
// It blocks while the queue is full and returns types.ErrSinkClosed once the
// sink has been closed, or the context error if ctx is canceled first.
func (w *Writer) SendBatch(ctx context.Context, records []types.Record) error {
	if len(records) == 0 {
		return nil
	}

	select {
	case <-w.done:
		return types.ErrSinkClosed
	default:
	}

	select {
	case w.batches <- records:
		return nil
	case <-w.done:
		return types.ErrSinkClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting batches, waits for already-queued batches to be
// written, and returns. It is idempotent.
func (w *Writer) Close() {
	w.closeOnce.Do(func() {
		close(w.done)
	})

	<-w.drained
}

// drain encodes queued batches until the sink is closed, then flushes
// whatever is still queued.
func (w *Writer) drain(out io.Writer) {
	defer close(w.drained)

	encoder := json.NewEncoder(out)

	for {
		select {
		case batch := <-w.batches:
			w.encode(encoder, batch)
		case <-w.done:
			for {
				select {
				case batch := <-w.batches:
					w.encode(encoder, batch)
				default:
					return
				}
			}
		}
	}
}

func (w *Writer) encode(encoder *json.Encoder, batch []types.Record) {
	for _, record := range batch {
		if err := encoder.Encode(record); err != nil {
			logrus.WithFields(logrus.Fields{
				"record": record.Name,
				"error":  err,
			}).Error("Failed to encode metric record")

			return
		}
	}
}
