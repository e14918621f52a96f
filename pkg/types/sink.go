package types

import (
	"context"
	"errors"
)

// ErrSinkClosed indicates the output sink is no longer accepting records.
// The downstream is gone; retrying a single container cannot help.
var ErrSinkClosed = errors.New("output sink is closed")

// Sink is the downstream consumer of normalized metric records. It is safe
// for concurrent use by all stream tasks; backpressure blocks only the
// calling task.
type Sink interface {
	// SendBatch forwards one batch of records. It blocks while the sink
	// applies backpressure and returns ErrSinkClosed once the sink has been
	// closed, or the context error if ctx is canceled first.
	SendBatch(ctx context.Context, records []Record) error
}
