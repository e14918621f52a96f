// Package sink delivers normalized metric records downstream.
//
// The writer sink encodes each record as one JSON line on an io.Writer,
// applying backpressure through a bounded queue. Once closed it rejects
// further batches with types.ErrSinkClosed.
package sink
