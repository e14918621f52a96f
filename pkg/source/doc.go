// Package source implements the container discovery, lifecycle tracking, and
// stream coordination at the heart of the metrics source.
//
// Key components:
//   - Source: Coordinator owning the tracker table and its event loop.
//   - containerState: Per-container state machine with a generation counter.
//   - streamBuilder: Spawns and respawns one stats-polling task per container.
//
// One polling task exists per tracked container at any instant. Tasks report
// completion over a single channel back to the Coordinator, which reconciles
// those reports against lifecycle events using the generation counter, so the
// outcome does not depend on delivery order.
package source
