package types

import (
	"context"
	"time"
)

// ContainerSummary is one entry of a point-in-time container listing.
type ContainerSummary struct {
	ID    ContainerID // Container ID.
	Names []string    // Display names, without the runtime's leading slash.
}

// ContainerMetadata holds the inspect-time metadata a metric stream needs.
type ContainerMetadata struct {
	Name  string // Container name, without the runtime's leading slash.
	Image string // Image reference the container was created from.
}

// LifecycleEvent is a single container lifecycle notification from the
// runtime's event feed.
type LifecycleEvent struct {
	Action string        // One of "start", "unpause", "die", "pause", or anything else (ignored).
	Actor  LifecycleActor // The container the event refers to.
}

// LifecycleActor identifies the container a lifecycle event refers to.
type LifecycleActor struct {
	ID         string            // Container ID.
	Attributes map[string]string // Event attributes, including "name".
}

// StatsResult is one element of a container's live stats feed: either a
// decoded payload or the error that terminated the feed.
type StatsResult struct {
	Payload *StatsPayload
	Err     error
}

// RuntimeClient is the abstract container-runtime capability consumed by the
// source. The concrete Docker implementation lives in pkg/container.
type RuntimeClient interface {
	// ListRunningContainers returns a point-in-time snapshot of currently
	// running containers matching the given label and image filters.
	ListRunningContainers(ctx context.Context, labels, images []string) ([]ContainerSummary, error)

	// InspectContainer resolves the metadata for a single container.
	InspectContainer(ctx context.Context, id ContainerID) (ContainerMetadata, error)

	// Events opens the runtime's lifecycle event feed, prefiltered to
	// container start/unpause/die/pause events at or after since. The error
	// channel delivers at most one mid-stream failure; the event channel is
	// closed when the feed ends.
	Events(ctx context.Context, labels, images []string, since time.Time) (<-chan LifecycleEvent, <-chan error)

	// Stats opens a continuous stats feed for one container. The returned
	// channel is closed when the feed ends; a feed failure is delivered as
	// the final element's Err.
	Stats(ctx context.Context, id ContainerID) (<-chan StatsResult, error)

	// GetVersion returns the negotiated runtime API version for diagnostics.
	GetVersion() string
}
