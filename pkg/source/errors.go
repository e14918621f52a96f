package source

import "errors"

// Errors for terminal Coordinator conditions. Per-container failures never
// surface here; these end the whole source.
var (
	// errCompletionFeedClosed indicates the completion report channel closed
	// while tasks could still be running.
	errCompletionFeedClosed = errors.New("completion report channel closed unexpectedly")
	// errEventFeedClosed indicates the runtime's lifecycle event feed ended.
	errEventFeedClosed = errors.New("lifecycle event feed ended")
	// errEventFeedFailed indicates the runtime's lifecycle event feed
	// reported an error.
	errEventFeedFailed = errors.New("lifecycle event feed failed")
	// errDiscoveryFailed indicates the startup container scan failed.
	errDiscoveryFailed = errors.New("failed to discover running containers")
)
