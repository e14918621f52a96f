package source

import "time"

// DefaultRetryBackoff is the delay before retrying a container's stats feed
// after a transient fault, unless configured otherwise.
const DefaultRetryBackoff = 2 * time.Second

// Config is the immutable configuration snapshot consumed by the source.
type Config struct {
	// HostKey is the tag name under which the hostname is attached to every
	// emitted record.
	HostKey string
	// Hostname identifies this host, both for the HostKey tag and for
	// excluding the container the source itself runs in.
	Hostname string
	// IncludeContainers and ExcludeContainers hold name-or-id prefixes.
	// An empty include list admits every container; exclusion wins.
	IncludeContainers []string
	ExcludeContainers []string
	// IncludeLabels and IncludeImages are pushed down to the runtime when
	// listing containers and subscribing to lifecycle events.
	IncludeLabels []string
	IncludeImages []string
	// RetryBackoff throttles polling-task restarts after transient faults.
	RetryBackoff time.Duration
}

func (c Config) backoff() time.Duration {
	if c.RetryBackoff <= 0 {
		return DefaultRetryBackoff
	}

	return c.RetryBackoff
}
