package container

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	dockerContainer "github.com/docker/docker/api/types/container"
	dockerEvents "github.com/docker/docker/api/types/events"
	dockerFilters "github.com/docker/docker/api/types/filters"
	dockerClient "github.com/docker/docker/client"
	"github.com/docker/go-connections/tlsconfig"

	"github.com/nrhtr/dockerstats/pkg/types"
)

// lifecycleActions are the event actions the source reacts to.
//
// action  | emitted on
// --------+-------------------------------------------------------
// start   | docker start, docker run, restart policy, docker restart
// unpause | docker unpause
// die     | docker restart, docker stop, docker kill, exit, oom
// pause   | docker pause
var lifecycleActions = []string{"start", "unpause", "die", "pause"}

// client is the concrete implementation of types.RuntimeClient.
//
// It wraps the Docker API client and applies custom behavior via ClientOptions.
type client struct {
	api dockerClient.APIClient
	ClientOptions
}

// ClientOptions configures the Docker client wrapper.
type ClientOptions struct {
	// TLSCACert, TLSCert, and TLSKey enable mutual TLS towards the daemon
	// when all three point at PEM files. When unset, connection security is
	// taken from the DOCKER_TLS_VERIFY / DOCKER_CERT_PATH environment.
	TLSCACert string
	TLSCert   string
	TLSKey    string
}

// NewClient initializes a new runtime client for Docker API interactions.
//
// It configures the client from environment variables (DOCKER_HOST,
// DOCKER_API_VERSION) with API version autonegotiation, optionally layering
// an explicit TLS configuration on top.
//
// Parameters:
//   - opts: Options to customize the Docker connection.
//
// Returns:
//   - types.RuntimeClient: Initialized client instance (exits on failure).
func NewClient(opts ClientOptions) types.RuntimeClient {
	ctx := context.Background()

	clientOpts := []dockerClient.Opt{
		dockerClient.FromEnv,
		dockerClient.WithAPIVersionNegotiation(),
	}

	if opts.TLSCACert != "" || opts.TLSCert != "" {
		tlsc, err := tlsconfig.Client(tlsconfig.Options{
			CAFile:   opts.TLSCACert,
			CertFile: opts.TLSCert,
			KeyFile:  opts.TLSKey,
		})
		if err != nil {
			logrus.WithError(err).Fatal("Failed to load TLS configuration")
		}

		clientOpts = append(clientOpts, dockerClient.WithHTTPClient(&http.Client{
			Transport: &http.Transport{TLSClientConfig: tlsc},
		}))
	}

	cli, err := dockerClient.NewClientWithOpts(clientOpts...)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize Docker client")
	}

	// Log client and server API versions.
	if serverVersion, err := cli.ServerVersion(ctx); err != nil {
		logrus.WithFields(logrus.Fields{
			"error":    err,
			"endpoint": "/version",
		}).Error("Failed to retrieve server version")
	} else {
		logrus.WithFields(logrus.Fields{
			"client_version": cli.ClientVersion(),
			"server_version": serverVersion.APIVersion,
		}).Debug("Initialized Docker client")
	}

	return &client{
		api:           cli,
		ClientOptions: opts,
	}
}

// GetVersion returns the negotiated Docker API version.
func (c *client) GetVersion() string {
	return c.api.ClientVersion()
}

// ListRunningContainers retrieves the currently running containers matching
// the configured label and image filters.
//
// Parameters:
//   - labels: Label filters to push down to the daemon, nil for none.
//   - images: Image (ancestor) filters to push down to the daemon, nil for none.
//
// Returns:
//   - []types.ContainerSummary: Matching running containers.
//   - error: Non-nil if listing fails, nil on success.
func (c *client) ListRunningContainers(
	ctx context.Context,
	labels, images []string,
) ([]types.ContainerSummary, error) {
	args := dockerFilters.NewArgs()
	for _, label := range labels {
		args.Add("label", label)
	}

	for _, image := range images {
		args.Add("ancestor", image)
	}

	list, err := c.api.ContainerList(ctx, dockerContainer.ListOptions{
		All:     false, // only running containers
		Filters: args,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list running containers: %w", err)
	}

	summaries := make([]types.ContainerSummary, 0, len(list))
	for _, entry := range list {
		summaries = append(summaries, types.ContainerSummary{
			ID:    types.ContainerID(entry.ID),
			Names: stripNameSlashes(entry.Names),
		})
	}

	logrus.WithField("count", len(summaries)).Debug("Listed running containers")

	return summaries, nil
}

// InspectContainer resolves the metadata snapshot for one container.
//
// Parameters:
//   - id: Container ID to inspect.
//
// Returns:
//   - types.ContainerMetadata: Name and image of the container.
//   - error: Non-nil if the inspect call or response validation fails.
func (c *client) InspectContainer(
	ctx context.Context,
	id types.ContainerID,
) (types.ContainerMetadata, error) {
	details, err := c.api.ContainerInspect(ctx, string(id))
	if err != nil {
		return types.ContainerMetadata{}, fmt.Errorf(
			"failed to inspect container %s: %w", id.ShortID(), err)
	}

	return metadataFromInspect(details)
}

// Events opens the Docker lifecycle event feed, prefiltered to container
// start/unpause/die/pause events at or after since, and translates messages
// into types.LifecycleEvent values.
//
// The returned event channel is closed when the upstream feed ends; at most
// one error is delivered on the error channel.
func (c *client) Events(
	ctx context.Context,
	labels, images []string,
	since time.Time,
) (<-chan types.LifecycleEvent, <-chan error) {
	args := dockerFilters.NewArgs()
	for _, action := range lifecycleActions {
		args.Add("event", action)
	}

	args.Add("type", "container")

	for _, label := range labels {
		args.Add("label", label)
	}

	for _, image := range images {
		args.Add("image", image)
	}

	messages, upstreamErrs := c.api.Events(ctx, dockerEvents.ListOptions{
		Since:   strconv.FormatInt(since.Unix(), 10),
		Filters: args,
	})

	events := make(chan types.LifecycleEvent)
	errs := make(chan error, 1)

	go func() {
		defer close(events)

		for {
			select {
			case message, ok := <-messages:
				if !ok {
					return
				}

				select {
				case events <- translateEvent(message):
				case <-ctx.Done():
					return
				}
			case err, ok := <-upstreamErrs:
				if ok && err != nil {
					errs <- err
				}

				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, errs
}

// Stats opens a continuous stats feed for one container, decoding each JSON
// message into a types.StatsPayload. The returned channel is closed when the
// feed ends; a decode or transport failure is delivered as the final
// element's Err.
func (c *client) Stats(
	ctx context.Context,
	id types.ContainerID,
) (<-chan types.StatsResult, error) {
	response, err := c.api.ContainerStats(ctx, string(id), true)
	if err != nil {
		return nil, fmt.Errorf("failed to open stats feed for %s: %w", id.ShortID(), err)
	}

	results := make(chan types.StatsResult)

	go func() {
		defer close(results)
		defer response.Body.Close()

		if err := decodeStatsStream(ctx, response.Body, results); err != nil {
			select {
			case results <- types.StatsResult{Err: err}:
			case <-ctx.Done():
			}
		}
	}()

	return results, nil
}

// translateEvent converts a Docker event message into the runtime-agnostic
// lifecycle event shape.
func translateEvent(message dockerEvents.Message) types.LifecycleEvent {
	return types.LifecycleEvent{
		Action: string(message.Action),
		Actor: types.LifecycleActor{
			ID:         message.Actor.ID,
			Attributes: message.Actor.Attributes,
		},
	}
}

// stripNameSlashes removes the leading '/' the daemon prepends to container
// names in list responses.
func stripNameSlashes(names []string) []string {
	stripped := make([]string, 0, len(names))
	for _, name := range names {
		if len(name) > 0 && name[0] == '/' {
			name = name[1:]
		}

		stripped = append(stripped, name)
	}

	return stripped
}
