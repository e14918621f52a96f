// Package container wraps the Docker API client behind the abstract runtime
// capabilities dockerstats consumes: listing running containers, inspecting
// metadata, the lifecycle event feed, and per-container stats feeds.
package container
