// Package meta holds build-time metadata for dockerstats.
package meta

// Version is the compiled-in version string. It is overridden at build time
// via -ldflags "-X github.com/nrhtr/dockerstats/internal/meta.Version=...".
var Version = "v0.0.0-unknown"
