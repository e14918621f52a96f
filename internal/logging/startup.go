// Package logging provides functions for logging startup information in dockerstats.
// It reports the version, filtering configuration, retry settings, and HTTP API status.
package logging

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nrhtr/dockerstats/internal/util"
	"github.com/nrhtr/dockerstats/pkg/types"
)

// WriteStartupMessage logs startup information based on configuration flags.
//
// It reports dockerstats's version, the container filtering in effect, the retry backoff,
// and HTTP API status, providing users with an overview of the application's initial state.
//
// Parameters:
//   - c: The cobra.Command instance, providing access to flags like --no-startup-message.
//   - filtering: A string describing the container filter applied (e.g., "Watching all containers").
//   - retryBackoff: The delay applied before restarting a failed stats feed.
//   - client: The runtime client used to retrieve API version information.
//   - version: The version string of dockerstats to include in startup messages.
func WriteStartupMessage(
	c *cobra.Command,
	filtering string,
	retryBackoff time.Duration,
	client types.RuntimeClient,
	version string,
) {
	noStartupMessage, _ := c.PersistentFlags().GetBool("no-startup-message")
	if noStartupMessage {
		return
	}

	startupLog := logrus.NewEntry(logrus.StandardLogger())

	var apiVersion string
	if client != nil {
		apiVersion = client.GetVersion()
	}

	startupLog.Info("dockerstats ", version, " using Docker API v", apiVersion)
	startupLog.Info(filtering)
	startupLog.Info("Retrying failed stats feeds after " + util.FormatDuration(retryBackoff))

	LogAPIInfo(startupLog, c)

	// Warn about trace-level logging if enabled, as it may expose sensitive data.
	if logrus.IsLevelEnabled(logrus.TraceLevel) {
		startupLog.Warn(
			"Trace level enabled: log will include sensitive information as credentials and tokens",
		)
	}
}

// LogAPIInfo reports whether the Prometheus metrics API is enabled and where
// it listens.
//
// Parameters:
//   - log: The logrus.Entry used to write the API information.
//   - c: The cobra.Command instance, providing access to the http-api flags.
func LogAPIInfo(log *logrus.Entry, c *cobra.Command) {
	enableMetricsAPI, _ := c.PersistentFlags().GetBool("http-api-metrics")
	if !enableMetricsAPI {
		return
	}

	apiListenHost, _ := c.PersistentFlags().GetString("http-api-host")

	apiPort, _ := c.PersistentFlags().GetString("http-api-port")
	if apiPort == "" {
		apiPort = "8080"
	}

	log.Info("The metrics API is enabled at " + apiListenHost + ":" + apiPort + ".")
}
