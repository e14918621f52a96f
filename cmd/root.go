// Package cmd contains the command-line interface (CLI) definitions and execution logic for dockerstats.
// It provides the root command, orchestrating the application's core functionality: Docker client setup,
// container discovery, stats stream coordination, record emission, and the optional Prometheus metrics API.
// This package serves as the primary entry point for the dockerstats CLI, integrating various components
// to stream container resource metrics based on user-specified configurations.
package cmd

import (
	"context"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nrhtr/dockerstats/internal/flags"
	"github.com/nrhtr/dockerstats/internal/logging"
	"github.com/nrhtr/dockerstats/internal/meta"
	pkgApi "github.com/nrhtr/dockerstats/pkg/api"
	metricsAPI "github.com/nrhtr/dockerstats/pkg/api/metrics"
	"github.com/nrhtr/dockerstats/pkg/container"
	"github.com/nrhtr/dockerstats/pkg/filters"
	"github.com/nrhtr/dockerstats/pkg/metrics"
	"github.com/nrhtr/dockerstats/pkg/sink"
	"github.com/nrhtr/dockerstats/pkg/source"
	"github.com/nrhtr/dockerstats/pkg/types"
)

// client is the Docker client instance used to discover containers, subscribe
// to lifecycle events, and open stats feeds.
//
// It is initialized during the preRun phase with options derived from
// command-line flags and environment variables such as DOCKER_HOST,
// DOCKER_TLS_VERIFY, and DOCKER_API_VERSION.
var client types.RuntimeClient

// sourceConfig is the immutable configuration snapshot handed to the source.
//
// It is assembled during preRun from the container selection, hostname, and
// retry flags, after which it is never mutated.
var sourceConfig source.Config

// rootCmd represents the root command for the dockerstats CLI, serving as the entry point.
//
// It defines the base usage string, short and long descriptions, and assigns lifecycle hooks
// (PreRun and Run) to manage setup and execution.
var rootCmd = NewRootCommand()

// RunConfig encapsulates the configuration parameters for the runMain function.
//
// It aggregates command-line flags and derived settings into a single structure, providing
// a cohesive way to pass configuration data through the CLI execution flow.
type RunConfig struct {
	// Command is the cobra.Command instance representing the executed command, providing access to parsed flags.
	Command *cobra.Command
	// EnableMetricsAPI enables the HTTP metrics API endpoint, set via the --http-api-metrics flag.
	EnableMetricsAPI bool
	// APIToken is the authentication token for HTTP API access, set via the --http-api-token flag.
	APIToken string
	// APIHost is the host to bind the HTTP API to, set via the --http-api-host flag (defaults to empty string).
	APIHost string
	// APIPort is the port for the HTTP API server, set via the --http-api-port flag (defaults to "8080").
	APIPort string
}

// NewRootCommand creates and configures the root command for the dockerstats CLI.
//
// It establishes the base usage string ("dockerstats"), a short description summarizing its
// purpose, and a long description with additional context.
//
// Returns:
//   - *cobra.Command: A pointer to the fully configured root command, ready for flag registration and execution.
func NewRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:    "dockerstats",
		Short:  "Streams resource metrics for running Docker containers",
		Long:   "\ndockerstats watches the local Docker daemon and emits a stream of per-container\nresource metric records (memory, network, process counts) for every running container.",
		Run:    run,
		PreRun: preRun,
		Args:   cobra.NoArgs,
	}
}

// init registers command-line flags for the root command during package initialization.
//
// It invokes functions from the flags package to set default values and register flags for
// Docker configuration (e.g., --host) and system behavior (e.g., --include-containers),
// establishing the CLI's configurable parameters before execution begins.
func init() {
	flags.SetDefaults()
	flags.RegisterDockerFlags(rootCmd)
	flags.RegisterSystemFlags(rootCmd)
}

// Execute runs the root command and manages any errors encountered during its execution.
//
// It serves as the primary entry point for the dockerstats CLI, called from main.go, and
// ensures that any fatal errors are logged and terminate the program with an appropriate
// exit status.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Fatal("Failed to execute root command")
	}
}

// preRun prepares the environment and configuration before the main command execution begins.
//
// It processes command-line flags and their aliases, configures logging based on verbosity
// settings, initializes the Docker client, and assembles the source configuration, ensuring
// dockerstats is correctly set up for its tasks.
//
// Parameters:
//   - cmd: The cobra.Command instance being executed, providing access to parsed flags.
//   - _: A slice of string arguments (unused, the root command takes no positional arguments).
func preRun(cmd *cobra.Command, _ []string) {
	flagsSet := cmd.PersistentFlags()
	flags.ProcessFlagAliases(flagsSet)

	// Setup logging based on flags such as --debug, --trace, and --log-format.
	if err := flags.SetupLogging(flagsSet); err != nil {
		logrus.WithError(err).Fatal("Failed to initialize logging")
	}

	// Resolve file-based secrets (e.g., the API token) before any flag reads.
	flags.GetSecretsFromFiles(cmd)

	// Set Docker environment variables (e.g., DOCKER_HOST) based on flags for client initialization.
	if err := flags.EnvConfig(cmd); err != nil {
		logrus.WithError(err).Fatal("Failed to configure Docker environment")
	}

	tlsCACert, _ := flagsSet.GetString("tls-ca-cert")
	tlsCert, _ := flagsSet.GetString("tls-cert")
	tlsKey, _ := flagsSet.GetString("tls-key")

	// Initialize the Docker client with the TLS material from flags, if any.
	client = container.NewClient(container.ClientOptions{
		TLSCACert: tlsCACert,
		TLSCert:   tlsCert,
		TLSKey:    tlsKey,
	})

	sourceConfig = sourceConfigFromFlags(flagsSet)
}

// sourceConfigFromFlags assembles the source configuration from parsed flags.
//
// When no hostname is configured, it falls back to the operating system
// hostname so the host tag and self-exclusion still work inside a container.
//
// Parameters:
//   - flagsSet: The parsed persistent flag set of the root command.
//
// Returns:
//   - source.Config: The assembled configuration snapshot.
func sourceConfigFromFlags(flagsSet *pflag.FlagSet) source.Config {
	includeContainers, _ := flagsSet.GetStringSlice("include-containers")
	excludeContainers, _ := flagsSet.GetStringSlice("exclude-containers")
	includeLabels, _ := flagsSet.GetStringSlice("include-labels")
	includeImages, _ := flagsSet.GetStringSlice("include-images")
	retryBackoff, _ := flagsSet.GetDuration("retry-backoff")
	hostKey, _ := flagsSet.GetString("host-key")
	hostname, _ := flagsSet.GetString("hostname")

	if hostname == "" {
		osHostname, err := os.Hostname()
		if err != nil {
			logrus.WithError(err).Debug("Failed to resolve the operating system hostname")
		} else {
			hostname = osHostname
		}
	}

	if retryBackoff <= 0 {
		retryBackoff = source.DefaultRetryBackoff
	}

	return source.Config{
		HostKey:           hostKey,
		Hostname:          hostname,
		IncludeContainers: includeContainers,
		ExcludeContainers: excludeContainers,
		IncludeLabels:     includeLabels,
		IncludeImages:     includeImages,
		RetryBackoff:      retryBackoff,
	}
}

// run executes the main dockerstats logic based on parsed command-line flags.
//
// It collects the HTTP API settings, validates them, and delegates to runMain for core
// execution, exiting with a status code based on the outcome (0 for success, non-zero
// for failure).
//
// Parameters:
//   - c: The cobra.Command instance being executed, providing access to parsed flags.
//   - _: A slice of string arguments (unused, the root command takes no positional arguments).
func run(c *cobra.Command, _ []string) {
	flagsSet := c.PersistentFlags()

	enableMetricsAPI, _ := flagsSet.GetBool("http-api-metrics")
	apiToken, _ := flagsSet.GetString("http-api-token")

	apiHost, err := flagsSet.GetString("http-api-host")
	if err != nil {
		logrus.WithError(err).Fatal("Failed to get http-api-host flag")
	}

	// Validate APIHost: allow empty or valid IP
	if apiHost != "" && net.ParseIP(apiHost) == nil {
		logrus.Fatalf(
			"invalid http-api-host '%s': must be empty or a valid IP address (IPv4 or IPv6)",
			apiHost,
		)
	}

	apiPort, err := flagsSet.GetString("http-api-port")
	if err != nil {
		logrus.WithError(err).Fatal("Failed to get http-api-port flag")
	}

	if apiPort == "" {
		apiPort = "8080" // Default port if unset.
	}

	cfg := RunConfig{
		Command:          c,
		EnableMetricsAPI: enableMetricsAPI,
		APIToken:         apiToken,
		APIHost:          apiHost,
		APIPort:          apiPort,
	}

	// Execute core logic and exit with the returned status code (0 for success, 1 for failure).
	if exitCode := runMain(cfg); exitCode != 0 {
		logrus.WithField("exit_code", exitCode).Debug("Exiting with non-zero status")
		os.Exit(exitCode)
	}
}

// runMain contains the core dockerstats logic after flag handling.
//
// It installs signal handling, optionally starts the metrics API, wires the record sink
// to standard output, and runs the source until shutdown or a fatal feed failure.
//
// Parameters:
//   - cfg: The RunConfig struct containing all necessary configuration parameters for execution.
//
// Returns:
//   - int: An exit code (0 for success, 1 for failure) used to terminate the program.
func runMain(cfg RunConfig) int {
	// Cancel the context on SIGINT or SIGTERM for a graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	filtering := filters.Describe(
		sourceConfig.IncludeContainers,
		sourceConfig.ExcludeContainers,
		sourceConfig.IncludeLabels,
		sourceConfig.IncludeImages,
	)

	logging.WriteStartupMessage(
		cfg.Command, filtering, sourceConfig.RetryBackoff, client, meta.Version)

	// Ensure the Docker client is fully initialized before proceeding.
	awaitDockerClient()

	telemetry := metrics.Default()

	if cfg.EnableMetricsAPI {
		if err := startMetricsAPI(ctx, cfg); err != nil {
			return 1
		}
	}

	// Records are written to stdout as JSON lines; the writer drains its
	// queue on close so records accepted before shutdown are not lost.
	writer := sink.NewWriter(os.Stdout)
	defer writer.Close()

	src := source.New(client, writer, telemetry, sourceConfig)
	if err := src.Run(ctx); err != nil {
		logrus.WithError(err).Error("Source terminated")

		return 1
	}

	return 0
}

// startMetricsAPI configures and launches the HTTP metrics API in the background.
//
// It registers the Prometheus handler behind bearer token authentication and starts the
// server in non-blocking mode, leaving the foreground to the source.
//
// Parameters:
//   - ctx: The context controlling the API's lifecycle, enabling graceful shutdown on cancellation.
//   - cfg: The RunConfig struct with API-related settings (token, host, port).
//
// Returns:
//   - error: An error if the API fails to start, nil otherwise.
func startMetricsAPI(ctx context.Context, cfg RunConfig) error {
	logrus.Info("HTTP API is enabled")

	httpAPI := pkgApi.New(cfg.APIToken)
	httpAPI.Addr = getAPIAddr(cfg.APIHost, cfg.APIPort)

	metricsHandler := metricsAPI.New()
	httpAPI.RegisterFunc(metricsHandler.Path, httpAPI.RequireToken(metricsHandler.Handle))

	if err := httpAPI.Start(ctx, false); err != nil {
		logrus.WithError(err).Error("Failed to start API")

		return err
	}

	return nil
}

// getAPIAddr formats the API address string based on host and port.
//
// IPv6 hosts are bracketed so the joined address parses correctly.
//
// Parameters:
//   - host: The host to bind to, empty for all interfaces.
//   - port: The port to bind to.
//
// Returns:
//   - string: The formatted listen address.
func getAPIAddr(host, port string) string {
	address := host + ":" + port
	if host != "" && strings.Contains(host, ":") && net.ParseIP(host) != nil {
		address = "[" + host + "]:" + port
	}

	return address
}

// awaitDockerClient introduces a brief delay to ensure the Docker client is fully initialized.
//
// It pauses execution for one second to mitigate potential race conditions during startup,
// giving the Docker API time to stabilize before dockerstats begins interacting with containers.
func awaitDockerClient() {
	logrus.Debug(
		"Sleeping for a second to ensure the docker api client has been properly initialized.",
	)
	time.Sleep(1 * time.Second)
}
