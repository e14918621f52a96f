// Package flags manages command-line flags and environment variables for dockerstats configuration.
package flags

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DockerAPIMinVersion specifies the minimum Docker API version required by dockerstats.
// It ensures compatibility with the Docker client.
const DockerAPIMinVersion string = "1.44"

// defaultRetryBackoffSeconds defines the default delay before restarting a
// container's stats feed after a transient failure.
const defaultRetryBackoffSeconds = 2

// errInvalidLogFormat indicates an invalid log format was specified.
// It is used in SetupLogging to report configuration errors.
var errInvalidLogFormat = errors.New("invalid log format specified")

// errInvalidLogLevel indicates an invalid log level was specified.
// It is used in SetupLogging to report configuration errors.
var errInvalidLogLevel = errors.New("invalid log level specified")

// errSetEnvFailed indicates a failure to set an environment variable.
// It is used in setEnvOptStr to wrap os.Setenv errors.
var errSetEnvFailed = errors.New("failed to set environment variable")

// errReadFileFailed indicates a failure to read a file's contents.
// It is used in getSecretFromFile to wrap os.ReadFile errors.
var errReadFileFailed = errors.New("failed to read secret file")

// errSetFlagFailed indicates a failure to set a flag's value.
// It is used in getSecretFromFile and EnvConfig to wrap flag errors.
var errSetFlagFailed = errors.New("failed to set flag value")

// listSeparator splits comma- or space-separated env list values.
// Due to issue spf13/viper#380, viper.GetStringSlice can't be used here.
var listSeparator = regexp.MustCompile("[, ]+")

// RegisterDockerFlags adds flags used directly by the Docker API client to the root command.
// These flags configure the Docker connection settings.
func RegisterDockerFlags(rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()
	flags.StringP("host", "H", envString("DOCKER_HOST"), "daemon socket to connect to")
	flags.BoolP("tlsverify", "v", envBool("DOCKER_TLS_VERIFY"), "use TLS and verify the remote")
	flags.StringP(
		"api-version",
		"a",
		envString("DOCKER_API_VERSION"),
		"api version to use by docker client",
	)

	flags.String(
		"tls-ca-cert",
		envString("DOCKERSTATS_TLS_CA_CERT"),
		"Path to the CA certificate for verifying the daemon")

	flags.String(
		"tls-cert",
		envString("DOCKERSTATS_TLS_CERT"),
		"Path to the client certificate for mutual TLS")

	flags.String(
		"tls-key",
		envString("DOCKERSTATS_TLS_KEY"),
		"Path to the client key for mutual TLS")
}

// RegisterSystemFlags adds flags that modify dockerstats's program flow to the root command.
// These flags control container selection, retry behavior, logging, and the HTTP API.
func RegisterSystemFlags(rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()

	flags.StringSliceP(
		"include-containers",
		"i",
		envStringList("DOCKERSTATS_INCLUDE_CONTAINERS"),
		"Comma-separated name or id prefixes of containers to watch. Empty watches all.")

	flags.StringSliceP(
		"exclude-containers",
		"x",
		envStringList("DOCKERSTATS_EXCLUDE_CONTAINERS"),
		"Comma-separated name or id prefixes of containers to exclude. Exclusion wins.")

	flags.StringSlice(
		"include-labels",
		envStringList("DOCKERSTATS_INCLUDE_LABELS"),
		"Comma-separated label filters (key or key=value) pushed down to the daemon")

	flags.StringSlice(
		"include-images",
		envStringList("DOCKERSTATS_INCLUDE_IMAGES"),
		"Comma-separated image names; only containers from these images are watched")

	flags.DurationP(
		"retry-backoff",
		"b",
		envDuration("DOCKERSTATS_RETRY_BACKOFF"),
		"Delay before restarting a container's stats feed after a transient failure")

	flags.String(
		"host-key",
		envString("DOCKERSTATS_HOST_KEY"),
		"Tag name under which the hostname is attached to every metric record")

	flags.String(
		"hostname",
		envString("DOCKERSTATS_HOSTNAME"),
		"Hostname used for the host tag and for excluding the container this process runs in")

	flags.StringP(
		"log-format",
		"l",
		viper.GetString("DOCKERSTATS_LOG_FORMAT"),
		"Sets what logging format to use for console output. Possible values: Auto, LogFmt, Pretty, JSON",
	)

	flags.String(
		"log-level",
		envString("DOCKERSTATS_LOG_LEVEL"),
		"The maximum log level that will be written to STDERR. Possible values: panic, fatal, error, warn, info, debug or trace",
	)

	flags.BoolP(
		"debug",
		"d",
		envBool("DOCKERSTATS_DEBUG"),
		"Enable debug mode with verbose logging")

	flags.BoolP(
		"trace",
		"",
		envBool("DOCKERSTATS_TRACE"),
		"Enable trace mode with very verbose logging - caution, exposes credentials")

	flags.BoolP(
		"no-startup-message",
		"",
		envBool("DOCKERSTATS_NO_STARTUP_MESSAGE"),
		"Prevents dockerstats from logging a startup summary")

	flags.BoolP(
		"http-api-metrics",
		"",
		envBool("DOCKERSTATS_HTTP_API_METRICS"),
		"Runs dockerstats with the Prometheus metrics API enabled")

	flags.StringP(
		"http-api-host",
		"",
		envString("DOCKERSTATS_HTTP_API_HOST"),
		"Host to bind the HTTP API to (default: empty, all interfaces)")

	flags.StringP(
		"http-api-port",
		"",
		envString("DOCKERSTATS_HTTP_API_PORT"),
		"Port to bind the HTTP API to (default: 8080)")

	flags.StringP(
		"http-api-token",
		"",
		envString("DOCKERSTATS_HTTP_API_TOKEN"),
		"Sets an authentication token to HTTP API requests.")

	// https://no-color.org/
	flags.BoolP(
		"no-color",
		"",
		viper.IsSet("NO_COLOR"),
		"Disable ANSI color escape codes in log output")
}

// envString retrieves a string value from an environment variable via Viper.
// It binds the key to the environment and returns its value.
func envString(key string) string {
	viper.MustBindEnv(key)

	return viper.GetString(key)
}

// envStringList retrieves a comma- or space-separated list from an
// environment variable via Viper.
func envStringList(key string) []string {
	value := envString(key)
	if value == "" {
		return nil
	}

	return listSeparator.Split(value, -1)
}

// envBool retrieves a boolean value from an environment variable via Viper.
// It binds the key to the environment and returns its value.
func envBool(key string) bool {
	viper.MustBindEnv(key)

	return viper.GetBool(key)
}

// envDuration retrieves a duration value from an environment variable via Viper.
// It binds the key to the environment and returns its value.
func envDuration(key string) time.Duration {
	viper.MustBindEnv(key)

	return viper.GetDuration(key)
}

// SetDefaults configures default values for environment variables.
// It ensures consistent fallback behavior when flags or environment variables are unset.
func SetDefaults() {
	viper.AutomaticEnv()
	viper.SetDefault("DOCKER_HOST", "unix:///var/run/docker.sock")
	viper.SetDefault("DOCKER_API_VERSION", DockerAPIMinVersion)
	viper.SetDefault("DOCKERSTATS_RETRY_BACKOFF", time.Second*defaultRetryBackoffSeconds)
	viper.SetDefault("DOCKERSTATS_HOST_KEY", "host")
	viper.SetDefault("DOCKERSTATS_HTTP_API_PORT", "8080")
	viper.SetDefault("DOCKERSTATS_LOG_LEVEL", "info")
	viper.SetDefault("DOCKERSTATS_LOG_FORMAT", "auto")
}

// EnvConfig sets environment variables based on Docker-related flags.
// It configures the Docker client's environment, returning an error if flag retrieval fails.
func EnvConfig(cmd *cobra.Command) error {
	var err error

	var host string

	var tls bool

	var version string

	flags := cmd.PersistentFlags()

	if host, err = flags.GetString("host"); err != nil {
		return fmt.Errorf("%w: %w", errSetFlagFailed, err)
	}

	if tls, err = flags.GetBool("tlsverify"); err != nil {
		return fmt.Errorf("%w: %w", errSetFlagFailed, err)
	}

	if version, err = flags.GetString("api-version"); err != nil {
		return fmt.Errorf("%w: %w", errSetFlagFailed, err)
	}

	if err = setEnvOptStr("DOCKER_HOST", host); err != nil {
		return err
	}

	if err = setEnvOptBool("DOCKER_TLS_VERIFY", tls); err != nil {
		return err
	}

	if err = setEnvOptStr("DOCKER_API_VERSION", version); err != nil {
		return err
	}

	return nil
}

// setEnvOptStr sets an environment variable to a specified string value if needed.
// It skips setting if the value is empty or matches the current environment, returning an error if the set fails.
func setEnvOptStr(env string, opt string) error {
	if opt == "" || opt == os.Getenv(env) {
		return nil
	}

	if err := os.Setenv(env, opt); err != nil {
		return fmt.Errorf("%w: %s: %w", errSetEnvFailed, env, err)
	}

	return nil
}

// setEnvOptBool sets an environment variable to "1" if the boolean is true.
// It returns an error if the set operation fails, otherwise nil.
func setEnvOptBool(env string, opt bool) error {
	if opt {
		return setEnvOptStr(env, "1")
	}

	return nil
}

// GetSecretsFromFiles replaces flag values with file contents if they reference files.
// It processes the secret-related flags, updating their values accordingly.
func GetSecretsFromFiles(rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()

	secrets := []string{
		"http-api-token",
	}
	for _, secret := range secrets {
		if err := getSecretFromFile(flags, secret); err != nil {
			logrus.Fatalf("failed to get secret from flag %v: %s", secret, err)
		}
	}
}

// getSecretFromFile updates a flag's value with file contents if it references a file.
func getSecretFromFile(flags *pflag.FlagSet, secret string) error {
	flag := flags.Lookup(secret)

	value := flag.Value.String()
	if value != "" && isFilePath(value) {
		content, err := os.ReadFile(value)
		if err != nil {
			return fmt.Errorf("%w: %w", errReadFileFailed, err)
		}

		if err := flags.Set(secret, strings.TrimSpace(string(content))); err != nil {
			return fmt.Errorf("%w: %w", errSetFlagFailed, err)
		}
	}

	return nil
}

// isFilePath determines if a string likely represents a file path.
// It checks for file existence, avoiding false positives from URLs or invalid Windows paths.
func isFilePath(path string) bool {
	firstColon := strings.IndexRune(path, ':')
	if firstColon != 1 && firstColon != -1 {
		// If ':' exists but isn't the second character, it's likely not a file path (e.g., URLs).
		return false
	}

	_, err := os.Stat(path)

	return !errors.Is(err, os.ErrNotExist)
}

// ProcessFlagAliases synchronizes flag values based on helper flags.
// It promotes the debug and trace shorthands into the log-level flag.
func ProcessFlagAliases(flags *pflag.FlagSet) {
	if flagIsEnabled(flags, "debug") {
		if err := flags.Set("log-level", "debug"); err != nil {
			logrus.Errorf("Failed to set log-level flag: %v", err)
		}
	}

	if flagIsEnabled(flags, "trace") {
		if err := flags.Set("log-level", "trace"); err != nil {
			logrus.Errorf("Failed to set log-level flag: %v", err)
		}
	}
}

// SetupLogging configures the global logger based on log-related flags.
// It sets the log format and level, returning an error for invalid configurations.
func SetupLogging(flags *pflag.FlagSet) error {
	logFormat, err := flags.GetString("log-format")
	if err != nil {
		return fmt.Errorf("%w: %w", errSetFlagFailed, err)
	}

	noColor, err := flags.GetBool("no-color")
	if err != nil {
		return fmt.Errorf("%w: %w", errSetFlagFailed, err)
	}

	if err := configureLogFormat(logFormat, noColor); err != nil {
		return err
	}

	rawLogLevel, err := flags.GetString("log-level")
	if err != nil {
		return fmt.Errorf("%w: %w", errSetFlagFailed, err)
	}

	logLevel, err := logrus.ParseLevel(rawLogLevel)
	if err != nil {
		return fmt.Errorf("%w: %w", errInvalidLogLevel, err)
	}

	logrus.SetLevel(logLevel)

	return nil
}

// configureLogFormat sets the logrus formatter based on the specified format and color preference.
// It returns an error if the format is invalid.
func configureLogFormat(logFormat string, noColor bool) error {
	switch strings.ToLower(logFormat) {
	case "auto":
		logrus.SetFormatter(&logrus.TextFormatter{
			DisableColors:             noColor,
			EnvironmentOverrideColors: true,
		})
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "logfmt":
		logrus.SetFormatter(&logrus.TextFormatter{
			DisableColors: true,
			FullTimestamp: true,
		})
	case "pretty":
		logrus.SetFormatter(&logrus.TextFormatter{
			ForceColors:   !noColor,
			FullTimestamp: false,
		})
	default:
		return fmt.Errorf("%w: %s", errInvalidLogFormat, logFormat)
	}

	return nil
}

// flagIsEnabled checks if a boolean flag is set to true.
// It exits with a fatal error if the flag is not defined.
func flagIsEnabled(flags *pflag.FlagSet, name string) bool {
	value, err := flags.GetBool(name)
	if err != nil {
		logrus.Fatalf("The flag %q is not defined", name)
	}

	return value
}
