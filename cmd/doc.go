// Package cmd provides the command-line interface for dockerstats.
// It defines the root command, flag handling, and the main execution flow
// that wires the Docker client, the stats source, and the record sink.
//
// Key components:
//   - NewRootCommand: Builds the root cobra command.
//   - Execute: Entry point called from main, running the CLI.
//   - RunConfig: Aggregated runtime settings for the main flow.
//
// Usage example:
//
//	func main() {
//	    cmd.Execute()
//	}
//
// The package integrates with the flags package for configuration, the
// container package for Docker interactions, and the source package for
// the stats streaming loop.
package cmd
