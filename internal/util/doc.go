// Package util provides utility functions for dockerstats operations.
// It includes tools for formatting durations in log output.
//
// Key components:
//   - FormatDuration: Renders a duration as "1 hour, 2 minutes, 3 seconds".
//
// Usage example:
//
//	readable := util.FormatDuration(2 * time.Second)
//
// The package integrates with the startup logging to present retry settings
// in a readable form.
package util
