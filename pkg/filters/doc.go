// Package filters provides the pure predicate logic deciding which
// containers dockerstats collects metrics for.
package filters
