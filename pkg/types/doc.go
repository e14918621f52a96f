// Package types defines the shared value types and interfaces used across
// dockerstats, including container identifiers, the runtime client contract,
// the stats payload model, normalized metric records, and the output sink.
package types
