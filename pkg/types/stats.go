package types

// StatsPayload is one decoded message of a container's live resource-usage
// feed. Optional values are pointers so that an absent field is
// distinguishable from a genuine zero; absent fields are never defaulted.
type StatsPayload struct {
	NumProcs    uint32                  `json:"num_procs"`
	PidsStats   PidsStats               `json:"pids_stats"`
	MemoryStats MemoryStats             `json:"memory_stats"`
	Networks    map[string]NetworkStats `json:"networks,omitempty"`
}

// PidsStats reports process/thread counts for a container.
type PidsStats struct {
	Current *uint64 `json:"current,omitempty"`
	Limit   *uint64 `json:"limit,omitempty"`
}

// MemoryStats reports memory usage for a container. Stats carries the
// kernel's keyed counters (cgroup v1 keys like "cache" and "rss"); the
// remaining fields are only reported on some platforms.
type MemoryStats struct {
	Usage             *uint64           `json:"usage,omitempty"`
	MaxUsage          *uint64           `json:"max_usage,omitempty"`
	Failcnt           *uint64           `json:"failcnt,omitempty"`
	Limit             *uint64           `json:"limit,omitempty"`
	CommitBytes       *uint64           `json:"commitbytes,omitempty"`
	CommitPeakBytes   *uint64           `json:"commitpeakbytes,omitempty"`
	PrivateWorkingSet *uint64           `json:"privateworkingset,omitempty"`
	Stats             map[string]uint64 `json:"stats,omitempty"`
}

// NetworkStats reports per-interface network counters for a container.
type NetworkStats struct {
	RxBytes   uint64 `json:"rx_bytes"`
	RxPackets uint64 `json:"rx_packets"`
	RxErrors  uint64 `json:"rx_errors"`
	RxDropped uint64 `json:"rx_dropped"`
	TxBytes   uint64 `json:"tx_bytes"`
	TxPackets uint64 `json:"tx_packets"`
	TxErrors  uint64 `json:"tx_errors"`
	TxDropped uint64 `json:"tx_dropped"`
}
