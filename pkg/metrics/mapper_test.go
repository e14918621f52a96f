package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nrhtr/dockerstats/pkg/types"
)

func uint64Ptr(v uint64) *uint64 {
	return &v
}

func recordNames(records []types.Record) []string {
	names := make([]string, 0, len(records))
	for _, record := range records {
		names = append(names, record.Name)
	}

	return names
}

func TestBuildRecords_FullPayload(t *testing.T) {
	t.Parallel()

	payload := &types.StatsPayload{
		NumProcs: 4,
		PidsStats: types.PidsStats{
			Current: uint64Ptr(12),
			Limit:   uint64Ptr(100),
		},
		MemoryStats: types.MemoryStats{
			Usage:    uint64Ptr(2048),
			MaxUsage: uint64Ptr(4096),
			Failcnt:  uint64Ptr(1),
			Limit:    uint64Ptr(8192),
			Stats: map[string]uint64{
				"cache":               64,
				"dirty":               0,
				"mapped_file":         32,
				"total_inactive_file": 16,
				"pgpgout":             8,
				"rss":                 128,
				"total_mapped_file":   32,
			},
		},
		Networks: map[string]types.NetworkStats{
			"eth1": {RxBytes: 10, TxBytes: 20},
			"eth0": {RxBytes: 1, TxBytes: 2},
		},
	}
	tags := map[string]string{
		"container_id":   "a29d569bd46c",
		"container_name": "web",
		"image_name":     "nginx:latest",
	}

	records := BuildRecords(payload, tags)

	// Emission order is fixed, with interfaces in lexical order.
	assert.Equal(t, []string{
		"num_procs",
		"pid_current",
		"pid_limit",
		"network_eth0_rx_bytes",
		"network_eth0_rx_errors",
		"network_eth0_rx_dropped",
		"network_eth0_rx_packets",
		"network_eth0_tx_bytes",
		"network_eth0_tx_errors",
		"network_eth0_tx_dropped",
		"network_eth0_tx_packets",
		"network_eth1_rx_bytes",
		"network_eth1_rx_errors",
		"network_eth1_rx_dropped",
		"network_eth1_rx_packets",
		"network_eth1_tx_bytes",
		"network_eth1_tx_errors",
		"network_eth1_tx_dropped",
		"network_eth1_tx_packets",
		"memory_stats_v1_cache",
		"memory_stats_v1_dirty",
		"memory_stats_v1_mapped_file",
		"memory_stats_v1_total_inactive_file",
		"memory_stats_v1_pgpgout",
		"memory_stats_v1_rss",
		"memory_stats_v1_total_mapped_file",
		"memory_max_usage",
		"memory_usage",
		"memory_failcnt",
		"memory_limit",
	}, recordNames(records))

	for _, record := range records {
		assert.Equal(t, tags, record.Tags)
	}
}

func TestBuildRecords_Values(t *testing.T) {
	t.Parallel()

	payload := &types.StatsPayload{
		NumProcs: 2,
		PidsStats: types.PidsStats{
			Current: uint64Ptr(7),
		},
		MemoryStats: types.MemoryStats{
			Usage: uint64Ptr(1048576),
		},
	}

	records := BuildRecords(payload, nil)
	require.Len(t, records, 3)

	assert.Equal(t, "num_procs", records[0].Name)
	assert.InEpsilon(t, 2.0, records[0].Value, 1e-9)
	assert.Equal(t, "pid_current", records[1].Name)
	assert.InEpsilon(t, 7.0, records[1].Value, 1e-9)
	assert.Equal(t, "memory_usage", records[2].Name)
	assert.InEpsilon(t, 1048576.0, records[2].Value, 1e-9)
}

// Absent optional fields must not be emitted as zero records.
func TestBuildRecords_OmitsAbsentValues(t *testing.T) {
	t.Parallel()

	records := BuildRecords(&types.StatsPayload{NumProcs: 1}, nil)

	assert.Equal(t, []string{"num_procs"}, recordNames(records))
}

func TestBuildRecords_SkipsUnknownMemoryKeys(t *testing.T) {
	t.Parallel()

	payload := &types.StatsPayload{
		MemoryStats: types.MemoryStats{
			Stats: map[string]uint64{
				"rss":  64,
				"anon": 32, // cgroup v2 key, not mapped
			},
		},
	}

	records := BuildRecords(payload, nil)

	assert.Equal(t, []string{"num_procs", "memory_stats_v1_rss"}, recordNames(records))
}

func TestBuildRecords_WindowsMemoryFields(t *testing.T) {
	t.Parallel()

	payload := &types.StatsPayload{
		MemoryStats: types.MemoryStats{
			CommitBytes:       uint64Ptr(100),
			CommitPeakBytes:   uint64Ptr(200),
			PrivateWorkingSet: uint64Ptr(300),
		},
	}

	records := BuildRecords(payload, nil)

	assert.Equal(t, []string{
		"num_procs",
		"memory_commit_bytes",
		"memory_commit_peak_bytes",
		"memory_private_working_set",
	}, recordNames(records))
}
