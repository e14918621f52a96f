package metrics

import (
	"sort"

	"github.com/nrhtr/dockerstats/pkg/types"
)

// memoryV1Keys are the cgroup v1 memory stats forwarded as records, in
// emission order. cgroup v2 uses a different key set and is not mapped.
var memoryV1Keys = []string{
	"cache",
	"dirty",
	"mapped_file",
	"total_inactive_file",
	"pgpgout",
	"rss",
	"total_mapped_file",
}

// recordBuilder accumulates records sharing one tag set.
type recordBuilder struct {
	tags    map[string]string
	records []types.Record
}

func (b *recordBuilder) push(name string, value float64) {
	b.records = append(b.records, types.Record{
		Name:  name,
		Value: value,
		Tags:  b.tags,
	})
}

func (b *recordBuilder) pushOptional(name string, value *uint64) {
	if value != nil {
		b.push(name, float64(*value))
	}
}

// BuildRecords maps one stats payload to normalized metric records.
//
// The mapping is stateless and deterministic: record order is fixed for a
// given payload shape, network interfaces are emitted in lexical order, and
// absent optional values produce no record at all. All returned records
// alias the given tags map, so the caller must not mutate it afterwards.
//
// Parameters:
//   - payload: Decoded stats payload from the runtime.
//   - tags: Tag set stamped onto every record.
//
// Returns:
//   - []types.Record: Records in emission order.
func BuildRecords(payload *types.StatsPayload, tags map[string]string) []types.Record {
	builder := &recordBuilder{tags: tags}

	builder.push("num_procs", float64(payload.NumProcs))
	builder.pushOptional("pid_current", payload.PidsStats.Current)
	builder.pushOptional("pid_limit", payload.PidsStats.Limit)

	interfaces := make([]string, 0, len(payload.Networks))
	for name := range payload.Networks {
		interfaces = append(interfaces, name)
	}

	sort.Strings(interfaces)

	for _, name := range interfaces {
		network := payload.Networks[name]
		builder.push("network_"+name+"_rx_bytes", float64(network.RxBytes))
		builder.push("network_"+name+"_rx_errors", float64(network.RxErrors))
		builder.push("network_"+name+"_rx_dropped", float64(network.RxDropped))
		builder.push("network_"+name+"_rx_packets", float64(network.RxPackets))
		builder.push("network_"+name+"_tx_bytes", float64(network.TxBytes))
		builder.push("network_"+name+"_tx_errors", float64(network.TxErrors))
		builder.push("network_"+name+"_tx_dropped", float64(network.TxDropped))
		builder.push("network_"+name+"_tx_packets", float64(network.TxPackets))
	}

	for _, key := range memoryV1Keys {
		if value, ok := payload.MemoryStats.Stats[key]; ok {
			builder.push("memory_stats_v1_"+key, float64(value))
		}
	}

	builder.pushOptional("memory_max_usage", payload.MemoryStats.MaxUsage)
	builder.pushOptional("memory_usage", payload.MemoryStats.Usage)
	builder.pushOptional("memory_failcnt", payload.MemoryStats.Failcnt)
	builder.pushOptional("memory_limit", payload.MemoryStats.Limit)
	builder.pushOptional("memory_commit_bytes", payload.MemoryStats.CommitBytes)
	builder.pushOptional("memory_commit_peak_bytes", payload.MemoryStats.CommitPeakBytes)
	builder.pushOptional("memory_private_working_set", payload.MemoryStats.PrivateWorkingSet)

	return builder.records
}
