package bwmon

import "context"

//go:generate mockgen -destination=mock_source.go -package=bwmon github.com/lgxlabs/netglass/pkg/bwmon StatsSource

// IOCounters are one interface's cumulative traffic counters as read
// from the OS.
type IOCounters struct {
	BytesSent   uint64
	BytesRecv   uint64
	PacketsSent uint64
	PacketsRecv uint64
}

// StatsSource reads current per-interface counters. Each call returns
// a fresh map keyed by interface name.
type StatsSource interface {
	Counters(ctx context.Context) (map[string]IOCounters, error)
}
