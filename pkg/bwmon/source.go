package bwmon

import (
	"context"
	"fmt"
	"strings"

	psnet "github.com/shirou/gopsutil/v4/net"
)

// psutilSource reads counters through gopsutil.
type psutilSource struct{}

// NewPsutilSource returns the production StatsSource.
func NewPsutilSource() StatsSource {
	return &psutilSource{}
}

// InterfaceInfo describes one OS network interface.
type InterfaceInfo struct {
	Name      string   `json:"name"`
	MTU       int      `json:"mtu"`
	Up        bool     `json:"is_up"`
	Addresses []string `json:"addresses"`
}

// ListInterfaces returns the non-excluded OS interfaces with their
// addresses and flags.
func ListInterfaces(ctx context.Context, excluded []string) ([]InterfaceInfo, error) {
	ifaces, err := psnet.InterfacesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}

	infos := make([]InterfaceInfo, 0, len(ifaces))

	for _, iface := range ifaces {
		if matchesAny(iface.Name, excluded) {
			continue
		}

		info := InterfaceInfo{
			Name:      iface.Name,
			MTU:       iface.MTU,
			Addresses: make([]string, 0, len(iface.Addrs)),
		}

		for _, flag := range iface.Flags {
			if flag == "up" {
				info.Up = true
				break
			}
		}

		for _, addr := range iface.Addrs {
			info.Addresses = append(info.Addresses, addr.Addr)
		}

		infos = append(infos, info)
	}

	return infos, nil
}

func matchesAny(name string, patterns []string) bool {
	for _, pat := range patterns {
		if name == pat || strings.HasPrefix(name, pat) {
			return true
		}
	}

	return false
}

func (s *psutilSource) Counters(ctx context.Context) (map[string]IOCounters, error) {
	stats, err := psnet.IOCountersWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to read interface counters: %w", err)
	}

	counters := make(map[string]IOCounters, len(stats))
	for _, st := range stats {
		counters[st.Name] = IOCounters{
			BytesSent:   st.BytesSent,
			BytesRecv:   st.BytesRecv,
			PacketsSent: st.PacketsSent,
			PacketsRecv: st.PacketsRecv,
		}
	}

	return counters, nil
}
