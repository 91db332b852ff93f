package models

import "time"

// InterfaceSample is one read of an interface's cumulative OS counters.
type InterfaceSample struct {
	Timestamp   time.Time `json:"timestamp"`
	BytesSent   uint64    `json:"bytes_sent"`
	BytesRecv   uint64    `json:"bytes_recv"`
	PacketsSent uint64    `json:"packets_sent"`
	PacketsRecv uint64    `json:"packets_recv"`
}

// InterfaceRate holds the instantaneous rates derived from the two most
// recent samples of one interface.
type InterfaceRate struct {
	SendBytesPerSec   float64   `json:"send_rate"`
	RecvBytesPerSec   float64   `json:"recv_rate"`
	SendPacketsPerSec float64   `json:"send_packets_rate"`
	RecvPacketsPerSec float64   `json:"recv_packets_rate"`
	Timestamp         time.Time `json:"timestamp"`
}

// InterfaceSnapshot is the externally visible state of one monitored
// interface: the current rate plus the retained rate history.
type InterfaceSnapshot struct {
	Current   InterfaceRate   `json:"current"`
	TotalSent uint64          `json:"total_sent"`
	TotalRecv uint64          `json:"total_recv"`
	History   []InterfaceRate `json:"history"`
}
