package models

import "time"

// ServerStatus is the lifecycle state of one ephemeral iperf3 server.
type ServerStatus string

const (
	ServerStarting ServerStatus = "starting"
	ServerRunning  ServerStatus = "running"
	ServerStopping ServerStatus = "stopping"
)

// ServerInfo is a read-only view of a bandwidth-server handle. Request
// handlers only ever see this, never the handle itself.
type ServerInfo struct {
	Port      int           `json:"port"`
	Status    ServerStatus  `json:"status"`
	StartedAt time.Time     `json:"started_at"`
	ExpiresAt time.Time     `json:"expires_at"`
	Duration  time.Duration `json:"duration_ns"`
}
