package api

import (
	"context"
	"time"

	"github.com/lgxlabs/netglass/pkg/bwmon"
	"github.com/lgxlabs/netglass/pkg/models"
)

// DiagRunner executes validated diagnostic requests.
type DiagRunner interface {
	Run(ctx context.Context, req *models.DiagRequest) (*models.DiagResult, error)
}

// ServerManager owns the ephemeral bandwidth-test servers.
type ServerManager interface {
	Start(ctx context.Context, requested time.Duration) (models.ServerInfo, error)
	Stop(port int) error
	List() []models.ServerInfo
	ActiveCount() int
}

// BandwidthMonitor owns the interface sampling loop.
type BandwidthMonitor interface {
	Start(ctx context.Context) error
	Stop() error
	Running() bool
	Snapshot() map[string]models.InterfaceSnapshot
}

// interfaceLister lists OS interfaces; a variable so tests can stub it.
var interfaceLister = bwmon.ListInterfaces
