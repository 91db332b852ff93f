package main

import (
	"context"
	"flag"
	"log"

	"github.com/lgxlabs/netglass/pkg/api"
	"github.com/lgxlabs/netglass/pkg/bwmon"
	"github.com/lgxlabs/netglass/pkg/bwserver"
	"github.com/lgxlabs/netglass/pkg/config"
	"github.com/lgxlabs/netglass/pkg/diag"
	"github.com/lgxlabs/netglass/pkg/lifecycle"
)

func main() {
	log.Printf("Starting netglass...")

	configPath := flag.String("config", "", "Path to JSON config file (defaults apply when empty)")
	listenAddr := flag.String("listen", "", "Listen address override, e.g. :8080")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}

	runner := diag.NewRunner(&cfg.Tools)
	manager := bwserver.NewManager(&cfg.Tools)
	monitor := bwmon.NewMonitor(&cfg.Bandwidth)
	server := api.NewServer(cfg, runner, manager, monitor)

	opts := &lifecycle.ServerOptions{
		ServiceName: "netglass",
		ListenAddr:  cfg.ListenAddr,
		MaxConns:    cfg.MaxConns,
		Handler:     server.Router(),
		Services: []lifecycle.Service{
			&monitorService{monitor: monitor, autoStart: cfg.Bandwidth.Enabled && cfg.Bandwidth.AutoStart},
			&reaperService{manager: manager},
		},
	}

	if err := lifecycle.RunServer(context.Background(), opts); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Printf("Shutdown complete")
}

// monitorService adapts the bandwidth monitor to the lifecycle
// interface, honoring the auto-start setting.
type monitorService struct {
	monitor   *bwmon.Monitor
	autoStart bool
}

func (s *monitorService) Start(ctx context.Context) error {
	if !s.autoStart {
		return nil
	}

	return s.monitor.Start(ctx)
}

func (s *monitorService) Stop(context.Context) error {
	return s.monitor.Stop()
}

// reaperService drives the bandwidth-server reaper sweep and tears
// down any servers still running at shutdown.
type reaperService struct {
	manager *bwserver.Manager
}

func (s *reaperService) Start(ctx context.Context) error {
	s.manager.Run(ctx)
	return nil
}

func (s *reaperService) Stop(context.Context) error {
	s.manager.StopAll()
	return nil
}
