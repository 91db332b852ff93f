package api

import (
	"net/http"
	"os/exec"
	"time"

	"github.com/lgxlabs/netglass/pkg/diag"
	"github.com/lgxlabs/netglass/pkg/models"
)

// iperfLookPath resolves the iperf3 binary; a variable for tests.
var iperfLookPath = exec.LookPath

// statusResponse summarizes feature enablement and host tool
// availability for the UI's landing view.
type statusResponse struct {
	Features   map[string]bool `json:"features"`
	Tools      map[string]bool `json:"tools"`
	Monitoring monitoringState `json:"monitoring"`
	Servers    serverState     `json:"servers"`
	Timestamp  time.Time       `json:"timestamp"`
}

type monitoringState struct {
	Running    bool `json:"running"`
	Interfaces int  `json:"interfaces"`
}

type serverState struct {
	Active    int `json:"active"`
	PortStart int `json:"port_start"`
	PortEnd   int `json:"port_end"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	_, iperfErr := iperfLookPath("iperf3")

	resp := statusResponse{
		Features: map[string]bool{
			"ping":       s.cfg.Tools.Enabled && s.cfg.Tools.PingEnabled,
			"traceroute": s.cfg.Tools.Enabled && s.cfg.Tools.TracerouteEnabled,
			"iperf3":     s.cfg.Tools.Enabled && s.cfg.Tools.IperfEnabled,
			"bandwidth":  s.cfg.Bandwidth.Enabled,
			"speedtest":  s.cfg.SpeedTest.Enabled,
		},
		Tools: map[string]bool{
			"ping":        diag.ToolAvailable(models.ToolPing, false),
			"ping6":       diag.ToolAvailable(models.ToolPing, true),
			"traceroute":  diag.ToolAvailable(models.ToolTraceroute, false),
			"traceroute6": diag.ToolAvailable(models.ToolTraceroute, true),
			"iperf3":      iperfErr == nil,
		},
		Monitoring: monitoringState{
			Running:    s.monitor.Running(),
			Interfaces: len(s.monitor.Snapshot()),
		},
		Servers: serverState{
			Active:    s.servers.ActiveCount(),
			PortStart: s.cfg.Tools.PortRangeStart,
			PortEnd:   s.cfg.Tools.PortRangeEnd,
		},
		Timestamp: time.Now(),
	}

	writeJSON(w, http.StatusOK, resp)
}
