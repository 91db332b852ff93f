package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/lgxlabs/netglass/pkg/diag"
	"github.com/lgxlabs/netglass/pkg/models"
)

const (
	defaultPingCount = 4
	defaultMaxHops   = 30
)

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.Tools.Enabled || !s.cfg.Tools.PingEnabled {
		http.Error(w, "Ping is disabled", http.StatusForbidden)
		return
	}

	s.runDiagnostic(w, r, models.ToolPing, "count", defaultPingCount)
}

func (s *Server) handleTraceroute(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.Tools.Enabled || !s.cfg.Tools.TracerouteEnabled {
		http.Error(w, "Traceroute is disabled", http.StatusForbidden)
		return
	}

	s.runDiagnostic(w, r, models.ToolTraceroute, "max_hops", defaultMaxHops)
}

// runDiagnostic validates the query parameters, executes the tool, and
// writes the result. Validation failures never reach the runner.
func (s *Server) runDiagnostic(w http.ResponseWriter, r *http.Request, tool models.Tool, countParam string, countDefault int) {
	query := r.URL.Query()

	count := countDefault
	if raw := query.Get(countParam); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, fmt.Sprintf("Invalid %s parameter", countParam), http.StatusBadRequest)
			return
		}

		count = v
	}

	ipv6 := query.Get("ipv6") == "true"

	req, err := diag.NewRequest(tool, query.Get("target"), count, ipv6, &s.cfg.Tools)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := s.runner.Run(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleIperfServer multiplexes start/stop/list on the query action,
// matching the single-endpoint contract the UI consumes.
func (s *Server) handleIperfServer(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.Tools.Enabled || !s.cfg.Tools.IperfEnabled {
		http.Error(w, "iperf3 server is disabled", http.StatusForbidden)
		return
	}

	switch action := r.URL.Query().Get("action"); action {
	case "", "start":
		s.startIperfServer(w, r)
	case "stop":
		s.stopIperfServer(w, r)
	case "list":
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"servers": s.servers.List(),
		})
	default:
		http.Error(w, "Invalid action. Use 'start', 'stop' or 'list'", http.StatusBadRequest)
	}
}

func (s *Server) startIperfServer(w http.ResponseWriter, r *http.Request) {
	var requested time.Duration

	if raw := r.URL.Query().Get("duration"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds < 1 {
			http.Error(w, "Invalid duration parameter", http.StatusBadRequest)
			return
		}

		requested = time.Duration(seconds) * time.Second
	}

	info, err := s.servers.Start(r.Context(), requested)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"port":       info.Port,
		"status":     info.Status,
		"duration":   int(info.Duration.Seconds()),
		"expires_at": info.ExpiresAt,
		"commands": map[string]string{
			"ipv4": fmt.Sprintf("iperf3 -c <server_ip> -p %d", info.Port),
			"ipv6": fmt.Sprintf("iperf3 -c <server_ipv6> -p %d", info.Port),
		},
	})
}

func (s *Server) stopIperfServer(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("port")
	if raw == "" {
		http.Error(w, "Port parameter required for stop action", http.StatusBadRequest)
		return
	}

	port, err := strconv.Atoi(raw)
	if err != nil {
		http.Error(w, "Invalid port number", http.StatusBadRequest)
		return
	}

	if err := s.servers.Stop(port); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "stopped",
		"port":   port,
	})
}
