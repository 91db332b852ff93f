package api

import (
	"context"
	"log"
	"net/http"
	"time"
)

func (s *Server) handleBandwidthStats(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.Bandwidth.Enabled {
		http.Error(w, "Bandwidth monitoring is disabled", http.StatusForbidden)
		return
	}

	switch action := r.URL.Query().Get("action"); action {
	case "start":
		// The sampling loop must outlive this request; it is stopped
		// explicitly, via the stop action or at shutdown.
		if err := s.monitor.Start(context.Background()); err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "started",
			"message": "Bandwidth monitoring started",
		})
	case "stop":
		if err := s.monitor.Stop(); err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "stopped",
			"message": "Bandwidth monitoring stopped",
		})
	case "", "get":
		writeJSON(w, http.StatusOK, s.monitor.Snapshot())
	case "interfaces":
		infos, err := interfaceLister(r.Context(), s.cfg.Bandwidth.ExcludedInterfaces)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, infos)
	default:
		http.Error(w, "Invalid action. Use 'start', 'stop', 'get' or 'interfaces'", http.StatusBadRequest)
	}
}

// handleBandwidthWS streams one snapshot per sampling interval over a
// websocket until the client leaves or monitoring stops.
func (s *Server) handleBandwidthWS(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.Bandwidth.Enabled {
		http.Error(w, "Bandwidth monitoring is disabled", http.StatusForbidden)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Websocket upgrade failed: %v", err)
		return
	}

	defer func() {
		if err := conn.Close(); err != nil {
			log.Printf("Error closing websocket: %v", err)
		}
	}()

	// Drain client frames so pings and close messages are processed.
	clientGone := make(chan struct{})

	go func() {
		defer close(clientGone)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Duration(s.cfg.Bandwidth.SampleInterval))
	defer ticker.Stop()

	for {
		select {
		case <-clientGone:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if !s.monitor.Running() {
				return
			}

			if err := conn.WriteJSON(s.monitor.Snapshot()); err != nil {
				return
			}
		}
	}
}
