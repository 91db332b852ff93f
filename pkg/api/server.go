package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/lgxlabs/netglass/pkg/bwserver"
	"github.com/lgxlabs/netglass/pkg/config"
	"github.com/lgxlabs/netglass/pkg/diag"
	"github.com/lgxlabs/netglass/pkg/speedtest"
)

// Server is the HTTP surface over the diagnostics and monitoring
// engine. It holds references to the owning components but never owns
// their state itself.
type Server struct {
	cfg       *config.Config
	runner    DiagRunner
	servers   ServerManager
	monitor   BandwidthMonitor
	speed     *speedtest.Handler
	router    *mux.Router
	diagLimit *rate.Limiter
	upgrader  websocket.Upgrader
}

func NewServer(cfg *config.Config, runner DiagRunner, servers ServerManager, monitor BandwidthMonitor) *Server {
	s := &Server{
		cfg:       cfg,
		runner:    runner,
		servers:   servers,
		monitor:   monitor,
		speed:     speedtest.NewHandler(&cfg.SpeedTest),
		router:    mux.NewRouter(),
		diagLimit: rate.NewLimiter(rate.Limit(cfg.Tools.RatePerSecond), cfg.Tools.RateBurst),
		upgrader: websocket.Upgrader{
			// The UI is served from arbitrary origins behind the CORS
			// middleware; the ws endpoint follows the same policy.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	s.setupRoutes()

	return s
}

// Router returns the configured handler for serving.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.Use(corsMiddleware)

	// Diagnostic tools
	s.router.HandleFunc("/api/tools/ping", s.rateLimited(s.handlePing)).Methods("GET", "OPTIONS")
	s.router.HandleFunc("/api/tools/traceroute", s.rateLimited(s.handleTraceroute)).Methods("GET", "OPTIONS")
	s.router.HandleFunc("/api/tools/iperf3/server", s.handleIperfServer).Methods("GET", "OPTIONS")

	// Bandwidth monitoring
	s.router.HandleFunc("/api/bandwidth/stats", s.handleBandwidthStats).Methods("GET", "OPTIONS")
	s.router.HandleFunc("/api/bandwidth/ws", s.handleBandwidthWS).Methods("GET")

	// Speed test
	s.router.HandleFunc("/api/speedtest/download",
		s.requireFeature(s.cfg.SpeedTest.Enabled, s.speed.Download)).Methods("GET", "OPTIONS")
	s.router.HandleFunc("/api/speedtest/upload",
		s.requireFeature(s.cfg.SpeedTest.Enabled, s.speed.Upload)).Methods("POST", "OPTIONS")
	s.router.HandleFunc("/api/speedtest/file/{filename}",
		s.requireFeature(s.cfg.SpeedTest.Enabled, s.speed.File)).Methods("GET", "OPTIONS")

	// Status
	s.router.HandleFunc("/api/status", s.handleStatus).Methods("GET", "OPTIONS")
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// rateLimited rejects over-rate diagnostic calls immediately; clients
// get a 429 rather than a queued response of unknown age.
func (s *Server) rateLimited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.diagLimit.Allow() {
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		next(w, r)
	}
}

func (s *Server) requireFeature(enabled bool, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !enabled {
			http.Error(w, "Feature is disabled", http.StatusForbidden)
			return
		}

		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// writeError maps engine errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, diag.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, diag.ErrToolUnavailable):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, diag.ErrTooManyRequests):
		http.Error(w, err.Error(), http.StatusTooManyRequests)
	case errors.Is(err, diag.ErrTimeout):
		http.Error(w, err.Error(), http.StatusGatewayTimeout)
	case errors.Is(err, bwserver.ErrNoPortsAvailable):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, bwserver.ErrServerNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		log.Printf("Internal error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
