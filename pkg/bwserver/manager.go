package bwserver

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/lgxlabs/netglass/pkg/config"
	"github.com/lgxlabs/netglass/pkg/models"
)

const (
	defaultStartGrace  = 200 * time.Millisecond
	defaultStopGrace   = 5 * time.Second
	defaultSweepPeriod = 10 * time.Second
)

// handle is the manager's private record of one server. Callers only
// ever see the ServerInfo copy.
type handle struct {
	info  models.ServerInfo
	proc  ServerProcess
	timer *time.Timer
}

// Manager owns every ephemeral bandwidth-test server: port allocation
// from the configured range, process lifecycle, expiry, and reaping.
// No other component touches the port range.
type Manager struct {
	cfg     *config.ToolsConfig
	factory ProcessFactory

	mu      sync.Mutex
	handles map[int]*handle

	startGrace  time.Duration
	stopGrace   time.Duration
	sweepPeriod time.Duration
}

// NewManager creates a Manager spawning real iperf3 processes.
func NewManager(cfg *config.ToolsConfig) *Manager {
	return NewManagerWithFactory(cfg, NewIperfFactory())
}

// NewManagerWithFactory creates a Manager with a custom factory for tests.
func NewManagerWithFactory(cfg *config.ToolsConfig, factory ProcessFactory) *Manager {
	return &Manager{
		cfg:         cfg,
		factory:     factory,
		handles:     make(map[int]*handle),
		startGrace:  defaultStartGrace,
		stopGrace:   defaultStopGrace,
		sweepPeriod: defaultSweepPeriod,
	}
}

// Start allocates a port, spawns a server on it, and arms the expiry
// timer. The effective lifetime is min(requested, MaxServerDuration);
// the manager's own timer is authoritative even if the process ignores
// its duration.
func (m *Manager) Start(ctx context.Context, requested time.Duration) (models.ServerInfo, error) {
	effective := m.effectiveDuration(requested)
	now := time.Now()

	port, err := m.allocate(now, effective)
	if err != nil {
		return models.ServerInfo{}, err
	}

	proc, err := m.factory.Spawn(ctx, port)
	if err != nil {
		m.release(port)
		return models.ServerInfo{}, fmt.Errorf("failed to spawn server: %w", err)
	}

	// Grace delay before reporting readiness; a process that died this
	// quickly never bound the port.
	select {
	case <-proc.Wait():
		m.release(port)
		return models.ServerInfo{}, fmt.Errorf("%w (port %d)", errSpawnFailed, port)
	case <-time.After(m.startGrace):
	}

	m.mu.Lock()

	h, ok := m.handles[port]
	if !ok {
		// Reaped between spawn and now; treat as a failed start.
		m.mu.Unlock()

		_ = proc.Kill()

		return models.ServerInfo{}, fmt.Errorf("%w (port %d)", errSpawnFailed, port)
	}

	h.proc = proc
	h.info.Status = models.ServerRunning
	h.timer = time.AfterFunc(effective, func() { m.expire(port) })
	info := h.info

	m.mu.Unlock()

	go m.watch(port, proc)

	log.Printf("Started iperf3 server on port %d (lifetime %v)", port, effective)

	return info, nil
}

// Stop terminates the server on port: graceful signal first, group kill
// after the grace period. The port is released on confirmed exit.
func (m *Manager) Stop(port int) error {
	m.mu.Lock()

	h, ok := m.handles[port]
	if !ok || h.info.Status == models.ServerStopping {
		m.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrServerNotFound, port)
	}

	h.info.Status = models.ServerStopping
	proc := h.proc

	if h.timer != nil {
		h.timer.Stop()
	}

	m.mu.Unlock()

	if proc != nil {
		m.terminate(port, proc)
	}

	m.release(port)

	log.Printf("Stopped iperf3 server on port %d", port)

	return nil
}

// List returns a read-only snapshot of active handles, ordered by port.
func (m *Manager) List() []models.ServerInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	infos := make([]models.ServerInfo, 0, len(m.handles))
	for _, h := range m.handles {
		infos = append(infos, h.info)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Port < infos[j].Port })

	return infos
}

// ActiveCount returns the number of live handles.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.handles)
}

// Run drives the periodic reaper sweep until ctx is canceled. The sweep
// is belt and braces over the per-handle timers and exit watchers, so
// leaked ports never accumulate.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.sweepPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

// StopAll terminates every active server, used during shutdown.
func (m *Manager) StopAll() {
	for _, info := range m.List() {
		if err := m.Stop(info.Port); err != nil {
			log.Printf("Error stopping server on port %d: %v", info.Port, err)
		}
	}
}

// allocate picks the lowest free port and registers a placeholder
// handle in the same critical section, so two concurrent starts can
// never race onto one port.
func (m *Manager) allocate(now time.Time, lifetime time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for port := m.cfg.PortRangeStart; port <= m.cfg.PortRangeEnd; port++ {
		if _, taken := m.handles[port]; taken {
			continue
		}

		m.handles[port] = &handle{
			info: models.ServerInfo{
				Port:      port,
				Status:    models.ServerStarting,
				StartedAt: now,
				ExpiresAt: now.Add(lifetime),
				Duration:  lifetime,
			},
		}

		return port, nil
	}

	return 0, ErrNoPortsAvailable
}

func (m *Manager) release(port int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.handles, port)
}

func (m *Manager) effectiveDuration(requested time.Duration) time.Duration {
	maxDur := time.Duration(m.cfg.MaxServerDuration)
	if requested <= 0 || requested > maxDur {
		return maxDur
	}

	return requested
}

// watch reaps the handle as soon as its process exits on its own.
func (m *Manager) watch(port int, proc ServerProcess) {
	<-proc.Wait()

	m.mu.Lock()

	h, ok := m.handles[port]
	if !ok || h.proc != proc || h.info.Status == models.ServerStopping {
		m.mu.Unlock()
		return
	}

	if h.timer != nil {
		h.timer.Stop()
	}

	delete(m.handles, port)
	m.mu.Unlock()

	log.Printf("iperf3 server on port %d exited, port released", port)
}

// expire enforces the authoritative lifetime cap.
func (m *Manager) expire(port int) {
	m.mu.Lock()

	h, ok := m.handles[port]
	if !ok || h.info.Status == models.ServerStopping {
		m.mu.Unlock()
		return
	}

	h.info.Status = models.ServerStopping
	proc := h.proc

	m.mu.Unlock()

	log.Printf("iperf3 server on port %d reached its lifetime, stopping", port)

	if proc != nil {
		m.terminate(port, proc)
	}

	m.release(port)
}

// terminate signals graceful shutdown, then force-kills the group if
// the process is still alive after the grace period.
func (m *Manager) terminate(port int, proc ServerProcess) {
	if err := proc.Terminate(); err != nil {
		log.Printf("Error terminating server on port %d: %v", port, err)
	}

	select {
	case <-proc.Wait():
	case <-time.After(m.stopGrace):
		log.Printf("Server on port %d ignored SIGTERM, killing process group", port)

		if err := proc.Kill(); err != nil {
			log.Printf("Error killing server on port %d: %v", port, err)
		}

		<-proc.Wait()
	}
}

// sweep drops handles whose process has exited or whose expiry passed.
func (m *Manager) sweep() {
	now := time.Now()

	m.mu.Lock()

	var expired []int

	for port, h := range m.handles {
		if h.info.Status == models.ServerStopping {
			continue
		}

		if h.proc != nil && !h.proc.Running() {
			if h.timer != nil {
				h.timer.Stop()
			}

			delete(m.handles, port)

			log.Printf("Reaped dead server on port %d", port)

			continue
		}

		if now.After(h.info.ExpiresAt) {
			expired = append(expired, port)
		}
	}

	m.mu.Unlock()

	for _, port := range expired {
		m.expire(port)
	}
}
