package bwmon

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/lgxlabs/netglass/pkg/config"
	"github.com/lgxlabs/netglass/pkg/models"
)

// consecutiveFailureWarn is the failure streak that triggers an
// elevated warning. The loop itself never tears down on read errors.
const consecutiveFailureWarn = 3

// series is the monitor's private per-interface state.
type series struct {
	last    models.InterfaceSample // most recent cumulative counters
	rate    models.InterfaceRate
	history *rateRing
}

// Monitor is the process-wide monitoring registry: it owns the single
// background sampling loop and serves thread-safe snapshot reads.
type Monitor struct {
	cfg    *config.BandwidthConfig
	source StatsSource

	mu       sync.RWMutex
	running  bool
	series   map[string]*series
	cancel   context.CancelFunc
	loopDone chan struct{}
}

// NewMonitor creates a Monitor backed by gopsutil.
func NewMonitor(cfg *config.BandwidthConfig) *Monitor {
	return NewMonitorWithSource(cfg, NewPsutilSource())
}

// NewMonitorWithSource creates a Monitor with a custom counter source.
func NewMonitorWithSource(cfg *config.BandwidthConfig, source StatsSource) *Monitor {
	return &Monitor{
		cfg:    cfg,
		source: source,
	}
}

// Start launches the sampling loop. Calling Start while running is a
// no-op success; a second loop is never spawned.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	m.running = true
	m.series = make(map[string]*series)
	m.cancel = cancel
	m.loopDone = done

	// The loop gets its own context and done channel. It must never
	// touch the struct fields: a later Start reassigns them, and the
	// old loop closing the new loop's channel would wedge Stop.
	go m.loop(loopCtx, done)

	log.Printf("Started bandwidth monitoring (interval %v, history %d)",
		time.Duration(m.cfg.SampleInterval), m.cfg.HistoryLength)

	return nil
}

// Stop cancels the loop and clears all interface state. A snapshot
// taken after Stop returns an empty map, never stale data.
func (m *Monitor) Stop() error {
	m.mu.Lock()

	if !m.running {
		m.mu.Unlock()
		return nil
	}

	m.running = false
	m.series = nil
	cancel := m.cancel
	done := m.loopDone

	m.mu.Unlock()

	cancel()
	<-done

	log.Printf("Stopped bandwidth monitoring")

	return nil
}

// Running reports whether the sampling loop is active.
func (m *Monitor) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.running
}

// Snapshot returns the current rate and retained history for every
// monitored interface. Readers never observe a half-applied tick: each
// tick updates rate and history under one write lock.
func (m *Monitor) Snapshot() map[string]models.InterfaceSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]models.InterfaceSnapshot, len(m.series))

	for name, s := range m.series {
		out[name] = models.InterfaceSnapshot{
			Current:   s.rate,
			TotalSent: s.last.BytesSent,
			TotalRecv: s.last.BytesRecv,
			History:   s.history.Points(),
		}
	}

	return out
}

func (m *Monitor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(time.Duration(m.cfg.SampleInterval))
	defer ticker.Stop()

	failures := 0

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.tick(ctx); err != nil {
				failures++

				if failures == consecutiveFailureWarn {
					log.Printf("WARNING: %d consecutive counter read failures, last error: %v", failures, err)
				} else {
					log.Printf("Counter read failed, skipping tick: %v", err)
				}

				continue
			}

			failures = 0
		}
	}
}

// tick reads the counters once and applies the update atomically. A
// failed read degrades freshness only; prior history stays intact.
func (m *Monitor) tick(ctx context.Context) error {
	counters, err := m.source.Counters(ctx)
	if err != nil {
		return err
	}

	m.apply(time.Now(), counters)

	return nil
}

// apply folds one read into the series map as a single atomic update.
func (m *Monitor) apply(now time.Time, counters map[string]IOCounters) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Stopped while the read was in flight; drop the tick.
	if !m.running {
		return
	}

	for name, c := range counters {
		if m.excluded(name) {
			continue
		}

		sample := models.InterfaceSample{
			Timestamp:   now,
			BytesSent:   c.BytesSent,
			BytesRecv:   c.BytesRecv,
			PacketsSent: c.PacketsSent,
			PacketsRecv: c.PacketsRecv,
		}

		s, seen := m.series[name]
		if !seen {
			// First observation: zero rate, no baseline yet.
			s = &series{history: newRateRing(m.cfg.HistoryLength)}
			m.series[name] = s
		}

		rate := models.InterfaceRate{Timestamp: now}

		if seen {
			if elapsed := now.Sub(s.last.Timestamp).Seconds(); elapsed > 0 {
				rate.SendBytesPerSec = counterDelta(c.BytesSent, s.last.BytesSent) / elapsed
				rate.RecvBytesPerSec = counterDelta(c.BytesRecv, s.last.BytesRecv) / elapsed
				rate.SendPacketsPerSec = counterDelta(c.PacketsSent, s.last.PacketsSent) / elapsed
				rate.RecvPacketsPerSec = counterDelta(c.PacketsRecv, s.last.PacketsRecv) / elapsed
			}
		}

		s.last = sample
		s.rate = rate
		s.history.Add(rate)
	}

	// Interfaces gone from this read were hot-unplugged; drop them.
	for name := range m.series {
		if _, ok := counters[name]; !ok {
			delete(m.series, name)
		}
	}
}

// excluded matches the configured patterns by exact name or prefix.
func (m *Monitor) excluded(name string) bool {
	return matchesAny(name, m.cfg.ExcludedInterfaces)
}

// counterDelta handles counter resets (interface re-registration) by
// treating a backwards step as zero rather than a huge negative rate.
func counterDelta(current, previous uint64) float64 {
	if current < previous {
		return 0
	}

	return float64(current - previous)
}
