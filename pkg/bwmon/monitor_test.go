package bwmon

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/lgxlabs/netglass/pkg/config"
	"github.com/lgxlabs/netglass/pkg/models"
)

func testConfig() *config.BandwidthConfig {
	return &config.BandwidthConfig{
		Enabled:            true,
		SampleInterval:     config.Duration(10 * time.Millisecond),
		HistoryLength:      60,
		ExcludedInterfaces: []string{"lo", "docker", "br-", "veth"},
	}
}

// startedMonitor returns a running monitor whose series map is seeded
// directly through apply, bypassing the ticker for determinism. The
// interval is stretched so the real loop never interferes.
func startedMonitor(t *testing.T, cfg *config.BandwidthConfig) *Monitor {
	t.Helper()

	cfg.SampleInterval = config.Duration(time.Minute)

	ctrl := gomock.NewController(t)
	source := NewMockStatsSource(ctrl)
	source.EXPECT().Counters(gomock.Any()).Return(map[string]IOCounters{}, nil).AnyTimes()

	m := NewMonitorWithSource(cfg, source)
	require.NoError(t, m.Start(context.Background()))
	t.Cleanup(func() { _ = m.Stop() })

	return m
}

func TestMonitorRateComputation(t *testing.T) {
	m := startedMonitor(t, testConfig())

	t0 := time.Now()
	m.apply(t0, map[string]IOCounters{
		"eth0": {BytesSent: 1000, BytesRecv: 5000, PacketsSent: 10, PacketsRecv: 50},
	})

	snap := m.Snapshot()
	require.Contains(t, snap, "eth0")
	assert.Zero(t, snap["eth0"].Current.SendBytesPerSec, "first tick has no baseline")
	assert.Zero(t, snap["eth0"].Current.RecvBytesPerSec)

	m.apply(t0.Add(time.Second), map[string]IOCounters{
		"eth0": {BytesSent: 3000, BytesRecv: 9000, PacketsSent: 30, PacketsRecv: 90},
	})

	snap = m.Snapshot()
	eth0 := snap["eth0"]
	assert.InDelta(t, 2000.0, eth0.Current.SendBytesPerSec, 0.01)
	assert.InDelta(t, 4000.0, eth0.Current.RecvBytesPerSec, 0.01)
	assert.InDelta(t, 20.0, eth0.Current.SendPacketsPerSec, 0.01)
	assert.InDelta(t, 40.0, eth0.Current.RecvPacketsPerSec, 0.01)
	assert.Equal(t, uint64(3000), eth0.TotalSent)
	assert.Equal(t, uint64(9000), eth0.TotalRecv)
	assert.Len(t, eth0.History, 2)
}

func TestMonitorHistoryEviction(t *testing.T) {
	cfg := testConfig()
	cfg.HistoryLength = 3

	m := startedMonitor(t, cfg)

	t0 := time.Now()

	const ticks = 6

	for i := 0; i < ticks; i++ {
		m.apply(t0.Add(time.Duration(i)*time.Second), map[string]IOCounters{
			"eth0": {BytesSent: uint64(i) * 100},
		})
	}

	history := m.Snapshot()["eth0"].History
	require.Len(t, history, cfg.HistoryLength)

	// Oldest surviving point is the (N-C+1)-th tick, strictly ordered.
	wantOldest := t0.Add(time.Duration(ticks-cfg.HistoryLength) * time.Second)
	assert.True(t, history[0].Timestamp.Equal(wantOldest))

	for i := 1; i < len(history); i++ {
		assert.True(t, history[i].Timestamp.After(history[i-1].Timestamp))
	}
}

func TestMonitorExcludedInterfaces(t *testing.T) {
	m := startedMonitor(t, testConfig())

	m.apply(time.Now(), map[string]IOCounters{
		"eth0":      {BytesSent: 1},
		"lo":        {BytesSent: 1},
		"veth12ab":  {BytesSent: 1},
		"docker0":   {BytesSent: 1},
		"br-e1a2b3": {BytesSent: 1},
	})

	snap := m.Snapshot()
	assert.Len(t, snap, 1)
	assert.Contains(t, snap, "eth0")
}

func TestMonitorDropsVanishedInterfaces(t *testing.T) {
	m := startedMonitor(t, testConfig())

	t0 := time.Now()
	m.apply(t0, map[string]IOCounters{"eth0": {}, "wlan0": {}})
	require.Len(t, m.Snapshot(), 2)

	m.apply(t0.Add(time.Second), map[string]IOCounters{"eth0": {}})

	snap := m.Snapshot()
	assert.Len(t, snap, 1)
	assert.NotContains(t, snap, "wlan0")
}

func TestMonitorCounterReset(t *testing.T) {
	m := startedMonitor(t, testConfig())

	t0 := time.Now()
	m.apply(t0, map[string]IOCounters{"eth0": {BytesSent: 10000}})
	m.apply(t0.Add(time.Second), map[string]IOCounters{"eth0": {BytesSent: 100}})

	assert.Zero(t, m.Snapshot()["eth0"].Current.SendBytesPerSec,
		"counter reset must not produce a negative or huge rate")
}

func TestMonitorStartIdempotent(t *testing.T) {
	m := startedMonitor(t, testConfig())

	first := m.loopDone
	require.NoError(t, m.Start(context.Background()))

	assert.True(t, first == m.loopDone, "second Start must not spawn a new loop")
	assert.True(t, m.Running())
}

func TestMonitorStopClearsState(t *testing.T) {
	m := startedMonitor(t, testConfig())

	m.apply(time.Now(), map[string]IOCounters{"eth0": {BytesSent: 1}})
	require.NotEmpty(t, m.Snapshot())

	require.NoError(t, m.Stop())
	assert.Empty(t, m.Snapshot(), "snapshot after stop must be empty, not stale")
	assert.False(t, m.Running())

	// Stop twice is fine.
	assert.NoError(t, m.Stop())
}

func TestMonitorStartStopChurn(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := NewMockStatsSource(ctrl)
	source.EXPECT().Counters(gomock.Any()).Return(map[string]IOCounters{
		"eth0": {BytesSent: 1},
	}, nil).AnyTimes()

	cfg := testConfig()
	cfg.SampleInterval = config.Duration(time.Millisecond)

	m := NewMonitorWithSource(cfg, source)

	// Interleaved Start/Stop from many goroutines: an old loop must
	// only ever close its own done channel, never a successor's.
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for j := 0; j < 50; j++ {
				_ = m.Start(context.Background())
				_ = m.Stop()
			}
		}()
	}

	wg.Wait()

	require.NoError(t, m.Stop())
	assert.False(t, m.Running())
	assert.Empty(t, m.Snapshot())
}

func TestMonitorTickAfterStopDiscarded(t *testing.T) {
	m := startedMonitor(t, testConfig())

	require.NoError(t, m.Stop())

	// A read that was in flight when Stop hit must not resurrect state.
	m.apply(time.Now(), map[string]IOCounters{"eth0": {BytesSent: 1}})
	assert.Empty(t, m.Snapshot())
}

func TestMonitorLoopCollects(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := NewMockStatsSource(ctrl)

	var calls int

	source.EXPECT().Counters(gomock.Any()).DoAndReturn(func(context.Context) (map[string]IOCounters, error) {
		calls++
		return map[string]IOCounters{
			"eth0": {BytesSent: uint64(calls) * 1000},
		}, nil
	}).AnyTimes()

	m := NewMonitorWithSource(testConfig(), source)
	require.NoError(t, m.Start(context.Background()))

	defer func() { _ = m.Stop() }()

	assert.Eventually(t, func() bool {
		snap := m.Snapshot()
		eth0, ok := snap["eth0"]

		return ok && len(eth0.History) >= 2 && eth0.Current.SendBytesPerSec > 0
	}, time.Second, 5*time.Millisecond)
}

func TestMonitorSurvivesReadFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := NewMockStatsSource(ctrl)
	source.EXPECT().Counters(gomock.Any()).Return(nil, assert.AnError).AnyTimes()

	m := NewMonitorWithSource(testConfig(), source)
	require.NoError(t, m.Start(context.Background()))

	defer func() { _ = m.Stop() }()

	// Well past the elevated-warning threshold; the loop must survive.
	time.Sleep(100 * time.Millisecond)

	assert.True(t, m.Running())
	assert.Empty(t, m.Snapshot())
}

func TestRateRing(t *testing.T) {
	r := newRateRing(3)
	assert.Zero(t, r.Len())
	assert.Empty(t, r.Points())

	base := time.Now()
	for i := 0; i < 5; i++ {
		r.Add(models.InterfaceRate{Timestamp: base.Add(time.Duration(i) * time.Second)})
	}

	require.Equal(t, 3, r.Len())

	points := r.Points()
	assert.True(t, points[0].Timestamp.Equal(base.Add(2*time.Second)))
	assert.True(t, points[2].Timestamp.Equal(base.Add(4*time.Second)))
}
