package bwserver

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lgxlabs/netglass/pkg/config"
	"github.com/lgxlabs/netglass/pkg/models"
)

type fakeProcess struct {
	pid  int
	done chan struct{}
	once sync.Once
}

func newFakeProcess(pid int) *fakeProcess {
	return &fakeProcess{pid: pid, done: make(chan struct{})}
}

func (p *fakeProcess) exit() {
	p.once.Do(func() { close(p.done) })
}

func (p *fakeProcess) Pid() int { return p.pid }

func (p *fakeProcess) Terminate() error {
	p.exit()
	return nil
}

func (p *fakeProcess) Kill() error {
	p.exit()
	return nil
}

func (p *fakeProcess) Wait() <-chan struct{} { return p.done }

func (p *fakeProcess) Running() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

type fakeFactory struct {
	mu      sync.Mutex
	spawned []*fakeProcess
	failAll bool
}

func (f *fakeFactory) Spawn(_ context.Context, _ int) (ServerProcess, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failAll {
		return nil, assert.AnError
	}

	p := newFakeProcess(1000 + len(f.spawned))
	f.spawned = append(f.spawned, p)

	return p, nil
}

func (f *fakeFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.spawned)
}

func testManager(t *testing.T, mutate func(*config.ToolsConfig)) (*Manager, *fakeFactory) {
	t.Helper()

	cfg := config.NewDefault().Tools
	cfg.PortRangeStart = 30000
	cfg.PortRangeEnd = 30003

	if mutate != nil {
		mutate(&cfg)
	}

	factory := &fakeFactory{}
	m := NewManagerWithFactory(&cfg, factory)
	m.startGrace = 5 * time.Millisecond
	m.stopGrace = 50 * time.Millisecond

	return m, factory
}

func TestManagerStartStop(t *testing.T) {
	m, factory := testManager(t, nil)

	info, err := m.Start(context.Background(), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 30000, info.Port)
	assert.Equal(t, models.ServerRunning, info.Status)
	assert.Equal(t, time.Minute, info.Duration)
	assert.Equal(t, 1, factory.count())
	assert.Equal(t, 1, m.ActiveCount())

	require.NoError(t, m.Stop(info.Port))
	assert.Equal(t, 0, m.ActiveCount())

	// Port is immediately reusable after confirmed termination.
	info, err = m.Start(context.Background(), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 30000, info.Port)
}

func TestManagerStopUnknownPort(t *testing.T) {
	m, _ := testManager(t, nil)

	err := m.Stop(31999)
	assert.ErrorIs(t, err, ErrServerNotFound)
}

func TestManagerDurationClamp(t *testing.T) {
	m, _ := testManager(t, func(cfg *config.ToolsConfig) {
		cfg.MaxServerDuration = config.Duration(2 * time.Minute)
	})

	info, err := m.Start(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, info.Duration)

	// Zero means "use the cap".
	info, err = m.Start(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, info.Duration)
}

func TestManagerPortExhaustion(t *testing.T) {
	m, _ := testManager(t, func(cfg *config.ToolsConfig) {
		cfg.PortRangeStart = 30000
		cfg.PortRangeEnd = 30000
	})

	first, err := m.Start(context.Background(), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 30000, first.Port)

	_, err = m.Start(context.Background(), time.Minute)
	assert.ErrorIs(t, err, ErrNoPortsAvailable)
}

func TestManagerConcurrentStartsNeverSharePort(t *testing.T) {
	m, _ := testManager(t, nil)

	const starters = 4 // exactly the size of the port range

	var wg sync.WaitGroup

	ports := make(chan int, starters)

	for i := 0; i < starters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			info, err := m.Start(context.Background(), time.Minute)
			if err == nil {
				ports <- info.Port
			}
		}()
	}

	wg.Wait()
	close(ports)

	seen := make(map[int]bool)
	for port := range ports {
		assert.False(t, seen[port], "port %d allocated twice", port)
		seen[port] = true
	}

	assert.Len(t, seen, starters)
}

func TestManagerExpiry(t *testing.T) {
	m, _ := testManager(t, func(cfg *config.ToolsConfig) {
		cfg.MaxServerDuration = config.Duration(30 * time.Millisecond)
	})

	info, err := m.Start(context.Background(), time.Hour)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return m.ActiveCount() == 0
	}, time.Second, 5*time.Millisecond, "expired server was not reaped")

	// The port is reallocatable after expiry.
	again, err := m.Start(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, info.Port, again.Port)
}

func TestManagerReapsExitedProcess(t *testing.T) {
	m, factory := testManager(t, nil)

	_, err := m.Start(context.Background(), time.Minute)
	require.NoError(t, err)

	factory.spawned[0].exit()

	assert.Eventually(t, func() bool {
		return m.ActiveCount() == 0
	}, time.Second, 5*time.Millisecond, "exited server was not reaped")
}

func TestManagerSweepDropsExpired(t *testing.T) {
	m, _ := testManager(t, nil)
	m.sweepPeriod = 10 * time.Millisecond

	info, err := m.Start(context.Background(), time.Minute)
	require.NoError(t, err)

	// Force the recorded expiry into the past, then let the sweep act.
	m.mu.Lock()
	h := m.handles[info.Port]
	h.info.ExpiresAt = time.Now().Add(-time.Second)
	h.timer.Stop()
	m.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go m.Run(ctx)

	assert.Eventually(t, func() bool {
		return m.ActiveCount() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestManagerSpawnFailureReleasesPort(t *testing.T) {
	m, factory := testManager(t, func(cfg *config.ToolsConfig) {
		cfg.PortRangeStart = 30000
		cfg.PortRangeEnd = 30000
	})
	factory.failAll = true

	_, err := m.Start(context.Background(), time.Minute)
	require.Error(t, err)
	assert.Equal(t, 0, m.ActiveCount())

	factory.failAll = false

	info, err := m.Start(context.Background(), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 30000, info.Port)
}

func TestManagerStopAll(t *testing.T) {
	m, _ := testManager(t, nil)

	for i := 0; i < 3; i++ {
		_, err := m.Start(context.Background(), time.Minute)
		require.NoError(t, err)
	}

	require.Equal(t, 3, m.ActiveCount())

	m.StopAll()
	assert.Equal(t, 0, m.ActiveCount())
	assert.Empty(t, m.List())
}
