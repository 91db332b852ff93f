package config

import (
	"fmt"
	"time"
)

const (
	defaultListenAddr        = ":8080"
	defaultMaxConns          = 256
	defaultMaxPingCount      = 20
	defaultMaxTracerouteHops = 64
	defaultPingTimeout       = 30 * time.Second
	defaultTracerouteTimeout = 60 * time.Second
	defaultMaxConcurrent     = 4
	defaultRatePerSecond     = 1.0
	defaultRateBurst         = 5
	defaultPortRangeStart    = 30000
	defaultPortRangeEnd      = 31000
	defaultMaxServerDuration = 5 * time.Minute
	defaultSampleInterval    = time.Second
	defaultHistoryLength     = 60
	defaultSpeedTestMaxMB    = 1024
	defaultSpeedTestChunkKB  = 64

	minSampleInterval = 100 * time.Millisecond
	maxHistoryLength  = 3600
	minUserPort       = 1024
	maxPort           = 65535
	maxPingCountCap   = 100
	maxHopCap         = 255
)

var (
	errInvalidPortRange     = fmt.Errorf("port range must fall within %d-%d with start < end", minUserPort, maxPort)
	errInvalidPingBound     = fmt.Errorf("max_ping_count must be between 1 and %d", maxPingCountCap)
	errInvalidHopBound      = fmt.Errorf("max_traceroute_hops must be between 1 and %d", maxHopCap)
	errInvalidInterval      = fmt.Errorf("sample_interval must be at least %v", minSampleInterval)
	errInvalidHistoryLength = fmt.Errorf("history_length must be between 1 and %d", maxHistoryLength)
	errInvalidConcurrency   = fmt.Errorf("max_concurrent must be at least 1")
	errInvalidChunkSize     = fmt.Errorf("chunk_size_kb must be between 1 and 1024")
	errInvalidMaxSize       = fmt.Errorf("max_size_mb must be at least 1")
)

// Config is the complete netglass configuration, fixed at startup.
type Config struct {
	ListenAddr string          `json:"listen_addr"`
	MaxConns   int             `json:"max_conns"` // concurrent connection cap on the listener
	Tools      ToolsConfig     `json:"tools"`
	Bandwidth  BandwidthConfig `json:"bandwidth"`
	SpeedTest  SpeedTestConfig `json:"speedtest"`
}

// ToolsConfig covers the diagnostic tools (ping/traceroute) and the
// ephemeral iperf3 server manager.
type ToolsConfig struct {
	Enabled           bool     `json:"enabled"`
	PingEnabled       bool     `json:"ping_enabled"`
	TracerouteEnabled bool     `json:"traceroute_enabled"`
	IperfEnabled      bool     `json:"iperf3_enabled"`
	MaxPingCount      int      `json:"max_ping_count"`
	MaxTracerouteHops int      `json:"max_traceroute_hops"`
	PingTimeout       Duration `json:"ping_timeout"`
	TracerouteTimeout Duration `json:"traceroute_timeout"`
	MaxConcurrent     int      `json:"max_concurrent"`
	RatePerSecond     float64  `json:"rate_per_second"`
	RateBurst         int      `json:"rate_burst"`
	PortRangeStart    int      `json:"iperf3_port_start"`
	PortRangeEnd      int      `json:"iperf3_port_end"`
	MaxServerDuration Duration `json:"max_server_duration"`
}

// BandwidthConfig covers the interface sampling loop.
type BandwidthConfig struct {
	Enabled            bool     `json:"enabled"`
	SampleInterval     Duration `json:"sample_interval"`
	HistoryLength      int      `json:"history_length"` // samples retained per interface
	ExcludedInterfaces []string `json:"excluded_interfaces"`
	AutoStart          bool     `json:"auto_start"`
}

// SpeedTestConfig covers the raw throughput endpoints.
type SpeedTestConfig struct {
	Enabled     bool `json:"enabled"`
	MaxSizeMB   int  `json:"max_size_mb"`
	ChunkSizeKB int  `json:"chunk_size_kb"`
}

// NewDefault returns a Config populated with the shipped defaults.
func NewDefault() *Config {
	return &Config{
		ListenAddr: defaultListenAddr,
		MaxConns:   defaultMaxConns,
		Tools: ToolsConfig{
			Enabled:           true,
			PingEnabled:       true,
			TracerouteEnabled: true,
			IperfEnabled:      true,
			MaxPingCount:      defaultMaxPingCount,
			MaxTracerouteHops: defaultMaxTracerouteHops,
			PingTimeout:       Duration(defaultPingTimeout),
			TracerouteTimeout: Duration(defaultTracerouteTimeout),
			MaxConcurrent:     defaultMaxConcurrent,
			RatePerSecond:     defaultRatePerSecond,
			RateBurst:         defaultRateBurst,
			PortRangeStart:    defaultPortRangeStart,
			PortRangeEnd:      defaultPortRangeEnd,
			MaxServerDuration: Duration(defaultMaxServerDuration),
		},
		Bandwidth: BandwidthConfig{
			Enabled:            true,
			SampleInterval:     Duration(defaultSampleInterval),
			HistoryLength:      defaultHistoryLength,
			ExcludedInterfaces: []string{"lo", "docker", "br-", "veth"},
		},
		SpeedTest: SpeedTestConfig{
			Enabled:     true,
			MaxSizeMB:   defaultSpeedTestMaxMB,
			ChunkSizeKB: defaultSpeedTestChunkKB,
		},
	}
}

// Load reads a JSON config file over the defaults and validates the
// result. An empty path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := NewDefault()

	if path != "" {
		if err := LoadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if err := c.Tools.Validate(); err != nil {
		return fmt.Errorf("tools config: %w", err)
	}

	if err := c.Bandwidth.Validate(); err != nil {
		return fmt.Errorf("bandwidth config: %w", err)
	}

	if err := c.SpeedTest.Validate(); err != nil {
		return fmt.Errorf("speedtest config: %w", err)
	}

	return nil
}

func (t *ToolsConfig) Validate() error {
	if t.MaxPingCount < 1 || t.MaxPingCount > maxPingCountCap {
		return errInvalidPingBound
	}

	if t.MaxTracerouteHops < 1 || t.MaxTracerouteHops > maxHopCap {
		return errInvalidHopBound
	}

	if t.MaxConcurrent < 1 {
		return errInvalidConcurrency
	}

	if t.PortRangeStart < minUserPort || t.PortRangeEnd > maxPort || t.PortRangeStart >= t.PortRangeEnd {
		return errInvalidPortRange
	}

	return nil
}

func (b *BandwidthConfig) Validate() error {
	if time.Duration(b.SampleInterval) < minSampleInterval {
		return errInvalidInterval
	}

	if b.HistoryLength < 1 || b.HistoryLength > maxHistoryLength {
		return errInvalidHistoryLength
	}

	return nil
}

func (s *SpeedTestConfig) Validate() error {
	if s.ChunkSizeKB < 1 || s.ChunkSizeKB > 1024 {
		return errInvalidChunkSize
	}

	if s.MaxSizeMB < 1 {
		return errInvalidMaxSize
	}

	return nil
}
