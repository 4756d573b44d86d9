// If you are AI: This file defines the configuration structure for the driver.
// It uses strict YAML decoding and explicit defaults.

package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Agent trace mask bits selected via AERON_AGENT_MASK.
const (
	TraceConductor uint64 = 1 << 0
	TraceResolver  uint64 = 1 << 1
)

// Config holds the complete driver configuration.
// All fields must have explicit defaults or be required.
type Config struct {
	Dir       string         `yaml:"dir"`                // Driver directory holding cnc.dat and log buffers
	Cnc       CncConfig      `yaml:"cnc"`                // CnC section sizing
	Timeouts  TimeoutConfig  `yaml:"timeouts"`           // Liveness and linger windows
	Agents    AgentConfig    `yaml:"agents"`             // Duty cycle tuning
	Resolver  ResolverConfig `yaml:"resolver,omitempty"` // Gossip name resolver
	Monitor   MonitorConfig  `yaml:"monitor,omitempty"`  // Counter streaming endpoint
	AgentMask uint64         `yaml:"-"`                  // From AERON_AGENT_MASK only
}

// CncConfig sizes the shared-memory sections. Ring capacities exclude
// their trailers and must be powers of two.
type CncConfig struct {
	ToDriverCapacity  int32 `yaml:"to_driver_capacity"`  // Command ring data bytes
	ToClientsCapacity int32 `yaml:"to_clients_capacity"` // Broadcast data bytes
	CounterSlots      int32 `yaml:"counter_slots"`       // Number of counters
	ErrorLogLength    int32 `yaml:"error_log_length"`    // Error log bytes
	LogBufferLength   int64 `yaml:"log_buffer_length"`   // Per-publication log bytes
}

// TimeoutConfig defines the driver's deadline windows in milliseconds.
type TimeoutConfig struct {
	ClientLivenessMs     int64 `yaml:"client_liveness_ms"`      // Keepalive window per client
	PublicationLingerMs  int64 `yaml:"publication_linger_ms"`   // Grace window for removed publications
	CounterReuseWindowMs int64 `yaml:"counter_reuse_window_ms"` // Rest period for freed counter slots
}

// AgentConfig tunes the agent duty cycles.
type AgentConfig struct {
	ConductorIdle        string `yaml:"conductor_idle"`         // "busy-spin", "yield" or "park"
	ResolverIdle         string `yaml:"resolver_idle"`          // Same choices
	CommandFragmentLimit int    `yaml:"command_fragment_limit"` // Commands drained per cycle
}

// ResolverConfig enables the gossip name resolver.
type ResolverConfig struct {
	Enabled                      bool   `yaml:"enabled"`
	Name                         string `yaml:"name,omitempty"`               // Defaults to the host name
	Address                      string `yaml:"address,omitempty"`            // Local bind address host:port
	BootstrapNeighbor            string `yaml:"bootstrap_neighbor,omitempty"` // Seed peer host:port
	SelfResolutionIntervalMs     int64  `yaml:"self_resolution_interval_ms"`
	NeighborResolutionIntervalMs int64  `yaml:"neighbor_resolution_interval_ms"`
}

// MonitorConfig enables the counter streaming endpoint.
type MonitorConfig struct {
	Enabled    bool  `yaml:"enabled"`
	Port       int   `yaml:"port"`
	IntervalMs int64 `yaml:"interval_ms"`
}

// Load reads configuration from a YAML file and applies environment
// overrides. Returns an error if the file cannot be read or decoded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields

	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.setDefaults()
	cfg.applyEnv()

	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	cfg.applyEnv()
	return cfg
}

// setDefaults applies explicit default values to unset fields.
func (c *Config) setDefaults() {
	if c.Dir == "" {
		c.Dir = defaultDir()
	}
	if c.Cnc.ToDriverCapacity == 0 {
		c.Cnc.ToDriverCapacity = 1 << 16
	}
	if c.Cnc.ToClientsCapacity == 0 {
		c.Cnc.ToClientsCapacity = 1 << 16
	}
	if c.Cnc.CounterSlots == 0 {
		c.Cnc.CounterSlots = 1024
	}
	if c.Cnc.ErrorLogLength == 0 {
		c.Cnc.ErrorLogLength = 1 << 16
	}
	if c.Cnc.LogBufferLength == 0 {
		c.Cnc.LogBufferLength = 1 << 24
	}
	if c.Timeouts.ClientLivenessMs == 0 {
		c.Timeouts.ClientLivenessMs = 10_000
	}
	if c.Timeouts.PublicationLingerMs == 0 {
		c.Timeouts.PublicationLingerMs = 5_000
	}
	if c.Timeouts.CounterReuseWindowMs == 0 {
		c.Timeouts.CounterReuseWindowMs = 1_000
	}
	if c.Agents.ConductorIdle == "" {
		c.Agents.ConductorIdle = "park"
	}
	if c.Agents.ResolverIdle == "" {
		c.Agents.ResolverIdle = "park"
	}
	if c.Agents.CommandFragmentLimit == 0 {
		c.Agents.CommandFragmentLimit = 10
	}
	if c.Resolver.SelfResolutionIntervalMs == 0 {
		c.Resolver.SelfResolutionIntervalMs = 1000
	}
	if c.Resolver.NeighborResolutionIntervalMs == 0 {
		c.Resolver.NeighborResolutionIntervalMs = 2000
	}
	if c.Monitor.Port == 0 {
		c.Monitor.Port = 8090
	}
	if c.Monitor.IntervalMs == 0 {
		c.Monitor.IntervalMs = 1000
	}
}

// applyEnv overrides configuration from the process environment.
// AERON_DIR replaces the driver directory; AERON_AGENT_MASK selects
// which agents are traced.
func (c *Config) applyEnv() {
	if dir := os.Getenv("AERON_DIR"); dir != "" {
		c.Dir = dir
	}
	if mask := os.Getenv("AERON_AGENT_MASK"); mask != "" {
		if v, err := strconv.ParseUint(mask, 0, 64); err == nil {
			c.AgentMask = v
		}
	}
}

// defaultDir is the platform default driver directory: /dev/shm when the
// host offers it, the temp dir otherwise.
func defaultDir() string {
	base := os.TempDir()
	if info, err := os.Stat("/dev/shm"); err == nil && info.IsDir() {
		base = "/dev/shm"
	}
	user := os.Getenv("USER")
	if user == "" {
		user = "default"
	}
	return filepath.Join(base, "aeronmd-"+user)
}
