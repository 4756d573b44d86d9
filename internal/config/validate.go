// If you are AI: This file validates configuration values and returns descriptive errors.

package config

import (
	"fmt"
)

// idleStrategies are the accepted agent idle strategy names.
var idleStrategies = map[string]bool{
	"busy-spin": true,
	"yield":     true,
	"park":      true,
}

// Validate checks that all configuration values are within acceptable ranges.
// Returns an error describing the first validation failure found.
func (c *Config) Validate() error {
	if c.Dir == "" {
		return fmt.Errorf("dir must not be empty")
	}
	if err := c.Cnc.Validate(); err != nil {
		return fmt.Errorf("cnc config: %w", err)
	}
	if err := c.Timeouts.Validate(); err != nil {
		return fmt.Errorf("timeouts config: %w", err)
	}
	if err := c.Agents.Validate(); err != nil {
		return fmt.Errorf("agents config: %w", err)
	}
	if err := c.Resolver.Validate(); err != nil {
		return fmt.Errorf("resolver config: %w", err)
	}
	if err := c.Monitor.Validate(); err != nil {
		return fmt.Errorf("monitor config: %w", err)
	}
	return nil
}

// Validate checks CnC section sizing.
func (c *CncConfig) Validate() error {
	if !isPowerOfTwo(int64(c.ToDriverCapacity)) {
		return fmt.Errorf("to_driver_capacity must be a power of two, got %d", c.ToDriverCapacity)
	}
	if !isPowerOfTwo(int64(c.ToClientsCapacity)) {
		return fmt.Errorf("to_clients_capacity must be a power of two, got %d", c.ToClientsCapacity)
	}
	if c.CounterSlots <= 0 {
		return fmt.Errorf("counter_slots must be positive, got %d", c.CounterSlots)
	}
	if c.ErrorLogLength <= 0 || c.ErrorLogLength%8 != 0 {
		return fmt.Errorf("error_log_length must be a positive multiple of 8, got %d", c.ErrorLogLength)
	}
	if c.LogBufferLength <= 0 {
		return fmt.Errorf("log_buffer_length must be positive, got %d", c.LogBufferLength)
	}
	return nil
}

// Validate checks timeout windows.
func (t *TimeoutConfig) Validate() error {
	if t.ClientLivenessMs <= 0 {
		return fmt.Errorf("client_liveness_ms must be positive, got %d", t.ClientLivenessMs)
	}
	if t.PublicationLingerMs <= 0 {
		return fmt.Errorf("publication_linger_ms must be positive, got %d", t.PublicationLingerMs)
	}
	if t.CounterReuseWindowMs < 0 {
		return fmt.Errorf("counter_reuse_window_ms must not be negative, got %d", t.CounterReuseWindowMs)
	}
	return nil
}

// Validate checks agent tuning.
func (a *AgentConfig) Validate() error {
	if !idleStrategies[a.ConductorIdle] {
		return fmt.Errorf("conductor_idle must be busy-spin, yield or park, got %q", a.ConductorIdle)
	}
	if !idleStrategies[a.ResolverIdle] {
		return fmt.Errorf("resolver_idle must be busy-spin, yield or park, got %q", a.ResolverIdle)
	}
	if a.CommandFragmentLimit <= 0 {
		return fmt.Errorf("command_fragment_limit must be positive, got %d", a.CommandFragmentLimit)
	}
	return nil
}

// Validate checks the resolver section when enabled.
func (r *ResolverConfig) Validate() error {
	if !r.Enabled {
		return nil
	}
	if r.Address == "" {
		return fmt.Errorf("address is required when the resolver is enabled")
	}
	if r.SelfResolutionIntervalMs <= 0 {
		return fmt.Errorf("self_resolution_interval_ms must be positive, got %d", r.SelfResolutionIntervalMs)
	}
	if r.NeighborResolutionIntervalMs <= 0 {
		return fmt.Errorf("neighbor_resolution_interval_ms must be positive, got %d", r.NeighborResolutionIntervalMs)
	}
	return nil
}

// Validate checks the monitor section when enabled.
func (m *MonitorConfig) Validate() error {
	if !m.Enabled {
		return nil
	}
	if m.Port <= 0 || m.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", m.Port)
	}
	if m.IntervalMs <= 0 {
		return fmt.Errorf("interval_ms must be positive, got %d", m.IntervalMs)
	}
	return nil
}

// isPowerOfTwo reports whether v is a positive power of two.
func isPowerOfTwo(v int64) bool {
	return v > 0 && v&(v-1) == 0
}
