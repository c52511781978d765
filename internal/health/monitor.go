// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package health implements the traversal circuit breaker: a small
// finite-state machine observing per-node successes and failures and
// deciding when a run should degrade or abort.
package health

import (
	"log/slog"
	"sync"
	"time"
)

// State represents the monitor state.
type State int

const (
	// StateHealthy is normal operation - traversal proceeds.
	StateHealthy State = iota
	// StateDegraded means an error burst was observed - traversal
	// continues but one more consecutive failure aborts it.
	StateDegraded
	// StateAborted is terminal - the scheduler stops dispatching work
	// and returns the partial graph.
	StateAborted
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateHealthy:
		return "healthy"
	case StateDegraded:
		return "degraded"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Config configures the health monitor thresholds.
type Config struct {
	// ConsecutiveErrorCeiling is the number of uninterrupted failures
	// before degrading (default: 50). A success resets the streak.
	ConsecutiveErrorCeiling int

	// LifetimeErrorCeiling is the total failure count that aborts the
	// run outright (default: 1000). Successes never reset it.
	LifetimeErrorCeiling int

	// StallWindow is how long the run may go without a single node
	// completion before the stuck check aborts it (default: 30s).
	StallWindow time.Duration

	// StallCheckInterval is how many recorded attempts pass between
	// stuck checks (default: 100).
	StallCheckInterval int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ConsecutiveErrorCeiling: 50,
		LifetimeErrorCeiling:    1000,
		StallWindow:             30 * time.Second,
		StallCheckInterval:      100,
	}
}

// withDefaults fills in zero-valued fields.
func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.ConsecutiveErrorCeiling <= 0 {
		c.ConsecutiveErrorCeiling = defaults.ConsecutiveErrorCeiling
	}
	if c.LifetimeErrorCeiling <= 0 {
		c.LifetimeErrorCeiling = defaults.LifetimeErrorCeiling
	}
	if c.StallWindow <= 0 {
		c.StallWindow = defaults.StallWindow
	}
	if c.StallCheckInterval <= 0 {
		c.StallCheckInterval = defaults.StallCheckInterval
	}
	return c
}

// Stats contains monitor statistics.
type Stats struct {
	State             string    `json:"state"`
	Processed         int64     `json:"processed"`
	TotalErrors       int64     `json:"total_errors"`
	ConsecutiveErrors int       `json:"consecutive_errors"`
	LastProgress      time.Time `json:"last_progress"`
	LastStateChange   time.Time `json:"last_state_change"`
}

// Monitor tracks traversal health and drives the abort decision.
//
// Description:
//
//	The monitor has three states. Healthy transitions to Degraded when
//	consecutive failures reach the ceiling without an intervening
//	success; any further consecutive failure while Degraded aborts.
//	Either state aborts when lifetime failures reach the hard ceiling,
//	or when a periodic stuck check finds no node completion within the
//	stall window. Aborted is terminal. Aborting is graceful: workers
//	drain and the partial graph is still returned.
//
// Thread Safety: Safe for concurrent use.
type Monitor struct {
	config Config
	logger *slog.Logger

	mu              sync.RWMutex
	state           State
	consecutive     int
	processed       int64
	totalErrors     int64
	lastProgress    time.Time
	lastStateChange time.Time
	sinceCheck      int

	// now is swappable for tests.
	now func() time.Time
}

// NewMonitor creates a monitor in the Healthy state. Zero-valued config
// fields take their defaults. The construction instant counts as the
// initial progress mark for the stall window.
func NewMonitor(config Config, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Monitor{
		config: config.withDefaults(),
		logger: logger,
		state:  StateHealthy,
		now:    time.Now,
	}
	m.lastProgress = m.now()
	m.lastStateChange = m.lastProgress
	return m
}

// State returns the current state.
func (m *Monitor) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Aborted reports whether the monitor has reached its terminal state.
// Workers check this once per node dispatch.
func (m *Monitor) Aborted() bool {
	return m.State() == StateAborted
}

// RecordSuccess records a completed node. It resets the consecutive
// failure streak and marks progress for the stall window; the lifetime
// error total is untouched.
func (m *Monitor) RecordSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.processed++
	m.consecutive = 0
	m.lastProgress = m.now()
	m.tickStallCheck()
}

// RecordFailure records a failed node or edge resolution and applies
// the state transitions.
func (m *Monitor) RecordFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalErrors++
	m.consecutive++

	switch {
	case m.state == StateAborted:
		// Terminal; workers are draining.
	case m.totalErrors >= int64(m.config.LifetimeErrorCeiling):
		m.logger.Error("Lifetime error ceiling reached, aborting traversal",
			"total_errors", m.totalErrors,
			"ceiling", m.config.LifetimeErrorCeiling)
		m.transitionTo(StateAborted)
	case m.state == StateDegraded && m.consecutive > m.config.ConsecutiveErrorCeiling:
		m.logger.Error("Error storm continued past degraded, aborting traversal",
			"consecutive_errors", m.consecutive)
		m.transitionTo(StateAborted)
	case m.state == StateHealthy && m.consecutive >= m.config.ConsecutiveErrorCeiling:
		m.logger.Warn("Consecutive error ceiling reached, degrading traversal",
			"consecutive_errors", m.consecutive,
			"ceiling", m.config.ConsecutiveErrorCeiling)
		m.transitionTo(StateDegraded)
	}

	m.tickStallCheck()
}

// tickStallCheck runs the stuck check every StallCheckInterval recorded
// attempts. Must be called with lock held.
func (m *Monitor) tickStallCheck() {
	m.sinceCheck++
	if m.sinceCheck < m.config.StallCheckInterval {
		return
	}
	m.sinceCheck = 0

	if m.state == StateAborted {
		return
	}
	if stalled := m.now().Sub(m.lastProgress); stalled > m.config.StallWindow {
		m.logger.Error("No traversal progress within stall window, aborting",
			"stalled_for", stalled,
			"window", m.config.StallWindow)
		m.transitionTo(StateAborted)
	}
}

// transitionTo changes state. Must be called with lock held.
func (m *Monitor) transitionTo(newState State) {
	m.state = newState
	m.lastStateChange = m.now()
}

// Stats returns a snapshot of the monitor counters.
func (m *Monitor) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Stats{
		State:             m.state.String(),
		Processed:         m.processed,
		TotalErrors:       m.totalErrors,
		ConsecutiveErrors: m.consecutive,
		LastProgress:      m.lastProgress,
		LastStateChange:   m.lastStateChange,
	}
}
