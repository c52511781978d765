// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package health

import (
	"testing"
	"time"
)

func TestMonitor_ConsecutiveFailures(t *testing.T) {
	m := NewMonitor(DefaultConfig(), nil)

	for i := 0; i < 49; i++ {
		m.RecordFailure()
	}
	if got := m.State(); got != StateHealthy {
		t.Fatalf("after 49 failures state = %s, want healthy", got)
	}

	m.RecordFailure()
	if got := m.State(); got != StateDegraded {
		t.Fatalf("after 50 failures state = %s, want degraded", got)
	}

	m.RecordFailure()
	if got := m.State(); got != StateAborted {
		t.Fatalf("after 51 failures state = %s, want aborted", got)
	}
	if !m.Aborted() {
		t.Error("Aborted() should report true in terminal state")
	}
}

func TestMonitor_SuccessResetsStreakNotLifetime(t *testing.T) {
	m := NewMonitor(DefaultConfig(), nil)

	for i := 0; i < 49; i++ {
		m.RecordFailure()
	}
	m.RecordSuccess()

	stats := m.Stats()
	if stats.ConsecutiveErrors != 0 {
		t.Errorf("consecutive = %d, want 0 after success", stats.ConsecutiveErrors)
	}
	if stats.TotalErrors != 49 {
		t.Errorf("lifetime total = %d, want 49", stats.TotalErrors)
	}
	if m.State() != StateHealthy {
		t.Errorf("state = %s, want healthy", m.State())
	}

	// The streak starts over; 49 more failures stay healthy.
	for i := 0; i < 49; i++ {
		m.RecordFailure()
	}
	if m.State() != StateHealthy {
		t.Errorf("state = %s, want healthy after reset streak", m.State())
	}
}

func TestMonitor_LifetimeCeiling(t *testing.T) {
	m := NewMonitor(Config{LifetimeErrorCeiling: 200}, nil)

	for i := 0; i < 200; i++ {
		// Interleave successes so the consecutive path never trips.
		m.RecordFailure()
		m.RecordSuccess()
	}

	if got := m.State(); got != StateAborted {
		t.Fatalf("state = %s, want aborted at lifetime ceiling", got)
	}
}

func TestMonitor_StallCheck(t *testing.T) {
	m := NewMonitor(Config{
		StallWindow:        time.Second,
		StallCheckInterval: 10,
	}, nil)

	current := time.Now()
	m.now = func() time.Time { return current }

	t.Run("progress within window stays healthy", func(t *testing.T) {
		for i := 0; i < 20; i++ {
			m.RecordSuccess()
		}
		if m.State() != StateHealthy {
			t.Fatalf("state = %s, want healthy", m.State())
		}
	})

	t.Run("no progress past window aborts at the next check", func(t *testing.T) {
		current = current.Add(5 * time.Second)
		for i := 0; i < 10; i++ {
			m.RecordFailure()
		}
		if m.State() != StateAborted {
			t.Fatalf("state = %s, want aborted after stall", m.State())
		}
	})
}

func TestMonitor_StatsSnapshot(t *testing.T) {
	m := NewMonitor(DefaultConfig(), nil)

	m.RecordSuccess()
	m.RecordFailure()
	m.RecordFailure()

	stats := m.Stats()
	if stats.Processed != 1 {
		t.Errorf("processed = %d, want 1", stats.Processed)
	}
	if stats.TotalErrors != 2 {
		t.Errorf("total errors = %d, want 2", stats.TotalErrors)
	}
	if stats.ConsecutiveErrors != 2 {
		t.Errorf("consecutive = %d, want 2", stats.ConsecutiveErrors)
	}
	if stats.State != "healthy" {
		t.Errorf("state = %s, want healthy", stats.State)
	}
}

func TestMonitor_DefaultsApplied(t *testing.T) {
	m := NewMonitor(Config{}, nil)

	if m.config.ConsecutiveErrorCeiling != 50 {
		t.Errorf("consecutive ceiling = %d, want 50", m.config.ConsecutiveErrorCeiling)
	}
	if m.config.LifetimeErrorCeiling != 1000 {
		t.Errorf("lifetime ceiling = %d, want 1000", m.config.LifetimeErrorCeiling)
	}
	if m.config.StallWindow != 30*time.Second {
		t.Errorf("stall window = %s, want 30s", m.config.StallWindow)
	}
}
