// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"sync"
	"testing"
	"time"

	"codeberg.org/tscat/tscat/config"
)

// testConfigMutex serializes tests that mutate global package state.
var testConfigMutex sync.Mutex

// mockTimeProvider maintains a controllable current time for testing.
type mockTimeProvider struct {
	mu          sync.Mutex
	currentTime time.Time
}

func (m *mockTimeProvider) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.currentTime
}

// Sleep advances the mock current time by the specified duration.
func (m *mockTimeProvider) Sleep(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.currentTime = m.currentTime.Add(d)
}

func clearLimiters() {
	limiters.Range(func(key, _ any) bool {
		limiters.Delete(key)

		return true
	})
}

// setupLimiterTest configures the limiter for a test and hooks a mock clock
// into timeNow. Everything is restored when the test completes.
//
// NOTE: call it once per test, never in subtests; it holds a global lock.
func setupLimiterTest(t *testing.T) *mockTimeProvider {
	t.Helper()

	testConfigMutex.Lock()

	origConfig := config.Global
	origTimeNow := timeNow

	config.Global.Limiter.Enabled = true
	config.Global.Limiter.IPv4Prefix = 24
	config.Global.Limiter.IPv6Prefix = 64
	config.Global.Limiter.PassIPs = nil
	config.Global.Limiter.BlockIPs = nil
	config.Global.Limiter.FilterLocal = false
	config.Global.Limiter.Rate = 2
	config.Global.Limiter.Burst = 5

	mockTime := &mockTimeProvider{currentTime: time.Now()}
	timeNow = mockTime.Now

	clearLimiters()

	t.Cleanup(func() {
		timeNow = origTimeNow
		config.Global = origConfig

		clearLimiters()
		testConfigMutex.Unlock()
	})

	return mockTime
}
