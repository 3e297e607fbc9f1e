package memory

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"channel-viewer/internal/logging"
	"channel-viewer/internal/metrics"
)

// MonitorConfig holds memory monitor settings
type MonitorConfig struct {
	// Limit is the soft limit in bytes; 0 disables the monitor
	Limit int64
	// HighWaterMark is the share of Limit above which background work backs off
	HighWaterMark float64
	Interval      time.Duration
}

// DefaultMonitorConfig returns the monitor settings for a given limit.
func DefaultMonitorConfig(limit int64) MonitorConfig {
	return MonitorConfig{
		Limit:         limit,
		HighWaterMark: 0.75,
		Interval:      5 * time.Second,
	}
}

// Monitor samples heap usage and tells background work when to back off.
// Request handling is never throttled.
type Monitor struct {
	config    MonitorConfig
	alloc     atomic.Uint64
	throttled atomic.Bool
	stop      chan struct{}
	stopOnce  sync.Once
	read      func() uint64
}

// NewMonitor creates a monitor. It does nothing until Start is called.
func NewMonitor(config MonitorConfig) *Monitor {
	if config.Interval <= 0 {
		config.Interval = 5 * time.Second
	}
	return &Monitor{
		config: config,
		stop:   make(chan struct{}),
		read:   heapAlloc,
	}
}

func heapAlloc() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.HeapAlloc
}

// Start begins sampling. A monitor without a limit never starts.
func (m *Monitor) Start() {
	if m.config.Limit <= 0 {
		logging.Info("  Memory monitor disabled (no memory limit configured)")
		return
	}
	m.sample()
	go m.loop()
}

// Stop ends sampling. Safe to call more than once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sample()
		case <-m.stop:
			return
		}
	}
}

func (m *Monitor) sample() {
	alloc := m.read()
	m.alloc.Store(alloc)

	usage := float64(alloc) / float64(m.config.Limit)
	metrics.MemoryUsageRatio.Set(usage)

	high := usage >= m.config.HighWaterMark
	if m.throttled.Swap(high) != high {
		if high {
			logging.Warn("Memory high (%.1f%% of limit), pausing background icon work", usage*100)
			metrics.MemoryThrottled.Set(1)
		} else {
			logging.Info("Memory recovered (%.1f%% of limit), resuming background icon work", usage*100)
			metrics.MemoryThrottled.Set(0)
		}
	}
}

// ShouldThrottle reports whether heap usage is above the high water mark.
// A nil monitor never throttles.
func (m *Monitor) ShouldThrottle() bool {
	if m == nil {
		return false
	}
	return m.throttled.Load()
}

// Usage returns the last sampled heap size and its share of the limit.
func (m *Monitor) Usage() (alloc uint64, ratio float64) {
	alloc = m.alloc.Load()
	if m.config.Limit > 0 {
		ratio = float64(alloc) / float64(m.config.Limit)
	}
	return alloc, ratio
}
