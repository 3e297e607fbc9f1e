package metrics

import (
	"sync"
	"time"

	"channel-viewer/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current view state statistics
type Stats struct {
	Channels          int
	ChannelsWithIcons int
	HasSelection      bool
	Revision          uint64
}

// Collector periodically samples the view state into gauges
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
	stopOnce      sync.Once
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection. Safe to call more than once.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	ChannelsLoaded.Set(float64(stats.Channels))
	ChannelsWithIcons.Set(float64(stats.ChannelsWithIcons))
	StateRevision.Set(float64(stats.Revision))
	if stats.HasSelection {
		ChannelSelected.Set(1)
	} else {
		ChannelSelected.Set(0)
	}

	logging.Debug("Metrics collected: channels=%d, icons=%d, selected=%v, revision=%d",
		stats.Channels, stats.ChannelsWithIcons, stats.HasSelection, stats.Revision)
}
