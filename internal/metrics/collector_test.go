package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type mockStatsProvider struct {
	mu    sync.Mutex
	stats Stats
	calls int
}

func (m *mockStatsProvider) GetStats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.stats
}

func (m *mockStatsProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestCollectorCollect(t *testing.T) {
	provider := &mockStatsProvider{stats: Stats{
		Channels:          12,
		ChannelsWithIcons: 5,
		HasSelection:      true,
		Revision:          7,
	}}

	c := NewCollector(provider, time.Hour)
	c.collect()

	if got := testutil.ToFloat64(ChannelsLoaded); got != 12 {
		t.Errorf("Expected channels_loaded=12, got %v", got)
	}
	if got := testutil.ToFloat64(ChannelsWithIcons); got != 5 {
		t.Errorf("Expected channels_with_icons=5, got %v", got)
	}
	if got := testutil.ToFloat64(ChannelSelected); got != 1 {
		t.Errorf("Expected channel_selected=1, got %v", got)
	}
	if got := testutil.ToFloat64(StateRevision); got != 7 {
		t.Errorf("Expected state_revision=7, got %v", got)
	}

	provider.stats = Stats{}
	c.collect()
	if got := testutil.ToFloat64(ChannelSelected); got != 0 {
		t.Errorf("Expected channel_selected=0, got %v", got)
	}
}

func TestCollectorNilProvider(_ *testing.T) {
	c := NewCollector(nil, time.Hour)
	c.collect()
}

func TestCollectorStartStop(t *testing.T) {
	provider := &mockStatsProvider{}
	c := NewCollector(provider, 10*time.Millisecond)

	c.Start()
	deadline := time.Now().Add(2 * time.Second)
	for provider.callCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	c.Stop()
	c.Stop()

	if provider.callCount() < 2 {
		t.Errorf("Expected at least 2 collections, got %d", provider.callCount())
	}
}

func TestInitializeMetrics(t *testing.T) {
	InitializeMetrics()

	if got := testutil.CollectAndCount(PlaylistLoadsTotal); got != 4 {
		t.Errorf("Expected 4 playlist load series, got %d", got)
	}
	if got := testutil.CollectAndCount(IconRequestsTotal); got != 4 {
		t.Errorf("Expected 4 icon request series, got %d", got)
	}
}
