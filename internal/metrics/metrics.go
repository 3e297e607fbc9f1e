package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "channel_viewer_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "channel_viewer_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "channel_viewer_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	HTTPGzipResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "channel_viewer_http_gzip_responses_total",
			Help: "Total number of gzip-encoded responses by route",
		},
		[]string{"path"},
	)
)

// Playlist metrics
var (
	PlaylistLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "channel_viewer_playlist_loads_total",
			Help: "Total number of playlist loads by source kind and outcome",
		},
		[]string{"source", "status"}, // source: "remote", "upload"; status: "success", "error"
	)

	PlaylistFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "channel_viewer_playlist_fetch_duration_seconds",
			Help:    "Remote playlist fetch duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"status"},
	)

	PlaylistFetchRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "channel_viewer_playlist_fetch_retries_total",
			Help: "Total number of remote playlist fetch retries",
		},
	)

	PlaylistBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "channel_viewer_playlist_size_bytes",
			Help:    "Size of loaded playlist documents in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 9),
		},
	)

	PlaylistParseDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "channel_viewer_playlist_parse_duration_seconds",
			Help:    "Playlist parse duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
	)

	PlaylistChannelsParsed = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "channel_viewer_playlist_channels_parsed",
			Help:    "Number of channels extracted per loaded playlist",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)
)

// View state metrics
var (
	ChannelsLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "channel_viewer_channels_loaded",
			Help: "Number of channels in the current list",
		},
	)

	ChannelsWithIcons = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "channel_viewer_channels_with_icons",
			Help: "Number of channels in the current list that carry a logo",
		},
	)

	ChannelSelected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "channel_viewer_channel_selected",
			Help: "Whether a channel is currently selected (1 = yes, 0 = no)",
		},
	)

	StateRevision = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "channel_viewer_state_revision",
			Help: "Current view state revision",
		},
	)

	SelectionChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "channel_viewer_selection_changes_total",
			Help: "Total number of explicit channel selections",
		},
		[]string{"mode"}, // "index", "channel"
	)
)

// Icon proxy metrics
var (
	IconRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "channel_viewer_icon_requests_total",
			Help: "Total number of icon lookups by outcome",
		},
		[]string{"status"}, // "hit", "miss", "error", "rejected"
	)

	IconFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "channel_viewer_icon_fetch_duration_seconds",
			Help:    "Icon fetch and resize duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	IconCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "channel_viewer_icon_cache_entries",
			Help: "Number of icons in the in-memory cache",
		},
	)

	IconCacheBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "channel_viewer_icon_cache_size_bytes",
			Help: "Total size of cached icons in bytes",
		},
	)

	IconPrewarmRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "channel_viewer_icon_prewarm_running",
			Help: "Number of icon prewarm runs in progress",
		},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "channel_viewer_memory_usage_ratio",
			Help: "Heap usage as a fraction of the soft memory limit",
		},
	)

	MemoryThrottled = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "channel_viewer_memory_throttled",
			Help: "Whether background icon work is paused for memory (1 = yes, 0 = no)",
		},
	)
)

// AppInfo exposes build information as labels on a constant 1 gauge.
var AppInfo = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "channel_viewer_app_info",
		Help: "Application build information",
	},
	[]string{"version", "commit", "go_version"},
)
