// Package metrics declares the Prometheus metrics exported by the channel
// viewer and a collector that samples the view state into gauges.
//
// Metric families:
//   - channel_viewer_http_*: request counts, durations, in-flight requests and
//     gzip-encoded responses
//   - channel_viewer_playlist_*: loads by source and outcome, fetch and parse
//     durations, document sizes and channels per playlist
//   - channel_viewer_channels_*, channel_viewer_state_revision: view state
//   - channel_viewer_icon_*: icon proxy cache and fetch behavior
//   - channel_viewer_memory_*: heap usage against the soft limit
//
// Metrics are registered with the default registry via promauto and served
// by promhttp on the metrics port.
package metrics
