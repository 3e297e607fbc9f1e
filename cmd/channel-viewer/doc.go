// Package main provides the entry point for the Channel Viewer application.
//
// Channel Viewer is a small self-hosted web application for browsing M3U
// playlists. It loads a playlist from a quick-load preset or an uploaded
// file, lists its channels with their logos and plays the selected stream in
// the browser.
//
// # Application Lifecycle
//
//  1. Configuration Loading: reads environment variables, prints the banner
//  2. Memory: GOMEMLIMIT from MEMORY_LIMIT, heap monitor for background work
//  3. View State: an empty channel list with nothing selected
//  4. Loader: remote fetcher (retries, rate limit, charset decoding) and presets
//  5. Icon Proxy: resizing LRU cache with background prewarm (if enabled)
//  6. HTTP Server Setup: routes, middleware chain, metrics collector
//  7. Graceful Shutdown: SIGINT/SIGTERM stops background work, then the servers
//
// # HTTP Server
//
// The application runs two HTTP servers:
//
//  1. Main Server (default port 8080):
//     - Web UI from STATIC_DIR
//     - /api/state, /api/channels, /api/presets
//     - /api/load/preset/{id}, /api/upload, /api/selection
//     - /api/icon for proxied channel logos
//     - /health, /healthz, /livez, /readyz, /version
//
//  2. Metrics Server (default port 9090, optional):
//     - Prometheus metrics endpoint (/metrics)
//     - Health check endpoint (/health)
//
// Requests pass through request id, access log, metrics and gzip middleware
// in that order.
//
// # Environment Variables
//
//   - PORT: Main HTTP server port (default: 8080)
//   - METRICS_PORT: Metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable metrics server (default: true)
//   - STATIC_DIR: Web UI directory (default: ./static)
//   - FETCH_TIMEOUT, FETCH_RETRIES, FETCH_RATE: remote playlist fetching
//   - MAX_PLAYLIST_BYTES: Size cap for fetched and uploaded playlists
//   - PRESET_TV_URL, PRESET_MOVIES_URL: Quick-load preset locations
//   - ICON_SIZE, ICON_CACHE_ENTRIES, ICON_PREWARM, ICON_WORKERS: icon proxy
//   - MEMORY_LIMIT, MEMORY_RATIO: soft heap limit (GOMEMLIMIT wins if set)
//   - LOG_LEVEL, DEBUG, LOG_STATIC_FILES, LOG_HEALTH_CHECKS: logging
//
// # Build
//
// Build information is injected with -ldflags:
//
//	go build -ldflags "-X channel-viewer/internal/startup.Version=1.0.0" -o channel-viewer ./cmd/channel-viewer
package main
