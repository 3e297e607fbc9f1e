// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig].
// The following environment variables are supported:
//
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - STATIC_DIR: Directory holding the web UI (default: ./static)
//   - FETCH_TIMEOUT: Remote playlist fetch timeout as Go duration (default: 30s)
//   - FETCH_RETRIES: Retries on transient fetch failures (default: 2)
//   - FETCH_RATE: Outbound fetches per second (default: 2)
//   - MAX_PLAYLIST_BYTES: Size cap for fetched and uploaded playlists (default: 32 MiB)
//   - PRESET_TV_URL, PRESET_MOVIES_URL: Quick-load playlist locations
//   - ICON_SIZE: Icon bounding box in pixels (default: 64)
//   - ICON_CACHE_ENTRIES: Icon cache capacity, 0 disables the proxy (default: 512)
//   - ICON_PREWARM: Icons fetched in the background per load (default: 32)
//   - ICON_WORKERS: Override for the prewarm worker count
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_STATIC_FILES: Log static file requests (default: false)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//
//	go build -ldflags "-X channel-viewer/internal/startup.Version=1.2.0" ./cmd/channel-viewer
package startup
