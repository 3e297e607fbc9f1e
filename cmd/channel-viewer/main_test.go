package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"channel-viewer/internal/handlers"
	"channel-viewer/internal/loader"
	"channel-viewer/internal/memory"
	"channel-viewer/internal/metrics"
	"channel-viewer/internal/middleware"
	"channel-viewer/internal/playlist"
	"channel-viewer/internal/source"
	"channel-viewer/internal/startup"
	"channel-viewer/internal/viewstate"
)

const samplePlaylist = "#EXTM3U\n" +
	"#EXTINF:-1 tvg-logo=\"http://logos.example/one.png\",One\n" +
	"http://streams.example/one.m3u8\n" +
	"#EXTINF:-1,Two\n" +
	"http://streams.example/two.m3u8\n"

type staticFetcher struct {
	text string
}

func (f staticFetcher) FetchText(context.Context, string) (string, error) {
	return f.text, nil
}

func testConfig(t *testing.T, staticDir string) *startup.Config {
	t.Helper()
	return &startup.Config{
		StaticDir:        staticDir,
		StaticEnabled:    staticDir != "",
		FetchTimeout:     5 * time.Second,
		FetchRetries:     1,
		FetchRate:        0,
		MaxPlaylistBytes: 1 << 20,
		IconSize:         48,
		IconCacheEntries: 16,
		IconPrewarm:      4,
	}
}

func newTestRouter(t *testing.T, config *startup.Config) (http.Handler, *viewstate.State) {
	t.Helper()
	state := viewstate.New()
	presets := source.NewPresets("http://example.com/tv.m3u", "http://example.com/movies.m3u")
	ldr := loader.New(staticFetcher{text: samplePlaylist}, state, presets)
	h := handlers.New(state, ldr, nil, config)
	return buildHandler(setupRouter(h, config), config), state
}

func TestStateStatsAdapter(t *testing.T) {
	t.Parallel()

	state := viewstate.New()
	adapter := &stateStatsAdapter{state: state}
	var _ metrics.StatsProvider = adapter

	if got := adapter.GetStats(); got.Channels != 0 || got.HasSelection {
		t.Errorf("Expected empty stats, got %+v", got)
	}

	state.LoadChannels(playlist.Parse(samplePlaylist))
	got := adapter.GetStats()

	if got.Channels != 2 {
		t.Errorf("Channels = %d, want 2", got.Channels)
	}
	if got.ChannelsWithIcons != 1 {
		t.Errorf("ChannelsWithIcons = %d, want 1", got.ChannelsWithIcons)
	}
	if !got.HasSelection {
		t.Error("Expected HasSelection after a non-empty load")
	}
	if got.Revision != state.Stats().Revision {
		t.Errorf("Revision = %d, want %d", got.Revision, state.Stats().Revision)
	}
}

func TestFetcherConfig(t *testing.T) {
	t.Parallel()

	config := testConfig(t, "")
	fc := fetcherConfig(config)

	if fc.Timeout != config.FetchTimeout {
		t.Errorf("Timeout = %v, want %v", fc.Timeout, config.FetchTimeout)
	}
	if fc.MaxBytes != config.MaxPlaylistBytes {
		t.Errorf("MaxBytes = %d, want %d", fc.MaxBytes, config.MaxPlaylistBytes)
	}
	if fc.Rate != 0 {
		t.Errorf("Rate = %v, want 0", fc.Rate)
	}
	if fc.Retry.MaxRetries != 1 {
		t.Errorf("MaxRetries = %d, want 1", fc.Retry.MaxRetries)
	}
	if fc.UserAgent == "" {
		t.Error("Expected default user agent to be kept")
	}
}

func TestProxyConfig(t *testing.T) {
	t.Parallel()

	ic := proxyConfig(testConfig(t, ""))

	if ic.Size != 48 || ic.CacheEntries != 16 || ic.Prewarm != 4 {
		t.Errorf("Unexpected icon config: %+v", ic)
	}
	if ic.Workers < 1 {
		t.Errorf("Workers = %d, want at least 1", ic.Workers)
	}
}

func TestServeStaticFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	index := filepath.Join(dir, "index.html")
	if err := os.WriteFile(index, []byte("<!doctype html><title>Channels</title>"), 0o600); err != nil {
		t.Fatalf("Failed to write index: %v", err)
	}

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"Existing file", index, http.StatusOK},
		{"Missing file", filepath.Join(dir, "missing.html"), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			serveStaticFile(tt.path, "text/html; charset=utf-8")(w, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

			if w.Code != tt.status {
				t.Errorf("Expected %d, got %d", tt.status, w.Code)
			}
			if cc := w.Header().Get("Cache-Control"); cc != "no-cache" {
				t.Errorf("Expected Cache-Control no-cache, got %q", cc)
			}
		})
	}
}

func TestRouterRoutes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>viewer</html>"), 0o600); err != nil {
		t.Fatalf("Failed to write index: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log('ok')"), 0o600); err != nil {
		t.Fatalf("Failed to write script: %v", err)
	}

	handler, _ := newTestRouter(t, testConfig(t, dir))

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/livez", http.StatusOK},
		{http.MethodHead, "/livez", http.StatusOK},
		{http.MethodGet, "/readyz", http.StatusOK},
		{http.MethodGet, "/version", http.StatusOK},
		{http.MethodGet, "/api/state", http.StatusOK},
		{http.MethodGet, "/api/channels", http.StatusOK},
		{http.MethodGet, "/api/presets", http.StatusOK},
		{http.MethodPost, "/api/load/preset/nope", http.StatusNotFound},
		{http.MethodGet, "/api/load/preset/tv", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/icon?url=http://logos.example/one.png", http.StatusServiceUnavailable},
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/app.js", http.StatusOK},
		{http.MethodGet, "/missing.css", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, http.NoBody))

			if w.Code != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, w.Code)
			}
			if w.Header().Get(middleware.RequestIDHeader) == "" {
				t.Error("Expected a request id on every response")
			}
		})
	}
}

func TestRouterWithoutStaticDir(t *testing.T) {
	t.Parallel()

	handler, _ := newTestRouter(t, testConfig(t, ""))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 without a web UI, got %d", w.Code)
	}
}

func TestRouterLoadAndSelect(t *testing.T) {
	t.Parallel()

	handler, state := newTestRouter(t, testConfig(t, ""))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/load/preset/tv", http.NoBody))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 loading preset, got %d: %s", w.Code, w.Body.String())
	}
	if src := w.Header().Get(middleware.SourceHeader); src != "preset:tv" {
		t.Errorf("Expected source header preset:tv, got %q", src)
	}
	if rev := w.Header().Get(middleware.RevisionHeader); rev != "1" {
		t.Errorf("Expected revision header 1 after a single load, got %q", rev)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/selection", strings.NewReader(`{"index":1}`))
	req.Header.Set("Content-Type", "application/json")
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 selecting, got %d: %s", w.Code, w.Body.String())
	}

	var snap viewstate.Snapshot
	if err := json.NewDecoder(w.Body).Decode(&snap); err != nil {
		t.Fatalf("Failed to decode snapshot: %v", err)
	}
	if snap.Selected == nil || snap.Selected.Name != "Two" {
		t.Errorf("Expected Two selected, got %+v", snap.Selected)
	}
	if sel, ok := state.Selected(); !ok || sel.URL != "http://streams.example/two.m3u8" {
		t.Errorf("State selection = %+v, %v", sel, ok)
	}
}

func TestMetricsServer(t *testing.T) {
	t.Parallel()

	srv := newMetricsServer("0")
	if srv.ReadTimeout <= 0 || srv.WriteTimeout <= 0 || srv.IdleTimeout <= 0 {
		t.Errorf("Expected positive timeouts, got %v/%v/%v", srv.ReadTimeout, srv.WriteTimeout, srv.IdleTimeout)
	}

	for _, path := range []string{"/metrics", "/health"} {
		w := httptest.NewRecorder()
		srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, w.Code)
		}
	}
}

func TestShutdownWithNothingRunning(t *testing.T) {
	t.Parallel()

	done := make(chan struct{})
	go func() {
		shutdown(&components{})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown did not return")
	}
}

func TestShutdownStopsCollector(t *testing.T) {
	t.Parallel()

	collector := metrics.NewCollector(&stateStatsAdapter{state: viewstate.New()}, time.Hour)
	collector.Start()

	shutdown(&components{collector: collector})

	// Stop is idempotent; a second call must not panic
	collector.Stop()
}

func TestShutdownStopsMonitor(t *testing.T) {
	t.Parallel()

	monitor := memory.NewMonitor(memory.DefaultMonitorConfig(1 << 40))
	monitor.Start()

	shutdown(&components{monitor: monitor})
	monitor.Stop()
}
