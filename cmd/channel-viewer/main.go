package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"channel-viewer/internal/handlers"
	"channel-viewer/internal/icons"
	"channel-viewer/internal/loader"
	"channel-viewer/internal/logging"
	"channel-viewer/internal/memory"
	"channel-viewer/internal/metrics"
	"channel-viewer/internal/middleware"
	"channel-viewer/internal/source"
	"channel-viewer/internal/startup"
	"channel-viewer/internal/viewstate"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	shutdownTimeout   = 30 * time.Second
	collectorInterval = time.Minute
)

// stateStatsAdapter exposes view state statistics to the metrics collector.
type stateStatsAdapter struct {
	state *viewstate.State
}

// GetStats implements metrics.StatsProvider
func (a *stateStatsAdapter) GetStats() metrics.Stats {
	s := a.state.Stats()
	return metrics.Stats{
		Channels:          s.Channels,
		ChannelsWithIcons: s.ChannelsWithIcons,
		HasSelection:      s.HasSelection,
		Revision:          s.Revision,
	}
}

// components groups the long-lived pieces that need stopping at shutdown.
type components struct {
	server        *http.Server
	metricsServer *http.Server
	collector     *metrics.Collector
	monitor       *memory.Monitor
	icons         *icons.Proxy
}

func main() {
	startTime := time.Now()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	limit := memory.Configure(os.Getenv)
	monitor := memory.NewMonitor(memory.DefaultMonitorConfig(limit.GoMemLimit))
	monitor.Start()

	state := viewstate.New()
	presets := source.NewPresets(config.PresetTVURL, config.PresetMoviesURL)
	startup.LogStateInit(len(presets))

	fetcher := source.NewHTTPFetcher(fetcherConfig(config), nil)
	ldr := loader.New(fetcher, state, presets)

	// Handlers must see a nil interface, not a typed nil, when icons are off.
	var iconSource handlers.IconSource
	var proxy *icons.Proxy
	iconConfig := proxyConfig(config)
	if config.IconsEnabled {
		proxy = icons.NewProxy(iconConfig, state, nil)
		proxy.SetPressure(monitor)
		ldr.SetPrewarmer(proxy)
		iconSource = proxy
	}
	startup.LogIconProxyInit(config.IconsEnabled, iconConfig.Size, iconConfig.CacheEntries, iconConfig.Workers)

	h := handlers.New(state, ldr, iconSource, config)

	router := setupRouter(h, config)
	startup.LogHTTPRoutes(router, config.LogStaticFiles, config.LogHealthChecks)

	c := &components{icons: proxy, monitor: monitor}
	c.server = &http.Server{
		Addr:              ":" + config.Port,
		Handler:           buildHandler(router, config),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      2 * config.FetchTimeout,
		IdleTimeout:       60 * time.Second,
	}

	metrics.AppInfo.WithLabelValues(startup.Version, startup.Commit, startup.GoVersion).Set(1)
	metrics.InitializeMetrics()

	c.collector = metrics.NewCollector(&stateStatsAdapter{state: state}, collectorInterval)
	c.collector.Start()

	if config.MetricsEnabled {
		c.metricsServer = newMetricsServer(config.MetricsPort)
		go func() {
			if err := c.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	go handleShutdown(c)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	if err := c.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}
}

func fetcherConfig(config *startup.Config) source.FetcherConfig {
	fc := source.DefaultFetcherConfig()
	fc.Timeout = config.FetchTimeout
	fc.MaxBytes = config.MaxPlaylistBytes
	fc.Rate = config.FetchRate
	fc.Retry.MaxRetries = config.FetchRetries
	return fc
}

func proxyConfig(config *startup.Config) icons.Config {
	ic := icons.DefaultConfig()
	ic.Size = config.IconSize
	ic.CacheEntries = config.IconCacheEntries
	ic.Prewarm = config.IconPrewarm
	return ic
}

// buildHandler wraps the router in the middleware chain. The request id is
// assigned first so the access log can carry it.
func buildHandler(router http.Handler, config *startup.Config) http.Handler {
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = config.LogStaticFiles
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	loggingConfig.ServiceName = "ChannelViewer/" + startup.Version

	handler := middleware.Compression(middleware.DefaultCompressionConfig())(router)
	handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)
	handler = middleware.Logger(loggingConfig)(handler)
	return middleware.RequestID()(handler)
}

func setupRouter(h *handlers.Handlers, config *startup.Config) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/state", h.GetState).Methods(http.MethodGet)
	api.HandleFunc("/channels", h.GetChannels).Methods(http.MethodGet)
	api.HandleFunc("/presets", h.ListPresets).Methods(http.MethodGet)
	api.HandleFunc("/load/preset/{id}", h.LoadPreset).Methods(http.MethodPost)
	api.HandleFunc("/upload", h.UploadPlaylist).Methods(http.MethodPost)
	api.HandleFunc("/selection", h.SetSelection).Methods(http.MethodPost)
	api.HandleFunc("/icon", h.GetIcon).Methods(http.MethodGet)

	if config.StaticEnabled {
		index := filepath.Join(config.StaticDir, "index.html")
		r.HandleFunc("/", serveStaticFile(index, "text/html; charset=utf-8")).Methods(http.MethodGet)
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(config.StaticDir)))
	}

	return r
}

// serveStaticFile serves one file with a fixed content type and no caching.
func serveStaticFile(path, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "no-cache")
		http.ServeFile(w, r, path)
	}
}

func newMetricsServer(port string) *http.Server {
	m := http.NewServeMux()
	m.Handle("/metrics", promhttp.Handler())
	m.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &http.Server{
		Addr:         ":" + port,
		Handler:      m,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}
}

func handleShutdown(c *components) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())
	shutdown(c)
	startup.LogShutdownComplete()
}

// shutdown stops background work first, then drains both servers.
func shutdown(c *components) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if c.collector != nil {
		startup.LogShutdownStep("Stopping metrics collector")
		c.collector.Stop()
		startup.LogShutdownStepComplete("Metrics collector stopped")
	}

	if c.monitor != nil {
		startup.LogShutdownStep("Stopping memory monitor")
		c.monitor.Stop()
		startup.LogShutdownStepComplete("Memory monitor stopped")
	}

	if c.icons != nil {
		startup.LogShutdownStep("Stopping icon prewarm")
		c.icons.Close()
		startup.LogShutdownStepComplete("Icon prewarm stopped")
	}

	if c.metricsServer != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	if c.server != nil {
		startup.LogShutdownStep("Shutting down HTTP server")
		if err := c.server.Shutdown(ctx); err != nil {
			logging.Warn("Server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("HTTP server stopped")
		}
	}
}
