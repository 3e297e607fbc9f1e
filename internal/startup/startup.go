package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"channel-viewer/internal/logging"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// Default quick-load playlist locations.
const (
	DefaultPresetTVURL     = "https://raw.githubusercontent.com/ipstreet312/freeiptv/master/all.m3u"
	DefaultPresetMoviesURL = "https://iptv-org.github.io/iptv/categories/movies.m3u"
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StaticDir       string
	LogStaticFiles  bool
	LogHealthChecks bool

	// Remote playlist fetching
	FetchTimeout     time.Duration
	FetchRetries     int
	FetchRate        float64
	MaxPlaylistBytes int64
	PresetTVURL      string
	PresetMoviesURL  string

	// Icon proxy
	IconSize         int
	IconCacheEntries int
	IconPrewarm      int

	// Feature flags
	StaticEnabled bool
	IconsEnabled  bool
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	config := &Config{
		Port:             getEnv("PORT", "8080"),
		MetricsPort:      getEnv("METRICS_PORT", "9090"),
		MetricsEnabled:   getEnvBool("METRICS_ENABLED", true),
		StaticDir:        getEnv("STATIC_DIR", "./static"),
		LogStaticFiles:   getEnvBool("LOG_STATIC_FILES", false),
		LogHealthChecks:  getEnvBool("LOG_HEALTH_CHECKS", true),
		FetchTimeout:     getEnvDuration("FETCH_TIMEOUT", 30*time.Second),
		FetchRetries:     getEnvInt("FETCH_RETRIES", 2),
		FetchRate:        getEnvFloat("FETCH_RATE", 2),
		MaxPlaylistBytes: int64(getEnvInt("MAX_PLAYLIST_BYTES", 32<<20)),
		PresetTVURL:      getEnv("PRESET_TV_URL", DefaultPresetTVURL),
		PresetMoviesURL:  getEnv("PRESET_MOVIES_URL", DefaultPresetMoviesURL),
		IconSize:         getEnvInt("ICON_SIZE", 64),
		IconCacheEntries: getEnvInt("ICON_CACHE_ENTRIES", 512),
		IconPrewarm:      getEnvInt("ICON_PREWARM", 32),
	}

	logging.Info("  PORT:                %s", config.Port)
	logging.Info("  METRICS_PORT:        %s", config.MetricsPort)
	logging.Info("  METRICS_ENABLED:     %v", config.MetricsEnabled)
	logging.Info("  STATIC_DIR:          %s", config.StaticDir)
	logging.Info("  FETCH_TIMEOUT:       %v", config.FetchTimeout)
	logging.Info("  FETCH_RETRIES:       %d", config.FetchRetries)
	logging.Info("  FETCH_RATE:          %.2f/s", config.FetchRate)
	logging.Info("  MAX_PLAYLIST_BYTES:  %d", config.MaxPlaylistBytes)
	logging.Info("  PRESET_TV_URL:       %s", config.PresetTVURL)
	logging.Info("  PRESET_MOVIES_URL:   %s", config.PresetMoviesURL)
	logging.Info("  ICON_SIZE:           %d", config.IconSize)
	logging.Info("  ICON_CACHE_ENTRIES:  %d", config.IconCacheEntries)
	logging.Info("  ICON_PREWARM:        %d", config.IconPrewarm)
	logging.Info("  LOG_STATIC_FILES:    %v", config.LogStaticFiles)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", config.LogHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	if err := config.validate(); err != nil {
		return nil, err
	}

	staticDir, err := filepath.Abs(config.StaticDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve static directory path: %w", err)
	}
	config.StaticDir = staticDir

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("WEB UI")
	logging.Info("------------------------------------------------------------")
	config.StaticEnabled = checkStaticDir(config.StaticDir)
	config.IconsEnabled = config.IconCacheEntries > 0

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Web UI:      %s", enabledString(config.StaticEnabled))
	logging.Info("    Icon proxy:  %s", enabledString(config.IconsEnabled))
	logging.Info("    Metrics:     %s", enabledString(config.MetricsEnabled))

	return config, nil
}

func (c *Config) validate() error {
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT must be positive, got %v", c.FetchTimeout)
	}
	if c.FetchRetries < 0 {
		return fmt.Errorf("FETCH_RETRIES must not be negative, got %d", c.FetchRetries)
	}
	if c.FetchRate <= 0 {
		return fmt.Errorf("FETCH_RATE must be positive, got %v", c.FetchRate)
	}
	if c.MaxPlaylistBytes <= 0 {
		return fmt.Errorf("MAX_PLAYLIST_BYTES must be positive, got %d", c.MaxPlaylistBytes)
	}
	if c.IconSize <= 0 || c.IconSize > 512 {
		return fmt.Errorf("ICON_SIZE must be between 1 and 512, got %d", c.IconSize)
	}
	if c.IconCacheEntries < 0 {
		return fmt.Errorf("ICON_CACHE_ENTRIES must not be negative, got %d", c.IconCacheEntries)
	}
	if c.IconPrewarm < 0 {
		return fmt.Errorf("ICON_PREWARM must not be negative, got %d", c.IconPrewarm)
	}
	for name, raw := range map[string]string{"PRESET_TV_URL": c.PresetTVURL, "PRESET_MOVIES_URL": c.PresetMoviesURL} {
		if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
			return fmt.Errorf("%s must be an http(s) URL, got %q", name, raw)
		}
	}
	return nil
}

// checkStaticDir reports whether the web UI can be served from dir.
func checkStaticDir(dir string) bool {
	logging.Debug("  Checking static directory: %s", dir)

	info, err := os.Stat(filepath.Join(dir, "index.html"))
	if err != nil {
		logging.Warn("  Static directory has no index.html: %v", err)
		logging.Warn("  Only the JSON API will be available")
		return false
	}
	if info.IsDir() {
		logging.Warn("  %s/index.html is a directory", dir)
		return false
	}

	logging.Info("  [OK] Serving web UI from %s", dir)
	return true
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// LogStateInit logs view state initialization
func LogStateInit(presets int) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("VIEW STATE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Empty channel list, nothing selected")
	logging.Info("  [OK] %d quick-load presets available", presets)
}

// LogIconProxyInit logs icon proxy initialization
func LogIconProxyInit(enabled bool, size, entries, workers int) {
	if !enabled {
		logging.Info("  Icon proxy disabled (ICON_CACHE_ENTRIES=0)")
		logging.Info("  Channel logos will be loaded directly by the browser")
		return
	}
	logging.Info("  [OK] Icon proxy: %dx%d px, %d cached icons, %d prewarm workers", size, size, entries, workers)
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logStaticFiles, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}
			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
		}
	}

	logging.Info("  HTTP logging enabled")
	if logStaticFiles {
		logging.Info("    Static file logging: ON")
	} else {
		logging.Info("    Static file logging: OFF (set LOG_STATIC_FILES=true to enable)")
	}
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Application:   http://0.0.0.0:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...any) {
	logging.Fatal(format, args...)
}

func printBanner() {
	banner := `
------------------------------------------------------------
   ________                           __   _    ___
  / ____/ /_  ____ _____  ____  ___  / /  | |  / (_)__ _      __
 / /   / __ \/ __ '/ __ \/ __ \/ _ \/ /   | | / / / _ \ | /| / /
/ /___/ / / / /_/ / / / / / / /  __/ /    | |/ / /  __/ |/ |/ /
\____/_/ /_/\__,_/_/ /_/_/ /_/\___/_/     |___/_/\___/|__/|__/

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		logging.Warn("Invalid number for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		logging.Warn("Invalid duration for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
