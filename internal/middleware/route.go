package middleware

import (
	"net/http"
	"path"
	"strings"
)

// routeKind groups request paths by what they serve.
type routeKind int

const (
	routePage    routeKind = iota // the single page UI
	routeData                     // JSON reads: state, channels, presets, version
	routeCommand                  // playlist loads and selection changes
	routeIcon                     // proxied channel logos, already PNG
	routeAsset                    // scripts, styles and other static files
	routeHealth
	routeMetrics
)

// route is the bounded-cardinality view of a request path.
type route struct {
	label string
	kind  routeKind
}

var fixedRoutes = map[string]route{
	"/":              {"/", routePage},
	"/index.html":    {"/", routePage},
	"/api/state":     {"/api/state", routeData},
	"/api/channels":  {"/api/channels", routeData},
	"/api/presets":   {"/api/presets", routeData},
	"/version":       {"/version", routeData},
	"/api/upload":    {"/api/upload", routeCommand},
	"/api/selection": {"/api/selection", routeCommand},
	"/api/icon":      {"/api/icon", routeIcon},
	"/health":        {"/health", routeHealth},
	"/healthz":       {"/healthz", routeHealth},
	"/livez":         {"/livez", routeHealth},
	"/readyz":        {"/readyz", routeHealth},
	"/metrics":       {"/metrics", routeMetrics},
}

// classify maps a request path onto its route. Unknown API paths share one
// label and everything outside /api is a static asset.
func classify(p string) route {
	p = path.Clean("/" + p)

	if r, ok := fixedRoutes[p]; ok {
		return r
	}
	switch {
	case strings.HasPrefix(p, "/api/load/preset/"):
		return route{"/api/load/preset/{id}", routeCommand}
	case strings.HasPrefix(p, "/api/"):
		return route{"/api/{other}", routeData}
	default:
		return route{"/{static}", routeAsset}
	}
}

// static reports whether the route serves files rather than API data.
func (r route) static() bool {
	return r.kind == routeAsset || r.kind == routeIcon
}

// statusRecorder remembers the status and size of a response for the access
// log and the request metrics.
type statusRecorder struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	wroteHeader  bool
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *statusRecorder) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

func (rw *statusRecorder) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
