package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"channel-viewer/internal/logging"
)

// Handlers that return view state set these so the access log can show
// which playlist and revision a request saw or produced.
const (
	RevisionHeader = "X-State-Revision"
	SourceHeader   = "X-Playlist-Source"
)

// LoggingConfig holds configuration for the logging middleware
type LoggingConfig struct {
	ServiceName string
	// LogStaticFiles includes scripts, styles and proxied icons
	LogStaticFiles  bool
	LogHealthChecks bool
}

// DefaultLoggingConfig returns a sensible default configuration
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		ServiceName:     "ChannelViewer/1.0",
		LogHealthChecks: true,
	}
}

func (c LoggingConfig) skips(rt route) bool {
	switch {
	case rt.kind == routeHealth:
		return !c.LogHealthChecks
	case rt.static():
		return !c.LogStaticFiles
	}
	return false
}

// accessEntry is one line of the access log.
type accessEntry struct {
	at       time.Time
	clientIP string
	method   string
	stem     string
	query    string
	status   int
	bytes    int64
	taken    time.Duration
	encoding string
	route    string
	revision string
	source   string
	agent    string
	id       string
}

// accessColumns defines the W3C fields in output order. The #Fields
// directive is built from the same table.
var accessColumns = []struct {
	name  string
	value func(e *accessEntry) string
}{
	{"date", func(e *accessEntry) string { return e.at.Format("2006-01-02") }},
	{"time", func(e *accessEntry) string { return e.at.Format("15:04:05") }},
	{"c-ip", func(e *accessEntry) string { return e.clientIP }},
	{"cs-method", func(e *accessEntry) string { return e.method }},
	{"cs-uri-stem", func(e *accessEntry) string { return e.stem }},
	{"cs-uri-query", func(e *accessEntry) string { return e.query }},
	{"sc-status", func(e *accessEntry) string { return strconv.Itoa(e.status) }},
	{"sc-bytes", func(e *accessEntry) string { return strconv.FormatInt(e.bytes, 10) }},
	{"time-taken", func(e *accessEntry) string { return strconv.FormatInt(e.taken.Milliseconds(), 10) }},
	{"sc(Content-Encoding)", func(e *accessEntry) string { return e.encoding }},
	{"x-route", func(e *accessEntry) string { return e.route }},
	{"x-revision", func(e *accessEntry) string { return e.revision }},
	{"x-source", func(e *accessEntry) string { return e.source }},
	{"cs(User-Agent)", func(e *accessEntry) string { return e.agent }},
	{"x-request-id", func(e *accessEntry) string { return e.id }},
}

func newAccessEntry(r *http.Request, rec *statusRecorder, rt route, taken time.Duration) *accessEntry {
	h := rec.Header()
	return &accessEntry{
		at:       time.Now().UTC(),
		clientIP: clientIP(r),
		method:   r.Method,
		stem:     r.URL.Path,
		query:    r.URL.RawQuery,
		status:   rec.statusCode,
		bytes:    rec.bytesWritten,
		taken:    taken,
		encoding: h.Get("Content-Encoding"),
		route:    rt.label,
		revision: h.Get(RevisionHeader),
		source:   h.Get(SourceHeader),
		agent:    r.Header.Get("User-Agent"),
		id:       RequestIDFromContext(r.Context()),
	}
}

func (e *accessEntry) line() string {
	fields := make([]string, len(accessColumns))
	for i, col := range accessColumns {
		fields[i] = w3cValue(col.value(e))
	}
	return strings.Join(fields, " ")
}

// AccessLog writes requests in W3C Extended Log Format. The directives are
// written once, before the first entry.
type AccessLog struct {
	serviceName string
	header      sync.Once
}

// NewAccessLog creates an access log that names serviceName in #Software.
func NewAccessLog(serviceName string) *AccessLog {
	return &AccessLog{serviceName: serviceName}
}

func (l *AccessLog) write(e *accessEntry) {
	l.header.Do(l.writeDirectives)
	//nolint:gosec // G706: every field goes through w3cValue
	logging.Println(e.line())
}

func (l *AccessLog) writeDirectives() {
	if l.serviceName != "" {
		logging.Println("#Software: " + l.serviceName)
	}
	logging.Println("#Version: 1.0")

	names := make([]string, len(accessColumns))
	for i, col := range accessColumns {
		names[i] = col.name
	}
	logging.Println("#Fields: " + strings.Join(names, " "))
}

// Logger returns HTTP logging middleware using W3C Extended Log Format
func Logger(config LoggingConfig) func(http.Handler) http.Handler {
	log := NewAccessLog(config.ServiceName)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rt := classify(r.URL.Path)
			if config.skips(rt) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			log.write(newAccessEntry(r, rec, rt, time.Since(start)))
		})
	}
}

// sanitizeLogField drops control characters so a field cannot forge log
// lines or emit terminal escapes. Line breaks become spaces; tabs stay.
func sanitizeLogField(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r':
			return ' '
		case r == '\t':
			return r
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, s)
}

// w3cValue renders one field: "-" when empty, quoted with doubled quotes
// when it contains whitespace or a quote.
func w3cValue(s string) string {
	s = sanitizeLogField(s)
	switch {
	case s == "":
		return "-"
	case strings.ContainsAny(s, " \t\""):
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
