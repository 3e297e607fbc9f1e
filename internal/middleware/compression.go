package middleware

import (
	"compress/gzip"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"channel-viewer/internal/logging"
	"channel-viewer/internal/metrics"
)

// CompressionConfig holds configuration for the compression middleware
type CompressionConfig struct {
	// MinSize is the smallest body, in bytes, that gets compressed
	MinSize int
	// Level is the gzip level; out-of-range values use gzip.DefaultCompression
	Level int
	// Types lists the media types worth compressing
	Types []string
}

// DefaultCompressionConfig compresses the JSON state, channel list and load
// responses plus the web UI files. Channel lists are regenerated on every
// request, so speed wins over ratio.
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize: 1024,
		Level:   gzip.BestSpeed,
		Types: []string{
			"application/json",
			"text/html",
			"text/css",
			"text/javascript",
			"application/javascript",
		},
	}
}

func (c CompressionConfig) compressible(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	for _, t := range c.Types {
		if mediaType == t {
			return true
		}
	}
	return false
}

// gzipPools holds one writer pool per compression level.
var gzipPools sync.Map

// writerPool returns the pool for level, falling back to the default level
// when level is outside the range gzip accepts.
func writerPool(level int) *sync.Pool {
	if level < gzip.HuffmanOnly || level > gzip.BestCompression {
		level = gzip.DefaultCompression
	}
	if p, ok := gzipPools.Load(level); ok {
		return p.(*sync.Pool)
	}
	p, _ := gzipPools.LoadOrStore(level, &sync.Pool{
		New: func() any {
			w, _ := gzip.NewWriterLevel(io.Discard, level)
			return w
		},
	})
	return p.(*sync.Pool)
}

type encoding int

const (
	undecided encoding = iota
	identity
	gzipped
)

// gzipWriter holds the body back until MinSize bytes arrive or the handler
// returns, then commits to gzip or identity for the rest of the response.
type gzipWriter struct {
	http.ResponseWriter
	config  CompressionConfig
	route   string
	pool    *sync.Pool
	status  int
	pending []byte
	enc     encoding
	zw      *gzip.Writer
}

func newGzipWriter(w http.ResponseWriter, config CompressionConfig, route string) *gzipWriter {
	return &gzipWriter{
		ResponseWriter: w,
		config:         config,
		route:          route,
		pool:           writerPool(config.Level),
		status:         http.StatusOK,
	}
}

func (g *gzipWriter) WriteHeader(code int) {
	if g.enc == undecided {
		g.status = code
	}
}

func (g *gzipWriter) Write(p []byte) (int, error) {
	switch g.enc {
	case identity:
		return g.ResponseWriter.Write(p)
	case gzipped:
		return g.zw.Write(p)
	}

	g.pending = append(g.pending, p...)
	if len(g.pending) >= g.config.MinSize {
		if err := g.commit(); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// commit picks the encoding and writes the status and the held-back body.
func (g *gzipWriter) commit() error {
	h := g.Header()
	body := g.pending
	g.pending = nil

	if len(body) < g.config.MinSize || h.Get("Content-Encoding") != "" || !g.config.compressible(h.Get("Content-Type")) {
		g.enc = identity
		g.ResponseWriter.WriteHeader(g.status)
		if len(body) == 0 {
			return nil
		}
		_, err := g.ResponseWriter.Write(body)
		return err
	}

	g.enc = gzipped
	h.Del("Content-Length")
	h.Set("Content-Encoding", "gzip")
	h.Add("Vary", "Accept-Encoding")
	metrics.HTTPGzipResponsesTotal.WithLabelValues(g.route).Inc()

	g.zw = g.pool.Get().(*gzip.Writer)
	g.zw.Reset(g.ResponseWriter)
	g.ResponseWriter.WriteHeader(g.status)
	_, err := g.zw.Write(body)
	return err
}

// finish commits a response that never reached MinSize and returns the
// gzip writer to its pool.
func (g *gzipWriter) finish() {
	if g.enc == undecided {
		if err := g.commit(); err != nil {
			logging.Debug("Failed to write response for %s: %v", g.route, err)
		}
	}
	if g.zw == nil {
		return
	}
	if err := g.zw.Close(); err != nil {
		logging.Debug("Failed to close gzip stream for %s: %v", g.route, err)
	}
	g.pool.Put(g.zw)
	g.zw = nil
}

// Flush commits whatever is pending, so a flushed small body goes out
// uncompressed.
func (g *gzipWriter) Flush() {
	if g.enc == undecided {
		_ = g.commit()
	}
	if g.zw != nil {
		_ = g.zw.Flush()
	}
	if f, ok := g.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (g *gzipWriter) Unwrap() http.ResponseWriter {
	return g.ResponseWriter
}

// acceptsGzip reads Accept-Encoding, honoring an explicit q=0.
func acceptsGzip(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		coding, params, _ := strings.Cut(part, ";")
		coding = strings.TrimSpace(coding)
		if !strings.EqualFold(coding, "gzip") && coding != "*" {
			continue
		}
		if _, q, ok := strings.Cut(params, "q="); ok {
			if v, err := strconv.ParseFloat(strings.TrimSpace(q), 64); err == nil && v == 0 {
				return false
			}
		}
		return true
	}
	return false
}

// Compression returns a middleware that gzips API and web UI responses.
// Icons, health checks and range requests are passed through untouched.
func Compression(config CompressionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rt := classify(r.URL.Path)
			switch {
			case rt.kind == routeIcon || rt.kind == routeHealth || rt.kind == routeMetrics:
				next.ServeHTTP(w, r)
				return
			case r.Header.Get("Range") != "" || !acceptsGzip(r):
				next.ServeHTTP(w, r)
				return
			}

			gw := newGzipWriter(w, config, rt.label)
			defer gw.finish()
			next.ServeHTTP(gw, r)
		})
	}
}
