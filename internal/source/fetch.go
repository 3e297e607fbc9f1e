package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"channel-viewer/internal/metrics"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

// ErrTooLarge is returned when a playlist exceeds the configured size cap.
var ErrTooLarge = errors.New("playlist exceeds size limit")

// ErrInvalidURL is returned for locators that are not absolute http(s) URLs.
var ErrInvalidURL = errors.New("playlist URL must be an absolute http(s) URL")

// Fetcher retrieves a remote playlist document as text.
type Fetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// StatusError reports a non-2xx response from the remote server.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d fetching %s", e.StatusCode, e.URL)
}

// FetcherConfig holds the HTTP fetcher settings
type FetcherConfig struct {
	Timeout   time.Duration
	MaxBytes  int64
	UserAgent string
	// Rate is outbound requests per second, 0 for unlimited. Burst is the bucket size.
	Rate  float64
	Burst int
	Retry RetryConfig
}

// DefaultFetcherConfig returns sensible defaults for playlist fetching
func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		Timeout:   30 * time.Second,
		MaxBytes:  32 << 20,
		UserAgent: "ChannelViewer/1.0",
		Rate:      2,
		Burst:     4,
		Retry:     DefaultRetryConfig(),
	}
}

// HTTPFetcher fetches playlists over HTTP(S).
type HTTPFetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	config  FetcherConfig
}

// NewHTTPFetcher creates a fetcher. A nil client uses a client with the
// configured timeout.
func NewHTTPFetcher(config FetcherConfig, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}
	limit := rate.Inf
	if config.Rate > 0 {
		limit = rate.Limit(config.Rate)
	}
	burst := config.Burst
	if burst < 1 {
		burst = 1
	}
	return &HTTPFetcher{
		client:  client,
		limiter: rate.NewLimiter(limit, burst),
		config:  config,
	}
}

// FetchText downloads rawURL and returns its body decoded to UTF-8.
func (f *HTTPFetcher) FetchText(ctx context.Context, rawURL string) (string, error) {
	if err := validateURL(rawURL); err != nil {
		return "", err
	}

	start := time.Now()
	var body []byte
	var contentType string

	err := withRetry(ctx, rawURL, f.config.Retry, func() error {
		if err := f.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
		var err error
		body, contentType, err = f.fetchOnce(ctx, rawURL)
		return err
	})

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.PlaylistFetchDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())

	if err != nil {
		return "", err
	}
	return DecodeText(body, contentType)
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build request: %w", err)
	}
	if f.config.UserAgent != "" {
		req.Header.Set("User-Agent", f.config.UserAgent)
	}
	req.Header.Set("Accept", "audio/x-mpegurl, application/vnd.apple.mpegurl, text/plain, */*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		return nil, "", &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	if f.config.MaxBytes > 0 && resp.ContentLength > f.config.MaxBytes {
		return nil, "", fmt.Errorf("%w: %d bytes advertised", ErrTooLarge, resp.ContentLength)
	}

	body, err := readLimited(resp.Body, f.config.MaxBytes)
	if err != nil {
		return nil, "", err
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// readLimited reads r fully, failing once more than maxBytes arrive.
// maxBytes <= 0 means no limit.
func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read playlist body: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, maxBytes)
	}
	return data, nil
}

// DecodeText converts a playlist body to UTF-8 using the declared charset,
// a byte order mark, or content sniffing, and strips a leading BOM.
func DecodeText(data []byte, contentType string) (string, error) {
	// Sniffing only inspects the first 1024 bytes and falls back to
	// windows-1252, so valid UTF-8 without a declared charset is kept as is.
	if !hasDeclaredCharset(contentType) && utf8.Valid(data) {
		return strings.TrimPrefix(string(data), "\ufeff"), nil
	}

	r, err := charset.NewReader(bytes.NewReader(data), contentType)
	if err != nil {
		return "", fmt.Errorf("failed to determine playlist encoding: %w", err)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to decode playlist: %w", err)
	}
	return strings.TrimPrefix(string(decoded), "\ufeff"), nil
}

func hasDeclaredCharset(contentType string) bool {
	if contentType == "" {
		return false
	}
	_, params, err := mime.ParseMediaType(contentType)
	return err == nil && params["charset"] != ""
}

func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	return nil
}
